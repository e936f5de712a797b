package privilege

import (
	"go.uber.org/zap"
)

// DefaultRootDir is the directory the process is confined to. It holds only
// device nodes: no shell, no interpreters, nothing writable besides devices.
const DefaultRootDir = "/dev/input"

// Reducer performs the privilege reduction exactly once.
type Reducer struct {
	sys     System
	rootDir string
	log     *zap.SugaredLogger

	stage Stage
	ran   bool
}

// Option configures a Reducer.
type Option func(*Reducer)

// WithRootDir sets the directory the filesystem root is confined to.
func WithRootDir(dir string) Option {
	return func(r *Reducer) {
		r.rootDir = dir
	}
}

// WithLogger sets the logger used to report each transition.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(r *Reducer) {
		r.log = log
	}
}

// NewReducer creates a reducer over sys.
func NewReducer(sys System, opts ...Option) *Reducer {
	r := &Reducer{
		sys:     sys,
		rootDir: DefaultRootDir,
		log:     zap.NewNop().Sugar(),
		stage:   StagePrivileged,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Stage returns the last stage reached.
func (r *Reducer) Stage() Stage {
	return r.stage
}

type op struct {
	name string
	fn   func() error
}

type transition struct {
	to  Stage
	ops []op
}

// Reduce runs the reduction sequence. It may be called once; any error
// leaves the reducer at the last stage reached and must end the process.
func (r *Reducer) Reduce() error {
	if r.ran {
		return ErrAlreadyReduced
	}
	r.ran = true

	for _, t := range r.plan() {
		if err := r.advance(t); err != nil {
			return err
		}
	}
	return nil
}

// plan returns the transitions for the current identity. Without an
// elevated identity only the sandbox transition remains.
func (r *Reducer) plan() []transition {
	sandbox := transition{StageSandboxed, []op{{"seccomp", r.sys.EnterSandbox}}}

	if r.sys.Geteuid() != 0 {
		r.log.Debugw("not running with elevated identity, skipping identity drop")
		return []transition{sandbox}
	}

	uid, gid := r.sys.Getuid(), r.sys.Getgid()
	if uid == 0 {
		r.log.Warnw("real uid is root, identity drop keeps uid 0")
	}
	dir := r.rootDir

	return []transition{
		{StageGroupDropped, []op{
			{"setgroups", func() error { return r.sys.Setgroups([]int{}) }},
			{"setgid", func() error { return r.sys.Setgid(gid) }},
		}},
		{StageRootConfined, []op{
			{"chdir", func() error { return r.sys.Chdir(dir) }},
			{"chroot", func() error { return r.sys.Chroot(dir) }},
		}},
		{StageIdentityDropped, []op{
			{"setuid", func() error { return r.sys.Setuid(uid) }},
		}},
		sandbox,
	}
}

func (r *Reducer) advance(t transition) error {
	for _, o := range t.ops {
		if err := o.fn(); err != nil {
			return &StageError{Stage: t.to, Op: o.name, Err: err}
		}
	}
	r.stage = t.to
	r.log.Debugw("privilege stage reached", "stage", t.to.String())
	return nil
}
