package privilege

import (
	"errors"
	"reflect"
	"testing"
)

// fakeSystem records every call and can fail a named operation.
type fakeSystem struct {
	euid, uid, gid int
	failOn         string
	calls          []string
}

func (f *fakeSystem) record(name string) error {
	f.calls = append(f.calls, name)
	if name == f.failOn {
		return errors.New(name + " failed")
	}
	return nil
}

func (f *fakeSystem) Geteuid() int { return f.euid }
func (f *fakeSystem) Getuid() int { return f.uid }
func (f *fakeSystem) Getgid() int { return f.gid }

func (f *fakeSystem) Setgroups(gids []int) error {
	if len(gids) != 0 {
		return errors.New("setgroups: expected empty list")
	}
	return f.record("setgroups")
}

func (f *fakeSystem) Setgid(gid int) error {
	if gid != f.gid {
		return errors.New("setgid: expected real gid")
	}
	return f.record("setgid")
}

func (f *fakeSystem) Chdir(dir string) error { return f.record("chdir:" + dir) }
func (f *fakeSystem) Chroot(dir string) error { return f.record("chroot:" + dir) }

func (f *fakeSystem) Setuid(uid int) error {
	if uid != f.uid {
		return errors.New("setuid: expected real uid")
	}
	return f.record("setuid")
}

func (f *fakeSystem) EnterSandbox() error { return f.record("sandbox") }

func TestReduceElevatedOrder(t *testing.T) {
	sys := &fakeSystem{euid: 0, uid: 1000, gid: 1000}
	r := NewReducer(sys)

	if err := r.Reduce(); err != nil {
		t.Fatalf("Reduce() error = %v", err)
	}

	want := []string{"setgroups", "setgid", "chdir:/dev/input", "chroot:/dev/input", "setuid", "sandbox"}
	if !reflect.DeepEqual(sys.calls, want) {
		t.Errorf("calls = %v, want %v", sys.calls, want)
	}
	if r.Stage() != StageSandboxed {
		t.Errorf("Stage() = %v, want %v", r.Stage(), StageSandboxed)
	}
}

func TestReduceUnprivilegedStillSandboxes(t *testing.T) {
	sys := &fakeSystem{euid: 1000, uid: 1000, gid: 1000}
	r := NewReducer(sys)

	if err := r.Reduce(); err != nil {
		t.Fatalf("Reduce() error = %v", err)
	}
	if !reflect.DeepEqual(sys.calls, []string{"sandbox"}) {
		t.Errorf("calls = %v, want [sandbox]", sys.calls)
	}
	if r.Stage() != StageSandboxed {
		t.Errorf("Stage() = %v, want %v", r.Stage(), StageSandboxed)
	}
}

func TestReduceCustomRootDir(t *testing.T) {
	sys := &fakeSystem{euid: 0, uid: 1000, gid: 100}
	r := NewReducer(sys, WithRootDir("/var/empty/evscript"))

	if err := r.Reduce(); err != nil {
		t.Fatalf("Reduce() error = %v", err)
	}
	if sys.calls[2] != "chdir:/var/empty/evscript" || sys.calls[3] != "chroot:/var/empty/evscript" {
		t.Errorf("calls = %v", sys.calls)
	}
}

func TestReduceStopsAtFailure(t *testing.T) {
	tests := []struct {
		failOn    string
		wantStage Stage
		wantErrAt Stage
		wantCalls []string
	}{
		{
			failOn:    "setgroups",
			wantStage: StagePrivileged,
			wantErrAt: StageGroupDropped,
			wantCalls: []string{"setgroups"},
		},
		{
			failOn:    "setgid",
			wantStage: StagePrivileged,
			wantErrAt: StageGroupDropped,
			wantCalls: []string{"setgroups", "setgid"},
		},
		{
			failOn:    "chroot:/dev/input",
			wantStage: StageGroupDropped,
			wantErrAt: StageRootConfined,
			wantCalls: []string{"setgroups", "setgid", "chdir:/dev/input", "chroot:/dev/input"},
		},
		{
			failOn:    "setuid",
			wantStage: StageRootConfined,
			wantErrAt: StageIdentityDropped,
			wantCalls: []string{"setgroups", "setgid", "chdir:/dev/input", "chroot:/dev/input", "setuid"},
		},
		{
			failOn:    "sandbox",
			wantStage: StageIdentityDropped,
			wantErrAt: StageSandboxed,
			wantCalls: []string{"setgroups", "setgid", "chdir:/dev/input", "chroot:/dev/input", "setuid", "sandbox"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.failOn, func(t *testing.T) {
			sys := &fakeSystem{euid: 0, uid: 1000, gid: 1000, failOn: tt.failOn}
			r := NewReducer(sys)

			err := r.Reduce()
			var stageErr *StageError
			if !errors.As(err, &stageErr) {
				t.Fatalf("Reduce() error = %v, want *StageError", err)
			}
			if stageErr.Stage != tt.wantErrAt {
				t.Errorf("StageError.Stage = %v, want %v", stageErr.Stage, tt.wantErrAt)
			}
			if r.Stage() != tt.wantStage {
				t.Errorf("Stage() = %v, want %v", r.Stage(), tt.wantStage)
			}
			if !reflect.DeepEqual(sys.calls, tt.wantCalls) {
				t.Errorf("calls = %v, want %v", sys.calls, tt.wantCalls)
			}
		})
	}
}

func TestReduceConfinementFailureKeepsIdentity(t *testing.T) {
	sys := &fakeSystem{euid: 0, uid: 1000, gid: 1000, failOn: "chdir:/dev/input"}
	r := NewReducer(sys)

	if err := r.Reduce(); err == nil {
		t.Fatal("Reduce() error = nil, want failure")
	}
	for _, c := range sys.calls {
		if c == "setuid" || c == "sandbox" {
			t.Errorf("%s ran after confinement failed: %v", c, sys.calls)
		}
	}
}

func TestReduceOnlyOnce(t *testing.T) {
	sys := &fakeSystem{euid: 1000, uid: 1000, gid: 1000}
	r := NewReducer(sys)

	if err := r.Reduce(); err != nil {
		t.Fatalf("Reduce() error = %v", err)
	}
	if err := r.Reduce(); !errors.Is(err, ErrAlreadyReduced) {
		t.Errorf("second Reduce() error = %v, want ErrAlreadyReduced", err)
	}
	if len(sys.calls) != 1 {
		t.Errorf("calls = %v, want sandbox entered once", sys.calls)
	}
}

func TestReduceFailedCannotRetry(t *testing.T) {
	sys := &fakeSystem{euid: 0, uid: 1000, gid: 1000, failOn: "setgid"}
	r := NewReducer(sys)

	_ = r.Reduce()
	if err := r.Reduce(); !errors.Is(err, ErrAlreadyReduced) {
		t.Errorf("Reduce() after failure error = %v, want ErrAlreadyReduced", err)
	}
}

func TestStageErrorUnwrap(t *testing.T) {
	cause := errors.New("EPERM")
	err := &StageError{Stage: StageRootConfined, Op: "chroot", Err: cause}

	if !errors.Is(err, cause) {
		t.Error("errors.Is(StageError, cause) = false")
	}
	want := "privilege reduction: root-confined: chroot: EPERM"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestStageString(t *testing.T) {
	tests := []struct {
		stage Stage
		want  string
	}{
		{StagePrivileged, "privileged"},
		{StageGroupDropped, "group-dropped"},
		{StageRootConfined, "root-confined"},
		{StageIdentityDropped, "identity-dropped"},
		{StageSandboxed, "sandboxed"},
		{Stage(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.stage.String(); got != tt.want {
			t.Errorf("Stage(%d).String() = %q, want %q", tt.stage, got, tt.want)
		}
	}
}
