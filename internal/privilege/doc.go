// Package privilege runs the one-shot privilege reduction that precedes any
// script code.
//
// The reduction is a fixed sequence of stages:
//
//	Privileged -> GroupDropped -> RootConfined -> IdentityDropped -> Sandboxed
//
// The first three transitions only happen when the process runs with an
// effective uid of 0; the sandbox is always entered. Every transition is a
// single fallible step with no rollback. A failed step stops the sequence
// where it is and the caller must terminate the process.
//
//	r := privilege.NewReducer(privilege.Linux(), privilege.WithRootDir("/dev/input"))
//	if err := r.Reduce(); err != nil {
//	    log.Fatal(err)
//	}
//
// All devices must be opened before Reduce: descriptors survive the drop,
// paths do not.
package privilege
