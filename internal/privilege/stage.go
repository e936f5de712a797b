package privilege

// Stage is a point in the privilege reduction sequence.
type Stage int

// Reduction stages, in the only order they may be reached.
const (
	// StagePrivileged - nothing has been given up yet.
	StagePrivileged Stage = iota

	// StageGroupDropped - supplementary groups cleared, gid set to the real gid.
	StageGroupDropped

	// StageRootConfined - filesystem root moved to the device directory.
	StageRootConfined

	// StageIdentityDropped - uid set to the real uid.
	StageIdentityDropped

	// StageSandboxed - syscall filter installed.
	StageSandboxed
)

// String returns a string representation of the stage.
func (s Stage) String() string {
	switch s {
	case StagePrivileged:
		return "privileged"
	case StageGroupDropped:
		return "group-dropped"
	case StageRootConfined:
		return "root-confined"
	case StageIdentityDropped:
		return "identity-dropped"
	case StageSandboxed:
		return "sandboxed"
	default:
		return "unknown"
	}
}
