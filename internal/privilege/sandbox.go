package privilege

import (
	"fmt"

	seccomp "github.com/elastic/go-seccomp-bpf"
	"github.com/elastic/go-seccomp-bpf/arch"
)

// deniedSyscalls fail with EPERM once the sandbox is installed. Everything
// else stays allowed: the Go runtime needs threads, memory, signals and
// futexes, and the bridge needs read, write, poll and ioctl on descriptors it
// already holds. Names the running architecture does not have are skipped.
var deniedSyscalls = []string{
	// program execution
	"execve", "execveat", "fork", "vfork",
	// networking
	"socket", "socketpair", "socketcall", "connect", "bind", "listen",
	"accept", "accept4",
	// opening files
	"open", "openat", "openat2", "creat", "open_by_handle_at",
	"name_to_handle_at", "memfd_create",
	// asynchronous submission paths that bypass this filter
	"io_uring_setup", "io_uring_enter", "io_uring_register",
	// changing files
	"mkdir", "mkdirat", "mknod", "mknodat", "rmdir", "unlink", "unlinkat",
	"rename", "renameat", "renameat2", "link", "linkat", "symlink",
	"symlinkat", "chmod", "fchmod", "fchmodat", "fchmodat2", "chown",
	"chown32", "fchown", "fchown32", "lchown", "lchown32", "fchownat",
	"truncate", "truncate64", "ftruncate", "ftruncate64", "fallocate",
	"utime", "utimes", "utimensat", "futimesat",
	"setxattr", "lsetxattr", "fsetxattr", "removexattr", "lremovexattr",
	"fremovexattr",
	// mounts and root changes
	"mount", "umount", "umount2", "pivot_root", "chroot", "chdir", "fchdir",
	"fsopen", "fsconfig", "fsmount", "fspick", "move_mount", "open_tree",
	"mount_setattr",
	// identity changes
	"setuid", "setuid32", "setgid", "setgid32", "setreuid", "setreuid32",
	"setregid", "setregid32", "setresuid", "setresuid32", "setresgid",
	"setresgid32", "setgroups", "setgroups32", "setfsuid", "setfsuid32",
	"setfsgid", "setfsgid32", "capset",
	// introspection of other processes
	"ptrace", "process_vm_readv", "process_vm_writev", "process_madvise",
	"kcmp", "pidfd_open", "pidfd_getfd", "userfaultfd",
	// kernel surface
	"init_module", "finit_module", "delete_module", "kexec_load",
	"kexec_file_load", "bpf", "perf_event_open", "add_key", "request_key",
	"keyctl", "unshare", "setns", "reboot", "swapon", "swapoff", "acct",
}

// Policy returns the syscall filter for the running architecture.
func Policy() (seccomp.Policy, error) {
	info, err := arch.GetInfo("")
	if err != nil {
		return seccomp.Policy{}, fmt.Errorf("seccomp policy: %w", err)
	}

	names := make([]string, 0, len(deniedSyscalls))
	for _, name := range deniedSyscalls {
		if _, ok := info.SyscallNames[name]; ok {
			names = append(names, name)
		}
	}

	return seccomp.Policy{
		DefaultAction: seccomp.ActionAllow,
		Syscalls: []seccomp.SyscallGroup{
			{
				Action: seccomp.ActionErrno,
				Names:  names,
			},
		},
	}, nil
}

// LoadSandbox sets no_new_privs and installs Policy on every thread of the
// process. It cannot be undone.
func LoadSandbox() error {
	policy, err := Policy()
	if err != nil {
		return err
	}
	return seccomp.LoadFilter(seccomp.Filter{
		NoNewPrivs: true,
		Flag:       seccomp.FilterFlagTSync,
		Policy:     policy,
	})
}
