package privilege

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// System is the set of OS operations the reduction performs.
type System interface {
	Geteuid() int
	Getuid() int
	Getgid() int
	Setgroups(gids []int) error
	Setgid(gid int) error
	Chdir(dir string) error
	Chroot(dir string) error
	Setuid(uid int) error
	EnterSandbox() error
}

// Linux returns the real system. Identity changes apply to every thread of
// the process.
func Linux() System {
	return linuxSystem{}
}

type linuxSystem struct{}

func (linuxSystem) Geteuid() int { return unix.Geteuid() }
func (linuxSystem) Getuid() int { return unix.Getuid() }
func (linuxSystem) Getgid() int { return unix.Getgid() }
// Setgroups goes through package syscall, which applies it to every thread.
// unix.Setgroups only changes the calling thread.
func (linuxSystem) Setgroups(gids []int) error { return syscall.Setgroups(gids) }

func (linuxSystem) Setgid(gid int) error { return unix.Setgid(gid) }
func (linuxSystem) Chdir(dir string) error { return unix.Chdir(dir) }
func (linuxSystem) Chroot(dir string) error { return unix.Chroot(dir) }
func (linuxSystem) Setuid(uid int) error { return unix.Setuid(uid) }
func (linuxSystem) EnterSandbox() error { return LoadSandbox() }
