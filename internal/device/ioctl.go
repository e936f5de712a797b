package device

import (
	"bytes"
	"unsafe"

	"golang.org/x/sys/unix"
)

// ioctl request encoding (Linux _IOC macro)
const (
	iocNRBits   = 8
	iocTypeBits = 8
	iocSizeBits = 14

	iocNRShift   = 0
	iocTypeShift = iocNRShift + iocNRBits
	iocSizeShift = iocTypeShift + iocTypeBits
	iocDirShift  = iocSizeShift + iocSizeBits

	iocRead = 2
)

const maxNameLen = 256

func ioc(dir, typ, nr, size uint32) uintptr {
	return uintptr((dir << iocDirShift) | (typ << iocTypeShift) | (nr << iocNRShift) | (size << iocSizeShift))
}

// eviocgname is EVIOCGNAME(len) = _IOC(_IOC_READ, 'E', 0x06, len).
func eviocgname(length uint32) uintptr {
	return ioc(iocRead, uint32('E'), 0x06, length)
}

func readName(fd int) (string, error) {
	var buf [maxNameLen]byte
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), eviocgname(maxNameLen), uintptr(unsafe.Pointer(&buf[0])))
	if errno != 0 {
		return "", errno
	}
	if i := bytes.IndexByte(buf[:], 0); i >= 0 {
		return string(buf[:i]), nil
	}
	return string(buf[:]), nil
}
