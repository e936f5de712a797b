package device

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/dshills/evscript/internal/event"
)

// readChunk is how many native events one read(2) asks for.
const readChunk = 64

// Device is an open evdev input device.
//
// A Device is not safe for concurrent use. It is owned by a single goroutine
// for its whole lifetime.
type Device struct {
	fd      int
	name    string
	file    *os.File // set when wrapping an existing *os.File
	buf     []byte
	pending []byte
	closed  bool
}

// Open opens the evdev node at path for non-blocking reads and reads its
// name. The descriptor stays valid after the process drops privileges.
func Open(path string) (*Device, error) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, &os.PathError{Op: "open", Path: path, Err: err}
	}

	name, err := readName(fd)
	if err != nil {
		_ = unix.Close(fd)
		return nil, &os.PathError{Op: "EVIOCGNAME", Path: path, Err: err}
	}

	return &Device{
		fd:   fd,
		name: name,
		buf:  make([]byte, readChunk*event.RawSize),
	}, nil
}

// New wraps an already-open event stream. The stream is switched to
// non-blocking mode and the Device takes ownership of f.
func New(f *os.File, name string) (*Device, error) {
	fd := int(f.Fd())
	if err := unix.SetNonblock(fd, true); err != nil {
		return nil, fmt.Errorf("set non-blocking %s: %w", f.Name(), err)
	}
	return &Device{
		fd:   fd,
		name: name,
		file: f,
		buf:  make([]byte, readChunk*event.RawSize),
	}, nil
}

// Name returns the name the kernel reported for the device.
func (d *Device) Name() string {
	return d.name
}

// Fd returns the readiness-pollable descriptor.
func (d *Device) Fd() int {
	return d.fd
}

// Drain reads every event currently buffered by the kernel. It never
// blocks; an empty result means nothing was pending.
func (d *Device) Drain() ([]event.InputEvent, error) {
	if d.closed {
		return nil, ErrClosed
	}

	var out []event.InputEvent
	for {
		n, err := unix.Read(d.fd, d.buf)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			if errors.Is(err, unix.EAGAIN) {
				break
			}
			if errors.Is(err, unix.ENODEV) {
				return nil, fmt.Errorf("%w: %s", ErrDeviceGone, d.name)
			}
			return nil, fmt.Errorf("read %s: %w", d.name, err)
		}
		if n == 0 {
			return nil, fmt.Errorf("%w: %s: end of stream", ErrDeviceGone, d.name)
		}

		d.pending = append(d.pending, d.buf[:n]...)
		whole := len(d.pending) - len(d.pending)%event.RawSize
		raws, err := event.DecodeRaw(d.pending[:whole])
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", d.name, err)
		}
		d.pending = append(d.pending[:0], d.pending[whole:]...)

		for _, r := range raws {
			out = append(out, event.FromRaw(r))
		}
	}
	return out, nil
}

// Close releases the descriptor.
func (d *Device) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	if d.file != nil {
		return d.file.Close()
	}
	return unix.Close(d.fd)
}
