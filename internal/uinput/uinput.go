// Package uinput creates the synthetic output device scripts write to.
package uinput

import (
	"errors"
	"fmt"
	"io"
	"unsafe"

	evdev "github.com/holoplot/go-evdev"
	"golang.org/x/sys/unix"

	"github.com/dshills/evscript/internal/event"
)

// DefaultPath is the uinput control node.
const DefaultPath = "/dev/uinput"

// MaxNameSize is UINPUT_MAX_NAME_SIZE, including the terminating NUL.
const MaxNameSize = 80

// KeyMaskSize is the number of key codes, starting at 0, the device
// declares. The mask is fixed for the lifetime of the device.
const KeyMaskSize = 255

// BusVirtual is BUS_VIRTUAL from linux/input.h.
const BusVirtual = 0x06

const (
	uiDevCreate  = 0x5501
	uiDevDestroy = 0x5502
	uiDevSetup   = 0x405c5503
	uiSetEvBit   = 0x40045564
	uiSetKeyBit  = 0x40045565
)

// ErrShortWrite is returned when the kernel accepts only part of an event.
var ErrShortWrite = errors.New("short write to uinput device")

// Config is the identity the output device presents to the system.
type Config struct {
	Name    string
	BusType uint16
	Vendor  uint16
	Product uint16
	Version uint16
}

// DefaultConfig returns the identity used when none is configured.
func DefaultConfig() Config {
	return Config{
		Name:    "Devicey McDeviceFace",
		BusType: BusVirtual,
		Vendor:  69,
	}
}

// Validate checks that the identity fits the kernel's setup structure.
func (c Config) Validate() error {
	if c.Name == "" {
		return errors.New("uinput: empty device name")
	}
	if len(c.Name) >= MaxNameSize {
		return fmt.Errorf("uinput: device name longer than %d bytes", MaxNameSize-1)
	}
	return nil
}

type inputID struct {
	BusType uint16
	Vendor  uint16
	Product uint16
	Version uint16
}

// setup mirrors struct uinput_setup.
type setup struct {
	ID           inputID
	Name         [MaxNameSize]byte
	FFEffectsMax uint32
}

func (c Config) setup() setup {
	s := setup{
		ID: inputID{
			BusType: c.BusType,
			Vendor:  c.Vendor,
			Product: c.Product,
			Version: c.Version,
		},
	}
	copy(s.Name[:MaxNameSize-1], c.Name)
	return s
}

// Device is a created uinput device.
type Device struct {
	out     io.Writer
	closeFn func() error
	closed  bool
}

// New wraps a stream that already accepts native events.
func New(w io.WriteCloser) *Device {
	return &Device{out: w, closeFn: w.Close}
}

// Create opens the uinput node at path, declares the fixed key mask and the
// identity in cfg, and creates the device.
func Create(path string, cfg Config) (*Device, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	fd, err := unix.Open(path, unix.O_WRONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	if err := configure(fd, cfg); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("configure %s: %w", path, err)
	}

	return &Device{
		out: fdWriter(fd),
		closeFn: func() error {
			_ = ioctl(fd, uiDevDestroy, 0)
			return unix.Close(fd)
		},
	}, nil
}

func configure(fd int, cfg Config) error {
	if err := ioctl(fd, uiSetEvBit, uintptr(evdev.EV_KEY)); err != nil {
		return fmt.Errorf("UI_SET_EVBIT: %w", err)
	}
	for code := 0; code < KeyMaskSize; code++ {
		if err := ioctl(fd, uiSetKeyBit, uintptr(code)); err != nil {
			return fmt.Errorf("UI_SET_KEYBIT %d: %w", code, err)
		}
	}

	s := cfg.setup()
	if err := ioctl(fd, uiDevSetup, uintptr(unsafe.Pointer(&s))); err != nil {
		return fmt.Errorf("UI_DEV_SETUP: %w", err)
	}
	if err := ioctl(fd, uiDevCreate, 0); err != nil {
		return fmt.Errorf("UI_DEV_CREATE: %w", err)
	}
	return nil
}

func ioctl(fd int, req, arg uintptr) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), req, arg)
	if errno != 0 {
		return errno
	}
	return nil
}

// WriteEvent injects one native event.
func (d *Device) WriteEvent(r event.Raw) error {
	if d.closed {
		return errors.New("uinput: device is closed")
	}
	b, err := r.MarshalBinary()
	if err != nil {
		return err
	}
	n, err := d.out.Write(b)
	if err != nil {
		return fmt.Errorf("uinput write: %w", err)
	}
	if n != len(b) {
		return ErrShortWrite
	}
	return nil
}

// Close destroys the device.
func (d *Device) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	return d.closeFn()
}

type fdWriter int

func (w fdWriter) Write(p []byte) (int, error) {
	for {
		n, err := unix.Write(int(w), p)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		return n, err
	}
}
