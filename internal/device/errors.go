package device

import "errors"

// Errors returned by device operations.
var (
	// ErrNoDevices is returned when waiting on an empty device set.
	ErrNoDevices = errors.New("no input devices")

	// ErrDeviceGone is returned when a device hangs up or reports an error.
	ErrDeviceGone = errors.New("input device is gone")

	// ErrClosed is returned when using a closed device.
	ErrClosed = errors.New("input device is closed")
)
