package device

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
	"golang.org/x/sys/unix"

	"github.com/dshills/evscript/internal/event"
)

const hangup = unix.POLLERR | unix.POLLHUP | unix.POLLNVAL

// Set is an ordered, fixed collection of devices. Order is significant:
// it decides which device wins when several are ready at once.
type Set []*Device

// Close closes every device, reporting all failures.
func (s Set) Close() error {
	var err error
	for _, d := range s {
		err = multierr.Append(err, d.Close())
	}
	return err
}

// Next blocks without a timeout until at least one device has buffered
// events, then drains the lowest-index ready device and returns its batch.
// Other ready devices are left for the next call. The returned batch is
// never empty.
func Next(devs []*Device) (event.Batch, error) {
	if len(devs) == 0 {
		return nil, ErrNoDevices
	}

	pfds := make([]unix.PollFd, len(devs))
	for i, d := range devs {
		if d == nil || d.closed {
			return nil, fmt.Errorf("device %d: %w", i, ErrClosed)
		}
		pfds[i] = unix.PollFd{Fd: int32(d.Fd()), Events: unix.POLLIN}
	}

	for {
		for i := range pfds {
			pfds[i].Revents = 0
		}

		if _, err := unix.Poll(pfds, -1); err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return nil, fmt.Errorf("poll: %w", err)
		}

		i, err := firstReady(devs, pfds)
		if err != nil {
			return nil, err
		}
		if i < 0 {
			continue
		}

		evts, err := devs[i].Drain()
		if err != nil {
			return nil, err
		}
		if len(evts) > 0 {
			return event.Batch(evts), nil
		}
	}
}

// firstReady returns the index of the first readable device, or -1 when
// none is. A device that hung up before any readable one is an error.
func firstReady(devs []*Device, pfds []unix.PollFd) (int, error) {
	for i, pfd := range pfds {
		if pfd.Revents&unix.POLLIN != 0 {
			return i, nil
		}
		if pfd.Revents&hangup != 0 {
			return -1, fmt.Errorf("%w: %s", ErrDeviceGone, devs[i].Name())
		}
	}
	return -1, nil
}
