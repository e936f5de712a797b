package device

import (
	"errors"
	"os"
	"testing"

	"github.com/dshills/evscript/internal/event"
)

// pipeDevice returns a Device reading from a pipe and the pipe's write end.
func pipeDevice(t *testing.T, name string) (*Device, *os.File) {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe() error = %v", err)
	}
	dev, err := New(r, name)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		dev.Close()
		w.Close()
	})
	return dev, w
}

func writeEvents(t *testing.T, w *os.File, evts ...event.InputEvent) {
	t.Helper()
	for _, e := range evts {
		b, err := e.Raw().MarshalBinary()
		if err != nil {
			t.Fatalf("MarshalBinary() error = %v", err)
		}
		if _, err := w.Write(b); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}
}

func TestDeviceName(t *testing.T) {
	dev, _ := pipeDevice(t, "AT Translated Set 2 keyboard")
	if dev.Name() != "AT Translated Set 2 keyboard" {
		t.Errorf("Name() = %q", dev.Name())
	}
	if dev.Fd() < 0 {
		t.Errorf("Fd() = %d, want valid descriptor", dev.Fd())
	}
}

func TestDeviceDrainEmpty(t *testing.T) {
	dev, _ := pipeDevice(t, "kbd")

	evts, err := dev.Drain()
	if err != nil {
		t.Fatalf("Drain() error = %v", err)
	}
	if len(evts) != 0 {
		t.Errorf("Drain() = %v, want nothing", evts)
	}
}

func TestDeviceDrainAll(t *testing.T) {
	dev, w := pipeDevice(t, "kbd")
	want := []event.InputEvent{
		{Kind: 4, Code: 4, Value: 458756},
		{Kind: 1, Code: 30, Value: 1},
		{Kind: 0, Code: 0, Value: 0},
	}
	writeEvents(t, w, want...)

	got, err := dev.Drain()
	if err != nil {
		t.Fatalf("Drain() error = %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("Drain() returned %d events, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %v, want %v", i, got[i], want[i])
		}
	}

	// Queue is now empty.
	got, err = dev.Drain()
	if err != nil {
		t.Fatalf("second Drain() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("second Drain() = %v, want nothing", got)
	}
}

func TestDeviceDrainPartialEvent(t *testing.T) {
	dev, w := pipeDevice(t, "kbd")
	b, _ := event.InputEvent{Kind: 1, Code: 30, Value: 1}.Raw().MarshalBinary()

	w.Write(b[:5])
	got, err := dev.Drain()
	if err != nil {
		t.Fatalf("Drain() error = %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("Drain() with half an event = %v, want nothing", got)
	}

	w.Write(b[5:])
	got, err = dev.Drain()
	if err != nil {
		t.Fatalf("Drain() error = %v", err)
	}
	if len(got) != 1 || got[0].Code != 30 {
		t.Errorf("Drain() = %v, want the completed event", got)
	}
}

func TestDeviceDrainAfterHangup(t *testing.T) {
	dev, w := pipeDevice(t, "kbd")
	w.Close()

	_, err := dev.Drain()
	if !errors.Is(err, ErrDeviceGone) {
		t.Errorf("Drain() error = %v, want ErrDeviceGone", err)
	}
}

func TestDeviceClosed(t *testing.T) {
	dev, _ := pipeDevice(t, "kbd")
	if err := dev.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := dev.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if _, err := dev.Drain(); !errors.Is(err, ErrClosed) {
		t.Errorf("Drain() after Close error = %v, want ErrClosed", err)
	}
}

func TestOpenMissing(t *testing.T) {
	_, err := Open("/nonexistent/event99")
	if err == nil {
		t.Error("Open() of a missing path should fail")
	}
}

func TestOpenNotEvdev(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "event")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()

	if _, err := Open(f.Name()); err == nil {
		t.Error("Open() of a regular file should fail EVIOCGNAME")
	}
}

func TestEviocgname(t *testing.T) {
	// EVIOCGNAME(256) on Linux.
	if got := eviocgname(256); got != 0x81004506 {
		t.Errorf("eviocgname(256) = %#x, want 0x81004506", got)
	}
}
