package device

import (
	"errors"
	"testing"
	"time"

	"github.com/dshills/evscript/internal/event"
)

func TestNextEmpty(t *testing.T) {
	if _, err := Next(nil); !errors.Is(err, ErrNoDevices) {
		t.Errorf("Next(nil) error = %v, want ErrNoDevices", err)
	}
}

func TestNextSingleDevice(t *testing.T) {
	dev, w := pipeDevice(t, "kbd")
	writeEvents(t, w,
		event.InputEvent{Kind: 1, Code: 30, Value: 1},
		event.InputEvent{Kind: 0, Code: 0, Value: 0},
	)

	batch, err := Next([]*Device{dev})
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if len(batch) != 2 {
		t.Fatalf("Next() returned %d events, want 2", len(batch))
	}
	if batch[0] != (event.InputEvent{Kind: 1, Code: 30, Value: 1}) {
		t.Errorf("batch[0] = %v", batch[0])
	}
}

func TestNextLowestIndexWins(t *testing.T) {
	a, wa := pipeDevice(t, "a")
	b, _ := pipeDevice(t, "b")
	c, wc := pipeDevice(t, "c")
	set := Set{a, b, c}

	writeEvents(t, wc, event.InputEvent{Kind: 1, Code: 2, Value: 1})
	writeEvents(t, wa, event.InputEvent{Kind: 1, Code: 1, Value: 1})

	for round, wantCode := range []uint32{1, 2} {
		batch, err := Next(set)
		if err != nil {
			t.Fatalf("round %d: Next() error = %v", round, err)
		}
		if len(batch) != 1 || batch[0].Code != wantCode {
			t.Errorf("round %d: Next() = %v, want one event with code %d", round, batch, wantCode)
		}
	}
}

func TestNextDrainsOnlyOneDevice(t *testing.T) {
	a, wa := pipeDevice(t, "a")
	b, wb := pipeDevice(t, "b")

	writeEvents(t, wa,
		event.InputEvent{Kind: 1, Code: 10, Value: 1},
		event.InputEvent{Kind: 1, Code: 11, Value: 1},
	)
	writeEvents(t, wb, event.InputEvent{Kind: 1, Code: 20, Value: 1})

	batch, err := Next([]*Device{a, b})
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	for _, e := range batch {
		if e.Code >= 20 {
			t.Errorf("batch mixes devices: %v", batch)
		}
	}
	if len(batch) != 2 {
		t.Errorf("batch = %v, want both events from a", batch)
	}
}

func TestNextBlocksUntilReady(t *testing.T) {
	a, wa := pipeDevice(t, "a")
	b, _ := pipeDevice(t, "b")
	set := Set{a, b}

	writeEvents(t, wa, event.InputEvent{Kind: 1, Code: 30, Value: 1})
	batch, err := Next(set)
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if len(batch) != 1 {
		t.Fatalf("Next() = %v, want a single event", batch)
	}

	type result struct {
		batch event.Batch
		err   error
	}
	done := make(chan result, 1)
	go func() {
		batch, err := Next(set)
		done <- result{batch, err}
	}()

	select {
	case r := <-done:
		t.Fatalf("Next() returned %v, %v while no device was ready", r.batch, r.err)
	case <-time.After(100 * time.Millisecond):
	}

	writeEvents(t, wa, event.InputEvent{Kind: 1, Code: 30, Value: 0})
	select {
	case r := <-done:
		if r.err != nil {
			t.Fatalf("Next() error = %v", r.err)
		}
		if len(r.batch) != 1 || r.batch[0].Value != 0 {
			t.Errorf("Next() = %v, want the release event", r.batch)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Next() did not return after device became ready")
	}
}

func TestNextDeviceGone(t *testing.T) {
	a, wa := pipeDevice(t, "a")
	b, _ := pipeDevice(t, "b")
	wa.Close()

	_, err := Next([]*Device{a, b})
	if !errors.Is(err, ErrDeviceGone) {
		t.Errorf("Next() error = %v, want ErrDeviceGone", err)
	}
}

func TestNextClosedDevice(t *testing.T) {
	a, _ := pipeDevice(t, "a")
	a.Close()

	if _, err := Next([]*Device{a}); !errors.Is(err, ErrClosed) {
		t.Errorf("Next() error = %v, want ErrClosed", err)
	}
}

func TestSetClose(t *testing.T) {
	a, _ := pipeDevice(t, "a")
	b, _ := pipeDevice(t, "b")

	if err := (Set{a, b}).Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if !a.closed || !b.closed {
		t.Error("Close() left devices open")
	}
}
