// Package output relays script-built events to the synthetic output device.
package output

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/dshills/evscript/internal/event"
)

// Record field names.
const (
	FieldKind  = "kind"
	FieldCode  = "code"
	FieldValue = "value"
)

// Writer accepts native events. *uinput.Device implements it.
type Writer interface {
	WriteEvent(event.Raw) error
}

// Stats counts relay outcomes.
type Stats struct {
	Emitted  uint64
	Rejected uint64
}

// Relay validates records and injects them into the output device.
// It is owned by one goroutine.
type Relay struct {
	out   Writer
	log   *zap.SugaredLogger
	stats Stats
}

// NewRelay creates a relay writing to out. A nil logger discards warnings.
func NewRelay(out Writer, log *zap.SugaredLogger) *Relay {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Relay{out: out, log: log}
}

// Emit writes rec to the output device. rec must be a map with numeric
// kind, code and value fields. A malformed record is logged, counted and
// reported as false; it is never written. The returned error is set only
// when the device itself fails, which callers treat as fatal.
func (r *Relay) Emit(rec any) (bool, error) {
	evt, reason := parseRecord(rec)
	if reason != "" {
		r.stats.Rejected++
		r.log.Warnw("emit: rejected malformed event", "event", rec, "reason", reason)
		return false, nil
	}
	if err := r.EmitEvent(evt); err != nil {
		return false, err
	}
	return true, nil
}

// EmitEvent writes an already-typed event, narrowing it to the native
// encoding.
func (r *Relay) EmitEvent(evt event.InputEvent) error {
	if err := r.out.WriteEvent(evt.Raw()); err != nil {
		return fmt.Errorf("emit %v: %w", evt, err)
	}
	r.stats.Emitted++
	return nil
}

// Stats returns the counters so far.
func (r *Relay) Stats() Stats {
	return r.stats
}

// parseRecord returns the event, or a reason the record was rejected.
func parseRecord(rec any) (event.InputEvent, string) {
	m, ok := rec.(map[string]any)
	if !ok {
		return event.InputEvent{}, "event is not a record"
	}

	var fields [3]uint32
	for i, name := range [3]string{FieldKind, FieldCode, FieldValue} {
		v, ok := m[name]
		if !ok || v == nil {
			return event.InputEvent{}, "missing field " + name
		}
		n, ok := toUint32(v)
		if !ok {
			return event.InputEvent{}, fmt.Sprintf("field %s is not a number (%T)", name, v)
		}
		fields[i] = n
	}
	return event.InputEvent{Kind: fields[0], Code: fields[1], Value: fields[2]}, ""
}

// toUint32 truncates a number to 32 bits. Negative integers keep their two's
// complement bit pattern.
func toUint32(v any) (uint32, bool) {
	switch n := v.(type) {
	case int:
		return uint32(n), true
	case int32:
		return uint32(n), true
	case int64:
		return uint32(n), true
	case uint32:
		return n, true
	case uint64:
		return uint32(n), true
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) || n < math.MinInt64 || n >= math.MaxInt64 {
			return 0, false
		}
		return uint32(int64(n)), true
	default:
		return 0, false
	}
}
