package event

import "fmt"

// InputEvent is an engine-agnostic type/code/value triple.
type InputEvent struct {
	Kind  uint32
	Code  uint32
	Value uint32
}

// Batch is the ordered set of events drained from a single device.
type Batch []InputEvent

// FromRaw widens a native event. The signed value is reinterpreted as
// unsigned, so -1 becomes 0xffffffff.
func FromRaw(r Raw) InputEvent {
	return InputEvent{
		Kind:  uint32(r.Type),
		Code:  uint32(r.Code),
		Value: uint32(r.Value),
	}
}

// Raw narrows the event to the native encoding. Kind and code are truncated
// to 16 bits; value keeps its bit pattern.
func (e InputEvent) Raw() Raw {
	return Raw{
		Type:  uint16(e.Kind),
		Code:  uint16(e.Code),
		Value: int32(e.Value),
	}
}

// Signed returns the value as the kernel's signed magnitude.
func (e InputEvent) Signed() int32 {
	return int32(e.Value)
}

func (e InputEvent) String() string {
	return fmt.Sprintf("{kind=%d code=%d value=%d}", e.Kind, e.Code, e.Value)
}
