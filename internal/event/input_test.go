package event

import "testing"

func TestInputEventSigned(t *testing.T) {
	tests := []struct {
		value uint32
		want  int32
	}{
		{0, 0},
		{1, 1},
		{2, 2},
		{0xffffffff, -1},
		{0xfffffffd, -3},
		{0x7fffffff, 0x7fffffff},
	}
	for _, tt := range tests {
		if got := (InputEvent{Value: tt.value}).Signed(); got != tt.want {
			t.Errorf("Signed(%#x) = %d, want %d", tt.value, got, tt.want)
		}
	}
}

func TestInputEventString(t *testing.T) {
	e := InputEvent{Kind: 1, Code: 30, Value: 1}
	if got := e.String(); got != "{kind=1 code=30 value=1}" {
		t.Errorf("String() = %q", got)
	}
}
