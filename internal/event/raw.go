package event

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"golang.org/x/sys/unix"
)

// Raw mirrors the kernel's struct input_event.
type Raw struct {
	Time  unix.Timeval
	Type  uint16
	Code  uint16
	Value int32
}

// RawSize is the size of one native event on this platform.
var RawSize = binary.Size(Raw{})

// DecodeRaw parses a buffer of native events in host byte order.
func DecodeRaw(buf []byte) ([]Raw, error) {
	if len(buf)%RawSize != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrShortRead, len(buf))
	}
	raws := make([]Raw, len(buf)/RawSize)
	if len(raws) == 0 {
		return raws, nil
	}
	if err := binary.Read(bytes.NewReader(buf), binary.NativeEndian, raws); err != nil {
		return nil, fmt.Errorf("decoding input events: %w", err)
	}
	return raws, nil
}

// MarshalBinary encodes the event in host byte order.
func (r Raw) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(RawSize)
	if err := binary.Write(&buf, binary.NativeEndian, r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
