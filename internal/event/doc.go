// Package event defines the values exchanged between input devices, the
// script host, and the output device.
//
// InputEvent is the flattened view handed to scripts: three unsigned 32-bit
// fields named after the kernel's type/code/value triple. Raw is the native
// struct input_event as read from an evdev node or written to uinput.
//
//	raws, err := event.DecodeRaw(buf)
//	for _, r := range raws {
//	    in := event.FromRaw(r)
//	    out := in.Raw() // same type/code/value as r
//	}
package event
