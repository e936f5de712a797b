package event

import "errors"

// ErrShortRead is returned when a buffer does not hold a whole number of
// native input events.
var ErrShortRead = errors.New("partial input event")
