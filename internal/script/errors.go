package script

import (
	"errors"
	"fmt"
)

// Errors returned by the host.
var (
	// ErrStateClosed is returned when operating on a closed state.
	ErrStateClosed = errors.New("lua state is closed")

	// ErrNoEntryPoint is returned when the script defines no main function.
	ErrNoEntryPoint = errors.New("script has no main function")

	// ErrEntryPointArity is returned when main declares parameters.
	ErrEntryPointArity = errors.New("main must take no parameters")

	// ErrAlreadyRan is returned when Run is called twice on one host.
	ErrAlreadyRan = errors.New("script already ran")
)

// CallError is a fatal failure inside a native call.
type CallError struct {
	// Func is the native function name.
	Func string
	// Err is the underlying device or output error.
	Err error
}

// Error implements the error interface.
func (e *CallError) Error() string {
	return fmt.Sprintf("%s: %v", e.Func, e.Err)
}

// Unwrap returns the underlying error.
func (e *CallError) Unwrap() error {
	return e.Err
}
