package privilege

import (
	"errors"
	"fmt"
)

// ErrAlreadyReduced is returned when Reduce is called a second time.
var ErrAlreadyReduced = errors.New("privileges already reduced")

// StageError reports the step that stopped the reduction. Stage is the
// stage that could not be reached.
type StageError struct {
	Stage Stage
	Op    string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("privilege reduction: %s: %s: %v", e.Stage, e.Op, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
