package lua

import (
	"errors"
	"fmt"
)

// Errors for Lua state operations.
var (
	// ErrStateClosed is returned when operating on a closed state.
	ErrStateClosed = errors.New("lua state is closed")

	// ErrExecutionTimeout is returned when a call outlives its deadline.
	ErrExecutionTimeout = errors.New("lua execution timeout")

	// ErrNoAnnotate is returned for scripts that define no annotate function.
	ErrNoAnnotate = errors.New("script defines no annotate function")
)

// ResultError reports a malformed entry in a script's result.
type ResultError struct {
	Script string
	Index  int
	Reason string
}

func (e *ResultError) Error() string {
	return fmt.Sprintf("%s: result %d: %s", e.Script, e.Index, e.Reason)
}
