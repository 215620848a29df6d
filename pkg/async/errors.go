package async

import (
	"errors"
	"fmt"
)

var (
	// ErrBusy indicates a command is still in flight.
	ErrBusy = errors.New("command in flight")
	// ErrStale indicates a completion for a command which is not in flight.
	ErrStale = errors.New("stale completion")
	// ErrAbandoned indicates a completion arrived after its owner moved on.
	ErrAbandoned = errors.New("result abandoned")
	// ErrEventOverflow indicates the oldest queued event was dropped.
	ErrEventOverflow = errors.New("event queue overflow")
)

// UnknownKindError is returned when issuing a command of unknown kind.
type UnknownKindError struct {
	Kind Kind
}

// Error implements error.
func (e *UnknownKindError) Error() string {
	return fmt.Sprintf("unknown command kind %d", int(e.Kind))
}
