package engine

import (
	"errors"
	"fmt"

	fx "github.com/robotalks/tickprog/pkg/framework"
)

// Error codes returned to the host when the machine is misused.
const (
	CodeIllegalTransition fx.Code = 0x0101
	CodeActionBudget      fx.Code = 0x0102
	CodeRunaway           fx.Code = 0x0103
	CodeUnknownStage      fx.Code = 0x0104
)

var (
	// ErrActionBudget indicates a second action is attempted in one tick.
	ErrActionBudget = errors.New("more than one action in a tick")
	// ErrRunaway indicates stages keep advancing without suspending.
	ErrRunaway = errors.New("stages advance without suspending")
	// ErrNotStarted indicates the machine is ticked before Start.
	ErrNotStarted = errors.New("machine not started")
)

// UnknownStageError indicates a transition to an undeclared stage.
type UnknownStageError struct {
	Stage Stage
}

// Error implements error.
func (e *UnknownStageError) Error() string {
	return fmt.Sprintf("unknown stage %d", int(e.Stage))
}

// TransitionError indicates an undeclared backward transition.
type TransitionError struct {
	From, To string
}

// Error implements error.
func (e *TransitionError) Error() string {
	return fmt.Sprintf("illegal transition %s -> %s", e.From, e.To)
}
