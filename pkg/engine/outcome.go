package engine

import fx "github.com/robotalks/tickprog/pkg/framework"

type outcomeKind int

const (
	outcomeSuspend outcomeKind = iota
	outcomeAdvance
	outcomeEnter
	outcomeStop
	outcomeFail
)

// Outcome is what a stage decides after evaluation.
type Outcome struct {
	kind outcomeKind
	next Stage
	code fx.Code
}

// Suspend stops evaluating for this tick.
func Suspend() Outcome {
	return Outcome{kind: outcomeSuspend}
}

// Advance moves to next and evaluates it in the same tick, unless an
// action already happened in this tick.
func Advance(next Stage) Outcome {
	return Outcome{kind: outcomeAdvance, next: next}
}

// Enter moves to next, which is evaluated on the next tick.
func Enter(next Stage) Outcome {
	return Outcome{kind: outcomeEnter, next: next}
}

// Stop ends the program normally.
func Stop() Outcome {
	return Outcome{kind: outcomeStop, code: fx.CodeStop}
}

// Fail aborts the program with an error code.
func Fail(code fx.Code) Outcome {
	return Outcome{kind: outcomeFail, code: code}
}
