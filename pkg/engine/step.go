package engine

import (
	"github.com/robotalks/tickprog/pkg/async"
	fx "github.com/robotalks/tickprog/pkg/framework"
)

// Step is handed to a stage for its evaluation.
type Step struct {
	machine *Machine
	ctx     fx.Context
}

// Context returns the host context of the tick.
func (s *Step) Context() fx.Context {
	return s.ctx
}

// Tick returns the tick number.
func (s *Step) Tick() uint64 {
	return s.ctx.Tick()
}

// Stage returns the stage being evaluated.
func (s *Step) Stage() Stage {
	return s.machine.current
}

// Timer returns the timer of the stage.
func (s *Step) Timer() *Timer {
	return &s.machine.timer
}

// Dwell counts the tick on the stage timer and reports if target is reached.
func (s *Step) Dwell(target uint32) bool {
	return s.machine.timer.Dwell(target)
}

// Issue issues a command. It counts as the action of this tick.
func (s *Step) Issue(cmd async.Command) (async.Token, error) {
	m := s.machine
	if m.actions > 0 {
		m.violation = ErrActionBudget
		return 0, ErrActionBudget
	}
	token, err := m.Layer.Issue(cmd)
	if err == nil {
		m.actions++
		m.owned = false
	}
	return token, err
}

// Acted indicates an action already happened in this tick.
func (s *Step) Acted() bool {
	return s.machine.actions > 0
}

// Busy indicates a command is in flight.
func (s *Step) Busy() bool {
	return s.machine.Layer.Busy()
}

// Await returns the result of the last command, if arrived, without
// consuming it. The stage calling Await owns the result: it's discarded
// once the machine leaves this stage.
func (s *Step) Await() (async.Result, bool) {
	m := s.machine
	slot := m.Layer.Slot()
	if !slot.Token().IsValid() {
		return async.Result{}, false
	}
	m.owner, m.owned = m.current, true
	return slot.Peek()
}

// Consume consumes the result returned by Await.
func (s *Step) Consume() (async.Result, bool) {
	return s.machine.Layer.Slot().Take()
}

// Event returns the oldest queued indication without removing it.
func (s *Step) Event() (async.Result, bool) {
	return s.machine.Layer.PeekEvent()
}

// ConsumeEvent removes the oldest queued indication.
func (s *Step) ConsumeEvent() (async.Result, bool) {
	return s.machine.Layer.NextEvent()
}
