package engine

import (
	"fmt"

	"github.com/golang/glog"

	"github.com/robotalks/tickprog/pkg/async"
	fx "github.com/robotalks/tickprog/pkg/framework"
)

// Stage is a position in the machine, defined by each program.
type Stage int

// StageFunc evaluates a stage.
type StageFunc func(*Step) Outcome

// Def declares a stage.
type Def struct {
	Stage Stage
	Name  string
	Run   StageFunc
	// Terminal stages release any pending command result on entry.
	Terminal bool
}

// Observer is notified about stage changes.
type Observer interface {
	StageChanged(m *Machine, from, to Stage, tick uint64)
}

type edge struct {
	from, to Stage
}

// Machine evaluates the stages of a program.
type Machine struct {
	Name     string
	Layer    *async.Layer
	Observer Observer

	defs      []Def
	order     map[Stage]int
	loopBacks map[edge]bool

	started   bool
	current   Stage
	timer     Timer
	owner     Stage
	owned     bool
	tick      uint64
	actions   int
	violation error
}

// New creates a Machine. The order of defs is the declared sequence.
func New(name string, layer *async.Layer, defs ...Def) *Machine {
	m := &Machine{
		Name:      name,
		Layer:     layer,
		defs:      defs,
		order:     make(map[Stage]int, len(defs)),
		loopBacks: make(map[edge]bool),
	}
	for n, def := range defs {
		if _, exists := m.order[def.Stage]; exists {
			panic(fmt.Sprintf("stage %s declared twice", def.Name))
		}
		m.order[def.Stage] = n
	}
	return m
}

// LoopBack declares a legal backward transition.
func (m *Machine) LoopBack(from, to Stage) *Machine {
	m.loopBacks[edge{from: from, to: to}] = true
	return m
}

// IsLoopBack tells whether a transition is a declared loop-back.
func (m *Machine) IsLoopBack(from, to Stage) bool {
	return m.loopBacks[edge{from: from, to: to}]
}

// Start sets the initial stage.
func (m *Machine) Start(initial Stage) error {
	if _, ok := m.order[initial]; !ok {
		return &UnknownStageError{Stage: initial}
	}
	m.started, m.current, m.owned, m.violation = true, initial, false, nil
	m.timer.Reset()
	return nil
}

// Current returns the current stage.
func (m *Machine) Current() Stage {
	return m.current
}

// StageName returns the declared name of a stage.
func (m *Machine) StageName(s Stage) string {
	if n, ok := m.order[s]; ok {
		return m.defs[n].Name
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// Timer returns the timer of the current stage.
func (m *Machine) Timer() *Timer {
	return &m.timer
}

// Err returns the reason of the last failed tick.
func (m *Machine) Err() error {
	return m.violation
}

// Issue issues a command outside of a tick, e.g. from Init.
func (m *Machine) Issue(cmd async.Command) (async.Token, error) {
	return m.Layer.Issue(cmd)
}

// Tick evaluates the current stage, and the following ones as long as
// they advance without an action.
func (m *Machine) Tick(ctx fx.Context) fx.Code {
	if !m.started {
		return m.fail(ErrNotStarted, CodeUnknownStage)
	}
	m.tick, m.actions = ctx.Tick(), 0
	step := &Step{machine: m, ctx: ctx}
	for evals := 0; ; evals++ {
		if evals > 2*len(m.defs) {
			return m.fail(ErrRunaway, CodeRunaway)
		}
		out := m.defs[m.order[m.current]].Run(step)
		if m.violation != nil {
			return m.fail(m.violation, CodeActionBudget)
		}
		switch out.kind {
		case outcomeSuspend:
			return fx.CodeContinue
		case outcomeStop, outcomeFail:
			if m.actions > 0 {
				return m.fail(ErrActionBudget, CodeActionBudget)
			}
			m.actions++
			return out.code
		}
		if err := m.transition(out.next); err != nil {
			code := CodeIllegalTransition
			if _, ok := err.(*UnknownStageError); ok {
				code = CodeUnknownStage
			}
			return m.fail(err, code)
		}
		if out.kind == outcomeEnter || m.actions > 0 {
			return fx.CodeContinue
		}
	}
}

func (m *Machine) transition(next Stage) error {
	n, ok := m.order[next]
	if !ok {
		return &UnknownStageError{Stage: next}
	}
	from := m.current
	if n <= m.order[from] && !m.IsLoopBack(from, next) {
		return &TransitionError{From: m.StageName(from), To: m.StageName(next)}
	}
	if (m.owned && m.owner == from) || m.defs[n].Terminal {
		m.release()
	}
	m.current = next
	m.timer.Reset()
	glog.V(2).Infof("%s: %s -> %s at tick %d", m.Name, m.StageName(from), m.StageName(next), m.tick)
	if o := m.Observer; o != nil {
		o.StageChanged(m, from, next, m.tick)
	}
	return nil
}

func (m *Machine) release() {
	m.owned = false
	if m.Layer != nil {
		m.Layer.Slot().Abandon()
	}
}

func (m *Machine) fail(err error, code fx.Code) fx.Code {
	m.violation = err
	glog.Errorf("%s: stage %s at tick %d: %v", m.Name, m.StageName(m.current), m.tick, err)
	return code
}

// Holder is implemented by programs running on a Machine.
type Holder interface {
	StateMachine() *Machine
}
