package demos

import (
	"github.com/robotalks/tickprog/pkg/engine"
	fx "github.com/robotalks/tickprog/pkg/framework"
	"github.com/robotalks/tickprog/pkg/periph"
)

// MotorRun stages.
const (
	RunForward engine.Stage = iota
	RunPause
	RunReverse
	RunOff
)

// DefaultStepTicks is the time MotorRun stays on each duty.
const DefaultStepTicks uint32 = 2000

// DutyStep is the duty change between two steps of the ramp.
const DutyStep = periph.DutyMax / 4

// MotorRun ramps a motor up in one direction, pauses, and ramps it down
// in the other direction.
type MotorRun struct {
	Hooks     periph.IO
	Machine   *engine.Machine
	Motor     int
	StepTicks uint32

	duty int16
}

// NewMotorRun creates the program running motor M1.
func NewMotorRun(io periph.IO) *MotorRun {
	p := &MotorRun{Hooks: io, Motor: 1, StepTicks: DefaultStepTicks}
	p.Machine = engine.New("motorrun", nil,
		engine.Def{Stage: RunForward, Name: "forward", Run: p.forward},
		engine.Def{Stage: RunPause, Name: "pause", Run: p.pause},
		engine.Def{Stage: RunReverse, Name: "reverse", Run: p.reverse},
		engine.Def{Stage: RunOff, Name: "off", Run: p.off, Terminal: true},
	).LoopBack(RunForward, RunForward).LoopBack(RunReverse, RunReverse)
	return p
}

// Init implements framework.Program.
func (p *MotorRun) Init(ctx fx.Context) error {
	p.duty = 0
	p.setDuty(0, 0)
	return p.Machine.Start(RunForward)
}

// Tick implements framework.Program.
func (p *MotorRun) Tick(ctx fx.Context) fx.Code {
	return p.Machine.Tick(ctx)
}

// StateMachine returns the machine running the program.
func (p *MotorRun) StateMachine() *engine.Machine {
	return p.Machine
}

// Duty returns the duty of the current step.
func (p *MotorRun) Duty() int16 {
	return p.duty
}

func (p *MotorRun) setDuty(d1, d2 int16) {
	ch := (p.Motor - 1) * 2
	p.Hooks.SetDuty(ch, d1)
	p.Hooks.SetDuty(ch+1, d2)
}

func (p *MotorRun) forward(step *engine.Step) engine.Outcome {
	if step.Timer().Elapsed() == 0 {
		p.duty += DutyStep
		p.setDuty(p.duty, 0)
	}
	if !step.Dwell(p.StepTicks) {
		return engine.Suspend()
	}
	if p.duty >= periph.DutyMax {
		return engine.Advance(RunPause)
	}
	return engine.Advance(RunForward)
}

func (p *MotorRun) pause(step *engine.Step) engine.Outcome {
	if step.Timer().Elapsed() == 0 {
		p.setDuty(0, 0)
	}
	if step.Dwell(p.StepTicks) {
		return engine.Advance(RunReverse)
	}
	return engine.Suspend()
}

func (p *MotorRun) reverse(step *engine.Step) engine.Outcome {
	if step.Timer().Elapsed() == 0 {
		p.setDuty(0, p.duty)
	}
	if !step.Dwell(p.StepTicks) {
		return engine.Suspend()
	}
	if p.duty -= DutyStep; p.duty <= 0 {
		return engine.Advance(RunOff)
	}
	return engine.Advance(RunReverse)
}

func (p *MotorRun) off(step *engine.Step) engine.Outcome {
	p.setDuty(0, 0)
	return engine.Stop()
}
