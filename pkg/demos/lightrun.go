package demos

import (
	"github.com/robotalks/tickprog/pkg/engine"
	fx "github.com/robotalks/tickprog/pkg/framework"
	"github.com/robotalks/tickprog/pkg/periph"
)

// LightRun stages.
const (
	LightForward engine.Stage = iota
	LightTurn
	LightBackward
	LightPause
)

// LightRun defaults.
const (
	DefaultLampTicks  uint32 = 200
	DefaultPauseTicks uint32 = 1000
	DefaultLightLoops        = 3
	NumLamps                 = 6
)

// LightRun lights lamps O1 to O6 one after another, then back from O6 to
// O1. Each loop runs twice as fast as the previous one.
type LightRun struct {
	Hooks      periph.IO
	Machine    *engine.Machine
	LampTicks  uint32
	PauseTicks uint32
	Loops      int

	lamp  int
	wait  uint32
	loops int
}

// NewLightRun creates the program.
func NewLightRun(io periph.IO) *LightRun {
	p := &LightRun{
		Hooks:      io,
		LampTicks:  DefaultLampTicks,
		PauseTicks: DefaultPauseTicks,
		Loops:      DefaultLightLoops,
	}
	p.Machine = engine.New("lightrun", nil,
		engine.Def{Stage: LightForward, Name: "forward", Run: p.forward},
		engine.Def{Stage: LightTurn, Name: "turn", Run: p.turn},
		engine.Def{Stage: LightBackward, Name: "backward", Run: p.backward},
		engine.Def{Stage: LightPause, Name: "pause", Run: p.pause},
	).LoopBack(LightForward, LightForward).
		LoopBack(LightBackward, LightBackward).
		LoopBack(LightPause, LightForward)
	return p
}

// Init implements framework.Program.
func (p *LightRun) Init(ctx fx.Context) error {
	p.lamp, p.wait, p.loops = 0, p.LampTicks, p.Loops
	for n := 0; n < NumLamps; n++ {
		p.Hooks.SetDuty(n, 0)
	}
	return p.Machine.Start(LightForward)
}

// Tick implements framework.Program.
func (p *LightRun) Tick(ctx fx.Context) fx.Code {
	return p.Machine.Tick(ctx)
}

// StateMachine returns the machine running the program.
func (p *LightRun) StateMachine() *engine.Machine {
	return p.Machine
}

// Lamp returns the index of the current lamp.
func (p *LightRun) Lamp() int {
	return p.lamp
}

// light keeps the current lamp on for the wait of this loop and reports
// when it has been switched off.
func (p *LightRun) light(step *engine.Step) bool {
	if step.Timer().Elapsed() == 0 {
		p.Hooks.SetDuty(p.lamp, periph.DutyMax)
	}
	if !step.Dwell(p.wait) {
		return false
	}
	p.Hooks.SetDuty(p.lamp, 0)
	return true
}

func (p *LightRun) forward(step *engine.Step) engine.Outcome {
	if !p.light(step) {
		return engine.Suspend()
	}
	if p.lamp+1 < NumLamps {
		p.lamp++
		return engine.Advance(LightForward)
	}
	return engine.Enter(LightTurn)
}

func (p *LightRun) turn(step *engine.Step) engine.Outcome {
	if step.Dwell(p.wait) {
		return engine.Advance(LightBackward)
	}
	return engine.Suspend()
}

func (p *LightRun) backward(step *engine.Step) engine.Outcome {
	if !p.light(step) {
		return engine.Suspend()
	}
	if p.lamp > 0 {
		p.lamp--
		return engine.Advance(LightBackward)
	}
	return engine.Enter(LightPause)
}

func (p *LightRun) pause(step *engine.Step) engine.Outcome {
	if !step.Dwell(p.PauseTicks) {
		return engine.Suspend()
	}
	if p.loops--; p.loops <= 0 {
		return engine.Stop()
	}
	p.wait /= 2
	return engine.Advance(LightForward)
}
