package demos

import (
	"fmt"

	"github.com/robotalks/tickprog/pkg/engine"
	fx "github.com/robotalks/tickprog/pkg/framework"
	"github.com/robotalks/tickprog/pkg/periph"
)

// StopGo stages.
const (
	GoReset engine.Stage = iota
	GoRun
)

// Defaults of StopGo.
const (
	DefaultMotor           = 1
	DefaultButton          = 8
	DefaultThreshold int16 = 1000
)

// StopGo runs a motor while a button is pressed until its counter
// reaches Threshold.
type StopGo struct {
	Hooks     periph.Hooks
	Machine   *engine.Machine
	Motor     int
	Button    int
	Threshold int16

	button int16
}

// NewStopGo creates the program with the button on I8 and the motor on M1.
func NewStopGo(hooks periph.Hooks) *StopGo {
	p := &StopGo{Hooks: hooks, Motor: DefaultMotor, Button: DefaultButton, Threshold: DefaultThreshold}
	p.Machine = engine.New("stopgo", nil,
		engine.Def{Stage: GoReset, Name: "reset", Run: p.reset},
		engine.Def{Stage: GoRun, Name: "run", Run: p.run},
	)
	return p
}

// Init implements framework.Program.
func (p *StopGo) Init(ctx fx.Context) error {
	p.Hooks.ResetCounter(p.Motor - 1)
	// pretend the button was pressed so the first release shows the hint.
	p.button = 1
	return p.Machine.Start(GoReset)
}

// Tick implements framework.Program.
func (p *StopGo) Tick(ctx fx.Context) fx.Code {
	return p.Machine.Tick(ctx)
}

// StateMachine returns the machine running the program.
func (p *StopGo) StateMachine() *engine.Machine {
	return p.Machine
}

func (p *StopGo) reset(step *engine.Step) engine.Outcome {
	if p.Hooks.CounterResetDone(p.Motor - 1) {
		return engine.Advance(GoRun)
	}
	return engine.Suspend()
}

func (p *StopGo) run(step *engine.Step) engine.Outcome {
	if p.Hooks.Refreshing() {
		return engine.Suspend()
	}
	button := p.Hooks.Input(p.Button - 1)
	if button != p.button {
		if p.button != 0 && button == 0 {
			p.Hooks.ShowMessage(fmt.Sprintf("Press button I%d to run motor M%d", p.Button, p.Motor))
		} else {
			p.Hooks.ClearMessage()
		}
		p.button = button
	}
	var duty int16
	if button != 0 {
		duty = periph.DutyMax
	}
	p.Hooks.SetDuty((p.Motor-1)*2, duty)
	if p.Hooks.Refreshing() || p.Hooks.Counter(p.Motor-1) < p.Threshold {
		return engine.Suspend()
	}
	p.Hooks.SetDuty((p.Motor-1)*2, 0)
	p.Hooks.ShowMessage(fmt.Sprintf("Motor M%d reached position %d", p.Motor, p.Threshold))
	return engine.Stop()
}
