package demos

import (
	"fmt"

	"github.com/golang/glog"

	"github.com/robotalks/tickprog/pkg/async"
	"github.com/robotalks/tickprog/pkg/engine"
	fx "github.com/robotalks/tickprog/pkg/framework"
	"github.com/robotalks/tickprog/pkg/periph"
)

// TPA81 bus parameters.
const (
	TPA81Address byte = 0x68
	TPA81Flags   byte = 0xa5
	TPA81Pixels       = 8
)

// Thermopile stages.
const (
	PileVersion engine.Stage = iota
	PileAwaitVersion
	PileRead
	PileAwaitRead
	PileClear
	PileShow
	PileWait
)

// Thermopile shows the ambient temperature and the pixels of a TPA81.
type Thermopile struct {
	Hooks      periph.Hooks
	Layer      *async.Layer
	Machine    *engine.Machine
	ClearTicks uint32
	PollTicks  uint32

	version  uint16
	register byte
	ambient  byte
	pixels   [TPA81Pixels]byte
}

// NewThermopile creates the program.
func NewThermopile(hooks periph.Hooks) *Thermopile {
	p := &Thermopile{
		Hooks:      hooks,
		Layer:      async.NewLayer(hooks),
		ClearTicks: DefaultClearTicks,
		PollTicks:  DefaultPollTicks,
	}
	p.Machine = engine.New("thermopile", p.Layer,
		engine.Def{Stage: PileVersion, Name: "version", Run: p.readVersion},
		engine.Def{Stage: PileAwaitVersion, Name: "await-version", Run: p.awaitVersion},
		engine.Def{Stage: PileRead, Name: "read", Run: p.read},
		engine.Def{Stage: PileAwaitRead, Name: "await-read", Run: p.awaitRead},
		engine.Def{Stage: PileClear, Name: "clear", Run: p.clear},
		engine.Def{Stage: PileShow, Name: "show", Run: p.show},
		engine.Def{Stage: PileWait, Name: "wait", Run: p.wait},
	).LoopBack(PileAwaitRead, PileRead).LoopBack(PileWait, PileRead)
	return p
}

// Init implements framework.Program.
func (p *Thermopile) Init(ctx fx.Context) error {
	p.register = 1
	return p.Machine.Start(PileVersion)
}

// Tick implements framework.Program.
func (p *Thermopile) Tick(ctx fx.Context) fx.Code {
	return p.Machine.Tick(ctx)
}

// StateMachine returns the machine running the program.
func (p *Thermopile) StateMachine() *engine.Machine {
	return p.Machine
}

// Ambient returns the last ambient temperature.
func (p *Thermopile) Ambient() byte {
	return p.ambient
}

// Pixels returns the last temperatures of the pixels.
func (p *Thermopile) Pixels() [TPA81Pixels]byte {
	return p.pixels
}

func (p *Thermopile) readVersion(step *engine.Step) engine.Outcome {
	return issue(step, p.Machine.Name, async.I2CRead(TPA81Address, 0, TPA81Flags), PileAwaitVersion)
}

func (p *Thermopile) awaitVersion(step *engine.Step) engine.Outcome {
	r, out, ok := awaitI2C(step, p.Machine.Name)
	if !ok {
		return out
	}
	p.version = r.Value
	glog.Infof("%s: sensor version %d", p.Machine.Name, p.version)
	return engine.Advance(PileRead)
}

func (p *Thermopile) read(step *engine.Step) engine.Outcome {
	return issue(step, p.Machine.Name, async.I2CRead(TPA81Address, p.register, TPA81Flags), PileAwaitRead)
}

func (p *Thermopile) awaitRead(step *engine.Step) engine.Outcome {
	r, out, ok := awaitI2C(step, p.Machine.Name)
	if !ok {
		return out
	}
	if p.register == 1 {
		p.ambient = byte(r.Value)
	} else {
		p.pixels[p.register-2] = byte(r.Value)
	}
	if p.register++; p.register < 2+TPA81Pixels {
		return engine.Advance(PileRead)
	}
	p.register = 1
	return engine.Advance(PileClear)
}

func (p *Thermopile) clear(step *engine.Step) engine.Outcome {
	p.Hooks.ClearMessage()
	return engine.Enter(PileShow)
}

func (p *Thermopile) show(step *engine.Step) engine.Outcome {
	if !step.Dwell(p.ClearTicks) {
		return engine.Suspend()
	}
	px := p.pixels
	p.Hooks.ShowMessage(fmt.Sprintf("Amb.Temp.: %d C\n%d, %d, %d, %d\n%d, %d, %d, %d",
		p.ambient, px[0], px[1], px[2], px[3], px[4], px[5], px[6], px[7]))
	return engine.Enter(PileWait)
}

func (p *Thermopile) wait(step *engine.Step) engine.Outcome {
	if step.Dwell(p.PollTicks) {
		return engine.Enter(PileRead)
	}
	return engine.Suspend()
}
