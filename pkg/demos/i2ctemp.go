package demos

import (
	"fmt"

	"github.com/golang/glog"

	"github.com/robotalks/tickprog/pkg/async"
	"github.com/robotalks/tickprog/pkg/engine"
	fx "github.com/robotalks/tickprog/pkg/framework"
	"github.com/robotalks/tickprog/pkg/periph"
)

// DS1631 bus parameters.
const (
	DS1631Address   byte = 0x4f
	DS1631ReadFlags byte = 0x88
)

// I2CTemp stages.
const (
	TempInit engine.Stage = iota
	TempAwaitInit
	TempConvert
	TempAwaitConvert
	TempRead
	TempAwaitRead
	TempClear
	TempShow
	TempWait
)

// Default timings of I2CTemp and Thermopile.
const (
	DefaultClearTicks uint32 = 20
	DefaultPollTicks  uint32 = 1000
)

type i2cWrite struct {
	register byte
	value    uint16
	flags    byte
}

// ds1631Setup configures continuous conversion with TH 40C and TL 10C and
// starts converting.
var ds1631Setup = []i2cWrite{
	{register: 0xac, value: 0x02, flags: 0x85},
	{register: 0xa1, value: 0x2800, flags: 0x89},
	{register: 0xa2, value: 0x0a00, flags: 0x89},
	{register: 0x00, value: 0x51, flags: 0x84},
}

var ds1631ReadTemp = i2cWrite{register: 0x00, value: 0xaa, flags: 0x84}

// I2CTemp shows the temperature measured by a DS1631 every PollTicks.
type I2CTemp struct {
	Hooks      periph.Hooks
	Layer      *async.Layer
	Machine    *engine.Machine
	ClearTicks uint32
	PollTicks  uint32

	setup int
	value uint16
}

// NewI2CTemp creates the program.
func NewI2CTemp(hooks periph.Hooks) *I2CTemp {
	p := &I2CTemp{
		Hooks:      hooks,
		Layer:      async.NewLayer(hooks),
		ClearTicks: DefaultClearTicks,
		PollTicks:  DefaultPollTicks,
	}
	p.Machine = engine.New("i2ctemp", p.Layer,
		engine.Def{Stage: TempInit, Name: "init", Run: p.init},
		engine.Def{Stage: TempAwaitInit, Name: "await-init", Run: p.awaitInit},
		engine.Def{Stage: TempConvert, Name: "convert", Run: p.convert},
		engine.Def{Stage: TempAwaitConvert, Name: "await-convert", Run: p.awaitConvert},
		engine.Def{Stage: TempRead, Name: "read", Run: p.read},
		engine.Def{Stage: TempAwaitRead, Name: "await-read", Run: p.awaitRead},
		engine.Def{Stage: TempClear, Name: "clear", Run: p.clear},
		engine.Def{Stage: TempShow, Name: "show", Run: p.show},
		engine.Def{Stage: TempWait, Name: "wait", Run: p.wait},
	).LoopBack(TempAwaitInit, TempInit).LoopBack(TempWait, TempConvert)
	return p
}

// Init implements framework.Program.
func (p *I2CTemp) Init(ctx fx.Context) error {
	p.setup, p.value = 0, 0
	return p.Machine.Start(TempInit)
}

// Tick implements framework.Program.
func (p *I2CTemp) Tick(ctx fx.Context) fx.Code {
	return p.Machine.Tick(ctx)
}

// StateMachine returns the machine running the program.
func (p *I2CTemp) StateMachine() *engine.Machine {
	return p.Machine
}

// Value returns the last raw temperature read.
func (p *I2CTemp) Value() uint16 {
	return p.value
}

func (p *I2CTemp) write(step *engine.Step, w i2cWrite, next engine.Stage) engine.Outcome {
	return issue(step, p.Machine.Name, async.I2CWrite(DS1631Address, w.register, w.value, w.flags), next)
}

func (p *I2CTemp) init(step *engine.Step) engine.Outcome {
	return p.write(step, ds1631Setup[p.setup], TempAwaitInit)
}

func (p *I2CTemp) awaitInit(step *engine.Step) engine.Outcome {
	if _, out, ok := awaitI2C(step, p.Machine.Name); !ok {
		return out
	}
	if p.setup++; p.setup < len(ds1631Setup) {
		return engine.Advance(TempInit)
	}
	glog.Infof("%s: sensor configured", p.Machine.Name)
	return engine.Advance(TempConvert)
}

func (p *I2CTemp) convert(step *engine.Step) engine.Outcome {
	return p.write(step, ds1631ReadTemp, TempAwaitConvert)
}

func (p *I2CTemp) awaitConvert(step *engine.Step) engine.Outcome {
	if _, out, ok := awaitI2C(step, p.Machine.Name); !ok {
		return out
	}
	return engine.Advance(TempRead)
}

func (p *I2CTemp) read(step *engine.Step) engine.Outcome {
	return issue(step, p.Machine.Name, async.I2CRead(DS1631Address, 0, DS1631ReadFlags), TempAwaitRead)
}

func (p *I2CTemp) awaitRead(step *engine.Step) engine.Outcome {
	r, out, ok := awaitI2C(step, p.Machine.Name)
	if !ok {
		return out
	}
	p.value = r.Value
	return engine.Advance(TempClear)
}

func (p *I2CTemp) clear(step *engine.Step) engine.Outcome {
	p.Hooks.ClearMessage()
	return engine.Enter(TempShow)
}

func (p *I2CTemp) show(step *engine.Step) engine.Outcome {
	if !step.Dwell(p.ClearTicks) {
		return engine.Suspend()
	}
	p.Hooks.ShowMessage("Temperature: " + FormatTemperature(p.value))
	return engine.Enter(TempWait)
}

func (p *I2CTemp) wait(step *engine.Step) engine.Outcome {
	if step.Dwell(p.PollTicks) {
		return engine.Enter(TempConvert)
	}
	return engine.Suspend()
}

// FormatTemperature formats the 16-bit two's complement reading with its
// half degree resolution, e.g. "+21,5 C".
func FormatTemperature(value uint16) string {
	halves := int(int16(value) >> 7)
	sign := '+'
	if halves < 0 {
		sign, halves = '-', -halves
	}
	return fmt.Sprintf("%c%d,%d C", sign, halves/2, halves%2*5)
}
