package sim

import (
	"sync"

	fx "github.com/robotalks/tickprog/pkg/framework"
	"github.com/robotalks/tickprog/pkg/periph"
)

// DefaultResetTicks is the number of ticks a counter reset takes.
const DefaultResetTicks = 3

// Input levels of a universal input used as a digital input.
const (
	InputLow  int16 = 0
	InputHigh int16 = 1
)

// Controller simulates a complete controller with its transfer area,
// motors, display, I2C bus and Bluetooth.
type Controller struct {
	ResetTicks int
	Motors     [periph.NumMotors]Motor
	Display    *Display
	Bus        *Bus
	Bluetooth  periph.Bluetooth

	lock     sync.RWMutex
	inputs   [periph.NumInputs]int16
	counters [periph.NumCounters]int16
	resets   [periph.NumCounters]int
	resetOK  [periph.NumCounters]bool
	duty     [periph.NumPWM]int16
}

// Snapshot is a copy of the transfer area.
type Snapshot struct {
	Inputs   [periph.NumInputs]int16
	Counters [periph.NumCounters]int16
	Duty     [periph.NumPWM]int16
	Speed    [periph.NumMotors]float64
	Message  string
}

// NewController creates a controller with the parameters from conf.
func NewController(conf *Config) *Controller {
	c := &Controller{
		ResetTicks: conf.ResetTicks,
		Display:    &Display{RefreshTicks: conf.RefreshTicks},
		Bus:        NewBus(conf.I2CLatency),
	}
	for n := range c.Motors {
		c.Motors[n] = Motor{MaxSpeed: conf.MotorSpeed, Accel: conf.MotorAccel}
	}
	c.Bus.Attach(DS1631Address, NewDS1631(conf.Temperature))
	c.Bus.Attach(TPA81Address, NewTPA81(byte(conf.Temperature)))
	for n := range c.resetOK {
		c.resetOK[n] = true
	}
	return c
}

// AddToLoop implements framework.LoopAdder.
func (c *Controller) AddToLoop(loop *fx.Loop) {
	if c.Bluetooth == nil {
		c.Bluetooth = &Offline{Poster: loop}
	}
	if adder, ok := c.Bluetooth.(fx.LoopAdder); ok {
		adder.AddToLoop(loop)
	}
	loop.AddController(fx.PhaseActuate, fx.ControlFunc(c.actuate))
	loop.AddController(fx.PhasePostProc, fx.ControlFunc(c.postProc), c.Bus)
}

func (c *Controller) actuate(fx.Context) error {
	c.Step()
	return nil
}

func (c *Controller) postProc(fx.Context) error {
	c.Display.Step()
	return nil
}

// Step advances the motors and pending counter resets by one tick.
func (c *Controller) Step() {
	c.lock.Lock()
	defer c.lock.Unlock()
	for n := range c.Motors {
		pulses := c.Motors[n].Step(c.duty[n*2], c.duty[n*2+1])
		if c.resets[n] > 0 {
			if c.resets[n]--; c.resets[n] == 0 {
				c.counters[n], c.resetOK[n] = 0, true
			}
			continue
		}
		c.counters[n] = addCounter(c.counters[n], pulses)
	}
}

func addCounter(v int16, pulses int) int16 {
	if sum := int(v) + pulses; sum < 0x7fff {
		return int16(sum)
	}
	return 0x7fff
}

// SetInput sets the level of a universal input.
func (c *Controller) SetInput(idx int, level int16) {
	c.lock.Lock()
	c.inputs[idx] = level
	c.lock.Unlock()
}

// Press sets a digital input high or low.
func (c *Controller) Press(idx int, pressed bool) {
	level := InputLow
	if pressed {
		level = InputHigh
	}
	c.SetInput(idx, level)
}

// Input implements periph.IO.
func (c *Controller) Input(idx int) int16 {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.inputs[idx]
}

// Counter implements periph.IO.
func (c *Controller) Counter(idx int) int16 {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.counters[idx]
}

// SetCounter overrides a counter.
func (c *Controller) SetCounter(idx int, value int16) {
	c.lock.Lock()
	c.counters[idx] = value
	c.lock.Unlock()
}

// ResetCounter implements periph.IO.
func (c *Controller) ResetCounter(idx int) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.resets[idx], c.resetOK[idx] = c.ResetTicks, false
	if c.ResetTicks <= 0 {
		c.counters[idx], c.resetOK[idx] = 0, true
	}
}

// CounterResetDone implements periph.IO.
func (c *Controller) CounterResetDone(idx int) bool {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.resetOK[idx]
}

// SetDuty implements periph.IO.
func (c *Controller) SetDuty(ch int, duty int16) {
	c.lock.Lock()
	c.duty[ch] = duty
	c.lock.Unlock()
}

// Duty implements periph.IO.
func (c *Controller) Duty(ch int) int16 {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.duty[ch]
}

// ShowMessage implements periph.Display.
func (c *Controller) ShowMessage(msg string) { c.Display.ShowMessage(msg) }

// ClearMessage implements periph.Display.
func (c *Controller) ClearMessage() { c.Display.ClearMessage() }

// Refreshing implements periph.Display.
func (c *Controller) Refreshing() bool { return c.Display.Refreshing() }

// I2CRead implements periph.I2C.
func (c *Controller) I2CRead(device, register, flags byte, cb periph.Callback) {
	c.Bus.I2CRead(device, register, flags, cb)
}

// I2CWrite implements periph.I2C.
func (c *Controller) I2CWrite(device, register byte, value uint16, flags byte, cb periph.Callback) {
	c.Bus.I2CWrite(device, register, value, flags, cb)
}

// Connect implements periph.Bluetooth.
func (c *Controller) Connect(ch int, peer periph.Address, cb periph.Callback) {
	c.Bluetooth.Connect(ch, peer, cb)
}

// Listen implements periph.Bluetooth.
func (c *Controller) Listen(ch int, peer periph.Address, cb periph.Callback) {
	c.Bluetooth.Listen(ch, peer, cb)
}

// StartReceive implements periph.Bluetooth.
func (c *Controller) StartReceive(ch int, cb periph.Callback) {
	c.Bluetooth.StartReceive(ch, cb)
}

// Send implements periph.Bluetooth.
func (c *Controller) Send(ch int, msg []byte, cb periph.Callback) {
	c.Bluetooth.Send(ch, msg, cb)
}

// Snapshot copies the transfer area.
func (c *Controller) Snapshot() (s Snapshot) {
	c.lock.RLock()
	s.Inputs, s.Counters, s.Duty = c.inputs, c.counters, c.duty
	for n := range c.Motors {
		s.Speed[n] = c.Motors[n].Speed()
	}
	c.lock.RUnlock()
	s.Message = c.Display.Message()
	return
}

// Offline is a Bluetooth which is switched off.
type Offline struct {
	Poster fx.Poster
}

func (o *Offline) fail(cb periph.Callback) {
	o.Poster.Post(func() { cb(periph.Notification{Status: periph.BtSwitchedOff}) })
}

// Connect implements periph.Bluetooth.
func (o *Offline) Connect(ch int, peer periph.Address, cb periph.Callback) { o.fail(cb) }

// Listen implements periph.Bluetooth.
func (o *Offline) Listen(ch int, peer periph.Address, cb periph.Callback) { o.fail(cb) }

// StartReceive implements periph.Bluetooth.
func (o *Offline) StartReceive(ch int, cb periph.Callback) { o.fail(cb) }

// Send implements periph.Bluetooth.
func (o *Offline) Send(ch int, msg []byte, cb periph.Callback) { o.fail(cb) }
