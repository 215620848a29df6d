package sim

import (
	"sync"

	"github.com/golang/glog"

	fx "github.com/robotalks/tickprog/pkg/framework"
	"github.com/robotalks/tickprog/pkg/periph"
)

// Device is a simulated I2C device.
type Device interface {
	ReadRegister(register, flags byte) (uint16, bool)
	WriteRegister(register byte, value uint16, flags byte) bool
}

// Bus simulates the I2C bus. Each transfer completes Latency ticks after
// it's started.
type Bus struct {
	Latency int

	lock    sync.Mutex
	devices map[byte]Device
	pending []transfer
}

type transfer struct {
	ticks int
	run   func() periph.Notification
	cb    periph.Callback
}

// NewBus creates a Bus.
func NewBus(latency int) *Bus {
	return &Bus{Latency: latency, devices: make(map[byte]Device)}
}

// Attach attaches a device at an address.
func (b *Bus) Attach(addr byte, dev Device) *Bus {
	b.lock.Lock()
	b.devices[addr] = dev
	b.lock.Unlock()
	return b
}

// Device returns the device at an address.
func (b *Bus) Device(addr byte) Device {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.devices[addr]
}

func (b *Bus) start(fn func() periph.Notification, cb periph.Callback) {
	b.lock.Lock()
	b.pending = append(b.pending, transfer{ticks: b.Latency, run: fn, cb: cb})
	b.lock.Unlock()
}

// I2CRead implements periph.I2C.
func (b *Bus) I2CRead(device, register, flags byte, cb periph.Callback) {
	b.start(func() periph.Notification {
		if dev := b.Device(device); dev != nil {
			if value, ok := dev.ReadRegister(register, flags); ok {
				return periph.Notification{Status: periph.I2CSuccess, Value: value}
			}
		}
		glog.V(2).Infof("i2c: read %#02x/%#02x failed", device, register)
		return periph.Notification{Status: periph.I2CReadError}
	}, cb)
}

// I2CWrite implements periph.I2C.
func (b *Bus) I2CWrite(device, register byte, value uint16, flags byte, cb periph.Callback) {
	b.start(func() periph.Notification {
		if dev := b.Device(device); dev != nil && dev.WriteRegister(register, value, flags) {
			return periph.Notification{Status: periph.I2CSuccess}
		}
		glog.V(2).Infof("i2c: write %#02x/%#02x failed", device, register)
		return periph.Notification{Status: periph.I2CWriteError}
	}, cb)
}

// Control implements framework.Controller. Completed transfers are posted
// so the callbacks run before the next tick.
func (b *Bus) Control(ctx fx.Context) error {
	b.lock.Lock()
	var done []transfer
	pending := b.pending[:0]
	for _, t := range b.pending {
		if t.ticks--; t.ticks <= 0 {
			done = append(done, t)
		} else {
			pending = append(pending, t)
		}
	}
	b.pending = pending
	b.lock.Unlock()
	for _, t := range done {
		n, cb := t.run(), t.cb
		ctx.Post(func() { cb(n) })
	}
	return nil
}
