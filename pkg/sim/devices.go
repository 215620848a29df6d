package sim

import (
	"math"
	"sync"
)

// I2C device addresses.
const (
	DS1631Address byte = 0x4f
	TPA81Address  byte = 0x68
)

// DS1631 commands.
const (
	DS1631StartConvert byte = 0x51
	DS1631StopConvert  byte = 0x22
	DS1631ReadTemp     byte = 0xaa
	DS1631AccessTH     byte = 0xa1
	DS1631AccessTL     byte = 0xa2
	DS1631AccessConfig byte = 0xac
)

// DS1631 simulates the digital thermometer. Register 0 takes a command
// which also selects what the next read returns.
type DS1631 struct {
	lock       sync.Mutex
	temp       float64
	config     uint16
	th, tl     uint16
	pointer    byte
	converting bool
}

// NewDS1631 creates a thermometer measuring temp (Celsius).
func NewDS1631(temp float64) *DS1631 {
	return &DS1631{temp: temp, pointer: DS1631ReadTemp}
}

// SetTemperature changes the measured temperature.
func (d *DS1631) SetTemperature(temp float64) {
	d.lock.Lock()
	d.temp = temp
	d.lock.Unlock()
}

// Converting indicates the conversion is started.
func (d *DS1631) Converting() bool {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.converting
}

// EncodeTemperature encodes Celsius in 16-bit two's complement with
// 0.5 degree resolution.
func EncodeTemperature(temp float64) uint16 {
	return uint16(int16(math.Round(temp*2)) << 7)
}

// ReadRegister implements Device.
func (d *DS1631) ReadRegister(register, flags byte) (uint16, bool) {
	d.lock.Lock()
	defer d.lock.Unlock()
	if register != 0 {
		return 0, false
	}
	switch d.pointer {
	case DS1631ReadTemp:
		if !d.converting {
			return 0, true
		}
		return EncodeTemperature(d.temp), true
	case DS1631AccessTH:
		return d.th, true
	case DS1631AccessTL:
		return d.tl, true
	case DS1631AccessConfig:
		return d.config, true
	}
	return 0, false
}

// WriteRegister implements Device.
func (d *DS1631) WriteRegister(register byte, value uint16, flags byte) bool {
	d.lock.Lock()
	defer d.lock.Unlock()
	switch register {
	case 0:
		switch cmd := byte(value); cmd {
		case DS1631StartConvert:
			d.converting = true
		case DS1631StopConvert:
			d.converting = false
		case DS1631ReadTemp, DS1631AccessTH, DS1631AccessTL, DS1631AccessConfig:
			d.pointer = cmd
		default:
			return false
		}
	case DS1631AccessConfig:
		d.config = value
	case DS1631AccessTH:
		d.th = value
	case DS1631AccessTL:
		d.tl = value
	default:
		return false
	}
	return true
}

// TPA81Version is the software version reported in register 0.
const TPA81Version = 7

// TPA81 simulates the 8-pixel thermopile array.
type TPA81 struct {
	lock    sync.Mutex
	ambient byte
	pixels  [8]byte
}

// NewTPA81 creates a thermopile sensing ambient everywhere.
func NewTPA81(ambient byte) *TPA81 {
	t := &TPA81{ambient: ambient}
	for n := range t.pixels {
		t.pixels[n] = ambient
	}
	return t
}

// SetPixel sets the temperature of one pixel.
func (t *TPA81) SetPixel(n int, temp byte) {
	t.lock.Lock()
	t.pixels[n] = temp
	t.lock.Unlock()
}

// ReadRegister implements Device.
func (t *TPA81) ReadRegister(register, flags byte) (uint16, bool) {
	t.lock.Lock()
	defer t.lock.Unlock()
	switch {
	case register == 0:
		return TPA81Version, true
	case register == 1:
		return uint16(t.ambient), true
	case register >= 2 && register <= 9:
		return uint16(t.pixels[register-2]), true
	}
	return 0, false
}

// WriteRegister implements Device. The registers of the array are read-only.
func (t *TPA81) WriteRegister(register byte, value uint16, flags byte) bool {
	return false
}
