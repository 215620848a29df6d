package periph

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Transfer area sizes of a single controller.
const (
	NumInputs   = 8
	NumCounters = 4
	NumMotors   = 4
	NumPWM      = 2 * NumMotors

	DutyMin int16 = 0
	DutyMax int16 = 512
)

// AddressSize is the size of a Bluetooth address.
const AddressSize = 6

// Address is a Bluetooth device address.
type Address [AddressSize]byte

// ParseAddress parses an address like "00:13:7b:5a:01:02".
func ParseAddress(s string) (addr Address, err error) {
	raw := strings.Replace(strings.TrimSpace(s), ":", "", -1)
	if len(raw) != AddressSize*2 {
		return addr, fmt.Errorf("invalid address %q", s)
	}
	b, err := hex.DecodeString(raw)
	if err != nil {
		return addr, fmt.Errorf("invalid address %q: %v", s, err)
	}
	copy(addr[:], b)
	return addr, nil
}

// MustParseAddress is ParseAddress which panics on error.
func MustParseAddress(s string) Address {
	addr, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return addr
}

// String implements fmt.Stringer.
func (a Address) String() string {
	parts := make([]string, AddressSize)
	for n, b := range a {
		parts[n] = fmt.Sprintf("%02x", b)
	}
	return strings.Join(parts, ":")
}

// IsZero indicates the address is not set.
func (a Address) IsZero() bool {
	return a == Address{}
}

// MarshalText implements encoding.TextMarshaler.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(text []byte) (err error) {
	*a, err = ParseAddress(string(text))
	return
}

// Notification is what a peripheral reports through a Callback.
type Notification struct {
	Status Status
	Value  uint16
	Msg    []byte
}

// Callback receives a Notification from a peripheral.
type Callback func(Notification)

// I2C is the addressed peripheral bus.
// Flags encode the address/data widths and bus speed as the firmware expects.
type I2C interface {
	I2CRead(device, register byte, flags byte, cb Callback)
	I2CWrite(device, register byte, value uint16, flags byte, cb Callback)
}

// Bluetooth is the short-range wireless link.
type Bluetooth interface {
	// Connect actively connects to peer. cb is also used later for
	// disconnection indications of this session.
	Connect(channel int, peer Address, cb Callback)
	// Listen waits for peer to connect. cb first reports whether listening
	// started and later reports the connection indication.
	Listen(channel int, peer Address, cb Callback)
	// StartReceive registers the receive handler. cb reports the registration
	// status and afterwards every received message as a MsgIndication.
	StartReceive(channel int, cb Callback)
	// Send transmits a message.
	Send(channel int, msg []byte, cb Callback)
}

// Display is the controller display.
type Display interface {
	// ShowMessage shows a pop-up message.
	ShowMessage(msg string)
	// ClearMessage drops all pop-up messages and returns to the main frame.
	ClearMessage()
	// Refreshing indicates the display is still being refreshed
	// and should not be updated.
	Refreshing() bool
}

// IO is the synchronous part of the transfer area.
type IO interface {
	// Input reads the level of universal input idx (0-based).
	Input(idx int) int16
	// Counter reads counter idx (0-based).
	Counter(idx int) int16
	// ResetCounter requests a counter reset, see CounterResetDone.
	ResetCounter(idx int)
	// CounterResetDone reports the last requested reset completed.
	CounterResetDone(idx int) bool
	// SetDuty sets PWM output channel ch (0-based).
	SetDuty(ch int, duty int16)
	// Duty reads back PWM output channel ch.
	Duty(ch int) int16
}

// Hooks is the complete surface of a controller.
type Hooks interface {
	IO
	Display
	I2C
	Bluetooth
}
