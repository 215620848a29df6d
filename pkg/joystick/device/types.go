package device

import (
	"errors"
	"io"
)

// ErrNotSupported indicates joysticks are not supported on the platform.
var ErrNotSupported = errors.New("joystick not supported")

// EventType is the type of a joystick event.
type EventType uint8

// Event types, the init flag is set on the events reporting the initial state.
const (
	EventButton EventType = 0x01
	EventAxis   EventType = 0x02
	EventInit   EventType = 0x80
)

// EventSize is the size of an encoded event.
const EventSize = 8

// Event is a change on a button or an axis.
type Event struct {
	Time   uint32
	Value  int16
	Type   EventType
	Number uint8
}

// IsInit indicates this is the init state.
func (e Event) IsInit() bool {
	return e.Type&EventInit != 0
}

// IsButton indicates the event is from a button.
func (e Event) IsButton() bool {
	return e.Type&^EventInit == EventButton
}

// IsAxis indicates the event is from an axis.
func (e Event) IsAxis() bool {
	return e.Type&^EventInit == EventAxis
}

// Index returns either axis or button index.
func (e Event) Index() int {
	return int(e.Number)
}

// Pressed indicates a button is pressed.
func (e Event) Pressed() bool {
	return e.Value != 0
}

// Device represents an opened joystick.
type Device interface {
	io.Closer
	// Index returns the index of the device on the system.
	Index() int
	// Name returns the name of the device.
	Name() string
	// AxisCount returns the number of Axis on the device.
	AxisCount() int
	// ButtonCount returns the number of buttons on the device.
	ButtonCount() int
	// ReadEvent reads one event from the device.
	ReadEvent() (Event, error)
}
