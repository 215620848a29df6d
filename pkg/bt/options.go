package bt

import "github.com/robotalks/tickprog/pkg/periph"

// Options configures the Sender and Receiver.
type Options struct {
	Channel int
	Peer    periph.Address
	// Motor is the 1-based motor number on the Receiver, also the counter number.
	Motor int
	// Button is the 1-based universal input of the button on the Sender.
	Button int
	// Threshold stops the exchange once the counter reaches it.
	Threshold int16
	// DwellTicks keeps displayed status visible before proceeding.
	DwellTicks uint32
}

// Defaults for Options.
const (
	DefaultChannel    = 1
	DefaultMotor      = 1
	DefaultButton     = 8
	DefaultThreshold  = 1000
	DefaultDwellTicks = 3000
)

// DefaultOptions returns Options with defaults.
func DefaultOptions(peer periph.Address) Options {
	return Options{
		Channel:    DefaultChannel,
		Peer:       peer,
		Motor:      DefaultMotor,
		Button:     DefaultButton,
		Threshold:  DefaultThreshold,
		DwellTicks: DefaultDwellTicks,
	}
}
