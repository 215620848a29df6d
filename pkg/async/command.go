package async

import (
	"fmt"

	"github.com/robotalks/tickprog/pkg/periph"
)

// Kind is the kind of a peripheral command.
type Kind int

// Command kinds.
const (
	KindI2CRead Kind = iota + 1
	KindI2CWrite
	KindConnect
	KindListen
	KindStartReceive
	KindSend
)

var kindNames = map[Kind]string{
	KindI2CRead:      "i2c-read",
	KindI2CWrite:     "i2c-write",
	KindConnect:      "connect",
	KindListen:       "listen",
	KindStartReceive: "start-receive",
	KindSend:         "send",
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// IsBluetooth indicates the command goes to the wireless link.
func (k Kind) IsBluetooth() bool {
	return k >= KindConnect && k <= KindSend
}

// Persistent indicates the callback of the command keeps reporting the
// session after its completion.
func (k Kind) Persistent() bool {
	return k == KindConnect || k == KindListen || k == KindStartReceive
}

// Token identifies an issued command.
type Token uint32

// Next calculates the next token, skipping the invalid zero token.
func (t Token) Next() Token {
	if t++; t == 0 {
		t = 1
	}
	return t
}

// IsValid checks if it's a valid token.
func (t Token) IsValid() bool {
	return t != 0
}

// Command describes one peripheral operation.
type Command struct {
	Kind Kind

	// Bluetooth
	Channel int
	Peer    periph.Address
	Payload []byte

	// I2C
	Device   byte
	Register byte
	Value    uint16
	Flags    byte
}

// Connect builds an active connection request.
func Connect(channel int, peer periph.Address) Command {
	return Command{Kind: KindConnect, Channel: channel, Peer: peer}
}

// Listen builds a passive listen request.
func Listen(channel int, peer periph.Address) Command {
	return Command{Kind: KindListen, Channel: channel, Peer: peer}
}

// StartReceive builds the receive registration.
func StartReceive(channel int) Command {
	return Command{Kind: KindStartReceive, Channel: channel}
}

// Send builds a message transmission.
func Send(channel int, payload []byte) Command {
	return Command{Kind: KindSend, Channel: channel, Payload: payload}
}

// I2CWrite builds an I2C register write.
func I2CWrite(device, register byte, value uint16, flags byte) Command {
	return Command{Kind: KindI2CWrite, Device: device, Register: register, Value: value, Flags: flags}
}

// I2CRead builds an I2C register read.
func I2CRead(device, register byte, flags byte) Command {
	return Command{Kind: KindI2CRead, Device: device, Register: register, Flags: flags}
}

// Class classifies a delivered status.
type Class int

// Result classes.
const (
	ClassSuccess Class = iota
	ClassIndication
	ClassFailure
)

// Result is what a callback reports for a command.
type Result struct {
	Token   Token
	Kind    Kind
	Status  periph.Status
	Value   uint16
	Payload []byte
}

// Class classifies the result.
func (r Result) Class() Class {
	if r.Kind.IsBluetooth() {
		switch {
		case periph.IsBtIndication(r.Status):
			return ClassIndication
		case r.Status == periph.BtSuccess:
			return ClassSuccess
		}
		return ClassFailure
	}
	if r.Status == periph.I2CSuccess {
		return ClassSuccess
	}
	return ClassFailure
}

// OK indicates a successful completion.
func (r Result) OK() bool {
	return r.Class() == ClassSuccess
}
