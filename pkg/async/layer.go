package async

import (
	"github.com/golang/glog"

	"github.com/robotalks/tickprog/pkg/periph"
)

// Driver performs the commands.
type Driver interface {
	periph.I2C
	periph.Bluetooth
}

// Observer is notified about traffic through a Layer.
type Observer interface {
	CommandIssued(Command, Token)
	ResultDelivered(Result)
	ResultDropped(Result, error)
}

// DefaultMaxEvents is the default capacity of the event queue.
const DefaultMaxEvents = 16

// Stats counts traffic through a Layer.
type Stats struct {
	Issued      uint64
	Completed   uint64
	Indications uint64
	Failures    uint64
	Dropped     uint64
}

// Layer issues commands to a Driver and routes results.
// It must only be used from the program's execution context: callbacks are
// expected to be delivered by the host between ticks.
type Layer struct {
	Driver    Driver
	Observer  Observer
	MaxEvents int

	last     Token
	inflight Token
	slot     Slot
	events   []Result
	stats    Stats
	// completed registrations still reporting on their callbacks.
	sessions map[Token]Kind
}

// NewLayer creates a Layer over a Driver.
func NewLayer(d Driver) *Layer {
	return &Layer{Driver: d, MaxEvents: DefaultMaxEvents}
}

// Issue issues a command. The result is available from Slot once the
// callback fired. Only one command can be in flight.
func (l *Layer) Issue(cmd Command) (Token, error) {
	if l.inflight.IsValid() {
		return 0, ErrBusy
	}
	if _, ok := kindNames[cmd.Kind]; !ok {
		return 0, &UnknownKindError{Kind: cmd.Kind}
	}
	token := l.last.Next()
	l.last, l.inflight = token, token
	l.slot.arm(token)
	l.stats.Issued++
	if o := l.Observer; o != nil {
		o.CommandIssued(cmd, token)
	}
	glog.V(2).Infof("issue %s token=%d", cmd.Kind, token)

	kind := cmd.Kind
	cb := func(n periph.Notification) {
		l.Deliver(Result{Token: token, Kind: kind, Status: n.Status, Value: n.Value, Payload: n.Msg})
	}
	switch kind {
	case KindI2CRead:
		l.Driver.I2CRead(cmd.Device, cmd.Register, cmd.Flags, cb)
	case KindI2CWrite:
		l.Driver.I2CWrite(cmd.Device, cmd.Register, cmd.Value, cmd.Flags, cb)
	case KindConnect:
		l.Driver.Connect(cmd.Channel, cmd.Peer, cb)
	case KindListen:
		l.Driver.Listen(cmd.Channel, cmd.Peer, cb)
	case KindStartReceive:
		l.Driver.StartReceive(cmd.Channel, cb)
	case KindSend:
		l.Driver.Send(cmd.Channel, cmd.Payload, cb)
	}
	return token, nil
}

// Deliver routes a result reported by a callback. Indications are queued
// as events, a completion fills the slot of its command if that command is
// still in flight. A failure reported later on the callback of a completed
// registration (connect, listen, start receive) is queued as an event too.
// Everything else is dropped.
func (l *Layer) Deliver(r Result) {
	class := r.Class()
	if class == ClassIndication {
		l.stats.Indications++
		l.queue(r)
		return
	}
	if !r.Token.IsValid() || r.Token != l.inflight {
		if _, ok := l.sessions[r.Token]; ok && class == ClassFailure {
			l.stats.Failures++
			l.queue(r)
			return
		}
		l.drop(r, ErrStale)
		return
	}
	l.inflight = 0
	l.stats.Completed++
	if err := l.slot.fill(r); err != nil {
		l.drop(r, err)
		return
	}
	if class == ClassSuccess && r.Kind.Persistent() {
		if l.sessions == nil {
			l.sessions = make(map[Token]Kind)
		}
		l.sessions[r.Token] = r.Kind
	}
	l.delivered(r)
}

func (l *Layer) queue(r Result) {
	if max := l.MaxEvents; max > 0 && len(l.events) >= max {
		l.drop(l.events[0], ErrEventOverflow)
		l.events = l.events[1:]
	}
	l.events = append(l.events, r)
	l.delivered(r)
}

func (l *Layer) delivered(r Result) {
	glog.V(2).Infof("deliver %s token=%d status=%d", r.Kind, r.Token, r.Status)
	if o := l.Observer; o != nil {
		o.ResultDelivered(r)
	}
}

func (l *Layer) drop(r Result, err error) {
	l.stats.Dropped++
	glog.V(2).Infof("drop %s token=%d status=%d: %v", r.Kind, r.Token, r.Status, err)
	if o := l.Observer; o != nil {
		o.ResultDropped(r, err)
	}
}

// Slot returns the result slot of the most recently issued command.
func (l *Layer) Slot() *Slot {
	return &l.slot
}

// Busy indicates a command is in flight.
func (l *Layer) Busy() bool {
	return l.inflight.IsValid()
}

// InFlight returns the token of the command in flight, 0 if none.
func (l *Layer) InFlight() Token {
	return l.inflight
}

// PeekEvent returns the oldest queued event without removing it.
func (l *Layer) PeekEvent() (r Result, ok bool) {
	if len(l.events) == 0 {
		return
	}
	return l.events[0], true
}

// NextEvent removes and returns the oldest queued event.
func (l *Layer) NextEvent() (r Result, ok bool) {
	if r, ok = l.PeekEvent(); ok {
		l.events = l.events[1:]
	}
	return
}

// Events returns the number of queued events.
func (l *Layer) Events() int {
	return len(l.events)
}

// Stats returns the traffic counters.
func (l *Layer) Stats() Stats {
	return l.stats
}
