package bt

import (
	"fmt"

	"github.com/robotalks/tickprog/pkg/async"
	"github.com/robotalks/tickprog/pkg/periph"
)

// State is the lifecycle state of a Session.
type State int

// Session states.
const (
	StateIdle State = iota
	StateConnecting
	StateListening
	StateAwaitingHandshake
	StateReceiving
	StateActive
	StateTerminated
)

var stateNames = []string{
	"idle",
	"connecting",
	"listening",
	"awaiting-handshake",
	"receiving",
	"active",
	"terminated",
}

// String implements fmt.Stringer.
func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Session is the wireless connection between the two controllers.
type Session struct {
	Channel int
	Peer    periph.Address
	State   State
}

var commandNames = map[async.Kind]string{
	async.KindConnect:      "Connect to",
	async.KindListen:       "Listen to",
	async.KindStartReceive: "Receive from",
	async.KindSend:         "Send to",
}

// DisplayStatus shows the status of a command on the display. It returns
// false without showing anything while the display is refreshing; the
// caller is expected to try again on the next tick.
func DisplayStatus(d periph.Display, s *Session, kind async.Kind, status periph.Status) bool {
	if d.Refreshing() {
		return false
	}
	name, ok := commandNames[kind]
	if !ok {
		name = "Link with"
	}
	d.ShowMessage(fmt.Sprintf("%s %s (channel %d): %s", name, s.Peer, s.Channel, periph.BtStatusText(status)))
	return true
}
