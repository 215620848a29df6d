package bt

import (
	"fmt"

	"github.com/golang/glog"

	"github.com/robotalks/tickprog/pkg/async"
	"github.com/robotalks/tickprog/pkg/engine"
	fx "github.com/robotalks/tickprog/pkg/framework"
	"github.com/robotalks/tickprog/pkg/periph"
)

// Receiver stages.
const (
	ReceiverListen engine.Stage = iota
	ReceiverShowListening
	ReceiverAwaitConnect
	ReceiverShowConnected
	ReceiverAwaitReceive
	ReceiverServe
	ReceiverDwell
	ReceiverExit
)

// Receiver is the motor part: it waits for the Sender, applies every duty
// command to the motor and replies with the motor's counter.
type Receiver struct {
	Options
	Session Session
	Hooks   periph.Hooks
	Layer   *async.Layer
	Machine *engine.Machine

	served   uint64
	counter  int16
	finished bool
	pending  string
}

// NewReceiver creates a Receiver.
func NewReceiver(hooks periph.Hooks, opts Options) *Receiver {
	r := &Receiver{Options: opts, Hooks: hooks, Layer: async.NewLayer(hooks)}
	r.Machine = engine.New("receiver", r.Layer,
		engine.Def{Stage: ReceiverListen, Name: "listen", Run: r.listen},
		engine.Def{Stage: ReceiverShowListening, Name: "show-listening", Run: r.showListening},
		engine.Def{Stage: ReceiverAwaitConnect, Name: "await-connect", Run: r.awaitConnect},
		engine.Def{Stage: ReceiverShowConnected, Name: "show-connected", Run: r.showConnected},
		engine.Def{Stage: ReceiverAwaitReceive, Name: "await-receive", Run: r.awaitReceive},
		engine.Def{Stage: ReceiverServe, Name: "serve", Run: r.serve},
		engine.Def{Stage: ReceiverDwell, Name: "dwell", Run: r.dwell, Terminal: true},
		engine.Def{Stage: ReceiverExit, Name: "exit", Run: r.exit, Terminal: true},
	)
	return r
}

// Init implements framework.Program.
func (r *Receiver) Init(ctx fx.Context) error {
	r.served, r.counter, r.finished, r.pending = 0, 0, false, ""
	r.Session = Session{Channel: r.Channel, Peer: r.Peer, State: StateIdle}
	r.Hooks.ResetCounter(r.Motor - 1)
	if err := r.Machine.Start(ReceiverListen); err != nil {
		return err
	}
	if _, err := r.Machine.Issue(async.Listen(r.Channel, r.Peer)); err != nil {
		return fmt.Errorf("listen: %v", err)
	}
	r.Session.State = StateListening
	glog.Infof("receiver: listening for %s on channel %d", r.Peer, r.Channel)
	return nil
}

// Tick implements framework.Program.
func (r *Receiver) Tick(ctx fx.Context) fx.Code {
	return r.Machine.Tick(ctx)
}

// StateMachine returns the machine running the program.
func (r *Receiver) StateMachine() *engine.Machine {
	return r.Machine
}

// Served returns the number of served commands.
func (r *Receiver) Served() uint64 {
	return r.served
}

// Counter returns the counter value of the last reply.
func (r *Receiver) Counter() int16 {
	return r.counter
}

// Finished indicates the threshold was reached.
func (r *Receiver) Finished() bool {
	return r.finished
}

func (r *Receiver) setDuty(duty int16) {
	ch := (r.Motor - 1) * 2
	r.Hooks.SetDuty(ch, duty)
	r.Hooks.SetDuty(ch+1, 0)
}

func (r *Receiver) terminate(reason string) engine.Outcome {
	r.setDuty(0)
	r.Session.State = StateTerminated
	glog.Infof("receiver: terminated: %s", reason)
	return engine.Enter(ReceiverDwell)
}

func (r *Receiver) listen(step *engine.Step) engine.Outcome {
	if !r.Hooks.CounterResetDone(r.Motor - 1) {
		return engine.Suspend()
	}
	res, ok := step.Await()
	if !ok || !DisplayStatus(r.Hooks, &r.Session, async.KindListen, res.Status) {
		return engine.Suspend()
	}
	step.Consume()
	if !res.OK() {
		return r.terminate("listen failed")
	}
	r.Session.State = StateAwaitingHandshake
	return engine.Enter(ReceiverShowListening)
}

func (r *Receiver) showListening(step *engine.Step) engine.Outcome {
	if step.Dwell(r.DwellTicks) {
		return engine.Advance(ReceiverAwaitConnect)
	}
	return engine.Suspend()
}

func (r *Receiver) awaitConnect(step *engine.Step) engine.Outcome {
	ev, ok := step.Event()
	if !ok || !DisplayStatus(r.Hooks, &r.Session, async.KindListen, ev.Status) {
		return engine.Suspend()
	}
	step.ConsumeEvent()
	if ev.Status != periph.BtConIndication {
		return r.terminate("handshake failed")
	}
	if _, err := step.Issue(async.StartReceive(r.Channel)); err != nil {
		glog.Errorf("receiver: start receive: %v", err)
		return engine.Fail(CodeIssueFailed)
	}
	r.Session.State = StateReceiving
	return engine.Enter(ReceiverShowConnected)
}

func (r *Receiver) showConnected(step *engine.Step) engine.Outcome {
	if step.Dwell(r.DwellTicks) {
		return engine.Advance(ReceiverAwaitReceive)
	}
	return engine.Suspend()
}

func (r *Receiver) awaitReceive(step *engine.Step) engine.Outcome {
	if res, ok := step.Await(); ok {
		if !DisplayStatus(r.Hooks, &r.Session, async.KindStartReceive, res.Status) {
			return engine.Suspend()
		}
		step.Consume()
		if !res.OK() {
			return r.terminate("start receive failed")
		}
		step.Timer().Reset()
		return engine.Suspend()
	}
	if !step.Dwell(r.DwellTicks) || r.Hooks.Refreshing() {
		return engine.Suspend()
	}
	r.Hooks.ClearMessage()
	r.Session.State = StateActive
	return engine.Advance(ReceiverServe)
}

func (r *Receiver) serve(step *engine.Step) engine.Outcome {
	if res, ok := step.Await(); ok {
		if !res.OK() {
			if !DisplayStatus(r.Hooks, &r.Session, async.KindSend, res.Status) {
				return engine.Suspend()
			}
			step.Consume()
			return r.terminate("reply failed")
		}
		step.Consume()
	}
	ev, ok := step.Event()
	if !ok {
		return engine.Suspend()
	}
	switch ev.Status {
	case periph.BtMsgIndication:
		// hold the message until the previous reply completed.
		if step.Busy() {
			return engine.Suspend()
		}
		step.ConsumeEvent()
		return r.command(step, ev.Payload)
	case periph.BtConIndication:
		step.ConsumeEvent()
		return engine.Suspend()
	}
	if !DisplayStatus(r.Hooks, &r.Session, ev.Kind, ev.Status) {
		return engine.Suspend()
	}
	step.ConsumeEvent()
	return r.terminate("link lost: " + periph.BtStatusText(ev.Status))
}

func (r *Receiver) command(step *engine.Step, payload []byte) engine.Outcome {
	msg, err := DecodeMessage(payload)
	if err == nil {
		err = msg.ValidID(periph.NumMotors)
	}
	if err != nil {
		glog.Warningf("receiver: ignore command: %v", err)
		return engine.Suspend()
	}
	if msg.Value >= periph.DutyMin && msg.Value <= periph.DutyMax {
		r.setDuty(msg.Value)
	}
	counter := r.Hooks.Counter(int(msg.ID) - 1)
	reply := Message{ID: msg.ID, Value: counter}
	if _, err := step.Issue(async.Send(r.Channel, reply.Bytes())); err != nil {
		glog.Errorf("receiver: reply: %v", err)
		return engine.Fail(CodeIssueFailed)
	}
	r.served++
	r.counter = counter
	if counter >= r.Threshold && int(msg.ID) == r.Motor {
		r.finished = true
		r.pending = fmt.Sprintf("Motor M%d reached position %d", r.Motor, r.Threshold)
		r.showPending()
		return r.terminate("threshold reached")
	}
	return engine.Suspend()
}

// showPending shows the pending message unless the display is refreshing.
func (r *Receiver) showPending() {
	if r.pending != "" && !r.Hooks.Refreshing() {
		r.Hooks.ShowMessage(r.pending)
		r.pending = ""
	}
}

func (r *Receiver) dwell(step *engine.Step) engine.Outcome {
	r.showPending()
	if step.Dwell(r.DwellTicks) {
		return engine.Advance(ReceiverExit)
	}
	return engine.Suspend()
}

func (r *Receiver) exit(step *engine.Step) engine.Outcome {
	if r.Hooks.Refreshing() {
		return engine.Suspend()
	}
	r.showPending()
	return engine.Stop()
}
