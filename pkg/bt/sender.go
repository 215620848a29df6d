package bt

import (
	"fmt"

	"github.com/golang/glog"

	"github.com/robotalks/tickprog/pkg/async"
	"github.com/robotalks/tickprog/pkg/engine"
	fx "github.com/robotalks/tickprog/pkg/framework"
	"github.com/robotalks/tickprog/pkg/periph"
)

// Sender stages.
const (
	SenderConnect engine.Stage = iota
	SenderShowConnected
	SenderAwaitReceive
	SenderSample
	SenderAwaitSend
	SenderAwaitReply
	SenderDwell
	SenderExit
)

// Sender is the button part: it connects to the Receiver and keeps sending
// the motor duty selected by the button until the reported counter reaches
// the threshold.
type Sender struct {
	Options
	Session Session
	Hooks   periph.Hooks
	Layer   *async.Layer
	Machine *engine.Machine

	button   int16
	remote   int16
	duty     int16
	finished bool
}

// NewSender creates a Sender.
func NewSender(hooks periph.Hooks, opts Options) *Sender {
	s := &Sender{Options: opts, Hooks: hooks, Layer: async.NewLayer(hooks)}
	s.Machine = engine.New("sender", s.Layer,
		engine.Def{Stage: SenderConnect, Name: "connect", Run: s.connect},
		engine.Def{Stage: SenderShowConnected, Name: "show-connected", Run: s.showConnected},
		engine.Def{Stage: SenderAwaitReceive, Name: "await-receive", Run: s.awaitReceive},
		engine.Def{Stage: SenderSample, Name: "sample", Run: s.sample},
		engine.Def{Stage: SenderAwaitSend, Name: "await-send", Run: s.awaitSend},
		engine.Def{Stage: SenderAwaitReply, Name: "await-reply", Run: s.awaitReply},
		engine.Def{Stage: SenderDwell, Name: "dwell", Run: s.dwell, Terminal: true},
		engine.Def{Stage: SenderExit, Name: "exit", Run: s.exit, Terminal: true},
	).LoopBack(SenderAwaitReply, SenderSample)
	return s
}

// Init implements framework.Program.
func (s *Sender) Init(ctx fx.Context) error {
	// pretend the button was pressed so the first release shows the hint.
	s.button, s.remote, s.duty, s.finished = 1, 0, 0, false
	s.Session = Session{Channel: s.Channel, Peer: s.Peer, State: StateIdle}
	if err := s.Machine.Start(SenderConnect); err != nil {
		return err
	}
	if _, err := s.Machine.Issue(async.Connect(s.Channel, s.Peer)); err != nil {
		return fmt.Errorf("connect: %v", err)
	}
	s.Session.State = StateConnecting
	glog.Infof("sender: connecting to %s on channel %d", s.Peer, s.Channel)
	return nil
}

// Tick implements framework.Program.
func (s *Sender) Tick(ctx fx.Context) fx.Code {
	return s.Machine.Tick(ctx)
}

// StateMachine returns the machine running the program.
func (s *Sender) StateMachine() *engine.Machine {
	return s.Machine
}

// Remote returns the last counter value reported by the Receiver.
func (s *Sender) Remote() int16 {
	return s.remote
}

// Duty returns the last duty sent.
func (s *Sender) Duty() int16 {
	return s.duty
}

// Finished indicates the threshold was reached.
func (s *Sender) Finished() bool {
	return s.finished
}

func (s *Sender) terminate(reason string) engine.Outcome {
	s.Session.State = StateTerminated
	glog.Infof("sender: terminated: %s", reason)
	return engine.Enter(SenderDwell)
}

func (s *Sender) connect(step *engine.Step) engine.Outcome {
	s.Session.State = StateAwaitingHandshake
	r, ok := step.Await()
	if !ok || !DisplayStatus(s.Hooks, &s.Session, async.KindConnect, r.Status) {
		return engine.Suspend()
	}
	step.Consume()
	if !r.OK() {
		return s.terminate("connect failed")
	}
	if _, err := step.Issue(async.StartReceive(s.Channel)); err != nil {
		glog.Errorf("sender: start receive: %v", err)
		return engine.Fail(CodeIssueFailed)
	}
	s.Session.State = StateReceiving
	return engine.Enter(SenderShowConnected)
}

func (s *Sender) showConnected(step *engine.Step) engine.Outcome {
	if step.Dwell(s.DwellTicks) {
		return engine.Advance(SenderAwaitReceive)
	}
	return engine.Suspend()
}

func (s *Sender) awaitReceive(step *engine.Step) engine.Outcome {
	if r, ok := step.Await(); ok {
		if !DisplayStatus(s.Hooks, &s.Session, async.KindStartReceive, r.Status) {
			return engine.Suspend()
		}
		step.Consume()
		if !r.OK() {
			return s.terminate("start receive failed")
		}
		step.Timer().Reset()
		return engine.Suspend()
	}
	if step.Dwell(s.DwellTicks) {
		s.Session.State = StateActive
		return engine.Advance(SenderSample)
	}
	return engine.Suspend()
}

func (s *Sender) sample(step *engine.Step) engine.Outcome {
	if step.Busy() {
		return engine.Suspend()
	}
	button := s.Hooks.Input(s.Button - 1)
	var duty int16
	if button != 0 {
		duty = periph.DutyMax
	}
	if !s.Hooks.Refreshing() {
		switch {
		case s.remote >= s.Threshold:
			s.Hooks.ShowMessage(fmt.Sprintf("Motor M%d reached position %d", s.Motor, s.Threshold))
			duty, s.finished = 0, true
		case button != s.button:
			if s.button != 0 && button == 0 {
				s.Hooks.ShowMessage(fmt.Sprintf("Press button I%d to run motor M%d on the other controller", s.Button, s.Motor))
			} else {
				s.Hooks.ClearMessage()
			}
			s.button = button
		}
	}
	msg := Message{ID: byte(s.Motor), Value: duty}
	if _, err := step.Issue(async.Send(s.Channel, msg.Bytes())); err != nil {
		glog.Errorf("sender: send: %v", err)
		return engine.Fail(CodeIssueFailed)
	}
	s.duty = duty
	if s.finished {
		return s.terminate("threshold reached")
	}
	return engine.Enter(SenderAwaitSend)
}

func (s *Sender) awaitSend(step *engine.Step) engine.Outcome {
	r, ok := step.Await()
	if !ok {
		return engine.Suspend()
	}
	if r.OK() {
		step.Consume()
		return engine.Advance(SenderAwaitReply)
	}
	if !DisplayStatus(s.Hooks, &s.Session, async.KindSend, r.Status) {
		return engine.Suspend()
	}
	step.Consume()
	return s.terminate("send failed")
}

func (s *Sender) awaitReply(step *engine.Step) engine.Outcome {
	ev, ok := step.Event()
	if !ok {
		return engine.Suspend()
	}
	switch ev.Status {
	case periph.BtMsgIndication:
		step.ConsumeEvent()
		msg, err := DecodeMessage(ev.Payload)
		if err == nil {
			err = msg.ValidID(periph.NumCounters)
		}
		if err != nil {
			glog.Warningf("sender: ignore reply: %v", err)
		} else if int(msg.ID) == s.Motor {
			s.remote = msg.Value
		}
		return engine.Advance(SenderSample)
	case periph.BtConIndication:
		step.ConsumeEvent()
		return engine.Suspend()
	}
	if !DisplayStatus(s.Hooks, &s.Session, ev.Kind, ev.Status) {
		return engine.Suspend()
	}
	step.ConsumeEvent()
	return s.terminate("link lost: " + periph.BtStatusText(ev.Status))
}

func (s *Sender) dwell(step *engine.Step) engine.Outcome {
	if step.Dwell(s.DwellTicks) {
		return engine.Advance(SenderExit)
	}
	return engine.Suspend()
}

func (s *Sender) exit(step *engine.Step) engine.Outcome {
	if s.Hooks.Refreshing() {
		return engine.Suspend()
	}
	return engine.Stop()
}
