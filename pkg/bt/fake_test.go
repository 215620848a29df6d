package bt

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/tickprog/pkg/async"
	fx "github.com/robotalks/tickprog/pkg/framework"
	"github.com/robotalks/tickprog/pkg/periph"
)

var testPeer = periph.MustParseAddress("00:1a:7d:da:71:13")

type call struct {
	kind async.Kind
	msg  []byte
	cb   periph.Callback
}

type fakeHooks struct {
	inputs     [periph.NumInputs]int16
	counters   [periph.NumCounters]int16
	duty       [periph.NumPWM]int16
	resetDone  bool
	refreshing bool
	messages   []string
	cleared    int

	calls   []call
	session periph.Callback
	receive periph.Callback
}

func (h *fakeHooks) Input(idx int) int16 { return h.inputs[idx] }
func (h *fakeHooks) Counter(idx int) int16 { return h.counters[idx] }
func (h *fakeHooks) ResetCounter(idx int) { h.counters[idx], h.resetDone = 0, false }
func (h *fakeHooks) CounterResetDone(idx int) bool { return h.resetDone }
func (h *fakeHooks) SetDuty(ch int, duty int16) { h.duty[ch] = duty }
func (h *fakeHooks) Duty(ch int) int16 { return h.duty[ch] }
func (h *fakeHooks) ShowMessage(msg string) { h.messages = append(h.messages, msg) }
func (h *fakeHooks) ClearMessage() { h.cleared++ }
func (h *fakeHooks) Refreshing() bool { return h.refreshing }
func (h *fakeHooks) I2CRead(d, r, f byte, cb periph.Callback) {
	h.calls = append(h.calls, call{kind: async.KindI2CRead, cb: cb})
}
func (h *fakeHooks) I2CWrite(d, r byte, v uint16, f byte, cb periph.Callback) {
	h.calls = append(h.calls, call{kind: async.KindI2CWrite, cb: cb})
}

func (h *fakeHooks) Connect(ch int, peer periph.Address, cb periph.Callback) {
	h.session = cb
	h.calls = append(h.calls, call{kind: async.KindConnect, cb: cb})
}

func (h *fakeHooks) Listen(ch int, peer periph.Address, cb periph.Callback) {
	h.session = cb
	h.calls = append(h.calls, call{kind: async.KindListen, cb: cb})
}

func (h *fakeHooks) StartReceive(ch int, cb periph.Callback) {
	h.receive = cb
	h.calls = append(h.calls, call{kind: async.KindStartReceive, cb: cb})
}

func (h *fakeHooks) Send(ch int, msg []byte, cb periph.Callback) {
	h.calls = append(h.calls, call{kind: async.KindSend, msg: msg, cb: cb})
}

func (h *fakeHooks) lastMessage() string {
	if len(h.messages) == 0 {
		return ""
	}
	return h.messages[len(h.messages)-1]
}

// complete posts the completion of the oldest outstanding command.
func (h *fakeHooks) complete(t *testing.T, loop *fx.Loop, kind async.Kind, status periph.Status) call {
	require.NotEmpty(t, h.calls)
	c := h.calls[0]
	require.Equal(t, kind, c.kind)
	h.calls = h.calls[1:]
	loop.Post(func() { c.cb(periph.Notification{Status: status}) })
	return c
}

func (h *fakeHooks) indicate(loop *fx.Loop, cb periph.Callback, status periph.Status, msg []byte) {
	loop.Post(func() { cb(periph.Notification{Status: status, Msg: msg}) })
}

func startLoop(t *testing.T, prog fx.Program) *fx.Loop {
	loop := fx.NewLoop(prog)
	require.NoError(t, loop.Start(context.Background()))
	return loop
}

func step(t *testing.T, loop *fx.Loop) fx.Code {
	code, err := loop.Step()
	require.NoError(t, err)
	return code
}

func stepN(t *testing.T, loop *fx.Loop, n int) fx.Code {
	code, err := loop.StepN(n)
	require.NoError(t, err)
	return code
}
