package telemetry

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang/protobuf/proto"
	structpb "github.com/golang/protobuf/ptypes/struct"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/tickprog/pkg/async"
	"github.com/robotalks/tickprog/pkg/engine"
	fx "github.com/robotalks/tickprog/pkg/framework"
	"github.com/robotalks/tickprog/pkg/periph"
)

type nopDriver struct{}

func (nopDriver) I2CRead(device, register byte, flags byte, cb periph.Callback) {}
func (nopDriver) I2CWrite(device, register byte, value uint16, flags byte, cb periph.Callback) {}
func (nopDriver) Connect(channel int, peer periph.Address, cb periph.Callback) {}
func (nopDriver) Listen(channel int, peer periph.Address, cb periph.Callback) {}
func (nopDriver) StartReceive(channel int, cb periph.Callback) {}
func (nopDriver) Send(channel int, msg []byte, cb periph.Callback) {}

type stageRecorder struct {
	changes []string
}

func (r *stageRecorder) StageChanged(m *engine.Machine, from, to engine.Stage, tick uint64) {
	r.changes = append(r.changes, m.StageName(from)+">"+m.StageName(to))
}

type twoStages struct {
	machine *engine.Machine
}

func newTwoStages() *twoStages {
	p := &twoStages{}
	p.machine = engine.New("test", async.NewLayer(nopDriver{}),
		engine.Def{Stage: 0, Name: "first", Run: func(s *engine.Step) engine.Outcome {
			if _, err := s.Issue(async.I2CRead(1, 2, 0)); err != nil {
				return engine.Fail(0x10)
			}
			return engine.Enter(1)
		}},
		engine.Def{Stage: 1, Name: "second", Run: func(s *engine.Step) engine.Outcome {
			return engine.Stop()
		}},
	)
	return p
}

func (p *twoStages) Init(fx.Context) error { return p.machine.Start(0) }
func (p *twoStages) Tick(ctx fx.Context) fx.Code { return p.machine.Tick(ctx) }

func TestMetrics(t *testing.T) {
	m := NewMetrics()
	rec := &stageRecorder{}
	p := newTwoStages()
	p.machine.Observer = rec
	Attach(p.machine, m)
	loop := fx.NewLoop(p).Add(m)
	require.NoError(t, loop.Start(context.Background()))
	code, err := loop.StepN(10)
	require.NoError(t, err)
	require.Equal(t, fx.CodeStop, code)

	require.Equal(t, []string{"first>second"}, rec.changes)

	layer := p.machine.Layer
	layer.Deliver(async.Result{Token: 7, Kind: async.KindI2CRead})
	layer.Deliver(async.Result{Kind: async.KindSend, Status: periph.BtMsgIndication})

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, w.Code)
	body := w.Body.String()
	for _, line := range []string{
		`tickprog_ticks_total 2`,
		`tickprog_commands_total{kind="i2c-read"} 1`,
		`tickprog_stage_transitions_total{from="first",machine="test",to="second"} 1`,
		`tickprog_stage{machine="test"} 1`,
		`tickprog_results_dropped_total{kind="i2c-read",reason="stale"} 1`,
		`tickprog_results_total{class="indication",kind="send"} 1`,
	} {
		require.True(t, strings.Contains(body, line), "missing %s", line)
	}
}

func TestStageEventEncoding(t *testing.T) {
	ev := &StageEvent{Node: "sender", Machine: "sender", From: "sample", To: "await-send", Tick: 3421}
	payload, err := ev.Encode()
	require.NoError(t, err)
	decoded, err := DecodeStageEvent(payload)
	require.NoError(t, err)
	require.Equal(t, ev, decoded)
	require.Equal(t, "sender/sender: sample -> await-send at tick 3421", decoded.String())

	t.Run("missing field", func(t *testing.T) {
		payload, err := proto.Marshal(&structpb.Struct{Fields: map[string]*structpb.Value{
			"node": stringValue("n"),
		}})
		require.NoError(t, err)
		_, err = DecodeStageEvent(payload)
		require.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := DecodeStageEvent([]byte{0xff, 0xff, 0xff})
		require.Error(t, err)
	})
}

func TestTopic(t *testing.T) {
	require.Equal(t, "node-1/stages", Topic("node-1"))
}
