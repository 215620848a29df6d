package telemetry

import (
	"fmt"

	"github.com/golang/glog"
	"github.com/golang/protobuf/proto"
	structpb "github.com/golang/protobuf/ptypes/struct"

	"github.com/robotalks/tickprog/pkg/engine"
	"github.com/robotalks/tickprog/pkg/link/mqtt"
)

// StagesTopic is the topic suffix carrying stage changes.
const StagesTopic = "stages"

// StageEvent reports a stage change of a node.
type StageEvent struct {
	Node    string
	Machine string
	From    string
	To      string
	Tick    uint64
}

func stringValue(s string) *structpb.Value {
	return &structpb.Value{Kind: &structpb.Value_StringValue{StringValue: s}}
}

// Encode serializes the event as a protobuf Struct.
func (e *StageEvent) Encode() ([]byte, error) {
	s := &structpb.Struct{Fields: map[string]*structpb.Value{
		"node":    stringValue(e.Node),
		"machine": stringValue(e.Machine),
		"from":    stringValue(e.From),
		"to":      stringValue(e.To),
		"tick":    {Kind: &structpb.Value_NumberValue{NumberValue: float64(e.Tick)}},
	}}
	return proto.Marshal(s)
}

// DecodeStageEvent parses an encoded StageEvent.
func DecodeStageEvent(payload []byte) (*StageEvent, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(payload, &s); err != nil {
		return nil, err
	}
	str := func(name string) (string, error) {
		v, ok := s.Fields[name].GetKind().(*structpb.Value_StringValue)
		if !ok {
			return "", fmt.Errorf("field %q missing", name)
		}
		return v.StringValue, nil
	}
	var e StageEvent
	var err error
	if e.Node, err = str("node"); err != nil {
		return nil, err
	}
	if e.Machine, err = str("machine"); err != nil {
		return nil, err
	}
	if e.From, err = str("from"); err != nil {
		return nil, err
	}
	if e.To, err = str("to"); err != nil {
		return nil, err
	}
	tick, ok := s.Fields["tick"].GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return nil, fmt.Errorf("field %q missing", "tick")
	}
	e.Tick = uint64(tick.NumberValue)
	return &e, nil
}

// String implements fmt.Stringer.
func (e *StageEvent) String() string {
	return fmt.Sprintf("%s/%s: %s -> %s at tick %d", e.Node, e.Machine, e.From, e.To, e.Tick)
}

// Publisher publishes stage changes to "<node>/stages".
type Publisher struct {
	Queue *mqtt.Queue
	Node  string
}

// Topic returns the topic of a node.
func Topic(node string) string {
	return node + "/" + StagesTopic
}

// StageChanged implements engine.Observer.
func (p *Publisher) StageChanged(m *engine.Machine, from, to engine.Stage, tick uint64) {
	ev := &StageEvent{
		Node:    p.Node,
		Machine: m.Name,
		From:    m.StageName(from),
		To:      m.StageName(to),
		Tick:    tick,
	}
	payload, err := ev.Encode()
	if err != nil {
		glog.Errorf("telemetry: encode %s: %v", ev, err)
		return
	}
	p.Queue.Pub(Topic(p.Node), payload)
}
