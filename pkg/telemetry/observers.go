package telemetry

import (
	"github.com/robotalks/tickprog/pkg/async"
	"github.com/robotalks/tickprog/pkg/engine"
)

// StageObservers fans stage changes out.
type StageObservers []engine.Observer

// StageChanged implements engine.Observer.
func (o StageObservers) StageChanged(m *engine.Machine, from, to engine.Stage, tick uint64) {
	for _, observer := range o {
		observer.StageChanged(m, from, to, tick)
	}
}

// Attach adds observers to a machine and its layer.
func Attach(m *engine.Machine, observers ...interface{}) {
	var stages StageObservers
	if m.Observer != nil {
		stages = append(stages, m.Observer)
	}
	for _, o := range observers {
		if so, ok := o.(engine.Observer); ok {
			stages = append(stages, so)
		}
		if ao, ok := o.(async.Observer); ok && m.Layer != nil && m.Layer.Observer == nil {
			m.Layer.Observer = ao
		}
	}
	switch len(stages) {
	case 0:
	case 1:
		m.Observer = stages[0]
	default:
		m.Observer = stages
	}
}
