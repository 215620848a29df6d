package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/robotalks/tickprog/pkg/async"
	"github.com/robotalks/tickprog/pkg/engine"
	fx "github.com/robotalks/tickprog/pkg/framework"
)

// Namespace prefixes all metric names.
const Namespace = "tickprog"

var resultClasses = map[async.Class]string{
	async.ClassSuccess:    "success",
	async.ClassIndication: "indication",
	async.ClassFailure:    "failure",
}

var dropReasons = map[error]string{
	async.ErrStale:         "stale",
	async.ErrAbandoned:     "abandoned",
	async.ErrEventOverflow: "overflow",
}

// Metrics exports the activity of a node to Prometheus.
type Metrics struct {
	Registry *prometheus.Registry

	ticks       prometheus.Counter
	commands    *prometheus.CounterVec
	results     *prometheus.CounterVec
	dropped     *prometheus.CounterVec
	transitions *prometheus.CounterVec
	stage       *prometheus.GaugeVec
}

// NewMetrics creates the metrics in their own registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "ticks_total",
			Help:      "Number of executed ticks.",
		}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "commands_total",
			Help:      "Number of issued commands.",
		}, []string{"kind"}),
		results: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "results_total",
			Help:      "Number of delivered results.",
		}, []string{"kind", "class"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "results_dropped_total",
			Help:      "Number of dropped results.",
		}, []string{"kind", "reason"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "stage_transitions_total",
			Help:      "Number of stage transitions.",
		}, []string{"machine", "from", "to"}),
		stage: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "stage",
			Help:      "Current stage of the machine.",
		}, []string{"machine"}),
	}
	m.Registry.MustRegister(m.ticks, m.commands, m.results, m.dropped, m.transitions, m.stage)
	return m
}

// Handler serves the metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// AddToLoop implements framework.LoopAdder.
func (m *Metrics) AddToLoop(loop *fx.Loop) {
	loop.AddController(fx.PhasePostProc, m)
}

// Control implements framework.Controller.
func (m *Metrics) Control(fx.Context) error {
	m.ticks.Inc()
	return nil
}

// CommandIssued implements async.Observer.
func (m *Metrics) CommandIssued(cmd async.Command, token async.Token) {
	m.commands.WithLabelValues(cmd.Kind.String()).Inc()
}

// ResultDelivered implements async.Observer.
func (m *Metrics) ResultDelivered(r async.Result) {
	m.results.WithLabelValues(r.Kind.String(), resultClasses[r.Class()]).Inc()
}

// ResultDropped implements async.Observer.
func (m *Metrics) ResultDropped(r async.Result, err error) {
	reason, ok := dropReasons[err]
	if !ok {
		reason = "other"
	}
	m.dropped.WithLabelValues(r.Kind.String(), reason).Inc()
}

// StageChanged implements engine.Observer.
func (m *Metrics) StageChanged(machine *engine.Machine, from, to engine.Stage, tick uint64) {
	m.transitions.WithLabelValues(machine.Name, machine.StageName(from), machine.StageName(to)).Inc()
	m.stage.WithLabelValues(machine.Name).Set(float64(to))
}
