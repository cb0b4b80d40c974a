package metrics

import (
	"net/http"

	c "Dicalc/common"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dicalc"

// Metrics holds the service collectors on a private registry so several
// servers (tests) can live in one process.
type Metrics struct {
	registry *prometheus.Registry

	ops               *prometheus.CounterVec
	gets              prometheus.Counter
	decodeErrors      prometheus.Counter
	stateErrors       prometheus.Counter
	connectionsActive prometheus.Gauge
	connectionsTotal  prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ops: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ops_total",
				Help:      "OP requests by operator and result.",
			},
			[]string{"operator", "result"},
		),
		gets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gets_total",
			Help:      "GET requests answered with a value.",
		}),
		decodeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_errors_total",
			Help:      "Request lines that failed to decode.",
		}),
		stateErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_errors_total",
			Help:      "Requests refused because the accumulator is inaccessible.",
		}),
		connectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections_active",
			Help:      "Currently open client connections.",
		}),
		connectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_total",
			Help:      "Accepted client connections.",
		}),
	}
	m.registry.MustRegister(m.ops, m.gets, m.decodeErrors, m.stateErrors, m.connectionsActive, m.connectionsTotal)
	return m
}

// Result labels for ObserveOp.
const (
	ResultOK       = "ok"
	ResultRejected = "rejected"
)

// ObserveOp counts one OP request. A nil err counts as ok; otherwise the
// result label is the wire reason.
func (m *Metrics) ObserveOp(op c.Operator, err error) {
	result := ResultOK
	if err != nil {
		result = err.Error()
	}
	m.ops.WithLabelValues(op.String(), result).Inc()
}

// ObserveRejectedOp counts an OP refused before reaching the accumulator.
func (m *Metrics) ObserveRejectedOp(op c.Operator) {
	m.ops.WithLabelValues(op.String(), ResultRejected).Inc()
}

func (m *Metrics) ObserveGet() {
	m.gets.Inc()
}

func (m *Metrics) ObserveDecodeError() {
	m.decodeErrors.Inc()
}

func (m *Metrics) ObserveStateError() {
	m.stateErrors.Inc()
}

func (m *Metrics) ConnectionOpened() {
	m.connectionsTotal.Inc()
	m.connectionsActive.Inc()
}

func (m *Metrics) ConnectionClosed() {
	m.connectionsActive.Dec()
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
