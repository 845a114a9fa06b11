package pag

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides Prometheus-compatible metrics for PAG pipeline stages.
//
// Metrics exposed (namespaced "pag_"):
//
//  1. edges_emitted_total (counter): edges produced per stage and edge kind.
//     Labels: stage, edge_kind.
//  2. events_dropped_total (counter): events Peel discarded, per event kind.
//     Labels: event_kind.
//  3. join_buffer_size (gauge): current size of RemoteEdges' sends/recvs maps.
//     Labels: side ("send"/"recv").
//  4. assertion_failures_total (counter): fatal assertion violations, per code.
//     Labels: code.
type Metrics struct {
	edgesEmitted      *prometheus.CounterVec
	eventsDropped     *prometheus.CounterVec
	joinBufferSize    *prometheus.GaugeVec
	assertionFailures *prometheus.CounterVec

	mu      sync.Mutex
	enabled bool
}

// NewMetrics creates and registers all pipeline metrics with the given
// registry. A nil registry uses prometheus.DefaultRegisterer.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &Metrics{
		enabled: true,
		edgesEmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pag",
			Name:      "edges_emitted_total",
			Help:      "Total PAG edges emitted, by stage and edge kind.",
		}, []string{"stage", "edge_kind"}),
		eventsDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pag",
			Name:      "events_dropped_total",
			Help:      "Total raw events Peel discarded, by event kind.",
		}, []string{"event_kind"}),
		joinBufferSize: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "pag",
			Name:      "join_buffer_size",
			Help:      "Current size of the RemoteEdges join buffers.",
		}, []string{"side"}),
		assertionFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pag",
			Name:      "assertion_failures_total",
			Help:      "Total fatal assertion violations, by error code.",
		}, []string{"code"}),
	}
}

func (m *Metrics) recordEdge(stage string, kind EdgeKind) {
	if m == nil {
		return
	}
	m.edgesEmitted.WithLabelValues(stage, kind.String()).Inc()
}

func (m *Metrics) recordDrop(kind EventKind) {
	if m == nil {
		return
	}
	m.eventsDropped.WithLabelValues(kindName(kind)).Inc()
}

func (m *Metrics) setJoinBufferSize(side string, n int) {
	if m == nil {
		return
	}
	m.joinBufferSize.WithLabelValues(side).Set(float64(n))
}

func (m *Metrics) recordAssertionFailure(code string) {
	if m == nil {
		return
	}
	m.assertionFailures.WithLabelValues(code).Inc()
}
