package observability

import (
	"context"
	"net/http"

	"github.com/aretw0/pressline/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pressline"

// Metrics holds the conversation counters and the registry they live in.
type Metrics struct {
	registry *prometheus.Registry

	started     *prometheus.CounterVec
	transitions *prometheus.CounterVec
	fallbacks   *prometheus.CounterVec
	ended       *prometheus.CounterVec
}

// NewMetrics creates the counters on a private registry, together with the
// standard Go and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		started: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_started_total",
			Help:      "Store-backed sessions started, by flow.",
		}, []string{"flow_id"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Node pointer moves, by flow and destination node.",
		}, []string{"flow_id", "to_node_id"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallbacks_total",
			Help:      "User inputs that matched no option, by flow and node.",
		}, []string{"flow_id", "node_id"}),
		ended: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_ended_total",
			Help:      "Store-backed sessions ended, by flow.",
		}, []string{"flow_id"}),
	}
	m.registry.MustRegister(
		m.started, m.transitions, m.fallbacks, m.ended,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry backing the counters.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Hooks returns lifecycle hooks that record into the counters.
func (m *Metrics) Hooks() domain.Hooks {
	return domain.Hooks{
		OnSessionStart: func(_ context.Context, e domain.Event) {
			m.started.WithLabelValues(e.FlowID).Inc()
		},
		OnTransition: func(_ context.Context, e domain.Event) {
			m.transitions.WithLabelValues(e.FlowID, e.ToNodeID).Inc()
		},
		OnFallback: func(_ context.Context, e domain.Event) {
			m.fallbacks.WithLabelValues(e.FlowID, e.FromNodeID).Inc()
		},
		OnSessionEnd: func(_ context.Context, e domain.Event) {
			m.ended.WithLabelValues(e.FlowID).Inc()
		},
	}
}
