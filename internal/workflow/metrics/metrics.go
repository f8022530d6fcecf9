package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	transitions *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	published   prometheus.Counter
	publishErrs prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "crewops_workflow_transitions_total",
			Help: "Workflow transition attempts by process kind, action, and outcome.",
		}, []string{"kind", "action", "outcome"}),
		duration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "crewops_workflow_transition_duration_seconds",
			Help:    "End-to-end transition latency including the decision hook and commit.",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"}),
		published: promauto.NewCounter(prometheus.CounterOpts{
			Name: "crewops_workflow_events_published_total",
			Help: "Committed workflow events handed to the event publisher.",
		}),
		publishErrs: promauto.NewCounter(prometheus.CounterOpts{
			Name: "crewops_workflow_event_publish_errors_total",
			Help: "Workflow events the publisher failed to deliver.",
		}),
	}
}

func (m *Metrics) ObserveTransition(kind, action, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(kind, action, outcome).Inc()
	m.duration.WithLabelValues(kind).Observe(d.Seconds())
}

func (m *Metrics) EventPublished() {
	if m == nil {
		return
	}
	m.published.Inc()
}

func (m *Metrics) PublishError() {
	if m == nil {
		return
	}
	m.publishErrs.Inc()
}
