package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	created    prometheus.Counter
	conflicts  *prometheus.CounterVec
	escalated  prometheus.Counter
	alternates prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		created: promauto.NewCounter(prometheus.CounterOpts{
			Name: "crewops_leave_requests_created_total",
			Help: "Leave requests filed.",
		}),
		conflicts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "crewops_leave_conflicts_total",
			Help: "Conflict detector outcomes by severity.",
		}, []string{"severity"}),
		escalated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "crewops_leave_escalations_total",
			Help: "Leave reviews routed to L6.",
		}),
		alternates: promauto.NewCounter(prometheus.CounterOpts{
			Name: "crewops_leave_alternates_assigned_total",
			Help: "Leave requests auto-approved with a coverage alternate.",
		}),
	}
}

func (m *Metrics) RequestCreated() {
	if m == nil {
		return
	}
	m.created.Inc()
}

func (m *Metrics) ConflictDetected(severity string) {
	if m == nil {
		return
	}
	m.conflicts.WithLabelValues(severity).Inc()
}

func (m *Metrics) Escalated() {
	if m == nil {
		return
	}
	m.escalated.Inc()
}

func (m *Metrics) AlternateAssigned() {
	if m == nil {
		return
	}
	m.alternates.Inc()
}
