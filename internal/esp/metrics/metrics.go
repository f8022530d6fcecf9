package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	packages      prometheus.Counter
	simulations   *prometheus.CounterVec
	simulationDur prometheus.Histogram
	blockedGates  prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		packages: promauto.NewCounter(prometheus.CounterOpts{
			Name: "crewops_esp_packages_created_total",
			Help: "Staffing packages drafted.",
		}),
		simulations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "crewops_esp_simulations_total",
			Help: "Simulation runs by resulting risk level.",
		}, []string{"risk_level"}),
		simulationDur: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "crewops_esp_simulation_duration_seconds",
			Help:    "Simulation latency including the org-data snapshot fetch.",
			Buckets: prometheus.DefBuckets,
		}),
		blockedGates: promauto.NewCounter(prometheus.CounterOpts{
			Name: "crewops_esp_missing_simulation_total",
			Help: "L6 approvals refused because no simulation existed.",
		}),
	}
}

func (m *Metrics) PackageCreated() {
	if m == nil {
		return
	}
	m.packages.Inc()
}

func (m *Metrics) SimulationRun(riskLevel string, d time.Duration) {
	if m == nil {
		return
	}
	m.simulations.WithLabelValues(riskLevel).Inc()
	m.simulationDur.Observe(d.Seconds())
}

func (m *Metrics) MissingSimulation() {
	if m == nil {
		return
	}
	m.blockedGates.Inc()
}
