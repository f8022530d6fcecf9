// Package metrics instruments the org-data gateway.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for gateway reads.
type Metrics struct {
	ReadLatency *prometheus.HistogramVec
	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec
}

// New creates and registers all org-data metrics.
func New() *Metrics {
	return &Metrics{
		ReadLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "crewops_orgdata_read_duration_seconds",
			Help:    "Latency of org-data gateway reads by query kind",
			Buckets: prometheus.DefBuckets,
		}, []string{"query"}),
		CacheHits: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "crewops_orgdata_cache_hits_total",
			Help: "Org-snapshot cache hits by query kind",
		}, []string{"query"}),
		CacheMisses: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "crewops_orgdata_cache_misses_total",
			Help: "Org-snapshot cache misses by query kind",
		}, []string{"query"}),
	}
}

// ObserveRead records the latency of one gateway read.
func (m *Metrics) ObserveRead(query string, d time.Duration) {
	if m == nil {
		return
	}
	m.ReadLatency.WithLabelValues(query).Observe(d.Seconds())
}

// RecordHit counts a cache hit.
func (m *Metrics) RecordHit(query string) {
	if m == nil {
		return
	}
	m.CacheHits.WithLabelValues(query).Inc()
}

// RecordMiss counts a cache miss.
func (m *Metrics) RecordMiss(query string) {
	if m == nil {
		return
	}
	m.CacheMisses.WithLabelValues(query).Inc()
}
