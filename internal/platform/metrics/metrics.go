// Package metrics defines the Prometheus instruments exported on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the health check instruments.
type Metrics struct {
	HealthChecks  *prometheus.CounterVec
	ProbeDuration *prometheus.HistogramVec
}

// New registers every instrument with reg. Pass a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HealthChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "health_checks_total",
			Help: "Health checks served, by outcome.",
		}, []string{"outcome"}),
		ProbeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "health_probe_duration_seconds",
			Help:    "Latency of the upstream user listing issued by each health check.",
			Buckets: prometheus.DefBuckets,
		}, []string{"outcome"}),
	}
	reg.MustRegister(m.HealthChecks, m.ProbeDuration)
	return m
}

// ObserveHealthCheck records one completed health check.
func (m *Metrics) ObserveHealthCheck(outcome string, elapsed time.Duration) {
	m.HealthChecks.WithLabelValues(outcome).Inc()
	m.ProbeDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}
