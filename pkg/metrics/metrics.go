// Package metrics instruments one assessment run. Every run owns a
// private registry so counters never leak across runs or tests.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the instrumentation for a single run.
type Metrics struct {
	registry *prometheus.Registry

	// LicenseFetches counts underlying network fetches of the license
	// list. The shared cache keeps this at most 1 per run.
	LicenseFetches prometheus.Counter

	// CollectorRuns counts collector completions by service and outcome
	// (ok, degraded).
	CollectorRuns *prometheus.CounterVec

	// CollectorDuration tracks per-service collection wall time.
	CollectorDuration *prometheus.HistogramVec

	// Dispatches counts registry dispatches by service and path
	// (registered, fallback).
	Dispatches *prometheus.CounterVec
}

// New creates run-scoped metrics on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		LicenseFetches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "readiness_license_fetches_total",
			Help: "Underlying network fetches of the tenant license list.",
		}),
		CollectorRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "readiness_collector_runs_total",
			Help: "Collector completions by service and outcome.",
		}, []string{"service", "outcome"}),
		CollectorDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "readiness_collector_duration_seconds",
			Help:    "Wall time of each collector.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}, []string{"service"}),
		Dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "readiness_dispatches_total",
			Help: "Registry dispatches by service and path.",
		}, []string{"service", "path"}),
	}

	m.registry.MustRegister(m.LicenseFetches, m.CollectorRuns, m.CollectorDuration, m.Dispatches)
	return m
}

// Registry exposes the underlying registry for gathering.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
