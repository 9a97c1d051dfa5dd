// Package telemetry exposes prometheus metrics for the index
// synchronizer. Metrics are registered on a per-instance registry so
// tests can run multiple independent synchronizers in parallel.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the synchronizer's prometheus collectors.
type Metrics struct {
	Registry *prometheus.Registry

	// RebuildsTotal counts full rebuilds by result: ok, failed, rejected.
	RebuildsTotal *prometheus.CounterVec

	// DocumentsIndexed counts documents successfully projected and
	// submitted, by object type.
	DocumentsIndexed *prometheus.CounterVec

	// DocumentFailures counts per-document projection failures, by
	// object type.
	DocumentFailures *prometheus.CounterVec

	// BatchesSubmitted counts add+commit round trips, by index.
	BatchesSubmitted *prometheus.CounterVec
}

// NewMetrics creates and registers the collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		Registry: reg,
		RebuildsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stelae",
			Name:      "rebuilds_total",
			Help:      "Full index rebuilds by result.",
		}, []string{"result"}),
		DocumentsIndexed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stelae",
			Name:      "documents_indexed_total",
			Help:      "Documents submitted to the index store by object type.",
		}, []string{"object_type"}),
		DocumentFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stelae",
			Name:      "document_failures_total",
			Help:      "Per-document projection failures by object type.",
		}, []string{"object_type"}),
		BatchesSubmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stelae",
			Name:      "batches_submitted_total",
			Help:      "Add+commit round trips by index.",
		}, []string{"index"}),
	}

	reg.MustRegister(m.RebuildsTotal, m.DocumentsIndexed, m.DocumentFailures, m.BatchesSubmitted)
	return m
}
