// Package metrics provides Prometheus collectors for the geometry engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Geometry build metrics
	BuildsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "steelframe_builds_total",
			Help: "Total number of part geometry builds",
		},
		[]string{"kind"},
	)

	BuildDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "steelframe_build_duration_seconds",
			Help:    "Time taken to build part geometry",
			Buckets: []float64{0.00001, 0.0001, 0.001, 0.01, 0.1, 1},
		},
		[]string{"kind"},
	)

	DataIntegrityWarnings = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "steelframe_data_integrity_warnings_total",
			Help: "Recoverable data problems such as unknown profiles or kinds",
		},
		[]string{"issue"},
	)

	// Decomposition metrics
	CutsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "steelframe_cuts_total",
			Help: "Wall opening operations by path and outcome",
		},
		[]string{"path", "result"},
	)

	PiecesEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "steelframe_pieces_emitted_total",
			Help: "Wall pieces produced by overlap resolution",
		},
		[]string{"side"},
	)

	// Resource metrics
	ResourcesLive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "steelframe_resources_live",
			Help: "Geometry resource handles currently allocated",
		},
	)

	// Engine metrics
	EvaluationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "steelframe_evaluations_total",
			Help: "DSL evaluations by outcome",
		},
		[]string{"result"},
	)
)

// ObserveBuild records one build of the given kind.
func ObserveBuild(kind string, started time.Time) {
	BuildsTotal.WithLabelValues(kind).Inc()
	BuildDuration.WithLabelValues(kind).Observe(time.Since(started).Seconds())
}

// RecordDataIntegrity counts a recoverable data problem.
func RecordDataIntegrity(issue string) {
	DataIntegrityWarnings.WithLabelValues(issue).Inc()
}

// RecordCut counts a cut operation.
func RecordCut(path, result string) {
	CutsTotal.WithLabelValues(path, result).Inc()
}
