package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Package-level collectors, registered on the default registry through promauto.

var (
	// AvailabilitySessionsOpened counts snapshots created, labeled by kind
	// ("root" or "branch").
	AvailabilitySessionsOpened = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "calohits_availability_sessions_opened_total",
			Help: "Total number of availability snapshots opened",
		},
		[]string{"kind"},
	)

	// AvailabilityApplies counts resolved snapshots, labeled by resolution
	// ("root" commits to the hits, "nested" merges into the parent level).
	AvailabilityApplies = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "calohits_availability_applies_total",
			Help: "Total number of availability snapshots applied",
		},
		[]string{"resolution"},
	)

	// AvailabilityDepth tracks the nesting depth of the most recently
	// updated availability stack.
	AvailabilityDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "calohits_availability_depth",
			Help: "Current nesting depth of speculative availability sessions",
		},
	)

	// HitsProcessed counts hits swept by the feature engine.
	HitsProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "calohits_hits_processed_total",
			Help: "Total number of hits processed by the feature sweep",
		},
	)

	// HitsFlagged counts hits tagged by the sweep, labeled by flag
	// ("isolated" or "possible_mip").
	HitsFlagged = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "calohits_hits_flagged_total",
			Help: "Total number of hits flagged by the feature sweep",
		},
		[]string{"flag"},
	)

	// FeatureSweepDuration measures one per-event feature sweep.
	FeatureSweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "calohits_feature_sweep_duration_seconds",
			Help:    "Duration of per-event hit feature sweeps in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
	)
)
