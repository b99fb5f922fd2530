package core

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// commandsTotal counts engine commands by outcome.
	// Labels: command, result (accepted, rejected)
	commandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "harris",
		Subsystem: "engine",
		Name:      "commands_total",
		Help:      "Engine commands by outcome",
	}, []string{"command", "result"})

	// commandDuration measures command latency including lock wait.
	commandDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "harris",
		Subsystem: "engine",
		Name:      "command_duration_seconds",
		Help:      "Engine command latency in seconds",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
	}, []string{"command"})

	// validationFailures counts rejected imports by the first failing rule.
	validationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "harris",
		Subsystem: "import",
		Name:      "validation_failures_total",
		Help:      "Rejected imports by validation rule",
	}, []string{"rule", "class"})

	// importBytes tracks the size of accepted import bodies.
	importBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "harris",
		Subsystem: "import",
		Name:      "bytes",
		Help:      "Size of imported files in bytes",
		Buckets:   prometheus.ExponentialBuckets(256, 4, 10),
	})

	// viewDuration measures display graph derivation.
	viewDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "harris",
		Subsystem: "view",
		Name:      "derive_duration_seconds",
		Help:      "Display graph derivation latency in seconds",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
	}, []string{"redundancy"})

	// datasetUnits is the number of units in the current dataset.
	datasetUnits = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "harris",
		Subsystem: "dataset",
		Name:      "units",
		Help:      "Units in the current dataset",
	})

	// snapshotsTotal counts snapshot saves by outcome.
	snapshotsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "harris",
		Subsystem: "snapshot",
		Name:      "saves_total",
		Help:      "Snapshot saves by outcome",
	}, []string{"result"})
)
