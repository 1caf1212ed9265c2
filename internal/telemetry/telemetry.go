// Package telemetry holds the Prometheus metrics and the OpenTelemetry
// tracer shared by the search packages.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const namespace = "mapf"

var tracer = otel.Tracer("mapf")

// Tracer returns the package tracer. Spans are no-ops until a provider is installed.
func Tracer() trace.Tracer { return tracer }

var (
	// StatesExpanded counts states popped and expanded by the low-level search.
	// Labels: strategy
	StatesExpanded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "search",
		Name:      "states_expanded_total",
		Help:      "States expanded by the low-level search",
	}, []string{"strategy"})

	// StatesGenerated counts children added to a frontier.
	// Labels: strategy
	StatesGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "search",
		Name:      "states_generated_total",
		Help:      "States added to the frontier by the low-level search",
	}, []string{"strategy"})

	// SearchOutcomes counts finished low-level searches.
	// Labels: strategy, outcome (solved, exhausted, memory_exceeded, canceled)
	SearchOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "search",
		Name:      "outcomes_total",
		Help:      "Finished low-level searches by outcome",
	}, []string{"strategy", "outcome"})

	SearchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "search",
		Name:      "duration_seconds",
		Help:      "Low-level search wall time",
		Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
	}, []string{"strategy"})

	// NodesExpanded counts CBS nodes popped from the open set.
	NodesExpanded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cbs",
		Name:      "nodes_expanded_total",
		Help:      "CBS nodes popped and validated",
	})

	// ConflictsFound counts the first conflict of every expanded node.
	// Labels: kind
	ConflictsFound = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cbs",
		Name:      "conflicts_total",
		Help:      "Conflicts found during validation",
	}, []string{"kind"})

	// BranchesPruned counts branches discarded before reaching the open set.
	// Labels: reason (dropped_constraint, duplicate_constraint, replan_failed, replan_memory, closed)
	BranchesPruned = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cbs",
		Name:      "branches_pruned_total",
		Help:      "CBS branches discarded",
	}, []string{"reason"})

	OpenSetSize = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "cbs",
		Name:      "open_set_size",
		Help:      "Nodes waiting in the CBS open set",
	})

	// ReplanCache counts replan memo lookups.
	// Labels: result (hit, miss)
	ReplanCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cbs",
		Name:      "replan_cache_total",
		Help:      "Replan memo lookups",
	}, []string{"result"})
)
