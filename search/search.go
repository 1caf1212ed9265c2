// Package search is the single-agent graph search run under the temporal
// constraints handed down by CBS.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/pdrpinto/mapf/frontier"
	"github.com/pdrpinto/mapf/internal/memory"
	"github.com/pdrpinto/mapf/internal/telemetry"
	"github.com/pdrpinto/mapf/world"
)

var (
	// ErrExhausted means no plan exists under the current constraints.
	ErrExhausted = errors.New("search exhausted")
	// ErrMemoryExceeded means the heap ceiling was hit before a plan was found.
	ErrMemoryExceeded = errors.New("maximum memory usage exceeded")
)

// Failure describes a search that ended without a plan. Reason is
// ErrExhausted, ErrMemoryExceeded or a context error.
type Failure struct {
	Agent     world.AgentID
	Strategy  Strategy
	Reason    error
	Expanded  int
	Generated int
}

func (f *Failure) Error() string {
	return fmt.Sprintf("agent %d (%s): %v after %d expansions", f.Agent, f.Strategy, f.Reason, f.Expanded)
}

func (f *Failure) Unwrap() error { return f.Reason }

// Config parameterises one search.
type Config struct {
	Strategy Strategy
	// Weight is used by WeightedAStar; DefaultWeight when <= 0.
	Weight int
	// Memory is the heap ceiling; nil disables it.
	Memory *memory.Limit
	Logger *slog.Logger
	// StatusInterval logs a status line every that many iterations; 0 disables it.
	StatusInterval int
}

// Result is a found plan. Path[t] is the atom set at timestep t, so
// len(Path) == len(Plan)+1.
type Result struct {
	Plan      []world.Action
	Path      []world.Atoms
	Expanded  int
	Generated int
	Duration  time.Duration
}

// Run searches from initial until a goal state is popped. Children that
// break a constraint, or equal a state already in the frontier or
// explored set, are discarded.
func Run(ctx context.Context, initial *world.State, cfg Config) (*Result, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "search"), slog.Int("agent", int(initial.Agent())))
	strategyName := cfg.Strategy.String()

	ctx, span := telemetry.Tracer().Start(ctx, "search.Run", trace.WithAttributes(
		attribute.Int("search.agent", int(initial.Agent())),
		attribute.String("search.strategy", strategyName),
		attribute.Int("search.constraints", initial.Constraints().Len()),
	))
	defer span.End()

	openSet, history, err := newFrontier(cfg.Strategy, cfg.Weight, initial)
	if err != nil {
		return nil, err
	}

	startTime := time.Now()
	explored := world.NewStateSet()
	openSet.Add(initial)
	expanded, generated := 0, 1

	finish := func(outcome string) {
		telemetry.StatesExpanded.WithLabelValues(strategyName).Add(float64(expanded))
		telemetry.StatesGenerated.WithLabelValues(strategyName).Add(float64(generated))
		telemetry.SearchOutcomes.WithLabelValues(strategyName, outcome).Inc()
		telemetry.SearchDuration.WithLabelValues(strategyName).Observe(time.Since(startTime).Seconds())
		span.SetAttributes(
			attribute.Int("search.expanded", expanded),
			attribute.Int("search.generated", generated),
			attribute.String("search.outcome", outcome),
		)
	}
	fail := func(outcome string, reason error) (*Result, error) {
		finish(outcome)
		span.SetStatus(codes.Error, reason.Error())
		return nil, &Failure{
			Agent:     initial.Agent(),
			Strategy:  cfg.Strategy,
			Reason:    reason,
			Expanded:  expanded,
			Generated: generated,
		}
	}
	logStatus := func(msg string) {
		logger.Debug(msg,
			slog.Int("expanded", expanded),
			slog.Int("frontier", openSet.Size()),
			slog.Int("generated", generated),
			slog.Duration("elapsed", time.Since(startTime)),
			slog.String("alloc", humanize.IBytes(memory.HeapProbe())),
			slog.String("max_alloc", cfg.Memory.String()),
		)
	}

	for iteration := 0; ; iteration++ {
		if iteration%memory.CheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return fail("canceled", err)
			}
		}
		if _, exceeded := cfg.Memory.Check(iteration); exceeded {
			logStatus("maximum memory usage exceeded")
			return fail("memory_exceeded", ErrMemoryExceeded)
		}
		if cfg.StatusInterval > 0 && iteration > 0 && iteration%cfg.StatusInterval == 0 {
			logStatus("search status")
		}

		current, err := openSet.Pop()
		if err != nil {
			if errors.Is(err, frontier.ErrEmptyFrontier) {
				return fail("exhausted", ErrExhausted)
			}
			return fail("error", err)
		}

		if current.IsGoal() {
			plan, path := current.ExtractPlan()
			finish("solved")
			logger.Debug("plan found",
				slog.Int("length", len(plan)),
				slog.Int("expanded", expanded),
				slog.String("frontier", openSet.Name()),
			)
			return &Result{
				Plan:      plan,
				Path:      path,
				Expanded:  expanded,
				Generated: generated,
				Duration:  time.Since(startTime),
			}, nil
		}

		explored.Add(current)
		expanded++
		if history != nil {
			history.Record(current.Atoms())
		}

		for _, child := range current.Expand() {
			if child.ConstraintStep() || explored.Contains(child) || openSet.Contains(child) {
				continue
			}
			openSet.Add(child)
			generated++
		}
	}
}
