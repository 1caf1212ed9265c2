package mapf

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/pdrpinto/mapf/cbs"
	"github.com/pdrpinto/mapf/config"
	"github.com/pdrpinto/mapf/internal/memory"
	"github.com/pdrpinto/mapf/search"
)

// ErrInvalidOption is returned when an option carries an unusable value.
var ErrInvalidOption = errors.New("invalid option")

// Options defines parameters for both search levels.
type Options struct {
	NumberOfWorkers int
	Strategy        search.Strategy
	Weight          int
	MemoryLimitMB   float64
	CostModel       cbs.CostModel
	CacheSize       int64
	Timeout         time.Duration
	StatusInterval  int
	Logger          *slog.Logger
}

// Option is a function that modifies Options.
type Option func(*Options)

// WithWorkers specifies how many worker goroutines replan sibling branches.
func WithWorkers(numberOfWorkers int) Option {
	return func(options *Options) { options.NumberOfWorkers = numberOfWorkers }
}

// WithStrategy selects the low-level frontier used by ConflictBasedSearch.
func WithStrategy(strategy search.Strategy) Option {
	return func(options *Options) { options.Strategy = strategy }
}

// WithWeight sets the weight of weighted A*.
func WithWeight(weight int) Option {
	return func(options *Options) { options.Weight = weight }
}

// WithMemoryLimit sets the heap ceiling in megabytes. It must be positive.
func WithMemoryLimit(megabytes float64) Option {
	return func(options *Options) { options.MemoryLimitMB = megabytes }
}

// WithCostModel selects how CBS orders its open set.
func WithCostModel(model cbs.CostModel) Option {
	return func(options *Options) { options.CostModel = model }
}

// WithCacheSize bounds the replan memo; 0 disables it.
func WithCacheSize(entries int64) Option {
	return func(options *Options) { options.CacheSize = entries }
}

// WithTimeout bounds a whole run; 0 means no deadline.
func WithTimeout(timeout time.Duration) Option {
	return func(options *Options) { options.Timeout = timeout }
}

// WithStatusInterval logs a low-level status line every n iterations.
func WithStatusInterval(n int) Option {
	return func(options *Options) { options.StatusInterval = n }
}

// WithLogger sets the logger; slog.Default() otherwise.
func WithLogger(logger *slog.Logger) Option {
	return func(options *Options) { options.Logger = logger }
}

// OptionsFromConfig turns a validated config into options.
func OptionsFromConfig(cfg config.Config) []Option {
	return []Option{
		WithStrategy(cfg.SearchStrategy()),
		WithWeight(cfg.Weight),
		WithMemoryLimit(cfg.MaxMemoryMB),
		WithWorkers(cfg.Workers),
		WithCostModel(cfg.Costs()),
		WithCacheSize(cfg.CacheSize),
		WithTimeout(cfg.Timeout),
		WithStatusInterval(cfg.StatusInterval),
	}
}

func applyOptions(options []Option) (Options, error) {
	// --- Apply options ---
	applied := Options{
		NumberOfWorkers: runtime.NumCPU(),
		Strategy:        search.BestFirstWidth,
		Weight:          search.DefaultWeight,
		MemoryLimitMB:   memory.DefaultLimitMB,
		CostModel:       cbs.CostTieBreak,
	}
	for _, option := range options {
		option(&applied)
	}

	// --- Validate ---
	if applied.NumberOfWorkers <= 0 {
		return applied, fmt.Errorf("%w: %d workers", ErrInvalidOption, applied.NumberOfWorkers)
	}
	if applied.Weight <= 0 {
		return applied, fmt.Errorf("%w: weight %d", ErrInvalidOption, applied.Weight)
	}
	if applied.CacheSize < 0 {
		return applied, fmt.Errorf("%w: cache size %d", ErrInvalidOption, applied.CacheSize)
	}
	if applied.Timeout < 0 {
		return applied, fmt.Errorf("%w: timeout %s", ErrInvalidOption, applied.Timeout)
	}
	if applied.Logger == nil {
		applied.Logger = slog.Default()
	}
	return applied, nil
}

func (o Options) searchConfig(strategy search.Strategy) (search.Config, error) {
	limit, err := memory.NewLimit(o.MemoryLimitMB, nil)
	if err != nil {
		return search.Config{}, fmt.Errorf("%w: %w", ErrInvalidOption, err)
	}
	return search.Config{
		Strategy:       strategy,
		Weight:         o.Weight,
		Memory:         limit,
		Logger:         o.Logger,
		StatusInterval: o.StatusInterval,
	}, nil
}

func (o Options) solverConfig() (cbs.Config, error) {
	searchConfig, err := o.searchConfig(o.Strategy)
	if err != nil {
		return cbs.Config{}, err
	}
	return cbs.Config{
		Search:    searchConfig,
		Workers:   o.NumberOfWorkers,
		CostModel: o.CostModel,
		CacheSize: o.CacheSize,
		Logger:    o.Logger,
	}, nil
}
