// Package config loads and validates run settings for the planner.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/pdrpinto/mapf/cbs"
	"github.com/pdrpinto/mapf/internal/memory"
	"github.com/pdrpinto/mapf/search"
)

// ErrInvalidConfig is returned when a loaded or assembled config fails validation.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds everything a run needs besides the level itself.
type Config struct {
	Strategy       string        `yaml:"strategy" validate:"required,strategy"`
	Weight         int           `yaml:"weight" validate:"gte=1"`
	MaxMemoryMB    float64       `yaml:"max_memory_mb" validate:"gt=0"`
	Workers        int           `yaml:"workers" validate:"gte=1,lte=256"`
	CostModel      string        `yaml:"cost_model" validate:"required,costmodel"`
	CacheSize      int64         `yaml:"cache_size" validate:"gte=0"`
	LogLevel       string        `yaml:"log_level" validate:"oneof=debug info warn error"`
	LogFormat      string        `yaml:"log_format" validate:"oneof=text json"`
	Timeout        time.Duration `yaml:"timeout" validate:"gte=0"`
	StatusInterval int           `yaml:"status_interval" validate:"gte=0"`
}

// Default returns the settings used when no file or flag overrides them.
func Default() Config {
	return Config{
		Strategy:       search.BestFirstWidth.String(),
		Weight:         search.DefaultWeight,
		MaxMemoryMB:    memory.DefaultLimitMB,
		Workers:        4,
		CostModel:      cbs.CostTieBreak.String(),
		CacheSize:      4096,
		LogLevel:       "info",
		LogFormat:      "text",
		StatusInterval: 10000,
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("strategy", func(fl validator.FieldLevel) bool {
		_, err := search.ParseStrategy(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("costmodel", func(fl validator.FieldLevel) bool {
		_, err := cbs.ParseCostModel(fl.Field().String())
		return err == nil
	})
	return v
}

// Validate checks every field against its constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fieldErrors validator.ValidationErrors
		if errors.As(err, &fieldErrors) {
			problems := make([]string, len(fieldErrors))
			for i, fe := range fieldErrors {
				problems[i] = fmt.Sprintf("%s failed %q (got %v)", strings.ToLower(fe.Field()), fe.Tag(), fe.Value())
			}
			return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
		}
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Load reads a YAML file over the defaults. An empty path returns the
// defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("%w: parse %s: %w", ErrInvalidConfig, path, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// SearchStrategy returns the parsed strategy. Call Validate first.
func (c Config) SearchStrategy() search.Strategy {
	strategy, _ := search.ParseStrategy(c.Strategy)
	return strategy
}

// Costs returns the parsed cost model. Call Validate first.
func (c Config) Costs() cbs.CostModel {
	model, _ := cbs.ParseCostModel(c.CostModel)
	return model
}
