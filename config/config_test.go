package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdrpinto/mapf/cbs"
	"github.com/pdrpinto/mapf/search"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mapf.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, search.BestFirstWidth, cfg.SearchStrategy())
	assert.Equal(t, cbs.CostTieBreak, cfg.Costs())
	assert.Equal(t, float64(2048), cfg.MaxMemoryMB)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeFile(t, `
strategy: wastar
weight: 3
max_memory_mb: 512
cost_model: sum-of-costs
log_format: json
timeout: 90s
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, search.WeightedAStar, cfg.SearchStrategy())
	assert.Equal(t, 3, cfg.Weight)
	assert.Equal(t, float64(512), cfg.MaxMemoryMB)
	assert.Equal(t, cbs.CostSumOfCosts, cfg.Costs())
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 90*time.Second, cfg.Timeout)
	assert.Equal(t, Default().Workers, cfg.Workers, "untouched fields keep their default")
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadMalformedYAML(t *testing.T) {
	_, err := Load(writeFile(t, "strategy: [bfs"))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"zero memory", func(c *Config) { c.MaxMemoryMB = 0 }, "maxmemorymb"},
		{"negative memory", func(c *Config) { c.MaxMemoryMB = -5 }, "maxmemorymb"},
		{"unknown strategy", func(c *Config) { c.Strategy = "dijkstra" }, "strategy"},
		{"unknown cost model", func(c *Config) { c.CostModel = "makespan" }, "costmodel"},
		{"no workers", func(c *Config) { c.Workers = 0 }, "workers"},
		{"zero weight", func(c *Config) { c.Weight = 0 }, "weight"},
		{"bad log level", func(c *Config) { c.LogLevel = "trace" }, "loglevel"},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }, "logformat"},
		{"negative timeout", func(c *Config) { c.Timeout = -time.Second }, "timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestStrategyAcceptsDashedNames(t *testing.T) {
	cfg := Default()
	cfg.Strategy = "-astar"
	require.NoError(t, cfg.Validate())
	assert.Equal(t, search.AStar, cfg.SearchStrategy())
}
