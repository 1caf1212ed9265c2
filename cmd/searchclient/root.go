package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdrpinto/mapf"
	"github.com/pdrpinto/mapf/config"
	"github.com/pdrpinto/mapf/level"
	"github.com/pdrpinto/mapf/logging"
)

// clientName is the first line sent to the server.
const clientName = "SearchClient"

type flags struct {
	configPath string
	levelPath  string
	strategy   string
	weight     int
	maxMemory  float64
	workers    int
	costModel  string
	logLevel   string
	logFormat  string
}

func newRootCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	var f flags
	defaults := config.Default()

	cmd := &cobra.Command{
		Use:   "searchclient",
		Short: "Plan a multi-agent level with conflict-based search",
		Long: `searchclient reads a level from the server on stdin (or from --level),
plans every agent with conflict-based search over a single-agent search and
prints one joint action per line. In server mode it reads one reply per line.`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveConfig(cmd, f)
			if err != nil {
				return err
			}
			logger, err := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: stderr})
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, f.levelPath, stdin, stdout, logger)
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&f.configPath, "config", "", "YAML config file")
	fs.StringVar(&f.levelPath, "level", "", "read the level from this file instead of the server")
	fs.StringVar(&f.strategy, "strategy", defaults.Strategy, "low-level strategy: bfs, dfs, astar, wastar, greedy or bfws")
	fs.IntVar(&f.weight, "weight", defaults.Weight, "weight of the wastar strategy")
	fs.Float64Var(&f.maxMemory, "max-memory", defaults.MaxMemoryMB, "maximum heap usage in MB")
	fs.IntVar(&f.workers, "workers", defaults.Workers, "goroutines replanning sibling branches")
	fs.StringVar(&f.costModel, "cost-model", defaults.CostModel, "node ordering: tiebreak or sum-of-costs")
	fs.StringVar(&f.logLevel, "log-level", defaults.LogLevel, "debug, info, warn or error")
	fs.StringVar(&f.logFormat, "log-format", defaults.LogFormat, "text or json")
	return cmd
}

// resolveConfig loads the config file and lays the flags the user set on top.
func resolveConfig(cmd *cobra.Command, f flags) (config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return cfg, err
	}
	changed := cmd.Flags().Changed
	if changed("strategy") {
		cfg.Strategy = f.strategy
	}
	if changed("weight") {
		cfg.Weight = f.weight
	}
	if changed("max-memory") {
		cfg.MaxMemoryMB = f.maxMemory
	}
	if changed("workers") {
		cfg.Workers = f.workers
	}
	if changed("cost-model") {
		cfg.CostModel = f.costModel
	}
	if changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if changed("log-format") {
		cfg.LogFormat = f.logFormat
	}
	return cfg, cfg.Validate()
}

func run(ctx context.Context, cfg config.Config, levelPath string, stdin io.Reader, stdout io.Writer, logger *slog.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	server := bufio.NewReader(stdin)
	out := bufio.NewWriter(stdout)
	serverMode := levelPath == ""

	var source io.Reader = server
	if serverMode {
		if err := sendLine(out, clientName); err != nil {
			return err
		}
	} else {
		file, err := os.Open(levelPath)
		if err != nil {
			return fmt.Errorf("open level: %w", err)
		}
		defer file.Close()
		source = file
	}

	lvl, err := level.Parse(source)
	if err != nil {
		return err
	}
	logger.Info("level loaded",
		slog.String("level", lvl.Name),
		slog.Int("agents", len(lvl.Agents)),
		slog.String("strategy", cfg.Strategy),
		slog.String("cost_model", cfg.CostModel),
	)

	options := append(mapf.OptionsFromConfig(cfg), mapf.WithLogger(logger))
	solution, err := mapf.ConflictBasedSearch(ctx, lvl.Agents, options...)
	if err != nil {
		return fmt.Errorf("plan %s: %w", lvl.Name, err)
	}

	for t, line := range solution.Joint.Lines() {
		if err := sendLine(out, line); err != nil {
			return err
		}
		if !serverMode {
			continue
		}
		reply, err := server.ReadString('\n')
		if err != nil {
			return fmt.Errorf("read server reply %d: %w", t, err)
		}
		if strings.Contains(reply, "false") {
			logger.Warn("server rejected joint action", slog.Int("timestep", t), slog.String("action", line), slog.String("reply", strings.TrimSpace(reply)))
		}
	}
	return nil
}

func sendLine(out *bufio.Writer, line string) error {
	if _, err := out.WriteString(line + "\n"); err != nil {
		return err
	}
	return out.Flush()
}
