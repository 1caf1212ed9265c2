package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdrpinto/mapf/config"
)

const pushLevel = `#domain
hospital
#levelname
push
#colors
blue: 0, A
#initial
++++++
+0A  +
++++++
#goal
++++++
+  A +
++++++
#end
`

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCommand(strings.NewReader(stdin), &stdout, &stderr)
	cmd.SetArgs(args)
	cmd.SetOut(&stderr)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestServerMode(t *testing.T) {
	stdout, stderr, err := execute(t, pushLevel+"true\n", "--strategy", "bfs", "--workers", "1")
	require.NoError(t, err, stderr)
	assert.Equal(t, "SearchClient\nPush(E,E)\n", stdout)
	assert.Contains(t, stderr, "level loaded")
}

func TestLevelFileMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "push.lvl")
	require.NoError(t, os.WriteFile(path, []byte(pushLevel), 0o600))

	stdout, _, err := execute(t, "", "--level", path, "--strategy", "-astar", "--log-level", "warn")
	require.NoError(t, err)
	assert.Equal(t, "Push(E,E)\n", stdout)
}

func TestMissingServerReply(t *testing.T) {
	_, _, err := execute(t, pushLevel, "--strategy", "bfs")
	assert.ErrorContains(t, err, "read server reply")
}

func TestFlagsOverrideConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mapf.yaml")
	require.NoError(t, os.WriteFile(path, []byte("strategy: greedy\nworkers: 2\n"), 0o600))

	cmd := newRootCommand(strings.NewReader(""), &bytes.Buffer{}, &bytes.Buffer{})
	require.NoError(t, cmd.ParseFlags([]string{"--config", path, "--workers", "6"}))
	configPath, err := cmd.Flags().GetString("config")
	require.NoError(t, err)
	workers, err := cmd.Flags().GetInt("workers")
	require.NoError(t, err)

	cfg, err := resolveConfig(cmd, flags{configPath: configPath, workers: workers})
	require.NoError(t, err)
	assert.Equal(t, "greedy", cfg.Strategy)
	assert.Equal(t, 6, cfg.Workers)
}

func TestRejectsInvalidMemory(t *testing.T) {
	_, _, err := execute(t, pushLevel, "--max-memory", "0")
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}
