package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validConfigYAML = `
server:
  port: 9090
  mode: debug
planner:
  prob_shortest_path: 1.0
  prob_abandon_lead_early: 0.5
  prob_keep_adding_to_avail: 0.9
  num_avail_explorations: 20
  time_limit: 3s
log:
  level: debug
  format: console
redis:
  enabled: true
  addr: "cache:6379"
kafka:
  enabled: true
  brokers: ["k1:9092", "k2:9092"]
`

const scenarioYAML = `
name: corridor
low: [0, 0]
high: [1, 1]
grid:
  cols: 4
  rows: 4
  diagonal: true
start: [0.1, 0.1]
goal: [0.9, 0.9]
obstacles:
  - min: [0.4, 0.0]
    max: [0.6, 0.7]
seed: 42
`

func createTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_ValidFile(t *testing.T) {
	cfg, err := Load(createTempFile(t, "config.yaml", validConfigYAML))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.Mode)
	assert.Equal(t, 1.0, cfg.Planner.ProbShortestPath)
	assert.Equal(t, 0.5, cfg.Planner.ProbAbandonLeadEarly)
	assert.Equal(t, 20, cfg.Planner.NumAvailExplorations)
	assert.Equal(t, 3*time.Second, cfg.Planner.TimeLimit)
	assert.Equal(t, DefaultNumFreeVolSamples, cfg.Planner.NumFreeVolSamples)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, DefaultKafkaTopic, cfg.Kafka.Topic)
}

func TestLoad_ExplicitZeroFallback(t *testing.T) {
	cfg, err := Load(createTempFile(t, "config.yaml", "planner:\n  fallback_valid_fraction: 0\n"))
	require.NoError(t, err)
	assert.Equal(t, 0.0, cfg.Planner.FallbackValidFraction)
	assert.Equal(t, DefaultProbShortestPath, cfg.Planner.ProbShortestPath)

	cfg, err = Load(createTempFile(t, "config.yaml", validConfigYAML))
	require.NoError(t, err)
	assert.Equal(t, DefaultFallbackValidFraction, cfg.Planner.FallbackValidFraction)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoad_InvalidValues(t *testing.T) {
	_, err := Load(createTempFile(t, "config.yaml", "server:\n  mode: prod\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("SYCLOP_SERVER_PORT", "7070")
	t.Setenv("SYCLOP_REDIS_ADDR", "env-cache:6379")
	cfg, err := Load(createTempFile(t, "config.yaml", validConfigYAML))
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "env-cache:6379", cfg.Redis.Addr)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SYCLOP_PLANNER_NUM_TREE_SELECTIONS", "3")
	t.Setenv("SYCLOP_LOG_LEVEL", "warn")
	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Planner.NumTreeSelections)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
}

func TestMustLoad_Panics(t *testing.T) {
	assert.Panics(t, func() { MustLoad(filepath.Join(t.TempDir(), "nope.yaml")) })
}

func TestLoadScenario(t *testing.T) {
	sc, err := LoadScenario(createTempFile(t, "scenario.yaml", scenarioYAML))
	require.NoError(t, err)
	assert.Equal(t, "corridor", sc.Name)
	assert.Equal(t, 4, sc.Grid.Cols)
	assert.True(t, sc.Grid.Diagonal)
	assert.Equal(t, []float64{0.9, 0.9}, sc.Goal)
	require.Len(t, sc.Obstacles, 1)
	assert.Equal(t, []float64{0.6, 0.7}, sc.Obstacles[0].Max)
	assert.Equal(t, int64(42), sc.Seed)
	assert.Equal(t, DefaultGoalTolerance, sc.GoalTolerance)
}

func TestLoadScenario_Invalid(t *testing.T) {
	_, err := LoadScenario(createTempFile(t, "scenario.yaml", "low: [0]\nhigh: [1]\n"))
	assert.Error(t, err)
}

func TestWatch_InvokesCallbackOnChange(t *testing.T) {
	path := createTempFile(t, "config.yaml", validConfigYAML)
	changed := make(chan *Config, 1)
	Watch(path, func(c *Config) {
		select {
		case changed <- c:
		default:
		}
	})

	updated := validConfigYAML + "\n" + "metrics:\n  namespace: reloaded\n"
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o600))

	select {
	case c := <-changed:
		assert.Equal(t, "reloaded", c.Metrics.Namespace)
	case <-time.After(5 * time.Second):
		t.Skip("filesystem notifications unavailable")
	}
}
