package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_DefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errSub string
	}{
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"bad mode", func(c *Config) { c.Server.Mode = "prod" }, "server.mode"},
		{"bad concurrency", func(c *Config) { c.Server.MaxConcurrentRuns = -1 }, "max_concurrent_runs"},
		{"bad probability", func(c *Config) { c.Planner.ProbShortestPath = 1.2 }, "prob_shortest_path"},
		{"bad counts", func(c *Config) { c.Planner.NumTreeSelections = -1 }, "counts"},
		{"bad time limit", func(c *Config) { c.Planner.TimeLimit = -time.Second }, "time_limit"},
		{"bad iterations", func(c *Config) { c.Planner.MaxIterations = -1 }, "max_iterations"},
		{"bad step", func(c *Config) { c.Planner.MaxStep = -1 }, "max_step"},
		{"bad log level", func(c *Config) { c.Log.Level = "trace" }, "log.level"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"redis without addr", func(c *Config) { c.Redis.Enabled = true; c.Redis.Addr = "" }, "redis.addr"},
		{"database without user", func(c *Config) { c.Database.Enabled = true }, "database.user"},
		{"kafka without brokers", func(c *Config) { c.Kafka.Enabled = true; c.Kafka.Brokers = nil }, "kafka.brokers"},
		{"kafka request topic reuses event topic", func(c *Config) { c.Kafka.Enabled = true; c.Kafka.RequestTopic = c.Kafka.Topic }, "kafka.request_topic"},
		{"kafka negative retries", func(c *Config) { c.Kafka.Enabled = true; c.Kafka.MaxRetries = -1 }, "kafka.max_retries"},
		{"no worker consumers", func(c *Config) { c.Worker.Consumers = 0 }, "worker.consumers"},
		{"worker health port", func(c *Config) { c.Worker.HealthPort = 70000 }, "worker.health_port"},
		{"negative rate limit", func(c *Config) { c.Server.RunRateLimit = -1 }, "run_rate_limit"},
		{"minio without bucket", func(c *Config) { c.MinIO.Enabled = true; c.MinIO.Bucket = "" }, "minio.bucket"},
		{"neo4j without uri", func(c *Config) { c.Neo4j.Enabled = true; c.Neo4j.URI = "" }, "neo4j.uri"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSub)
		})
	}
}

func TestConfig_DisabledSinksAreNotValidated(t *testing.T) {
	cfg := Default()
	cfg.Redis.Addr = ""
	cfg.Kafka.Brokers = nil
	cfg.MinIO.Bucket = ""
	cfg.Neo4j.URI = ""
	assert.NoError(t, cfg.Validate())
}

func TestScenario_DefaultsAndValidate(t *testing.T) {
	sc := &ScenarioConfig{
		Low:   []float64{0, 0},
		High:  []float64{1, 1},
		Start: []float64{0.1, 0.1},
		Goal:  []float64{0.9, 0.9},
	}
	ApplyScenarioDefaults(sc)
	require.NoError(t, sc.Validate())
	assert.Equal(t, DefaultGridCells, sc.Grid.Cols)
	assert.Equal(t, DefaultGoalTolerance, sc.GoalTolerance)
	assert.Equal(t, int64(DefaultScenarioSeed), sc.Seed)
	assert.Equal(t, "scenario", sc.Name)
}

func TestScenario_ValidateErrors(t *testing.T) {
	base := func() *ScenarioConfig {
		sc := &ScenarioConfig{
			Low: []float64{0, 0}, High: []float64{1, 1},
			Start: []float64{0.1, 0.1}, Goal: []float64{0.9, 0.9},
		}
		ApplyScenarioDefaults(sc)
		return sc
	}
	cases := map[string]func(*ScenarioConfig){
		"one dimension":   func(s *ScenarioConfig) { s.Low, s.High = []float64{0}, []float64{1} },
		"inverted bounds": func(s *ScenarioConfig) { s.High[1] = -1 },
		"start dimension": func(s *ScenarioConfig) { s.Start = []float64{0.1} },
		"empty grid":      func(s *ScenarioConfig) { s.Grid.Rows = -1 },
		"tolerance":       func(s *ScenarioConfig) { s.GoalTolerance = -1 },
		"obstacle":        func(s *ScenarioConfig) { s.Obstacles = []ObstacleConfig{{Min: []float64{0}}} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			sc := base()
			mutate(sc)
			assert.Error(t, sc.Validate())
		})
	}
}
