// Package config defines all configuration structures for the syclop planning
// service.  No I/O or parsing logic lives here, only plain data types and
// validation.
package config

import (
	"fmt"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// MaxConcurrentRuns bounds the planning runs executing at once.
	MaxConcurrentRuns int `mapstructure:"max_concurrent_runs"`
	// RunRateLimit is the sustained run submissions per second allowed per
	// client; 0 disables throttling.
	RunRateLimit float64 `mapstructure:"run_rate_limit"`
	RunRateBurst int     `mapstructure:"run_rate_burst"`
}

// WorkerConfig holds the asynchronous run worker settings.
type WorkerConfig struct {
	// Consumers is the number of group members started by one worker
	// process.  Each handles its partitions sequentially.
	Consumers  int `mapstructure:"consumers"`
	HealthPort int `mapstructure:"health_port"`
}

// PlannerConfig holds the planner tunables and the extender settings used for
// every run unless a request overrides the seed.
type PlannerConfig struct {
	ProbShortestPath      float64 `mapstructure:"prob_shortest_path"`
	ProbAbandonLeadEarly  float64 `mapstructure:"prob_abandon_lead_early"`
	ProbKeepAddingToAvail float64 `mapstructure:"prob_keep_adding_to_avail"`
	NumAvailExplorations  int     `mapstructure:"num_avail_explorations"`
	NumTreeSelections     int     `mapstructure:"num_tree_selections"`
	NumFreeVolSamples     int     `mapstructure:"num_free_vol_samples"`
	CoverageGridLength    int     `mapstructure:"coverage_grid_length"`
	FallbackValidFraction float64 `mapstructure:"fallback_valid_fraction"`
	LiteralLeadIndexing   bool    `mapstructure:"literal_lead_indexing"`

	// TimeLimit bounds a single Solve call.
	TimeLimit time.Duration `mapstructure:"time_limit"`
	// MaxIterations bounds the outer iterations of Solve; 0 means unbounded.
	MaxIterations int `mapstructure:"max_iterations"`

	// Extender settings.
	MaxStep    float64 `mapstructure:"max_step"`
	GoalBias   float64 `mapstructure:"goal_bias"`
	Resolution float64 `mapstructure:"resolution"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format string `mapstructure:"format"` // "json" | "console"
	Output string `mapstructure:"output"`
}

// MetricsConfig holds Prometheus exposition parameters.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
	Path      string `mapstructure:"path"`
}

// RedisConfig holds Redis connection parameters for the estimate cache.
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	DefaultTTL   time.Duration `mapstructure:"default_ttl"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// DatabaseConfig holds PostgreSQL connection parameters for the run store.
type DatabaseConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"db_name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConns        int           `mapstructure:"max_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationPath   string        `mapstructure:"migration_path"`
}

// KafkaConfig holds Apache Kafka parameters.  Topic receives run completion
// events; RequestTopic carries queued run requests consumed by the worker.
type KafkaConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Brokers         []string      `mapstructure:"brokers"`
	Topic           string        `mapstructure:"topic"`
	TimeoutMS       int           `mapstructure:"timeout_ms"`
	ProducerRetries int           `mapstructure:"producer_retries"`
	BatchSize       int           `mapstructure:"batch_size"`
	RequestTopic    string        `mapstructure:"request_topic"`
	GroupID         string        `mapstructure:"group_id"`
	DeadLetterTopic string        `mapstructure:"dead_letter_topic"`
	MaxRetries      int           `mapstructure:"max_retries"`
	RetryBackoff    time.Duration `mapstructure:"retry_backoff"`
}

// MinIOConfig holds MinIO / S3-compatible parameters for run reports.
type MinIOConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// Neo4jConfig holds Neo4j parameters for region-graph export.
type Neo4jConfig struct {
	Enabled               bool          `mapstructure:"enabled"`
	URI                   string        `mapstructure:"uri"`
	User                  string        `mapstructure:"user"`
	Password              string        `mapstructure:"password"`
	Database              string        `mapstructure:"database"`
	MaxConnectionPoolSize int           `mapstructure:"max_connection_pool_size"`
	ConnectionTimeout     time.Duration `mapstructure:"connection_timeout"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration structure for the service and the CLI.
// Every infrastructure sink is optional and only validated when enabled.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Worker   WorkerConfig   `mapstructure:"worker"`
	Planner  PlannerConfig  `mapstructure:"planner"`
	Log      LogConfig      `mapstructure:"log"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Database DatabaseConfig `mapstructure:"database"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	MinIO    MinIOConfig    `mapstructure:"minio"`
	Neo4j    Neo4jConfig    `mapstructure:"neo4j"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate performs semantic validation of the fully-populated Config.
// It returns the first error encountered.
func (c *Config) Validate() error {
	// Server
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}
	if c.Server.MaxConcurrentRuns < 1 {
		return fmt.Errorf("config: server.max_concurrent_runs must be >= 1, got %d", c.Server.MaxConcurrentRuns)
	}
	// Worker
	if c.Worker.Consumers < 1 {
		return fmt.Errorf("config: worker.consumers must be >= 1, got %d", c.Worker.Consumers)
	}
	if c.Worker.HealthPort < 1 || c.Worker.HealthPort > 65535 {
		return fmt.Errorf("config: worker.health_port %d is out of range [1, 65535]", c.Worker.HealthPort)
	}
	if c.Server.RunRateLimit < 0 {
		return fmt.Errorf("config: server.run_rate_limit must be >= 0, got %g", c.Server.RunRateLimit)
	}

	if err := c.Planner.Validate(); err != nil {
		return err
	}

	// Log
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	// Sinks
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			return fmt.Errorf("config: redis.addr is required")
		}
		if c.Redis.DB < 0 {
			return fmt.Errorf("config: redis.db must be >= 0, got %d", c.Redis.DB)
		}
	}
	if c.Database.Enabled {
		if c.Database.Host == "" {
			return fmt.Errorf("config: database.host is required")
		}
		if c.Database.Port < 1 || c.Database.Port > 65535 {
			return fmt.Errorf("config: database.port %d is out of range [1, 65535]", c.Database.Port)
		}
		if c.Database.User == "" {
			return fmt.Errorf("config: database.user is required")
		}
		if c.Database.DBName == "" {
			return fmt.Errorf("config: database.db_name is required")
		}
		if c.Database.MaxConns < 1 {
			return fmt.Errorf("config: database.max_conns must be >= 1, got %d", c.Database.MaxConns)
		}
	}
	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("config: kafka.brokers must contain at least one broker address")
		}
		if c.Kafka.Topic == "" {
			return fmt.Errorf("config: kafka.topic is required")
		}
		if c.Kafka.RequestTopic == "" || c.Kafka.RequestTopic == c.Kafka.Topic {
			return fmt.Errorf("config: kafka.request_topic is required and must differ from kafka.topic")
		}
		if c.Kafka.MaxRetries < 0 {
			return fmt.Errorf("config: kafka.max_retries must be >= 0, got %d", c.Kafka.MaxRetries)
		}
	}
	if c.MinIO.Enabled {
		if c.MinIO.Endpoint == "" {
			return fmt.Errorf("config: minio.endpoint is required")
		}
		if c.MinIO.Bucket == "" {
			return fmt.Errorf("config: minio.bucket is required")
		}
	}
	if c.Neo4j.Enabled && c.Neo4j.URI == "" {
		return fmt.Errorf("config: neo4j.uri is required")
	}
	return nil
}

// Validate checks the planner tunables.
func (p *PlannerConfig) Validate() error {
	for name, v := range map[string]float64{
		"prob_shortest_path":        p.ProbShortestPath,
		"prob_abandon_lead_early":   p.ProbAbandonLeadEarly,
		"prob_keep_adding_to_avail": p.ProbKeepAddingToAvail,
		"fallback_valid_fraction":   p.FallbackValidFraction,
		"goal_bias":                 p.GoalBias,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("config: planner.%s %g is out of range [0, 1]", name, v)
		}
	}
	if p.NumAvailExplorations < 1 || p.NumTreeSelections < 1 || p.NumFreeVolSamples < 1 || p.CoverageGridLength < 1 {
		return fmt.Errorf("config: planner counts must be >= 1")
	}
	if p.TimeLimit <= 0 {
		return fmt.Errorf("config: planner.time_limit must be positive")
	}
	if p.MaxIterations < 0 {
		return fmt.Errorf("config: planner.max_iterations must be >= 0, got %d", p.MaxIterations)
	}
	if p.MaxStep <= 0 || p.Resolution <= 0 {
		return fmt.Errorf("config: planner.max_step and planner.resolution must be positive")
	}
	return nil
}
