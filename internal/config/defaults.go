package config

import "time"

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultServerPort              = 8080
	DefaultServerMode              = "release"
	DefaultServerReadTimeout       = 30 * time.Second
	DefaultServerWriteTimeout      = 2 * time.Minute
	DefaultServerShutdownTimeout   = 15 * time.Second
	DefaultServerMaxConcurrentRuns = 4
	DefaultServerRunRateBurst      = 5

	DefaultWorkerConsumers  = 1
	DefaultWorkerHealthPort = 8081

	DefaultProbShortestPath      = 0.95
	DefaultProbAbandonLeadEarly  = 0.25
	DefaultProbKeepAddingToAvail = 0.95
	DefaultNumAvailExplorations  = 100
	DefaultNumTreeSelections     = 1
	DefaultNumFreeVolSamples     = 5000
	DefaultCoverageGridLength    = 128
	DefaultFallbackValidFraction = 1.0
	DefaultPlannerTimeLimit      = 10 * time.Second
	DefaultMaxStep               = 0.05
	DefaultGoalBias              = 0.05
	DefaultResolution            = 0.01

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
	DefaultLogOutput = "stdout"

	DefaultMetricsNamespace = "syclop"
	DefaultMetricsPath      = "/metrics"

	DefaultRedisAddr        = "localhost:6379"
	DefaultRedisPoolSize    = 10
	DefaultRedisTTL         = 24 * time.Hour
	DefaultRedisKeyPrefix   = "syclop:"
	DefaultRedisIOTimeout   = 3 * time.Second
	DefaultRedisDialTimeout = 5 * time.Second

	DefaultDBHost          = "localhost"
	DefaultDBPort          = 5432
	DefaultDBName          = "syclop"
	DefaultDBSSLMode       = "disable"
	DefaultDBMaxConns      = 10
	DefaultDBMaxIdleConns  = 5
	DefaultDBConnLifetime  = 30 * time.Minute
	DefaultDBMigrationPath = "file://internal/infrastructure/database/postgres/migrations"

	DefaultKafkaBroker    = "localhost:9092"
	DefaultKafkaTopic     = "planning.run.completed"
	DefaultKafkaTimeoutMS = 10000
	DefaultKafkaRetries   = 3
	DefaultKafkaBatchSize = 100

	DefaultKafkaRequestTopic    = "planning.run.requested"
	DefaultKafkaGroupID         = "syclop-worker"
	DefaultKafkaDeadLetterTopic = "planning.run.requested.dlq"
	DefaultKafkaMaxRetries      = 2
	DefaultKafkaRetryBackoff    = time.Second

	DefaultMinIOEndpoint = "localhost:9000"
	DefaultMinIOBucket   = "planning-reports"

	DefaultNeo4jURI      = "bolt://localhost:7687"
	DefaultNeo4jDatabase = "neo4j"
	DefaultNeo4jPoolSize = 20
	DefaultNeo4jTimeout  = 10 * time.Second
)

// ApplyDefaults fills every zero-value field in cfg with its default.
// Fields that have already been set are left unchanged so that explicit
// configuration always wins.  Boolean switches are never defaulted.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Server ────────────────────────────────────────────────────────────────
	setInt(&cfg.Server.Port, DefaultServerPort)
	setString(&cfg.Server.Mode, DefaultServerMode)
	setDuration(&cfg.Server.ReadTimeout, DefaultServerReadTimeout)
	setDuration(&cfg.Server.WriteTimeout, DefaultServerWriteTimeout)
	setDuration(&cfg.Server.ShutdownTimeout, DefaultServerShutdownTimeout)
	setInt(&cfg.Server.MaxConcurrentRuns, DefaultServerMaxConcurrentRuns)
	setInt(&cfg.Server.RunRateBurst, DefaultServerRunRateBurst)

	// ── Worker ────────────────────────────────────────────────────────────────
	setInt(&cfg.Worker.Consumers, DefaultWorkerConsumers)
	setInt(&cfg.Worker.HealthPort, DefaultWorkerHealthPort)

	// ── Planner ───────────────────────────────────────────────────────────────
	// Probabilities and the fallback fraction may legitimately be zero, so they
	// are only defaulted together when all of them were left empty.
	p := &cfg.Planner
	if p.ProbShortestPath == 0 && p.ProbAbandonLeadEarly == 0 && p.ProbKeepAddingToAvail == 0 &&
		p.FallbackValidFraction == 0 {
		p.ProbShortestPath = DefaultProbShortestPath
		p.ProbAbandonLeadEarly = DefaultProbAbandonLeadEarly
		p.ProbKeepAddingToAvail = DefaultProbKeepAddingToAvail
		p.FallbackValidFraction = DefaultFallbackValidFraction
	}
	setInt(&p.NumAvailExplorations, DefaultNumAvailExplorations)
	setInt(&p.NumTreeSelections, DefaultNumTreeSelections)
	setInt(&p.NumFreeVolSamples, DefaultNumFreeVolSamples)
	setInt(&p.CoverageGridLength, DefaultCoverageGridLength)
	setDuration(&p.TimeLimit, DefaultPlannerTimeLimit)
	setFloat(&p.MaxStep, DefaultMaxStep)
	setFloat(&p.GoalBias, DefaultGoalBias)
	setFloat(&p.Resolution, DefaultResolution)

	// ── Log / Metrics ─────────────────────────────────────────────────────────
	setString(&cfg.Log.Level, DefaultLogLevel)
	setString(&cfg.Log.Format, DefaultLogFormat)
	setString(&cfg.Log.Output, DefaultLogOutput)
	setString(&cfg.Metrics.Namespace, DefaultMetricsNamespace)
	setString(&cfg.Metrics.Path, DefaultMetricsPath)

	// ── Redis ─────────────────────────────────────────────────────────────────
	setString(&cfg.Redis.Addr, DefaultRedisAddr)
	setInt(&cfg.Redis.PoolSize, DefaultRedisPoolSize)
	setDuration(&cfg.Redis.DialTimeout, DefaultRedisDialTimeout)
	setDuration(&cfg.Redis.ReadTimeout, DefaultRedisIOTimeout)
	setDuration(&cfg.Redis.WriteTimeout, DefaultRedisIOTimeout)
	setDuration(&cfg.Redis.DefaultTTL, DefaultRedisTTL)
	setString(&cfg.Redis.KeyPrefix, DefaultRedisKeyPrefix)

	// ── Database ──────────────────────────────────────────────────────────────
	setString(&cfg.Database.Host, DefaultDBHost)
	setInt(&cfg.Database.Port, DefaultDBPort)
	setString(&cfg.Database.DBName, DefaultDBName)
	setString(&cfg.Database.SSLMode, DefaultDBSSLMode)
	setInt(&cfg.Database.MaxConns, DefaultDBMaxConns)
	setInt(&cfg.Database.MaxIdleConns, DefaultDBMaxIdleConns)
	setDuration(&cfg.Database.ConnMaxLifetime, DefaultDBConnLifetime)
	setString(&cfg.Database.MigrationPath, DefaultDBMigrationPath)

	// ── Kafka ─────────────────────────────────────────────────────────────────
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	setString(&cfg.Kafka.Topic, DefaultKafkaTopic)
	setInt(&cfg.Kafka.TimeoutMS, DefaultKafkaTimeoutMS)
	setInt(&cfg.Kafka.ProducerRetries, DefaultKafkaRetries)
	setInt(&cfg.Kafka.BatchSize, DefaultKafkaBatchSize)
	setString(&cfg.Kafka.RequestTopic, DefaultKafkaRequestTopic)
	setString(&cfg.Kafka.GroupID, DefaultKafkaGroupID)
	setString(&cfg.Kafka.DeadLetterTopic, DefaultKafkaDeadLetterTopic)
	setInt(&cfg.Kafka.MaxRetries, DefaultKafkaMaxRetries)
	setDuration(&cfg.Kafka.RetryBackoff, DefaultKafkaRetryBackoff)

	// ── MinIO / Neo4j ─────────────────────────────────────────────────────────
	setString(&cfg.MinIO.Endpoint, DefaultMinIOEndpoint)
	setString(&cfg.MinIO.Bucket, DefaultMinIOBucket)
	setString(&cfg.Neo4j.URI, DefaultNeo4jURI)
	setString(&cfg.Neo4j.Database, DefaultNeo4jDatabase)
	setInt(&cfg.Neo4j.MaxConnectionPoolSize, DefaultNeo4jPoolSize)
	setDuration(&cfg.Neo4j.ConnectionTimeout, DefaultNeo4jTimeout)
}

// Default returns a Config with every default applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

func setString(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if *dst == 0 {
		*dst = v
	}
}

func setFloat(dst *float64, v float64) {
	if *dst == 0 {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v time.Duration) {
	if *dst == 0 {
		*dst = v
	}
}
