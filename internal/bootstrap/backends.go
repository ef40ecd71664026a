// Package bootstrap connects the optional infrastructure shared by the API
// server and the run worker.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/turtacn/syclop/internal/application/planning"
	"github.com/turtacn/syclop/internal/config"
	"github.com/turtacn/syclop/internal/domain/run"
	infraNeo4j "github.com/turtacn/syclop/internal/infrastructure/database/neo4j"
	neo4jrepos "github.com/turtacn/syclop/internal/infrastructure/database/neo4j/repositories"
	"github.com/turtacn/syclop/internal/infrastructure/database/postgres"
	pgrepos "github.com/turtacn/syclop/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/syclop/internal/infrastructure/database/redis"
	"github.com/turtacn/syclop/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/syclop/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/syclop/internal/infrastructure/storage/minio"
	"github.com/turtacn/syclop/internal/interfaces/http/handlers"
)

const (
	defaultTopicPartitions  = 3
	defaultTopicReplication = 1
)

// Backends holds the infrastructure enabled in the configuration.
type Backends struct {
	Sinks    planning.Sinks
	Cache    run.EstimateCache
	Queue    run.RequestQueue
	Checkers []handlers.HealthChecker
	// Producer is set when Kafka is enabled.
	Producer *kafka.Producer

	closers []func() error
	logger  logging.Logger
}

// Connect dials every enabled backend.  On error the backends opened so far
// are closed.
func Connect(ctx context.Context, cfg *config.Config, logger logging.Logger) (_ *Backends, err error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	b := &Backends{logger: logger}
	defer func() {
		if err != nil {
			b.Close()
		}
	}()

	if cfg.Redis.Enabled {
		client, err := redis.NewClient(cfg.Redis, logger)
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		b.closers = append(b.closers, client.Close)
		b.Cache = redis.NewEstimateCache(client, logger,
			redis.WithPrefix(cfg.Redis.KeyPrefix), redis.WithTTL(cfg.Redis.DefaultTTL))
		b.Checkers = append(b.Checkers, handlers.NewChecker("redis", client.Ping))
	}

	if cfg.Database.Enabled {
		conn, err := postgres.NewConnection(cfg.Database, logger)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		b.closers = append(b.closers, conn.Close)
		if err := conn.RunMigrations(cfg.Database.MigrationPath); err != nil {
			return nil, fmt.Errorf("postgres migrations: %w", err)
		}
		b.Sinks.Repository = pgrepos.NewPostgresRunRepo(conn, logger)
		b.Checkers = append(b.Checkers, handlers.NewChecker("postgres", conn.HealthCheck))
	}

	if cfg.Kafka.Enabled {
		if err := ensureTopics(ctx, cfg.Kafka, logger); err != nil {
			return nil, err
		}
		producer, err := kafka.NewProducer(cfg.Kafka, logger)
		if err != nil {
			return nil, fmt.Errorf("kafka: %w", err)
		}
		b.closers = append(b.closers, producer.Close)
		b.Producer = producer
		b.Sinks.Publisher = kafka.NewRunEventPublisher(producer, cfg.Kafka.Topic)
		b.Queue = kafka.NewRunRequestQueue(producer, cfg.Kafka.RequestTopic)
	}

	if cfg.MinIO.Enabled {
		client, err := minio.NewClient(cfg.MinIO, logger)
		if err != nil {
			return nil, fmt.Errorf("minio: %w", err)
		}
		b.Sinks.Archive = minio.NewReportArchive(client, logger)
		b.Checkers = append(b.Checkers, handlers.NewChecker("minio", func(ctx context.Context) error {
			_, err := client.HealthCheck(ctx)
			return err
		}))
	}

	if cfg.Neo4j.Enabled {
		driver, err := infraNeo4j.NewDriver(cfg.Neo4j, logger)
		if err != nil {
			return nil, fmt.Errorf("neo4j: %w", err)
		}
		b.closers = append(b.closers, driver.Close)
		b.Sinks.Exporter = neo4jrepos.NewRegionGraphExporter(driver, logger)
		b.Checkers = append(b.Checkers, handlers.NewChecker("neo4j", driver.HealthCheck))
	}

	return b, nil
}

// ensureTopics creates the event, request and dead-letter topics.
func ensureTopics(ctx context.Context, cfg config.KafkaConfig, logger logging.Logger) error {
	tm, err := kafka.NewTopicManager(cfg.Brokers, logger)
	if err != nil {
		return fmt.Errorf("kafka: %w", err)
	}
	defer tm.Close()

	for _, topic := range []string{cfg.Topic, cfg.RequestTopic, cfg.DeadLetterTopic} {
		if topic == "" {
			continue
		}
		if err := tm.EnsureTopic(ctx, topic, defaultTopicPartitions, defaultTopicReplication); err != nil {
			return fmt.Errorf("kafka topic %s: %w", topic, err)
		}
	}
	return nil
}

// ServiceOptions turns the connected backends into planning service options.
func (b *Backends) ServiceOptions() []planning.Option {
	opts := []planning.Option{planning.WithSinks(b.Sinks)}
	if b.Cache != nil {
		opts = append(opts, planning.WithEstimateCache(b.Cache))
	}
	if b.Queue != nil {
		opts = append(opts, planning.WithRequestQueue(b.Queue))
	}
	return opts
}

// Close releases the backends in reverse order of creation.  It is safe to
// call more than once.
func (b *Backends) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			b.logger.Warn("failed to close backend", logging.Err(err))
		}
	}
	b.closers = nil
}
