// Worker entry point: consumes queued planning requests from Kafka.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/syclop/internal/application/planning"
	"github.com/turtacn/syclop/internal/bootstrap"
	"github.com/turtacn/syclop/internal/config"
	"github.com/turtacn/syclop/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/syclop/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/syclop/internal/infrastructure/monitoring/prometheus"
	httpserver "github.com/turtacn/syclop/internal/interfaces/http"
	"github.com/turtacn/syclop/internal/interfaces/http/handlers"
	"github.com/turtacn/syclop/internal/interfaces/worker"
)

const (
	defaultWorkerConfigPath = "configs/config.yaml"
	backendDialTimeout      = 30 * time.Second
)

// Build-time variables injected via ldflags.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", defaultWorkerConfigPath, "path to configuration file")
	consumers := flag.Int("consumers", 0, "consumer group members to run (overrides config)")
	healthPort := flag.Int("health-port", 0, "health server port (overrides config)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}
	if *consumers > 0 {
		cfg.Worker.Consumers = *consumers
	}
	if *healthPort > 0 {
		cfg.Worker.HealthPort = *healthPort
	}

	logger, err := logging.NewLogger(logging.LogConfig{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		OutputPaths: []string{cfg.Log.Output},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}
	logging.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("worker terminated", logging.Err(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger logging.Logger) error {
	if !cfg.Kafka.Enabled {
		return fmt.Errorf("kafka must be enabled to run the worker")
	}
	logger.Info("starting syclop worker",
		logging.String("version", version),
		logging.String("commit", commit),
		logging.String("build_date", buildDate),
		logging.String("topic", cfg.Kafka.RequestTopic),
		logging.String("group", cfg.Kafka.GroupID),
		logging.Int("consumers", cfg.Worker.Consumers))

	var (
		collector prometheus.MetricsCollector
		metrics   *prometheus.PlannerMetrics
	)
	if cfg.Metrics.Enabled {
		var err error
		collector, err = prometheus.NewMetricsCollector(prometheus.CollectorConfig{
			Namespace:            cfg.Metrics.Namespace,
			EnableProcessMetrics: true,
			EnableGoMetrics:      true,
			ConstLabels:          map[string]string{"version": version, "role": "worker"},
		}, logger)
		if err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
		metrics = prometheus.NewPlannerMetrics(collector)
	}

	dialCtx, cancelDial := context.WithTimeout(context.Background(), backendDialTimeout)
	b, err := bootstrap.Connect(dialCtx, cfg, logger)
	cancelDial()
	if err != nil {
		return err
	}
	defer b.Close()

	opts := append(b.ServiceOptions(),
		planning.WithMetrics(metrics),
		planning.WithMaxConcurrentRuns(cfg.Worker.Consumers))
	service := planning.NewService(cfg.Planner, logger.Named("planning"), opts...)
	handler := worker.NewRunRequestHandler(service,
		cfg.Planner.TimeLimit+planning.DefaultSinkTimeout, logger.Named("worker"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	group := make([]*kafka.Consumer, 0, cfg.Worker.Consumers)
	defer func() {
		for _, c := range group {
			if err := c.Close(); err != nil {
				logger.Warn("consumer close failed", logging.Err(err))
			}
		}
	}()
	for i := 0; i < cfg.Worker.Consumers; i++ {
		c, err := kafka.NewConsumer(cfg.Kafka, b.Producer, logger.Named("consumer"))
		if err != nil {
			return fmt.Errorf("kafka consumer: %w", err)
		}
		group = append(group, c)
		c.Subscribe(cfg.Kafka.RequestTopic, handler.MessageHandler())
		if err := c.Start(ctx); err != nil {
			return err
		}
	}

	gin.SetMode(gin.ReleaseMode)
	router := httpserver.NewRouter(httpserver.RouterConfig{
		HealthHandler:    handlers.NewHealthHandler(version, b.Checkers...),
		Logger:           logger,
		MetricsCollector: collector,
		MetricsPath:      cfg.Metrics.Path,
	})
	healthCfg := cfg.Server
	healthCfg.Port = cfg.Worker.HealthPort
	srv := httpserver.NewServer(healthCfg, router, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		logger.Info("shutdown signal received", logging.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("health server: %w", err)
		}
	}

	// A run in progress stops at its next termination check.
	cancel()
	stopCtx, stopCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer stopCancel()
	if err := srv.Stop(stopCtx); err != nil {
		logger.Error("health server shutdown error", logging.Err(err))
	}

	for _, c := range group {
		st := c.Stats()
		logger.Info("consumer stats",
			logging.Int64("consumed", st.Consumed),
			logging.Int64("processed", st.Processed),
			logging.Int64("failed", st.Failed),
			logging.Int64("dead_lettered", st.DeadLettered))
	}
	logger.Info("worker stopped")
	return nil
}

// loadConfig reads path when it exists and falls back to environment
// variables and defaults otherwise.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); err != nil {
		return config.LoadFromEnv()
	}
	return config.Load(path)
}
