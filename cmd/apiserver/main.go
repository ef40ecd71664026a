// API server entry point for the syclop planning service.
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
	"github.com/turtacn/syclop/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/syclop/internal/infrastructure/monitoring/prometheus"
	httpserver "github.com/turtacn/syclop/internal/interfaces/http"
	"github.com/turtacn/syclop/internal/interfaces/http/handlers"
	"github.com/turtacn/syclop/internal/interfaces/http/middleware"
)

const (
	defaultConfigPath    = "configs/config.yaml"
	backendDialTimeout   = 30 * time.Second
	rateLimitCleanupTick = 5 * time.Minute
)

// Build-time variables injected via ldflags.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
	flag.Parse()

	cfg, fromFile, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}
	if *port > 0 {
		cfg.Server.Port = *port
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

	if fromFile {
		config.Watch(*configPath, func(next *config.Config) {
			if logging.SetLevel(logger, next.Log.Level) {
				logger.Info("log level reloaded", logging.String("level", next.Log.Level))
			}
		})
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("api server terminated", logging.Err(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger logging.Logger) error {
	logger.Info("starting syclop API server",
		logging.String("version", version),
		logging.String("commit", commit),
		logging.String("build_date", buildDate),
		logging.Int("port", cfg.Server.Port))

	gin.SetMode(cfg.Server.Mode)

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
			ConstLabels:          map[string]string{"version": version},
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
		planning.WithMaxConcurrentRuns(cfg.Server.MaxConcurrentRuns))
	service := planning.NewService(cfg.Planner, logger.Named("planning"), opts...)

	var limiter middleware.RateLimiter
	if cfg.Server.RunRateLimit > 0 {
		tb := middleware.NewTokenBucketLimiter(cfg.Server.RunRateLimit, cfg.Server.RunRateBurst, rateLimitCleanupTick)
		defer tb.Stop()
		limiter = tb
	}

	router := httpserver.NewRouter(httpserver.RouterConfig{
		RunHandler:       handlers.NewRunHandler(service, logger),
		HealthHandler:    handlers.NewHealthHandler(version, b.Checkers...),
		Logging:          middleware.DefaultLoggingConfig(),
		RunLimiter:       limiter,
		Logger:           logger,
		Metrics:          metrics,
		MetricsCollector: collector,
		MetricsPath:      cfg.Metrics.Path,
	})
	srv := httpserver.NewServer(cfg.Server, router, logger)

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
			return fmt.Errorf("http server: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		logger.Error("HTTP server shutdown error", logging.Err(err))
	}

	logger.Info("server stopped")
	return nil
}

// loadConfig reads path when it exists and falls back to environment
// variables and defaults otherwise.
func loadConfig(path string) (*config.Config, bool, error) {
	if _, err := os.Stat(path); err != nil {
		cfg, err := config.LoadFromEnv()
		return cfg, false, err
	}
	cfg, err := config.Load(path)
	return cfg, true, err
}
