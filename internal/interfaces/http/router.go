// Package http wires the gin engine of the planning API.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/syclop/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/syclop/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/syclop/internal/interfaces/http/handlers"
	"github.com/turtacn/syclop/internal/interfaces/http/middleware"
)

// DefaultMetricsPath is used when RouterConfig.MetricsPath is empty.
const DefaultMetricsPath = "/metrics"

// RouterConfig aggregates all handler and middleware dependencies required
// to construct the route tree.
type RouterConfig struct {
	// Handlers
	RunHandler    *handlers.RunHandler
	HealthHandler *handlers.HealthHandler

	// Middleware
	Logging middleware.LoggingConfig
	// RunLimiter throttles run creation per client.  Nil disables it.
	RunLimiter middleware.RateLimiter

	// Infrastructure
	Logger           logging.Logger
	Metrics          *prometheus.PlannerMetrics
	MetricsCollector prometheus.MetricsCollector
	MetricsPath      string
}

// NewRouter constructs the gin engine: global middleware, probes, the
// metrics endpoint and the /api/v1 resource group.
func NewRouter(cfg RouterConfig) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	logCfg := cfg.Logging
	if logCfg.SkipPaths == nil && logCfg.SlowThreshold == 0 {
		logCfg = middleware.DefaultLoggingConfig()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogging(logger, logCfg))
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}

	if cfg.HealthHandler != nil {
		r.GET("/healthz", cfg.HealthHandler.Liveness)
		r.GET("/readyz", cfg.HealthHandler.Readiness)
	}

	if cfg.MetricsCollector != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = DefaultMetricsPath
		}
		r.GET(path, gin.WrapH(cfg.MetricsCollector.Handler()))
	}

	api := r.Group("/api/v1")
	registerRunRoutes(api, cfg.RunHandler, cfg.RunLimiter)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, handlers.ErrorResponse{Code: "NOT_FOUND", Message: "route not found"})
	})
	return r
}

// registerRunRoutes mounts planning run endpoints under /runs.
func registerRunRoutes(g *gin.RouterGroup, h *handlers.RunHandler, limiter middleware.RateLimiter) {
	if h == nil {
		return
	}
	runs := g.Group("/runs")
	create := []gin.HandlerFunc{h.Create}
	if limiter != nil {
		create = append([]gin.HandlerFunc{middleware.RateLimit(limiter)}, create...)
	}
	runs.POST("", create...)
	runs.GET("", h.List)
	runs.GET("/:id", h.Get)
}
