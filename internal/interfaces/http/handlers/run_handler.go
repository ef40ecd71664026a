package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/turtacn/syclop/internal/application/planning"
	"github.com/turtacn/syclop/internal/config"
	"github.com/turtacn/syclop/internal/domain/run"
	"github.com/turtacn/syclop/internal/infrastructure/monitoring/logging"
)

// RunHandler exposes planning runs.
type RunHandler struct {
	service planning.Service
	logger  logging.Logger
}

// NewRunHandler creates a new RunHandler.
func NewRunHandler(service planning.Service, logger logging.Logger) *RunHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &RunHandler{service: service, logger: logger}
}

// ListRunsResponse wraps a page of runs.
type ListRunsResponse struct {
	Runs  []*run.Run `json:"runs"`
	Limit int        `json:"limit"`
}

// Create handles POST /api/v1/runs.  The body is a scenario; the optional
// seed query parameter overrides the scenario seed.  The run executes
// synchronously and the response is the run report, unless async=true, in
// which case the scenario is queued and 202 is returned with the request.
func (h *RunHandler) Create(c *gin.Context) {
	var sc config.ScenarioConfig
	if err := c.ShouldBindJSON(&sc); err != nil {
		badRequest(c, "invalid scenario body", err)
		return
	}
	if v := c.Query("seed"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			badRequest(c, "seed must be an integer", err)
			return
		}
		sc.Seed = seed
	}
	async := false
	if v := c.Query("async"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			badRequest(c, "async must be a boolean", err)
			return
		}
		async = b
	}
	if async {
		h.submit(c, &sc)
		return
	}

	report, err := h.service.Run(c.Request.Context(), &sc)
	if err != nil {
		if report != nil {
			h.logger.Warn("planning run failed",
				logging.String(logging.FieldRunID, report.Run.ID.String()), logging.Err(err))
		}
		writeAppError(c, err)
		return
	}
	c.Header("Location", "/api/v1/runs/"+report.Run.ID.String())
	c.JSON(http.StatusCreated, report)
}

// submit queues sc.  The Location header points at the run the worker will
// create under the request id.
func (h *RunHandler) submit(c *gin.Context, sc *config.ScenarioConfig) {
	req, err := h.service.Submit(c.Request.Context(), sc)
	if err != nil {
		writeAppError(c, err)
		return
	}
	c.Header("Location", "/api/v1/runs/"+req.ID.String())
	c.JSON(http.StatusAccepted, req)
}

// Get handles GET /api/v1/runs/:id.
func (h *RunHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "run id must be a UUID", err)
		return
	}
	r, err := h.service.GetRun(c.Request.Context(), id)
	if err != nil {
		writeAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// List handles GET /api/v1/runs?limit=N.
func (h *RunHandler) List(c *gin.Context) {
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			badRequest(c, "limit must be an integer", err)
			return
		}
		limit = n
	}
	limit = run.NormalizeLimit(limit)

	runs, err := h.service.ListRuns(c.Request.Context(), limit)
	if err != nil {
		writeAppError(c, err)
		return
	}
	if runs == nil {
		runs = []*run.Run{}
	}
	c.JSON(http.StatusOK, ListRunsResponse{Runs: runs, Limit: limit})
}
