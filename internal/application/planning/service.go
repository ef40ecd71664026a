package planning

import (
	"context"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/turtacn/syclop/internal/config"
	"github.com/turtacn/syclop/internal/domain/run"
	"github.com/turtacn/syclop/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/syclop/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/syclop/internal/planning/syclop"
	"github.com/turtacn/syclop/pkg/errors"
)

// Sink names used in logs and metrics.
const (
	SinkRepository = "repository"
	SinkPublisher  = "publisher"
	SinkArchive    = "archive"
	SinkExporter   = "exporter"
)

// DefaultSinkTimeout bounds the fan-out to the sinks after a run finished.
const DefaultSinkTimeout = 15 * time.Second

// Service defines the planning application operations.
type Service interface {
	// Run plans the scenario to completion and returns the run report.  A
	// report is returned together with the error when the planner failed
	// after the run was created.
	Run(ctx context.Context, sc *config.ScenarioConfig) (*run.Report, error)
	// Submit validates the scenario and queues it for a worker.  The run
	// created for the request later carries the request id.
	Submit(ctx context.Context, sc *config.ScenarioConfig) (*run.Request, error)
	// RunRequest plans a queued request like Run.
	RunRequest(ctx context.Context, req *run.Request) (*run.Report, error)
	GetRun(ctx context.Context, id uuid.UUID) (*run.Run, error)
	ListRuns(ctx context.Context, limit int) ([]*run.Run, error)
}

// Sinks are the optional destinations of finished runs.  Nil members are
// skipped.
type Sinks struct {
	Repository run.Repository
	Publisher  run.EventPublisher
	Archive    run.ReportArchive
	Exporter   run.GraphExporter
}

// Option configures the service.
type Option func(*serviceImpl)

// WithSinks sets the sinks.  Without a repository the service keeps recent
// runs in memory.
func WithSinks(s Sinks) Option {
	return func(svc *serviceImpl) { svc.sinks = s }
}

// WithEstimateCache enables reuse of free-volume estimates across runs.
func WithEstimateCache(c run.EstimateCache) Option {
	return func(svc *serviceImpl) { svc.cache = c }
}

// WithMetrics records run metrics.
func WithMetrics(m *prometheus.PlannerMetrics) Option {
	return func(svc *serviceImpl) { svc.metrics = m }
}

// WithMaxConcurrentRuns bounds the runs executing at once.  n <= 0 means
// unbounded.
func WithMaxConcurrentRuns(n int) Option {
	return func(svc *serviceImpl) {
		if n > 0 {
			svc.slots = semaphore.NewWeighted(int64(n))
		}
	}
}

// WithRequestQueue enables Submit.
func WithRequestQueue(q run.RequestQueue) Option {
	return func(svc *serviceImpl) { svc.queue = q }
}

// WithSinkTimeout overrides DefaultSinkTimeout.
func WithSinkTimeout(d time.Duration) Option {
	return func(svc *serviceImpl) {
		if d > 0 {
			svc.sinkTimeout = d
		}
	}
}

type serviceImpl struct {
	cfg         config.PlannerConfig
	sinks       Sinks
	cache       run.EstimateCache
	queue       run.RequestQueue
	metrics     *prometheus.PlannerMetrics
	slots       *semaphore.Weighted
	sinkTimeout time.Duration
	logger      logging.Logger
}

// NewService creates the planning service.
func NewService(cfg config.PlannerConfig, logger logging.Logger, opts ...Option) Service {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	s := &serviceImpl{cfg: cfg, sinkTimeout: DefaultSinkTimeout, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	if s.sinks.Repository == nil {
		s.sinks.Repository = newMemoryRepository(run.MaxListLimit)
	}
	return s
}

func (s *serviceImpl) Run(ctx context.Context, sc *config.ScenarioConfig) (*run.Report, error) {
	return s.execute(ctx, sc, uuid.Nil)
}

func (s *serviceImpl) RunRequest(ctx context.Context, req *run.Request) (*run.Report, error) {
	if req == nil {
		return nil, errors.InvalidParam("run request is required")
	}
	return s.execute(ctx, &req.Scenario, req.ID)
}

// execute plans sc under a fresh run, which takes id unless id is nil.
func (s *serviceImpl) execute(ctx context.Context, sc *config.ScenarioConfig, id uuid.UUID) (*run.Report, error) {
	problem, err := BuildProblem(sc, s.cfg)
	if err != nil {
		return nil, err
	}

	if s.slots != nil {
		if err := s.slots.Acquire(ctx, 1); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeServiceUnavailable, "no planning slot available")
		}
		defer s.slots.Release(1)
	}

	r, err := run.NewRun(problem.Scenario.Name, problem.Scenario.Seed)
	if err != nil {
		return nil, err
	}
	if id != uuid.Nil {
		r.ID = id
	}
	log := s.logger.With(
		logging.String(logging.FieldRunID, r.ID.String()),
		logging.String(logging.FieldScenario, r.Scenario),
		logging.Int64(logging.FieldSeed, r.Seed))

	fractions := s.validFractions(ctx, problem, log)

	planner, err := syclop.New(syclop.Collaborators{
		Decomposition: problem.Grid,
		Sampler:       problem.Space,
		Checker:       problem.World,
		Extender:      problem.Extender,
	}, problem.Config,
		syclop.WithLogger(log),
		syclop.WithSeed(r.Seed),
		syclop.WithValidFractions(fractions))
	if err != nil {
		return nil, err
	}

	if err := r.Start(); err != nil {
		return nil, err
	}
	done := s.metrics.RunStarted()
	started := time.Now()
	res, solveErr := s.solve(ctx, planner, problem)
	elapsed := time.Since(started)
	done()

	report := &run.Report{Run: r}
	if solveErr != nil {
		_ = r.Fail(solveErr, elapsed)
		log.Warn("planning run failed", logging.Err(solveErr), logging.Duration("elapsed", elapsed))
	} else {
		var path [][]float64
		if res.Solved() {
			for _, st := range planner.Tree().PathTo(res.GoalNode) {
				path = append(path, []float64(st))
			}
		}
		status := run.StatusExhausted
		if res.Solved() {
			status = run.StatusSuccess
		}
		if err := r.Complete(status, run.Stats(res.Stats), planner.Tree().Len(), res.Lead, path, elapsed); err != nil {
			return nil, err
		}
		report.Graph = Snapshot(r.ID, planner)
		log.Info("planning run finished",
			logging.String("status", string(r.Status)),
			logging.Int("iterations", r.Stats.Iterations),
			logging.Int("tree_size", r.TreeSize),
			logging.Ints("lead", r.Lead),
			logging.Duration("elapsed", elapsed))
	}

	s.metrics.RecordRun(prometheus.RunObservation{
		Status:        string(r.Status),
		Elapsed:       elapsed,
		Iterations:    r.Stats.Iterations,
		TreeSize:      r.TreeSize,
		LeadLength:    r.LeadLength(),
		EarlyAbandons: r.Stats.EarlyAbandons,
	})
	s.dispatch(ctx, report, log)

	if solveErr != nil {
		return report, solveErr
	}
	return report, nil
}

func (s *serviceImpl) Submit(ctx context.Context, sc *config.ScenarioConfig) (*run.Request, error) {
	if s.queue == nil {
		return nil, errors.New(errors.ErrCodeNotImplemented, "asynchronous runs are not enabled")
	}
	if _, err := BuildProblem(sc, s.cfg); err != nil {
		return nil, err
	}
	req := run.NewRequest(*sc)
	if err := s.queue.Enqueue(ctx, req); err != nil {
		return nil, err
	}
	s.logger.Info("planning run queued",
		logging.String(logging.FieldRequestID, req.ID.String()),
		logging.String(logging.FieldScenario, sc.Name))
	return req, nil
}

func (s *serviceImpl) solve(ctx context.Context, planner *syclop.Planner, problem *Problem) (*syclop.Result, error) {
	if err := planner.Setup(syclop.ProblemDefinition{Start: problem.Start, Goal: problem.Goal}); err != nil {
		return nil, err
	}
	conds := []syclop.TerminationCondition{
		syclop.ContextDone(ctx),
		syclop.Timeout(s.cfg.TimeLimit),
	}
	if s.cfg.MaxIterations > 0 {
		conds = append(conds, syclop.MaxIterations(s.cfg.MaxIterations))
	}
	return planner.Solve(syclop.Any(conds...))
}

// validFractions returns the free-volume estimates of problem, from the cache
// when possible.  Estimates are always sampled with the geometry-derived seed
// so a cache hit yields the same planner behaviour as a miss.  A cached entry
// sized for another decomposition is invalidated and recomputed.
func (s *serviceImpl) validFractions(ctx context.Context, problem *Problem, log logging.Logger) []float64 {
	compute := func() ([]float64, error) {
		defer s.metrics.EstimateTimer().ObserveDuration()
		return syclop.EstimateValidFractions(problem.Grid, problem.Space, problem.World,
			problem.Config.NumFreeVolSamples, problem.Config.FallbackValidFraction,
			rand.New(rand.NewSource(problem.EstimateSeed))), nil
	}
	if s.cache == nil {
		fractions, _ := compute()
		return fractions
	}

	n := problem.Grid.NumRegions()
	fractions, hit, err := s.cache.GetOrCompute(ctx, problem.Fingerprint, compute)
	if err == nil && len(fractions) != n {
		log.Warn("discarding cached estimates with wrong region count",
			logging.Int("cached", len(fractions)), logging.Int("regions", n))
		if err = s.cache.Invalidate(ctx, problem.Fingerprint); err == nil {
			fractions, hit, err = s.cache.GetOrCompute(ctx, problem.Fingerprint, compute)
		}
	}
	if err != nil || len(fractions) != n {
		log.Warn("estimate cache unavailable", logging.Err(err))
		fractions, _ = compute()
		return fractions
	}
	s.metrics.RecordCacheLookup(hit)
	return fractions
}

// dispatch writes the report to every configured sink concurrently.  Sink
// failures are logged and counted; they never fail the run.
func (s *serviceImpl) dispatch(ctx context.Context, report *run.Report, log logging.Logger) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.sinkTimeout)
	defer cancel()

	var g errgroup.Group
	submit := func(sink string, fn func() error) {
		g.Go(func() error {
			if err := fn(); err != nil {
				s.metrics.RecordSinkError(sink)
				log.Error("run sink failed", logging.String("sink", sink), logging.Err(err))
			}
			return nil
		})
	}

	submit(SinkRepository, func() error { return s.sinks.Repository.Save(ctx, report.Run) })
	if s.sinks.Publisher != nil {
		submit(SinkPublisher, func() error {
			return s.sinks.Publisher.PublishRunCompleted(ctx, run.NewCompletedEvent(report.Run))
		})
	}
	if s.sinks.Archive != nil {
		submit(SinkArchive, func() error {
			key, err := s.sinks.Archive.StoreReport(ctx, report)
			if err == nil {
				log.Debug("run report archived", logging.String("key", key))
			}
			return err
		})
	}
	if s.sinks.Exporter != nil && report.Graph != nil {
		submit(SinkExporter, func() error { return s.sinks.Exporter.ExportGraph(ctx, report.Graph) })
	}
	_ = g.Wait()
}

func (s *serviceImpl) GetRun(ctx context.Context, id uuid.UUID) (*run.Run, error) {
	return s.sinks.Repository.GetByID(ctx, id)
}

func (s *serviceImpl) ListRuns(ctx context.Context, limit int) ([]*run.Run, error) {
	return s.sinks.Repository.ListRecent(ctx, run.NormalizeLimit(limit))
}

// Snapshot captures the region graph estimates of planner.
func Snapshot(id uuid.UUID, planner *syclop.Planner) *run.GraphSnapshot {
	g := planner.Graph()
	if g == nil {
		return nil
	}
	snap := &run.GraphSnapshot{
		RunID:       id,
		StartRegion: planner.StartRegion(),
		GoalRegion:  planner.GoalRegion(),
		Regions:     make([]run.RegionSnapshot, 0, g.NumRegions()),
	}
	for i := 0; i < g.NumRegions(); i++ {
		r := g.Region(i)
		snap.Regions = append(snap.Regions, run.RegionSnapshot{
			Index:             r.Index,
			Volume:            r.Volume,
			FreeVolume:        r.FreeVolume,
			PercentValidCells: r.PercentValidCells,
			NumSelections:     r.NumSelections,
			Weight:            r.Weight,
			Alpha:             r.Alpha,
			CoverageCells:     r.CoverageCells(),
			TreeStates:        len(r.States()),
		})
	}
	for _, e := range g.Edges() {
		snap.Adjacencies = append(snap.Adjacencies, run.AdjacencySnapshot{
			Source:        e.Source,
			Target:        e.Target,
			Cost:          e.Cost,
			NumSelections: e.NumSelections,
			CoverageCells: e.CoverageCells(),
		})
	}
	return snap
}
