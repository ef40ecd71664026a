package prometheus

import (
	"strconv"
	"time"
)

// PlannerMetrics holds the metric set of the planning service.
type PlannerMetrics struct {
	// Runs
	RunsTotal          CounterVec
	SolveDuration      HistogramVec
	RunIterations      HistogramVec
	RunTreeSize        HistogramVec
	RunLeadLength      HistogramVec
	EarlyAbandonsTotal CounterVec
	ActiveRuns         GaugeVec

	// Sinks and cache
	SinkErrorsTotal    CounterVec
	EstimateCacheTotal CounterVec
	EstimateDuration   HistogramVec

	// HTTP
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
}

// Default buckets.
var (
	DefaultHTTPDurationBuckets  = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultSolveDurationBuckets = []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120}
	DefaultIterationBuckets     = []float64{1, 2, 5, 10, 25, 50, 100, 250, 500, 1000, 5000}
	DefaultTreeSizeBuckets      = []float64{10, 100, 1000, 10000, 100000, 1000000}
	DefaultLeadLengthBuckets    = []float64{1, 2, 4, 8, 16, 32, 64, 128}
)

// NewPlannerMetrics registers the planner metrics on collector.
func NewPlannerMetrics(collector MetricsCollector) *PlannerMetrics {
	m := &PlannerMetrics{}

	m.RunsTotal = collector.RegisterCounter("runs_total", "Planning runs by outcome", "status")
	m.SolveDuration = collector.RegisterHistogram("solve_duration_seconds", "Wall time of Setup plus Solve", DefaultSolveDurationBuckets, "status")
	m.RunIterations = collector.RegisterHistogram("run_iterations", "Outer iterations per run", DefaultIterationBuckets)
	m.RunTreeSize = collector.RegisterHistogram("run_tree_size", "Exploration tree nodes per run", DefaultTreeSizeBuckets)
	m.RunLeadLength = collector.RegisterHistogram("run_lead_length", "Regions on the last lead of a run", DefaultLeadLengthBuckets)
	m.EarlyAbandonsTotal = collector.RegisterCounter("early_abandons_total", "Leads abandoned after a stagnant round")
	m.ActiveRuns = collector.RegisterGauge("active_runs", "Planning runs currently executing")

	m.SinkErrorsTotal = collector.RegisterCounter("sink_errors_total", "Failures writing run results", "sink")
	m.EstimateCacheTotal = collector.RegisterCounter("estimate_cache_total", "Free-volume estimate cache lookups", "result")
	m.EstimateDuration = collector.RegisterHistogram("estimate_duration_seconds", "Wall time of free-volume sampling", DefaultSolveDurationBuckets)

	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "path")

	return m
}

// RunObservation is the per-run data recorded by RecordRun.
type RunObservation struct {
	Status        string
	Elapsed       time.Duration
	Iterations    int
	TreeSize      int
	LeadLength    int
	EarlyAbandons int
}

// RecordRun records the outcome of a finished run.  A nil receiver is a no-op.
func (m *PlannerMetrics) RecordRun(o RunObservation) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(o.Status).Inc()
	m.SolveDuration.WithLabelValues(o.Status).Observe(o.Elapsed.Seconds())
	m.RunIterations.WithLabelValues().Observe(float64(o.Iterations))
	m.RunTreeSize.WithLabelValues().Observe(float64(o.TreeSize))
	if o.LeadLength > 0 {
		m.RunLeadLength.WithLabelValues().Observe(float64(o.LeadLength))
	}
	if o.EarlyAbandons > 0 {
		m.EarlyAbandonsTotal.WithLabelValues().Add(float64(o.EarlyAbandons))
	}
}

// RunStarted increments the active-run gauge and returns the matching
// decrement.
func (m *PlannerMetrics) RunStarted() (done func()) {
	if m == nil {
		return func() {}
	}
	g := m.ActiveRuns.WithLabelValues()
	g.Inc()
	return g.Dec
}

// RecordSinkError counts a failed write to sink.
func (m *PlannerMetrics) RecordSinkError(sink string) {
	if m == nil {
		return
	}
	m.SinkErrorsTotal.WithLabelValues(sink).Inc()
}

// RecordCacheLookup counts an estimate cache hit or miss.
func (m *PlannerMetrics) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.EstimateCacheTotal.WithLabelValues(result).Inc()
}

// EstimateTimer starts timing a free-volume estimation.  A nil receiver
// returns a timer that records nothing.
func (m *PlannerMetrics) EstimateTimer() *Timer {
	if m == nil {
		return NewTimer(nil)
	}
	return NewTimer(m.EstimateDuration.WithLabelValues())
}

// RecordHTTPRequest records one served request.
func (m *PlannerMetrics) RecordHTTPRequest(method, path string, statusCode int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}
