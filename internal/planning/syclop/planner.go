package syclop

import (
	"fmt"
	"math/rand"

	"github.com/turtacn/syclop/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/syclop/internal/planning/decomposition"
	"github.com/turtacn/syclop/internal/planning/space"
	"github.com/turtacn/syclop/internal/planning/tree"
	"github.com/turtacn/syclop/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Collaborators
// ─────────────────────────────────────────────────────────────────────────────

// Extender grows the exploration tree toward a region.  members lists the
// tree nodes currently located in region and must not be modified.  The
// returned nodes must already be added to t and each must have a parent.
type Extender interface {
	Extend(region int, members []tree.NodeID, t *tree.Tree, rng *rand.Rand) []tree.NodeID
}

// ExtenderFunc adapts a function to Extender.
type ExtenderFunc func(region int, members []tree.NodeID, t *tree.Tree, rng *rand.Rand) []tree.NodeID

// Extend implements Extender.
func (f ExtenderFunc) Extend(region int, members []tree.NodeID, t *tree.Tree, rng *rand.Rand) []tree.NodeID {
	return f(region, members, t, rng)
}

// Collaborators groups the components a Planner is built from.
type Collaborators struct {
	// Decomposition is the planning decomposition.  Required.
	Decomposition decomposition.Decomposition

	// CoverageGrid measures novelty.  When nil it is derived from a
	// Decomposition implementing decomposition.Refiner.
	CoverageGrid decomposition.Decomposition

	Sampler  space.Sampler
	Checker  space.ValidityChecker
	Extender Extender
}

// ProblemDefinition is a single-start planning query.
type ProblemDefinition struct {
	Start space.State
	Goal  space.Goal
}

// ─────────────────────────────────────────────────────────────────────────────
// Options
// ─────────────────────────────────────────────────────────────────────────────

// Option configures a Planner.
type Option func(*Planner)

// WithLogger sets the planner logger.
func WithLogger(l logging.Logger) Option {
	return func(p *Planner) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithSeed seeds the planner-owned random source.
func WithSeed(seed int64) Option {
	return func(p *Planner) { p.rng = rand.New(rand.NewSource(seed)) }
}

// WithRand hands the planner an existing random source.
func WithRand(rng *rand.Rand) Option {
	return func(p *Planner) {
		if rng != nil {
			p.rng = rng
		}
	}
}

// WithValidFractions supplies per-region valid fractions (for example from a
// cache) so Setup skips free-volume sampling.  Ignored when the length does
// not match the number of regions.
func WithValidFractions(fractions []float64) Option {
	return func(p *Planner) { p.presetFractions = append([]float64(nil), fractions...) }
}

// ─────────────────────────────────────────────────────────────────────────────
// Result
// ─────────────────────────────────────────────────────────────────────────────

// Status is the outcome of Solve.
type Status string

const (
	// StatusSuccess means a new tree node satisfied the goal.
	StatusSuccess Status = "success"
	// StatusExhausted means the termination condition fired first.
	StatusExhausted Status = "exhausted"
)

// Stats counts planner activity across Solve calls.
type Stats struct {
	Iterations        int `json:"iterations"`
	ShortestPathLeads int `json:"shortest_path_leads"`
	RandomLeads       int `json:"random_leads"`
	Explorations      int `json:"explorations"`
	EarlyAbandons     int `json:"early_abandons"`
	ExtendCalls       int `json:"extend_calls"`
	MotionsAdded      int `json:"motions_added"`
	EmptyAvailable    int `json:"empty_available"`
}

// Result is returned by Solve.
type Result struct {
	Status Status
	// GoalNode is the tree node that satisfied the goal, or tree.NoParent.
	GoalNode tree.NodeID
	Stats    Stats
	// Lead is the last lead followed.
	Lead []int
}

// Solved reports whether the run reached the goal.
func (r *Result) Solved() bool { return r.Status == StatusSuccess }

// ─────────────────────────────────────────────────────────────────────────────
// Planner
// ─────────────────────────────────────────────────────────────────────────────

// Planner runs decomposition-guided tree planning for one problem.
type Planner struct {
	cfg      Config
	decomp   decomposition.Decomposition
	covGrid  decomposition.Decomposition
	sampler  space.Sampler
	checker  space.ValidityChecker
	extender Extender
	logger   logging.Logger
	rng      *rand.Rand

	presetFractions []float64

	graph       *RegionGraph
	tree        *tree.Tree
	goal        space.Goal
	startRegion int
	goalRegion  int
	lead        []int
	avail       *AvailableSet
	availDist   WeightedDistribution
	stats       Stats
	ready       bool
}

// New validates cfg and the collaborators and returns an un-setup Planner.
func New(c Collaborators, cfg Config, opts ...Option) (*Planner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if c.Decomposition == nil || c.Sampler == nil || c.Checker == nil || c.Extender == nil {
		return nil, errors.New(errors.ErrCodeInvalidPlannerConfig, "decomposition, sampler, checker and extender are required")
	}
	if c.Decomposition.NumRegions() <= 0 {
		return nil, errors.New(errors.ErrCodeNoRegions, "decomposition has no regions")
	}
	cov := c.CoverageGrid
	if cov == nil {
		ref, ok := c.Decomposition.(decomposition.Refiner)
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidPlannerConfig, "coverage grid required for a non-refinable decomposition")
		}
		var err error
		if cov, err = ref.Refine(cfg.CoverageGridLength); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInvalidPlannerConfig, "failed to derive coverage grid")
		}
	}
	p := &Planner{
		cfg:      cfg,
		decomp:   c.Decomposition,
		covGrid:  cov,
		sampler:  c.Sampler,
		checker:  c.Checker,
		extender: c.Extender,
		logger:   logging.NewNopLogger(),
		rng:      rand.New(rand.NewSource(1)),
		avail:    newAvailableSet(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.Named("syclop")
	return p, nil
}

// Setup builds the region graph, seeds the tree with the start state and
// computes the initial estimates.  It fails when the goal is not a single
// state or when the goal region cannot be reached from the start region.
func (p *Planner) Setup(pd ProblemDefinition) error {
	gs, ok := pd.Goal.(space.GoalState)
	if !ok {
		return errors.New(errors.ErrCodeUnsupportedGoal, "goal must be a single goal state")
	}
	if len(pd.Start) == 0 {
		return errors.New(errors.ErrCodeInvalidState, "start state is empty")
	}
	n := p.decomp.NumRegions()
	if n <= 0 {
		return errors.New(errors.ErrCodeNoRegions, "decomposition has no regions")
	}

	p.graph = NewRegionGraph(p.decomp)
	p.tree = tree.New()
	p.goal = pd.Goal
	p.lead = nil
	p.stats = Stats{}
	p.ready = false

	p.startRegion = p.decomp.LocateRegion(pd.Start)
	p.goalRegion = p.decomp.LocateRegion(gs.GoalState())
	if p.startRegion < 0 || p.startRegion >= n || p.goalRegion < 0 || p.goalRegion >= n {
		return errors.New(errors.ErrCodeInvalidState, "start or goal lies outside the decomposition").
			WithDetail(fmt.Sprintf("start=%d goal=%d regions=%d", p.startRegion, p.goalRegion, n))
	}
	if !p.graph.reachable(p.startRegion, p.goalRegion) {
		return errors.New(errors.ErrCodeRegionsDisconnected, "start and goal regions are not connected").
			WithDetail(fmt.Sprintf("start=%d goal=%d", p.startRegion, p.goalRegion))
	}

	root := p.tree.AddRoot(pd.Start.Clone())
	start := p.graph.Region(p.startRegion)
	start.states = append(start.states, root)

	p.setupRegionEstimates()
	p.updateRegionEstimates()
	p.updateEdgeEstimates()
	p.ready = true

	p.logger.Info("planner setup complete",
		logging.Int("regions", n),
		logging.Int("edges", len(p.graph.edges)),
		logging.Int("start_region", p.startRegion),
		logging.Int("goal_region", p.goalRegion))
	return nil
}

// Solve grows the tree until a new node satisfies the goal or ptc fires.
// Reaching the termination condition is not an error.
func (p *Planner) Solve(ptc TerminationCondition) (*Result, error) {
	if !p.ready {
		return nil, errors.New(errors.ErrCodePlannerNotSetup, "Setup must succeed before Solve")
	}
	if ptc == nil {
		return nil, errors.New(errors.ErrCodeInvalidPlannerConfig, "termination condition is required")
	}
	for !ptc.ShouldTerminate() {
		p.stats.Iterations++
		p.updateRegionEstimates()
		p.updateEdgeEstimates()
		if err := p.computeLead(); err != nil {
			return nil, err
		}
		p.computeAvailableRegions()
		p.logger.Debug("lead computed",
			logging.Ints("lead", p.lead),
			logging.Int("available", p.avail.Len()))
		if p.availDist.Len() == 0 {
			p.stats.EmptyAvailable++
			continue
		}

		for i := 0; i < p.cfg.NumAvailExplorations; i++ {
			region, _ := p.selectRegion()
			p.stats.Explorations++
			improved := true
			for j := 0; j < p.cfg.NumTreeSelections; j++ {
				p.stats.ExtendCalls++
				members := p.graph.regions[region].states
				for _, id := range p.extender.Extend(region, members, p.tree, p.rng) {
					done, novel, err := p.recordMotion(id)
					if err != nil {
						return nil, err
					}
					if done {
						p.logger.Info("goal reached",
							logging.Int("iterations", p.stats.Iterations),
							logging.Int("tree_size", p.tree.Len()))
						return p.result(StatusSuccess, id), nil
					}
					improved = improved && novel
				}
			}
			if !improved && p.rng.Float64() < p.cfg.ProbAbandonLeadEarly {
				p.stats.EarlyAbandons++
				break
			}
		}
	}
	p.logger.Info("termination condition reached",
		logging.Int("iterations", p.stats.Iterations),
		logging.Int("tree_size", p.tree.Len()))
	return p.result(StatusExhausted, tree.NoParent), nil
}

// recordMotion tests a new node against the goal and otherwise folds it into
// the region statistics.  novel is the AND of the coverage and connection
// updates for the node.
func (p *Planner) recordMotion(id tree.NodeID) (done, novel bool, err error) {
	p.stats.MotionsAdded++
	s := p.tree.State(id)
	if p.goal.IsSatisfied(s) {
		return true, true, nil
	}
	newRegion := p.decomp.LocateRegion(s)
	oldRegion := newRegion
	if parent := p.tree.Parent(id); parent != tree.NoParent {
		oldRegion = p.decomp.LocateRegion(p.tree.State(parent))
	}
	n := p.graph.NumRegions()
	if newRegion < 0 || newRegion >= n || oldRegion < 0 || oldRegion >= n {
		return false, false, errors.New(errors.ErrCodeInvalidState, "motion lies outside the decomposition").
			WithDetail(fmt.Sprintf("from=%d to=%d regions=%d", oldRegion, newRegion, n))
	}

	p.avail.Insert(newRegion)
	r := p.graph.Region(newRegion)
	r.states = append(r.states, id)

	novel = p.updateCoverageEstimate(newRegion, s)
	if oldRegion != newRegion {
		crossed, err := p.updateConnectionEstimate(oldRegion, newRegion, s)
		if err != nil {
			return false, false, err
		}
		novel = novel && crossed
	}
	return false, novel, nil
}

func (p *Planner) result(status Status, goal tree.NodeID) *Result {
	return &Result{
		Status:   status,
		GoalNode: goal,
		Stats:    p.stats,
		Lead:     append([]int(nil), p.lead...),
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Accessors
// ─────────────────────────────────────────────────────────────────────────────

// Config returns the planner tunables.
func (p *Planner) Config() Config { return p.cfg }

// Graph returns the region graph, or nil before Setup.
func (p *Planner) Graph() *RegionGraph { return p.graph }

// Tree returns the exploration tree, or nil before Setup.
func (p *Planner) Tree() *tree.Tree { return p.tree }

// StartRegion returns the region of the start state.
func (p *Planner) StartRegion() int { return p.startRegion }

// GoalRegion returns the region of the goal state.
func (p *Planner) GoalRegion() int { return p.goalRegion }

// Lead returns a copy of the current lead.
func (p *Planner) Lead() []int { return append([]int(nil), p.lead...) }

// Stats returns the activity counters.
func (p *Planner) Stats() Stats { return p.stats }

// ValidFractions returns the per-region valid fractions computed or applied
// by Setup.
func (p *Planner) ValidFractions() []float64 {
	if p.graph == nil {
		return nil
	}
	out := make([]float64, p.graph.NumRegions())
	for i := range out {
		out[i] = p.graph.regions[i].PercentValidCells
	}
	return out
}
