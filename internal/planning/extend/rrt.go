// Package extend provides tree-extension strategies for the syclop planner.
package extend

import (
	"math"
	"math/rand"

	"github.com/turtacn/syclop/internal/planning/decomposition"
	"github.com/turtacn/syclop/internal/planning/space"
	"github.com/turtacn/syclop/internal/planning/tree"
	"github.com/turtacn/syclop/pkg/errors"
)

// Defaults for the RRT extender.
const (
	DefaultMaxStep    = 0.05
	DefaultResolution = 0.01
	DefaultGoalBias   = 0.05
)

// RRTOption configures an RRT.
type RRTOption func(*RRT)

// WithMaxStep bounds the length of a single motion.
func WithMaxStep(step float64) RRTOption {
	return func(r *RRT) { r.maxStep = step }
}

// WithResolution sets the spacing of validity checks along a motion.
func WithResolution(res float64) RRTOption {
	return func(r *RRT) { r.resolution = res }
}

// WithGoalBias steers toward goal with probability bias.
func WithGoalBias(goal space.State, bias float64) RRTOption {
	return func(r *RRT) {
		r.goal = goal.Clone()
		r.goalBias = bias
	}
}

// WithDecomposition samples targets inside the selected region or one of its
// neighbors when d can report region bounds, and rejects motions between
// non-adjacent regions.
func WithDecomposition(d decomposition.Decomposition) RRTOption {
	return func(r *RRT) { r.decomp = d }
}

// RRT extends the tree one motion per call: it samples a target in the
// selected region or one of its neighbors, steers from the member of the
// selected region nearest to the target by at most maxStep and keeps the
// motion when every interpolated state is valid.  Targets drawn in a
// neighbor let the tree leave the selected region, which is how it advances
// along the lead.
//
// Random draws per call, in order: goal-bias coin (only when a goal is
// configured), then for a non-goal target the region pick (only when the
// decomposition reports bounds) and the target sample.
type RRT struct {
	space      *space.RealVectorSpace
	checker    space.ValidityChecker
	decomp     decomposition.Decomposition
	goal       space.State
	goalBias   float64
	maxStep    float64
	resolution float64
}

// NewRRT returns an RRT extender over sp.
func NewRRT(sp *space.RealVectorSpace, checker space.ValidityChecker, opts ...RRTOption) (*RRT, error) {
	if sp == nil || checker == nil {
		return nil, errors.New(errors.ErrCodeInvalidPlannerConfig, "rrt requires a state space and a validity checker")
	}
	r := &RRT{
		space:      sp,
		checker:    checker,
		maxStep:    DefaultMaxStep,
		resolution: DefaultResolution,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.maxStep <= 0 || r.resolution <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidPlannerConfig, "rrt step and resolution must be positive")
	}
	if r.goalBias < 0 || r.goalBias > 1 {
		return nil, errors.New(errors.ErrCodeInvalidPlannerConfig, "rrt goal bias must be in [0,1]")
	}
	return r, nil
}

// MaxStep returns the motion length bound.
func (r *RRT) MaxStep() float64 { return r.maxStep }

// Extend implements syclop.Extender.
func (r *RRT) Extend(region int, members []tree.NodeID, t *tree.Tree, rng *rand.Rand) []tree.NodeID {
	if len(members) == 0 {
		return nil
	}
	target := r.sampleTarget(region, rng)
	from := nearest(t, members, target)
	start := t.State(from)

	d := r.space.Distance(start, target)
	if d == 0 {
		return nil
	}
	if d > r.maxStep {
		target = r.space.Interpolate(start, target, r.maxStep/d)
		d = r.maxStep
	}
	if !r.motionValid(start, target, d) {
		return nil
	}
	id, err := t.Add(target, from)
	if err != nil {
		return nil
	}
	return []tree.NodeID{id}
}

func (r *RRT) sampleTarget(region int, rng *rand.Rand) space.State {
	if r.goal != nil && rng.Float64() < r.goalBias {
		return r.goal.Clone()
	}
	b, ok := r.decomp.(decomposition.RegionBounder)
	if !ok {
		return r.space.SampleUniform(rng)
	}
	neighbors := r.decomp.Neighbors(region)
	if k := rng.Intn(len(neighbors) + 1); k < len(neighbors) {
		region = neighbors[k]
	}
	low, high := b.RegionBounds(region)
	return r.space.SampleUniformIn(rng, low, high)
}

// nearest returns the member closest to s.  Ties go to the earliest member.
func nearest(t *tree.Tree, members []tree.NodeID, s space.State) tree.NodeID {
	best, bestDist := members[0], math.Inf(1)
	for _, id := range members {
		if d := space.Distance(t.State(id), s); d < bestDist {
			best, bestDist = id, d
		}
	}
	return best
}

func (r *RRT) motionValid(a, b space.State, d float64) bool {
	if r.decomp != nil {
		ra, rb := r.decomp.LocateRegion(a), r.decomp.LocateRegion(b)
		if ra != rb && !contains(r.decomp.Neighbors(ra), rb) {
			return false
		}
	}
	steps := int(math.Ceil(d / r.resolution))
	for i := 1; i <= steps; i++ {
		if !r.checker.IsValid(r.space.Interpolate(a, b, float64(i)/float64(steps))) {
			return false
		}
	}
	return true
}

func contains(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
