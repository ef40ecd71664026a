// Package space provides the state-space primitives consumed by the planner:
// states, bounded real-vector spaces with uniform sampling, validity checking
// against axis-aligned obstacles, and single-state goals.
package space

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/turtacn/syclop/pkg/errors"
)

// State is a point in a real-vector state space.  The first two components
// are the workspace projection used by grid decompositions.
type State []float64

// Clone returns an independent copy of s.
func (s State) Clone() State {
	out := make(State, len(s))
	copy(out, s)
	return out
}

// ─────────────────────────────────────────────────────────────────────────────
// Collaborator contracts
// ─────────────────────────────────────────────────────────────────────────────

// Sampler draws states uniformly from the whole state space.
type Sampler interface {
	SampleUniform(rng *rand.Rand) State
}

// ValidityChecker classifies states as valid (collision free, within bounds).
type ValidityChecker interface {
	IsValid(s State) bool
}

// ValidityCheckerFunc adapts a function to ValidityChecker.
type ValidityCheckerFunc func(s State) bool

// IsValid implements ValidityChecker.
func (f ValidityCheckerFunc) IsValid(s State) bool { return f(s) }

// Goal is the goal-satisfaction predicate of a planning problem.
type Goal interface {
	IsSatisfied(s State) bool
}

// GoalState is a Goal represented by a single state.  The planner requires
// this representation so that the goal region can be located.
type GoalState interface {
	Goal
	GoalState() State
}

// GoalFunc adapts a predicate to Goal.  It does not satisfy GoalState.
type GoalFunc func(s State) bool

// IsSatisfied implements Goal.
func (f GoalFunc) IsSatisfied(s State) bool { return f(s) }

// ─────────────────────────────────────────────────────────────────────────────
// Bounds and RealVectorSpace
// ─────────────────────────────────────────────────────────────────────────────

// Bounds is an axis-aligned box, one [Low[i], High[i]] interval per dimension.
type Bounds struct {
	Low  []float64 `json:"low" mapstructure:"low"`
	High []float64 `json:"high" mapstructure:"high"`
}

// Dimension returns the number of dimensions of the box.
func (b Bounds) Dimension() int { return len(b.Low) }

// Validate checks that the bounds are well formed.
func (b Bounds) Validate() error {
	if len(b.Low) == 0 || len(b.Low) != len(b.High) {
		return errors.InvalidParam("bounds must have matching, non-empty low/high vectors").
			WithDetail(fmt.Sprintf("len(low)=%d len(high)=%d", len(b.Low), len(b.High)))
	}
	for i := range b.Low {
		if !(b.High[i] > b.Low[i]) {
			return errors.InvalidParam("bounds must satisfy high > low").
				WithDetail(fmt.Sprintf("dim=%d low=%g high=%g", i, b.Low[i], b.High[i]))
		}
	}
	return nil
}

// Contains reports whether s lies inside the box (inclusive).
func (b Bounds) Contains(s State) bool {
	if len(s) != len(b.Low) {
		return false
	}
	for i, v := range s {
		if v < b.Low[i] || v > b.High[i] {
			return false
		}
	}
	return true
}

// Volume returns the product of the interval lengths.
func (b Bounds) Volume() float64 {
	v := 1.0
	for i := range b.Low {
		v *= b.High[i] - b.Low[i]
	}
	return v
}

// RealVectorSpace is a bounded Euclidean state space.
type RealVectorSpace struct {
	bounds Bounds
}

// NewRealVectorSpace validates bounds and returns the space.
func NewRealVectorSpace(bounds Bounds) (*RealVectorSpace, error) {
	if err := bounds.Validate(); err != nil {
		return nil, err
	}
	return &RealVectorSpace{bounds: bounds}, nil
}

// Dimension returns the dimensionality of the space.
func (sp *RealVectorSpace) Dimension() int { return sp.bounds.Dimension() }

// Bounds returns the space bounds.
func (sp *RealVectorSpace) Bounds() Bounds { return sp.bounds }

// SampleUniform draws a state uniformly from the whole space.
func (sp *RealVectorSpace) SampleUniform(rng *rand.Rand) State {
	return sp.SampleUniformIn(rng, sp.bounds.Low, sp.bounds.High)
}

// SampleUniformIn draws a state uniformly from the box [low, high] intersected
// with the space bounds.  low/high may be shorter than the space dimension;
// missing dimensions are sampled over the full bounds.
func (sp *RealVectorSpace) SampleUniformIn(rng *rand.Rand, low, high []float64) State {
	s := make(State, sp.Dimension())
	for i := range s {
		lo, hi := sp.bounds.Low[i], sp.bounds.High[i]
		if i < len(low) && i < len(high) {
			lo = math.Max(lo, low[i])
			hi = math.Min(hi, high[i])
		}
		s[i] = lo + rng.Float64()*(hi-lo)
	}
	return s
}

// SatisfiesBounds reports whether s lies within the space bounds.
func (sp *RealVectorSpace) SatisfiesBounds(s State) bool {
	return sp.bounds.Contains(s)
}

// Distance returns the Euclidean distance between a and b.
func (sp *RealVectorSpace) Distance(a, b State) float64 {
	return Distance(a, b)
}

// Interpolate returns the state at fraction t ∈ [0,1] along the segment from→to.
func (sp *RealVectorSpace) Interpolate(from, to State, t float64) State {
	out := make(State, len(from))
	for i := range from {
		out[i] = from[i] + (to[i]-from[i])*t
	}
	return out
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b State) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}
