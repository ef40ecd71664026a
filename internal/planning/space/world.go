package space

// Box is an axis-aligned obstacle.  Min/Max may cover fewer dimensions than
// the state; the remaining dimensions are unconstrained.
type Box struct {
	Min []float64 `json:"min" mapstructure:"min"`
	Max []float64 `json:"max" mapstructure:"max"`
}

// Contains reports whether s lies inside the box (inclusive).
func (b Box) Contains(s State) bool {
	n := len(b.Min)
	if len(b.Max) < n {
		n = len(b.Max)
	}
	if len(s) < n {
		return false
	}
	for i := 0; i < n; i++ {
		if s[i] < b.Min[i] || s[i] > b.Max[i] {
			return false
		}
	}
	return true
}

// BoxWorld marks a state valid when it lies inside the space bounds and
// outside every obstacle.
type BoxWorld struct {
	space     *RealVectorSpace
	obstacles []Box
}

// NewBoxWorld returns a validity checker over sp with the given obstacles.
func NewBoxWorld(sp *RealVectorSpace, obstacles ...Box) *BoxWorld {
	return &BoxWorld{space: sp, obstacles: append([]Box(nil), obstacles...)}
}

// Obstacles returns the obstacle list.
func (w *BoxWorld) Obstacles() []Box { return w.obstacles }

// IsValid implements ValidityChecker.
func (w *BoxWorld) IsValid(s State) bool {
	if !w.space.SatisfiesBounds(s) {
		return false
	}
	for _, o := range w.obstacles {
		if o.Contains(s) {
			return false
		}
	}
	return true
}

// ─────────────────────────────────────────────────────────────────────────────
// StateGoal
// ─────────────────────────────────────────────────────────────────────────────

// StateGoal is satisfied by any state within Tolerance of State.
type StateGoal struct {
	State     State
	Tolerance float64
}

// NewStateGoal returns a single-state goal.
func NewStateGoal(s State, tolerance float64) *StateGoal {
	return &StateGoal{State: s.Clone(), Tolerance: tolerance}
}

// IsSatisfied implements Goal.
func (g *StateGoal) IsSatisfied(s State) bool {
	return Distance(s, g.State) <= g.Tolerance
}

// GoalState implements GoalState.
func (g *StateGoal) GoalState() State { return g.State }
