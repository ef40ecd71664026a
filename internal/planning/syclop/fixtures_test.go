package syclop

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/turtacn/syclop/internal/planning/space"
	"github.com/turtacn/syclop/internal/planning/tree"
)

// stripDecomp maps a state to region floor(s[0]) and takes its neighbor
// relation from an explicit list, so tests can describe arbitrary graphs.
type stripDecomp struct {
	neighbors [][]int
}

func newStrip(n int, edges ...[2]int) *stripDecomp {
	d := &stripDecomp{neighbors: make([][]int, n)}
	for _, e := range edges {
		d.neighbors[e[0]] = append(d.neighbors[e[0]], e[1])
		d.neighbors[e[1]] = append(d.neighbors[e[1]], e[0])
	}
	return d
}

func chain(n int) *stripDecomp {
	var edges [][2]int
	for i := 0; i+1 < n; i++ {
		edges = append(edges, [2]int{i, i + 1})
	}
	return newStrip(n, edges...)
}

func (d *stripDecomp) NumRegions() int { return len(d.neighbors) }

func (d *stripDecomp) LocateRegion(s space.State) int {
	r := int(math.Floor(s[0]))
	if r < 0 {
		return 0
	}
	if r >= len(d.neighbors) {
		return len(d.neighbors) - 1
	}
	return r
}

func (d *stripDecomp) Neighbors(region int) []int { return d.neighbors[region] }

func (d *stripDecomp) RegionVolume(int) float64 { return 1 }

// cellGrid is the coverage grid for strips: 10×10 cells per unit square.
type cellGrid struct{}

func (cellGrid) NumRegions() int { return 1 << 20 }

func (cellGrid) LocateRegion(s space.State) int {
	return int(math.Floor(s[0]*10))*1000 + int(math.Floor(s[1]*10))
}

func (cellGrid) Neighbors(int) []int { return nil }

func (cellGrid) RegionVolume(int) float64 { return 0.01 }

// stripSampler samples uniformly from [0,n)×[0,1).
type stripSampler struct{ n int }

func (s stripSampler) SampleUniform(rng *rand.Rand) space.State {
	return space.State{rng.Float64() * float64(s.n), rng.Float64()}
}

var allValid = space.ValidityCheckerFunc(func(space.State) bool { return true })

// walkExtender adds one node per call: a random member stepped by at most
// 0.3 along x, so motions only cross into adjacent strips.
var walkExtender = ExtenderFunc(func(_ int, members []tree.NodeID, t *tree.Tree, rng *rand.Rand) []tree.NodeID {
	if len(members) == 0 {
		return nil
	}
	from := members[rng.Intn(len(members))]
	s := t.State(from)
	next := space.State{s[0] + (rng.Float64()*0.6 - 0.3), math.Min(0.999, math.Max(0, s[1]+(rng.Float64()*0.2-0.1)))}
	if next[0] < 0 {
		next[0] = 0
	}
	id, err := t.Add(next, from)
	if err != nil {
		return nil
	}
	return []tree.NodeID{id}
})

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.NumFreeVolSamples = 500
	cfg.NumAvailExplorations = 10
	return cfg
}

func newStripPlanner(t *testing.T, d *stripDecomp, ext Extender, cfg Config, seed int64) *Planner {
	t.Helper()
	p, err := New(Collaborators{
		Decomposition: d,
		CoverageGrid:  cellGrid{},
		Sampler:       stripSampler{n: d.NumRegions()},
		Checker:       allValid,
		Extender:      ext,
	}, cfg, WithSeed(seed))
	require.NoError(t, err)
	return p
}

func setupStrip(t *testing.T, d *stripDecomp, ext Extender, cfg Config, seed int64, start, goal float64) *Planner {
	t.Helper()
	p := newStripPlanner(t, d, ext, cfg, seed)
	require.NoError(t, p.Setup(ProblemDefinition{
		Start: space.State{start, 0.5},
		Goal:  space.NewStateGoal(space.State{goal, 0.5}, 0.01),
	}))
	return p
}
