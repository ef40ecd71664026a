package syclop

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/syclop/internal/planning/space"
	"github.com/turtacn/syclop/pkg/errors"
)

// randomConnectedStrip returns an n-region graph that contains a random
// spanning chain plus extra random edges.
func randomConnectedStrip(rng *rand.Rand, n int) *stripDecomp {
	perm := rng.Perm(n)
	seen := map[[2]int]bool{}
	var edges [][2]int
	add := func(a, b int) {
		if a == b || seen[[2]int{a, b}] || seen[[2]int{b, a}] {
			return
		}
		seen[[2]int{a, b}] = true
		edges = append(edges, [2]int{a, b})
	}
	for i := 0; i+1 < n; i++ {
		add(perm[i], perm[i+1])
	}
	for i := 0; i < n; i++ {
		add(rng.Intn(n), rng.Intn(n))
	}
	return newStrip(n, edges...)
}

// bruteForceCost enumerates every simple path from start to goal.
func bruteForceCost(g *RegionGraph, start, goal int) float64 {
	best := math.Inf(1)
	visited := make([]bool, g.NumRegions())
	var walk func(v int, cost float64)
	walk = func(v int, cost float64) {
		if v == goal {
			best = math.Min(best, cost)
			return
		}
		visited[v] = true
		for _, u := range g.Neighbors(v) {
			if !visited[u] {
				e, _ := g.Edge(v, u)
				walk(u, cost+e.Cost)
			}
		}
		visited[v] = false
	}
	walk(start, 0)
	return best
}

func leadCost(t *testing.T, g *RegionGraph, lead []int) float64 {
	t.Helper()
	var cost float64
	for i := 1; i < len(lead); i++ {
		e, ok := g.Edge(lead[i-1], lead[i])
		require.True(t, ok, "lead step %d→%d is not an edge", lead[i-1], lead[i])
		cost += e.Cost
	}
	return cost
}

func assertValidLead(t *testing.T, p *Planner, lead []int) {
	t.Helper()
	require.NotEmpty(t, lead)
	assert.Equal(t, p.StartRegion(), lead[0])
	assert.Equal(t, p.GoalRegion(), lead[len(lead)-1])
	seen := map[int]bool{}
	for i, r := range lead {
		assert.False(t, seen[r], "region %d repeated in lead", r)
		seen[r] = true
		if i > 0 {
			_, ok := p.Graph().Edge(lead[i-1], r)
			assert.True(t, ok)
		}
	}
}

func TestComputeLead_ShortestPathIsMinimal(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	cfg := testConfig()
	cfg.ProbShortestPath = 1

	for trial := 0; trial < 50; trial++ {
		n := 3 + rng.Intn(6)
		d := randomConnectedStrip(rng, n)
		start, goal := rng.Intn(n), rng.Intn(n)
		p := setupStrip(t, d, walkExtender, cfg, int64(trial), float64(start)+0.5, float64(goal)+0.5)
		for _, e := range p.Graph().Edges() {
			e.Cost = 0.1 + rng.Float64()*10
		}

		require.NoError(t, p.computeLead())
		lead := p.Lead()
		assertValidLead(t, p, lead)
		assert.InDelta(t, bruteForceCost(p.Graph(), start, goal), leadCost(t, p.Graph(), lead), 1e-9,
			"trial %d: lead %v", trial, lead)
	}
}

func TestComputeLead_IncrementsEdgeSelections(t *testing.T) {
	cfg := testConfig()
	cfg.ProbShortestPath = 1
	p := setupStrip(t, chain(4), walkExtender, cfg, 1, 0.5, 3.5)

	require.NoError(t, p.computeLead())
	require.NoError(t, p.computeLead())
	assert.Equal(t, []int{0, 1, 2, 3}, p.Lead())
	for _, e := range p.Graph().Edges() {
		assert.Equal(t, 2, e.NumSelections)
	}
	assert.Equal(t, 2, p.Stats().ShortestPathLeads)
}

func TestComputeLead_SameStartAndGoal(t *testing.T) {
	p := setupStrip(t, chain(3), walkExtender, testConfig(), 1, 1.2, 1.8)
	require.NoError(t, p.computeLead())
	assert.Equal(t, []int{1}, p.Lead())
}

func TestComputeLead_RandomDFS(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	cfg := testConfig()
	cfg.ProbShortestPath = 0

	leads := map[string]bool{}
	d := newStrip(4, [2]int{0, 1}, [2]int{0, 2}, [2]int{1, 3}, [2]int{2, 3})
	for trial := 0; trial < 40; trial++ {
		p := setupStrip(t, d, walkExtender, cfg, rng.Int63(), 0.5, 3.5)
		require.NoError(t, p.computeLead())
		lead := p.Lead()
		assertValidLead(t, p, lead)
		leads[fmtLead(lead)] = true
		assert.Equal(t, 1, p.Stats().RandomLeads)
	}
	// both routes around the square show up
	assert.True(t, leads["0-1-3"])
	assert.True(t, leads["0-2-3"])
}

func TestComputeLead_Disconnected(t *testing.T) {
	p := newStripPlanner(t, newStrip(4, [2]int{0, 1}, [2]int{2, 3}), walkExtender, testConfig(), 1)
	err := p.Setup(ProblemDefinition{
		Start: space.State{0.5, 0.5},
		Goal:  space.NewStateGoal(space.State{3.5, 0.5}, 0.01),
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeRegionsDisconnected))

	// computeLead reports the same error for either policy
	p.graph = NewRegionGraph(p.decomp)
	p.startRegion, p.goalRegion = 0, 3
	for _, prob := range []float64{0, 1} {
		p.cfg.ProbShortestPath = prob
		err = p.computeLead()
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeRegionsDisconnected))
	}
}

func fmtLead(lead []int) string {
	s := ""
	for i, r := range lead {
		if i > 0 {
			s += "-"
		}
		s += string(rune('0' + r))
	}
	return s
}
