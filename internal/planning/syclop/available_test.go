package syclop

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/syclop/internal/planning/tree"
)

func TestWeightedDistribution_Sample(t *testing.T) {
	var d WeightedDistribution
	_, ok := d.Sample(0.5)
	assert.False(t, ok)

	d.Add(7, 1)
	d.Add(8, 3)
	assert.Equal(t, 2, d.Len())
	assert.Equal(t, 4.0, d.TotalWeight())

	for _, tc := range []struct {
		u    float64
		want int
	}{{0, 7}, {0.2, 7}, {0.25, 8}, {0.99, 8}} {
		got, ok := d.Sample(tc.u)
		require.True(t, ok)
		assert.Equal(t, tc.want, got, "u=%v", tc.u)
	}

	d.Clear()
	assert.Zero(t, d.Len())
	assert.Zero(t, d.TotalWeight())
}

func TestWeightedDistribution_ZeroTotalFallsBackToUniform(t *testing.T) {
	var d WeightedDistribution
	d.Add(1, 0)
	d.Add(2, -5)
	got, ok := d.Sample(0.75)
	require.True(t, ok)
	assert.Equal(t, 2, got)
}

func TestSelectRegion_FrequencyConverges(t *testing.T) {
	p := setupStrip(t, chain(4), walkExtender, testConfig(), 99, 0.5, 3.5)
	weights := []float64{1, 2, 3, 4}
	for r, w := range weights {
		p.availDist.Add(r, w)
	}

	const draws = 200000
	counts := make([]int, 4)
	for i := 0; i < draws; i++ {
		r, ok := p.selectRegion()
		require.True(t, ok)
		counts[r]++
	}
	for r, w := range weights {
		assert.InDelta(t, w/10, float64(counts[r])/draws, 0.01, "region %d", r)
		assert.Equal(t, counts[r], p.Graph().Region(r).NumSelections)
	}
}

func TestSelectRegion_Empty(t *testing.T) {
	p := setupStrip(t, chain(2), walkExtender, testConfig(), 1, 0.5, 1.5)
	_, ok := p.selectRegion()
	assert.False(t, ok)
}

func TestComputeAvailableRegions_ScansFromGoalEnd(t *testing.T) {
	cfg := testConfig()
	cfg.ProbKeepAddingToAvail = 1
	p := setupStrip(t, chain(3), walkExtender, cfg, 1, 0.5, 2.5)
	p.lead = []int{0, 1, 2}
	p.graph.Region(2).states = []tree.NodeID{0}
	p.updateRegionEstimates()

	p.computeAvailableRegions()
	assert.True(t, p.avail.Contains(0))
	assert.False(t, p.avail.Contains(1))
	assert.True(t, p.avail.Contains(2))
	assert.Equal(t, []int{2, 0}, p.availDist.Items())
	assert.InDelta(t, p.Graph().Region(0).Weight+p.Graph().Region(2).Weight, p.availDist.TotalWeight(), 1e-12)
}

func TestComputeAvailableRegions_TruncatesAfterFirst(t *testing.T) {
	cfg := testConfig()
	cfg.ProbKeepAddingToAvail = 0
	p := setupStrip(t, chain(3), walkExtender, cfg, 1, 0.5, 2.5)
	p.lead = []int{0, 1, 2}
	p.graph.Region(1).states = []tree.NodeID{0}

	p.computeAvailableRegions()
	assert.Equal(t, []int{1}, p.availDist.Items())
	assert.Equal(t, 1, p.avail.Len())
}

func TestComputeAvailableRegions_LeadIndexing(t *testing.T) {
	cfg := testConfig()
	cfg.ProbKeepAddingToAvail = 1
	cfg.ProbShortestPath = 1

	// start in region 3 of a 6-chain; lead is [3 4 5]
	build := func(literal bool) *Planner {
		cfg.LiteralLeadIndexing = literal
		p := setupStrip(t, chain(6), walkExtender, cfg, 1, 3.5, 5.5)
		require.NoError(t, p.computeLead())
		require.Equal(t, []int{3, 4, 5}, p.Lead())
		return p
	}

	p := build(false)
	p.computeAvailableRegions()
	assert.Equal(t, []int{3}, p.availDist.Items())

	p = build(true)
	p.computeAvailableRegions()
	assert.Zero(t, p.availDist.Len(), "positions 0..2 hold no tree nodes")

	p = build(true)
	p.graph.Region(0).states = []tree.NodeID{0}
	p.computeAvailableRegions()
	assert.Equal(t, []int{3}, p.availDist.Items(), "position 0 is credited to lead[0]")
}

func TestAvailableSet(t *testing.T) {
	s := newAvailableSet()
	s.Insert(3)
	s.Insert(3)
	s.Insert(4)
	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Contains(4))
	s.clear()
	assert.Zero(t, s.Len())
}

func TestWeightedDistribution_DeterministicForSeed(t *testing.T) {
	var d WeightedDistribution
	for i := 0; i < 5; i++ {
		d.Add(i, float64(i+1))
	}
	draw := func() []int {
		rng := rand.New(rand.NewSource(3))
		out := make([]int, 20)
		for i := range out {
			out[i], _ = d.Sample(rng.Float64())
		}
		return out
	}
	assert.Equal(t, draw(), draw())
}
