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

func TestSetupRegionEstimates_FreeVolume(t *testing.T) {
	d := chain(3)
	cfg := testConfig()
	cfg.NumFreeVolSamples = 30000
	p, err := New(Collaborators{
		Decomposition: d,
		CoverageGrid:  cellGrid{},
		Sampler:       stripSampler{n: 3},
		// region 0 is half blocked, region 2 fully blocked
		Checker: space.ValidityCheckerFunc(func(s space.State) bool {
			switch d.LocateRegion(s) {
			case 0:
				return s[1] < 0.5
			case 2:
				return false
			}
			return true
		}),
		Extender: walkExtender,
	}, cfg, WithSeed(11))
	require.NoError(t, err)
	require.NoError(t, p.Setup(ProblemDefinition{
		Start: space.State{0.2, 0.2},
		Goal:  space.NewStateGoal(space.State{1.5, 0.5}, 0.01),
	}))

	g := p.Graph()
	assert.InDelta(t, 0.5, g.Region(0).PercentValidCells, 0.03)
	assert.Equal(t, 1.0, g.Region(1).PercentValidCells)
	assert.Equal(t, 0.0, g.Region(2).PercentValidCells)
	for i := 0; i < g.NumRegions(); i++ {
		r := g.Region(i)
		assert.GreaterOrEqual(t, r.PercentValidCells, 0.0)
		assert.LessOrEqual(t, r.PercentValidCells, 1.0)
		assert.InDelta(t, r.PercentValidCells*r.Volume, r.FreeVolume, 1e-12)
		assert.Greater(t, r.Weight, 0.0)
		assert.Greater(t, r.Alpha, 0.0)
		assert.False(t, math.IsInf(r.Alpha, 0))
	}
	assert.Equal(t, 0.0, p.ValidFractions()[2])
}

func TestSetupRegionEstimates_UnsampledRegionUsesFallback(t *testing.T) {
	cfg := testConfig()
	cfg.FallbackValidFraction = 0.75
	p, err := New(Collaborators{
		Decomposition: chain(3),
		CoverageGrid:  cellGrid{},
		// never reaches region 2
		Sampler:  stripSampler{n: 2},
		Checker:  allValid,
		Extender: walkExtender,
	}, cfg, WithSeed(1))
	require.NoError(t, err)
	require.NoError(t, p.Setup(ProblemDefinition{
		Start: space.State{0.5, 0.5},
		Goal:  space.NewStateGoal(space.State{2.5, 0.5}, 0.01),
	}))
	assert.Equal(t, 0.75, p.Graph().Region(2).PercentValidCells)
	assert.Equal(t, 1.0, p.Graph().Region(0).PercentValidCells)
}

func TestSetupRegionEstimates_PresetFractions(t *testing.T) {
	p, err := New(Collaborators{
		Decomposition: chain(2),
		CoverageGrid:  cellGrid{},
		Sampler: samplerFunc(func() space.State {
			t.Fatal("sampler must not be used when fractions are preset")
			return nil
		}),
		Checker:  allValid,
		Extender: walkExtender,
	}, testConfig(), WithValidFractions([]float64{0.2, 0.9}))
	require.NoError(t, err)
	require.NoError(t, p.Setup(ProblemDefinition{
		Start: space.State{0.5, 0.5},
		Goal:  space.NewStateGoal(space.State{1.5, 0.5}, 0.01),
	}))
	assert.Equal(t, []float64{0.2, 0.9}, p.ValidFractions())
	assert.InDelta(t, 0.2, p.Graph().Region(0).FreeVolume, 1e-12)
}

func TestUpdateRegionEstimates_Formulas(t *testing.T) {
	p := setupStrip(t, chain(2), walkExtender, testConfig(), 1, 0.5, 1.5)
	r := p.Graph().Region(0)
	r.FreeVolume = 0.5
	r.NumSelections = 2
	r.coverage[1] = struct{}{}
	r.coverage[2] = struct{}{}
	p.updateRegionEstimates()

	f := math.Pow(0.5, 4)
	assert.InDelta(t, 1/(3*f), r.Alpha, 1e-9)
	assert.InDelta(t, f/(3*5), r.Weight, 1e-12)

	e, ok := p.Graph().Edge(0, 1)
	require.True(t, ok)
	e.NumSelections = 1
	e.coverage[9] = struct{}{}
	p.updateEdgeEstimates()
	want := (1.0 + 1) / 2 * r.Alpha * p.Graph().Region(1).Alpha
	assert.InDelta(t, want, e.Cost, 1e-9)
}

func TestUpdateRegionEstimates_StrictlyPositive(t *testing.T) {
	p := setupStrip(t, chain(2), walkExtender, testConfig(), 1, 0.5, 1.5)
	r := p.Graph().Region(1)
	r.FreeVolume = 0
	r.NumSelections = 1 << 20
	for i := 0; i < 1000; i++ {
		r.coverage[i] = struct{}{}
	}
	p.updateRegionEstimates()
	p.updateEdgeEstimates()
	assert.Greater(t, r.Weight, 0.0)
	assert.Greater(t, r.Alpha, 0.0)
	for _, e := range p.Graph().Edges() {
		assert.Greater(t, e.Cost, 0.0)
	}
}

func TestUpdateCoverageEstimate_Idempotent(t *testing.T) {
	p := setupStrip(t, chain(2), walkExtender, testConfig(), 1, 0.5, 1.5)
	s := space.State{0.42, 0.42}

	assert.True(t, p.updateCoverageEstimate(0, s))
	assert.Equal(t, 1, p.Graph().Region(0).CoverageCells())
	for i := 0; i < 5; i++ {
		assert.False(t, p.updateCoverageEstimate(0, s))
		assert.False(t, p.updateCoverageEstimate(0, space.State{0.48, 0.41}))
		assert.Equal(t, 1, p.Graph().Region(0).CoverageCells())
	}
	assert.True(t, p.updateCoverageEstimate(0, space.State{0.55, 0.42}))
	assert.Equal(t, 2, p.Graph().Region(0).CoverageCells())
}

func TestUpdateConnectionEstimate(t *testing.T) {
	p := setupStrip(t, chain(3), walkExtender, testConfig(), 1, 0.5, 2.5)
	s := space.State{1.05, 0.5}

	novel, err := p.updateConnectionEstimate(0, 1, s)
	require.NoError(t, err)
	assert.True(t, novel)

	// same adjacency from the other side
	novel, err = p.updateConnectionEstimate(1, 0, s)
	require.NoError(t, err)
	assert.False(t, novel)

	e, _ := p.Graph().Edge(0, 1)
	assert.Equal(t, 1, e.CoverageCells())

	_, err = p.updateConnectionEstimate(0, 2, s)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeMissingAdjacency))
}

type samplerFunc func() space.State

func (f samplerFunc) SampleUniform(*rand.Rand) space.State { return f() }
