package decomposition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/syclop/internal/planning/space"
	"github.com/turtacn/syclop/pkg/errors"
)

var unit = space.Bounds{Low: []float64{0, 0}, High: []float64{1, 1}}

func TestNewGrid_Invalid(t *testing.T) {
	_, err := NewGrid(0, 3, unit)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeNoRegions))

	_, err = NewGrid(2, 2, space.Bounds{Low: []float64{0}, High: []float64{1}})
	assert.Error(t, err)
}

func TestGrid_LocateRegion(t *testing.T) {
	g, err := NewGrid(4, 2, unit)
	require.NoError(t, err)
	assert.Equal(t, 8, g.NumRegions())

	assert.Equal(t, 0, g.LocateRegion(space.State{0.1, 0.1}))
	assert.Equal(t, 3, g.LocateRegion(space.State{0.9, 0.1}))
	assert.Equal(t, 4, g.LocateRegion(space.State{0.1, 0.9}))
	assert.Equal(t, 7, g.LocateRegion(space.State{1.0, 1.0}))
	// clamped
	assert.Equal(t, 0, g.LocateRegion(space.State{-5, -5}))
	assert.Equal(t, 7, g.LocateRegion(space.State{5, 5}))
}

func TestGrid_FourConnectivity(t *testing.T) {
	g, err := NewGrid(3, 3, unit)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, g.Neighbors(0))
	assert.Equal(t, []int{1, 3, 5, 7}, g.Neighbors(4))
	assert.Nil(t, g.Neighbors(9))
	assert.False(t, g.Diagonal())
}

func TestGrid_EightConnectivity(t *testing.T) {
	g, err := NewGrid(3, 3, unit, WithDiagonalNeighbors())
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3, 4}, g.Neighbors(0))
	assert.Equal(t, []int{0, 1, 2, 3, 5, 6, 7, 8}, g.Neighbors(4))
}

func TestGrid_NeighborSymmetry(t *testing.T) {
	g, err := NewGrid(5, 4, unit, WithDiagonalNeighbors())
	require.NoError(t, err)
	for r := 0; r < g.NumRegions(); r++ {
		for _, n := range g.Neighbors(r) {
			assert.Contains(t, g.Neighbors(n), r)
		}
	}
}

func TestGrid_VolumeAndBounds(t *testing.T) {
	g, err := NewGrid(2, 4, space.Bounds{Low: []float64{0, 0}, High: []float64{2, 2}})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, g.RegionVolume(0), 1e-12)

	low, high := g.RegionBounds(5)
	assert.InDeltaSlice(t, []float64{1, 1}, low, 1e-12)
	assert.InDeltaSlice(t, []float64{2, 1.5}, high, 1e-12)

	w, h := g.CellSize()
	assert.InDelta(t, 1.0, w, 1e-12)
	assert.InDelta(t, 0.5, h, 1e-12)
}

func TestGrid_Refine(t *testing.T) {
	g, err := NewGrid(2, 1, unit)
	require.NoError(t, err)
	fine, err := g.Refine(16)
	require.NoError(t, err)
	assert.Equal(t, 256, fine.NumRegions())
	assert.Equal(t, 255, fine.LocateRegion(space.State{0.99, 0.99}))
}
