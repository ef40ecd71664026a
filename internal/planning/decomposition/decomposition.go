// Package decomposition partitions the workspace projection of a state space
// into regions with a neighbor relation.  The planner only depends on the
// Decomposition interface; Grid is the rectangular implementation used by the
// service and the CLI.
package decomposition

import (
	"fmt"
	"math"

	"github.com/turtacn/syclop/internal/planning/space"
	"github.com/turtacn/syclop/pkg/errors"
)

// Decomposition is the region partition consumed by the planner.  Regions are
// identified by dense indices in [0, NumRegions()).
type Decomposition interface {
	// NumRegions returns the number of regions.
	NumRegions() int

	// LocateRegion returns the region containing s.  States outside the
	// projected bounds are clamped to the nearest boundary region.
	LocateRegion(s space.State) int

	// Neighbors returns the regions adjacent to region, in ascending order.
	Neighbors(region int) []int

	// RegionVolume returns the volume of region in the projected space.
	RegionVolume(region int) float64
}

// Refiner is implemented by decompositions that can produce a finer grid over
// the same bounds.  The planner uses it to derive its coverage grid.
type Refiner interface {
	Refine(length int) (Decomposition, error)
}

// RegionBounder exposes the projected box of a region so that extenders can
// bias sampling toward it.
type RegionBounder interface {
	RegionBounds(region int) (low, high []float64)
}

// ─────────────────────────────────────────────────────────────────────────────
// Grid
// ─────────────────────────────────────────────────────────────────────────────

// GridOption configures a Grid.
type GridOption func(*Grid)

// WithDiagonalNeighbors enables 8-connectivity: cells sharing only a corner
// are neighbors.
func WithDiagonalNeighbors() GridOption {
	return func(g *Grid) { g.diagonal = true }
}

// Grid is a cols×rows rectangular decomposition over the first two
// dimensions of the state space.  Regions are numbered row-major:
// region = row*cols + col.
type Grid struct {
	cols, rows int
	low, high  [2]float64
	cellW      float64
	cellH      float64
	diagonal   bool
	neighbors  [][]int
}

// NewGrid builds a grid over the (dim 0, dim 1) projection of bounds.
func NewGrid(cols, rows int, bounds space.Bounds, opts ...GridOption) (*Grid, error) {
	if cols < 1 || rows < 1 {
		return nil, errors.New(errors.ErrCodeNoRegions, "grid must have at least one cell").
			WithDetail(fmt.Sprintf("cols=%d rows=%d", cols, rows))
	}
	if err := bounds.Validate(); err != nil {
		return nil, err
	}
	if bounds.Dimension() < 2 {
		return nil, errors.InvalidParam("grid decomposition requires at least two dimensions")
	}
	g := &Grid{
		cols: cols,
		rows: rows,
		low:  [2]float64{bounds.Low[0], bounds.Low[1]},
		high: [2]float64{bounds.High[0], bounds.High[1]},
	}
	for _, opt := range opts {
		opt(g)
	}
	g.cellW = (g.high[0] - g.low[0]) / float64(cols)
	g.cellH = (g.high[1] - g.low[1]) / float64(rows)
	g.buildNeighbors()
	return g, nil
}

func (g *Grid) buildNeighbors() {
	n := g.cols * g.rows
	g.neighbors = make([][]int, n)
	for r := 0; r < n; r++ {
		col, row := r%g.cols, r/g.cols
		var nbrs []int
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				if !g.diagonal && dx != 0 && dy != 0 {
					continue
				}
				c, w := col+dx, row+dy
				if c < 0 || c >= g.cols || w < 0 || w >= g.rows {
					continue
				}
				nbrs = append(nbrs, w*g.cols+c)
			}
		}
		g.neighbors[r] = nbrs
	}
}

// Cols returns the number of columns.
func (g *Grid) Cols() int { return g.cols }

// Rows returns the number of rows.
func (g *Grid) Rows() int { return g.rows }

// Diagonal reports whether the grid is 8-connected.
func (g *Grid) Diagonal() bool { return g.diagonal }

// CellSize returns the width and height of one cell.
func (g *Grid) CellSize() (w, h float64) { return g.cellW, g.cellH }

// NumRegions implements Decomposition.
func (g *Grid) NumRegions() int { return g.cols * g.rows }

// LocateRegion implements Decomposition.
func (g *Grid) LocateRegion(s space.State) int {
	col := cellIndex(s[0], g.low[0], g.cellW, g.cols)
	row := cellIndex(s[1], g.low[1], g.cellH, g.rows)
	return row*g.cols + col
}

func cellIndex(v, low, size float64, n int) int {
	i := int(math.Floor((v - low) / size))
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// Neighbors implements Decomposition.
func (g *Grid) Neighbors(region int) []int {
	if region < 0 || region >= len(g.neighbors) {
		return nil
	}
	return g.neighbors[region]
}

// RegionVolume implements Decomposition.
func (g *Grid) RegionVolume(region int) float64 { return g.cellW * g.cellH }

// RegionBounds implements RegionBounder.
func (g *Grid) RegionBounds(region int) (low, high []float64) {
	col, row := region%g.cols, region/g.cols
	low = []float64{g.low[0] + float64(col)*g.cellW, g.low[1] + float64(row)*g.cellH}
	high = []float64{low[0] + g.cellW, low[1] + g.cellH}
	return low, high
}

// Refine implements Refiner by returning a length×length grid over the same
// projected bounds.
func (g *Grid) Refine(length int) (Decomposition, error) {
	b := space.Bounds{Low: g.low[:], High: g.high[:]}
	return NewGrid(length, length, b)
}
