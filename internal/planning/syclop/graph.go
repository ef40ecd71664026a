package syclop

import (
	"sort"

	"github.com/turtacn/syclop/internal/planning/decomposition"
	"github.com/turtacn/syclop/internal/planning/tree"
)

// Region is a vertex of the RegionGraph, one per decomposition region.
type Region struct {
	Index             int
	Volume            float64
	FreeVolume        float64
	PercentValidCells float64
	NumSelections     int
	Weight            float64
	Alpha             float64

	// coverage holds coverage-grid cell ids reached by tree states located in
	// this region.  It only grows.
	coverage map[int]struct{}

	// states are the tree nodes located in this region.  The tree owns them.
	states []tree.NodeID
}

// CoverageCells returns the number of distinct coverage cells reached.
func (r *Region) CoverageCells() int { return len(r.coverage) }

// States returns the tree nodes located in the region.  The slice must not be
// modified.
func (r *Region) States() []tree.NodeID { return r.states }

// Adjacency is an edge of the RegionGraph.  One Adjacency exists per
// unordered neighbor pair; Source < Target.
type Adjacency struct {
	Source        int
	Target        int
	NumSelections int
	Cost          float64

	coverage map[int]struct{}
}

// CoverageCells returns the number of distinct coverage cells reached by
// motions crossing the edge.
func (a *Adjacency) CoverageCells() int { return len(a.coverage) }

type regionPair struct{ a, b int }

// RegionGraph mirrors a Decomposition: a vertex per region and an edge per
// neighbor pair.  Its topology is fixed at construction.
type RegionGraph struct {
	regions   []Region
	edges     []*Adjacency
	lookup    map[regionPair]*Adjacency
	neighbors [][]int
}

// NewRegionGraph builds the graph for d.  Symmetric neighbor reports produce a
// single Adjacency reachable from both (a,b) and (b,a).
func NewRegionGraph(d decomposition.Decomposition) *RegionGraph {
	n := d.NumRegions()
	g := &RegionGraph{
		regions:   make([]Region, n),
		lookup:    make(map[regionPair]*Adjacency),
		neighbors: make([][]int, n),
	}
	for i := range g.regions {
		g.regions[i] = Region{
			Index:             i,
			Volume:            1,
			FreeVolume:        1,
			PercentValidCells: 1,
			coverage:          make(map[int]struct{}),
		}
	}
	for i := 0; i < n; i++ {
		for _, j := range d.Neighbors(i) {
			if j == i || j < 0 || j >= n {
				continue
			}
			if _, ok := g.lookup[regionPair{i, j}]; ok {
				continue
			}
			src, dst := i, j
			if dst < src {
				src, dst = dst, src
			}
			adj := &Adjacency{Source: src, Target: dst, coverage: make(map[int]struct{})}
			g.edges = append(g.edges, adj)
			g.lookup[regionPair{i, j}] = adj
			g.lookup[regionPair{j, i}] = adj
			g.neighbors[i] = append(g.neighbors[i], j)
			g.neighbors[j] = append(g.neighbors[j], i)
		}
	}
	for i := range g.neighbors {
		sort.Ints(g.neighbors[i])
	}
	return g
}

// NumRegions returns the vertex count.
func (g *RegionGraph) NumRegions() int { return len(g.regions) }

// Region returns vertex i.
func (g *RegionGraph) Region(i int) *Region { return &g.regions[i] }

// Edge returns the adjacency between a and b, if any.
func (g *RegionGraph) Edge(a, b int) (*Adjacency, bool) {
	adj, ok := g.lookup[regionPair{a, b}]
	return adj, ok
}

// Edges returns every adjacency in construction order.
func (g *RegionGraph) Edges() []*Adjacency { return g.edges }

// Neighbors returns the regions adjacent to i in ascending order.
func (g *RegionGraph) Neighbors(i int) []int { return g.neighbors[i] }

// reachable reports whether goal can be reached from start.
func (g *RegionGraph) reachable(start, goal int) bool {
	seen := make([]bool, len(g.regions))
	queue := []int{start}
	seen[start] = true
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		if v == goal {
			return true
		}
		for _, n := range g.neighbors[v] {
			if !seen[n] {
				seen[n] = true
				queue = append(queue, n)
			}
		}
	}
	return false
}
