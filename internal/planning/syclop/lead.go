package syclop

import (
	"container/heap"
	"fmt"
	"math"

	"github.com/turtacn/syclop/pkg/errors"
)

// computeLead replaces the current lead with a fresh path of regions from the
// start region to the goal region.  Every edge on the new lead has its
// selection count incremented.
func (p *Planner) computeLead() error {
	var (
		lead []int
		ok   bool
	)
	if p.rng.Float64() < p.cfg.ProbShortestPath {
		lead, ok = p.shortestPathLead()
		p.stats.ShortestPathLeads++
	} else {
		lead, ok = p.randomDFSLead()
		p.stats.RandomLeads++
	}
	if !ok {
		return errors.New(errors.ErrCodeRegionsDisconnected, "no lead from start region to goal region").
			WithDetail(fmt.Sprintf("start=%d goal=%d", p.startRegion, p.goalRegion))
	}
	for i := 1; i < len(lead); i++ {
		if adj, found := p.graph.Edge(lead[i-1], lead[i]); found {
			adj.NumSelections++
		}
	}
	p.lead = lead
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Dijkstra
// ─────────────────────────────────────────────────────────────────────────────

type leadItem struct {
	region int
	dist   float64
}

// leadQueue is a min-heap on dist; ties go to the lower region index so that
// leads are reproducible.
type leadQueue []leadItem

func (q leadQueue) Len() int { return len(q) }

func (q leadQueue) Less(i, j int) bool {
	if q[i].dist != q[j].dist {
		return q[i].dist < q[j].dist
	}
	return q[i].region < q[j].region
}

func (q leadQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *leadQueue) Push(x any) { *q = append(*q, x.(leadItem)) }

func (q *leadQueue) Pop() any {
	old := *q
	n := len(old)
	it := old[n-1]
	*q = old[:n-1]
	return it
}

// shortestPathLead runs Dijkstra over edge costs from the start region.
func (p *Planner) shortestPathLead() ([]int, bool) {
	n := p.graph.NumRegions()
	dist := make([]float64, n)
	parent := make([]int, n)
	done := make([]bool, n)
	for i := range dist {
		dist[i] = math.Inf(1)
		parent[i] = -1
	}
	dist[p.startRegion] = 0

	q := &leadQueue{{region: p.startRegion}}
	for q.Len() > 0 {
		it := heap.Pop(q).(leadItem)
		v := it.region
		if done[v] {
			continue
		}
		done[v] = true
		if v == p.goalRegion {
			break
		}
		for _, u := range p.graph.neighbors[v] {
			if done[u] {
				continue
			}
			adj := p.graph.lookup[regionPair{v, u}]
			if d := dist[v] + adj.Cost; d < dist[u] {
				dist[u] = d
				parent[u] = v
				heap.Push(q, leadItem{region: u, dist: d})
			}
		}
	}
	if !done[p.goalRegion] {
		return nil, false
	}
	return p.tracePath(parent), true
}

// ─────────────────────────────────────────────────────────────────────────────
// Random DFS
// ─────────────────────────────────────────────────────────────────────────────

// randomDFSLead runs a depth-first search from the start region that expands
// neighbors in a shuffled order, then follows parents back from the goal.
func (p *Planner) randomDFSLead() ([]int, bool) {
	n := p.graph.NumRegions()
	visited := make([]bool, n)
	parent := make([]int, n)
	for i := range parent {
		parent[i] = -1
	}

	stack := []int{p.startRegion}
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[v] {
			continue
		}
		visited[v] = true
		if v == p.goalRegion {
			break
		}
		nbrs := append([]int(nil), p.graph.neighbors[v]...)
		p.rng.Shuffle(len(nbrs), func(i, j int) { nbrs[i], nbrs[j] = nbrs[j], nbrs[i] })
		for _, u := range nbrs {
			if !visited[u] {
				parent[u] = v
				stack = append(stack, u)
			}
		}
	}
	if !visited[p.goalRegion] {
		return nil, false
	}
	return p.tracePath(parent), true
}

func (p *Planner) tracePath(parent []int) []int {
	var rev []int
	for r := p.goalRegion; r != -1; r = parent[r] {
		rev = append(rev, r)
		if r == p.startRegion {
			break
		}
	}
	lead := make([]int, len(rev))
	for i, r := range rev {
		lead[len(rev)-1-i] = r
	}
	return lead
}
