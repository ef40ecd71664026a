package syclop

// WeightedDistribution samples items with probability proportional to their
// weight.  Items keep insertion order, which fixes the outcome of Sample for a
// given uniform draw.
type WeightedDistribution struct {
	items   []int
	weights []float64
	total   float64
}

// Add appends item with weight w.  Non-positive weights are never sampled.
func (d *WeightedDistribution) Add(item int, w float64) {
	if w < 0 {
		w = 0
	}
	d.items = append(d.items, item)
	d.weights = append(d.weights, w)
	d.total += w
}

// Clear removes every item.
func (d *WeightedDistribution) Clear() {
	d.items = d.items[:0]
	d.weights = d.weights[:0]
	d.total = 0
}

// Len returns the number of items.
func (d *WeightedDistribution) Len() int { return len(d.items) }

// TotalWeight returns the sum of all weights.
func (d *WeightedDistribution) TotalWeight() float64 { return d.total }

// Items returns the items in insertion order.
func (d *WeightedDistribution) Items() []int { return d.items }

// Sample maps a uniform draw u ∈ [0,1) to an item.  It returns false when the
// distribution is empty.
func (d *WeightedDistribution) Sample(u float64) (int, bool) {
	if len(d.items) == 0 {
		return 0, false
	}
	if d.total <= 0 {
		return d.items[int(u*float64(len(d.items)))%len(d.items)], true
	}
	target := u * d.total
	var acc float64
	for i, w := range d.weights {
		acc += w
		if target < acc {
			return d.items[i], true
		}
	}
	return d.items[len(d.items)-1], true
}

// AvailableSet is the set of regions eligible for extension under the
// current lead.
type AvailableSet struct {
	members map[int]struct{}
}

func newAvailableSet() *AvailableSet {
	return &AvailableSet{members: make(map[int]struct{})}
}

// Insert adds region to the set.
func (s *AvailableSet) Insert(region int) { s.members[region] = struct{}{} }

// Contains reports membership.
func (s *AvailableSet) Contains(region int) bool {
	_, ok := s.members[region]
	return ok
}

// Len returns the set size.
func (s *AvailableSet) Len() int { return len(s.members) }

func (s *AvailableSet) clear() {
	for k := range s.members {
		delete(s.members, k)
	}
}

// computeAvailableRegions scans the lead from the goal end and adds every
// region holding tree nodes, stopping after each addition with probability
// 1-ProbKeepAddingToAvail.
func (p *Planner) computeAvailableRegions() {
	p.avail.clear()
	p.availDist.Clear()
	for i := len(p.lead) - 1; i >= 0; i-- {
		probe := p.lead[i]
		if p.cfg.LiteralLeadIndexing {
			probe = i
		}
		r := p.graph.Region(probe)
		if len(r.states) == 0 {
			continue
		}
		p.avail.Insert(p.lead[i])
		p.availDist.Add(p.lead[i], r.Weight)
		if p.rng.Float64() >= p.cfg.ProbKeepAddingToAvail {
			return
		}
	}
}

// selectRegion draws a region from the available distribution and counts the
// selection.
func (p *Planner) selectRegion() (int, bool) {
	if p.availDist.Len() == 0 {
		return 0, false
	}
	region, _ := p.availDist.Sample(p.rng.Float64())
	p.graph.regions[region].NumSelections++
	return region, true
}
