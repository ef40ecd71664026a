package syclop

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/turtacn/syclop/internal/planning/decomposition"
	"github.com/turtacn/syclop/internal/planning/space"
	"github.com/turtacn/syclop/pkg/errors"
)

// minFreeVolume keeps f strictly positive for regions with no valid samples.
const minFreeVolume = 1e-12

// setupRegionEstimates estimates the valid fraction of every region by
// uniform sampling, or applies the fractions supplied with WithValidFractions.
func (p *Planner) setupRegionEstimates() {
	n := p.graph.NumRegions()
	fractions := p.presetFractions
	if len(fractions) != n {
		fractions = p.sampleValidFractions()
	}
	for i := 0; i < n; i++ {
		r := p.graph.Region(i)
		r.Volume = p.decomp.RegionVolume(i)
		r.PercentValidCells = fractions[i]
		r.FreeVolume = r.PercentValidCells * r.Volume
	}
}

func (p *Planner) sampleValidFractions() []float64 {
	return EstimateValidFractions(p.decomp, p.sampler, p.checker, p.cfg.NumFreeVolSamples, p.cfg.FallbackValidFraction, p.rng)
}

// EstimateValidFractions draws samples uniform states and returns, per region
// of d, the fraction that checker accepts.  Regions that received no sample
// get fallback.
func EstimateValidFractions(d decomposition.Decomposition, sampler space.Sampler, checker space.ValidityChecker,
	samples int, fallback float64, rng *rand.Rand) []float64 {
	n := d.NumRegions()
	total := make([]int, n)
	valid := make([]int, n)
	for i := 0; i < samples; i++ {
		s := sampler.SampleUniform(rng)
		rid := d.LocateRegion(s)
		if rid < 0 || rid >= n {
			continue
		}
		if checker.IsValid(s) {
			valid[rid]++
		}
		total[rid]++
	}
	out := make([]float64, n)
	for i := range out {
		if total[i] == 0 {
			out[i] = fallback
			continue
		}
		out[i] = float64(valid[i]) / float64(total[i])
	}
	return out
}

// updateRegionEstimates recomputes alpha and weight for every region.
func (p *Planner) updateRegionEstimates() {
	for i := 0; i < p.graph.NumRegions(); i++ {
		r := p.graph.Region(i)
		fv := math.Max(r.FreeVolume, minFreeVolume)
		f := fv * fv * fv * fv
		cov := float64(1 + len(r.coverage))
		sel := float64(r.NumSelections)
		r.Alpha = 1 / (cov * f)
		r.Weight = f / (cov * (1 + sel*sel))
	}
}

// updateEdgeEstimates recomputes every edge cost.  Region alphas must be
// current.
func (p *Planner) updateEdgeEstimates() {
	for _, a := range p.graph.edges {
		sel := float64(a.NumSelections)
		a.Cost = (1 + sel*sel) / float64(1+len(a.coverage))
		a.Cost *= p.graph.regions[a.Source].Alpha * p.graph.regions[a.Target].Alpha
	}
}

// updateCoverageEstimate records the coverage cell of s in region and reports
// whether the cell was new.
func (p *Planner) updateCoverageEstimate(region int, s space.State) bool {
	cell := p.covGrid.LocateRegion(s)
	cov := p.graph.regions[region].coverage
	if _, ok := cov[cell]; ok {
		return false
	}
	cov[cell] = struct{}{}
	return true
}

// updateConnectionEstimate records the coverage cell of s on the adjacency
// between a and b and reports whether the cell was new.
func (p *Planner) updateConnectionEstimate(a, b int, s space.State) (bool, error) {
	adj, ok := p.graph.Edge(a, b)
	if !ok {
		return false, errors.New(errors.ErrCodeMissingAdjacency, "motion crosses non-adjacent regions").
			WithDetail(fmt.Sprintf("from=%d to=%d", a, b))
	}
	cell := p.covGrid.LocateRegion(s)
	if _, ok := adj.coverage[cell]; ok {
		return false, nil
	}
	adj.coverage[cell] = struct{}{}
	return true, nil
}
