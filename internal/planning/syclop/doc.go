// Package syclop implements decomposition-guided tree planning.
//
// A coarse Decomposition is overlaid on the state space.  The planner keeps a
// RegionGraph mirroring the decomposition, tracks coverage and selection
// statistics per region and per adjacency, computes a lead (a path of regions
// from the start region to the goal region) and repeatedly asks an injected
// Extender to grow the exploration tree from regions on that lead.
//
// # Estimates
//
// Per region, with cov the number of coverage-grid cells reached inside the
// region and sel its selection count:
//
//	f      = freeVolume^4
//	alpha  = 1 / ((1+cov) * f)
//	weight = f / ((1+cov) * (1+sel^2))
//
// Per adjacency:
//
//	cost = (1+sel^2) / (1+cov) * alpha(a) * alpha(b)
//
// # Random draw order
//
// Every random draw comes from the planner-owned *rand.Rand.  Within one outer
// iteration of Solve the order is fixed:
//
//  1. lead policy coin (shortest path vs. random DFS);
//  2. for a random-DFS lead, one shuffle per expanded region;
//  3. one truncation coin after each region added to the available set;
//  4. for each exploration: one region draw, then the Extender's own draws,
//     then one abandon coin, drawn only when the round was not an improvement.
//
// Setup draws NumFreeVolSamples states from the Sampler before any of the above
// unless free-volume estimates were supplied with WithValidFractions.
//
// A Planner is not safe for concurrent use.  Run independent planners in
// parallel instead; they share nothing.
package syclop
