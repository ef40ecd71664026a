package syclop

import (
	"fmt"

	"github.com/turtacn/syclop/pkg/errors"
)

// Default tunables.
const (
	DefaultProbShortestPath      = 0.95
	DefaultProbAbandonLeadEarly  = 0.25
	DefaultProbKeepAddingToAvail = 0.95
	DefaultNumAvailExplorations  = 100
	DefaultNumTreeSelections     = 1
	DefaultNumFreeVolSamples     = 5000
	DefaultCoverageGridLength    = 128
	DefaultFallbackValidFraction = 1.0
)

// Config holds the planner tunables.
type Config struct {
	// ProbShortestPath is the probability that a lead is computed by Dijkstra
	// over edge costs rather than by a randomized depth-first search.
	ProbShortestPath float64 `mapstructure:"prob_shortest_path" json:"prob_shortest_path"`

	// ProbAbandonLeadEarly is the probability of leaving the current lead after
	// an exploration round that produced no novel coverage.
	ProbAbandonLeadEarly float64 `mapstructure:"prob_abandon_lead_early" json:"prob_abandon_lead_early"`

	// ProbKeepAddingToAvail is the probability of continuing the lead scan
	// after a region was added to the available set.
	ProbKeepAddingToAvail float64 `mapstructure:"prob_keep_adding_to_avail" json:"prob_keep_adding_to_avail"`

	// NumAvailExplorations is the number of region selections per lead.
	NumAvailExplorations int `mapstructure:"num_avail_explorations" json:"num_avail_explorations"`

	// NumTreeSelections is the number of Extender calls per selected region.
	NumTreeSelections int `mapstructure:"num_tree_selections" json:"num_tree_selections"`

	// NumFreeVolSamples is the number of uniform samples used to estimate the
	// valid fraction of every region during Setup.
	NumFreeVolSamples int `mapstructure:"num_free_vol_samples" json:"num_free_vol_samples"`

	// CoverageGridLength is the side length of the coverage grid derived
	// from a refinable decomposition.
	CoverageGridLength int `mapstructure:"coverage_grid_length" json:"coverage_grid_length"`

	// FallbackValidFraction is used for regions that received no free-volume
	// samples.
	FallbackValidFraction float64 `mapstructure:"fallback_valid_fraction" json:"fallback_valid_fraction"`

	// LiteralLeadIndexing checks lead position i instead of region lead[i]
	// when building the available set.  Only useful for comparing against
	// traces of older planners that had this behaviour.
	LiteralLeadIndexing bool `mapstructure:"literal_lead_indexing" json:"literal_lead_indexing"`
}

// DefaultConfig returns a Config populated with the default tunables.
func DefaultConfig() Config {
	return Config{
		ProbShortestPath:      DefaultProbShortestPath,
		ProbAbandonLeadEarly:  DefaultProbAbandonLeadEarly,
		ProbKeepAddingToAvail: DefaultProbKeepAddingToAvail,
		NumAvailExplorations:  DefaultNumAvailExplorations,
		NumTreeSelections:     DefaultNumTreeSelections,
		NumFreeVolSamples:     DefaultNumFreeVolSamples,
		CoverageGridLength:    DefaultCoverageGridLength,
		FallbackValidFraction: DefaultFallbackValidFraction,
	}
}

// Validate checks every tunable and reports the first violation.
func (c Config) Validate() error {
	probs := []struct {
		name string
		v    float64
	}{
		{"prob_shortest_path", c.ProbShortestPath},
		{"prob_abandon_lead_early", c.ProbAbandonLeadEarly},
		{"prob_keep_adding_to_avail", c.ProbKeepAddingToAvail},
		{"fallback_valid_fraction", c.FallbackValidFraction},
	}
	for _, p := range probs {
		if p.v < 0 || p.v > 1 {
			return invalidConfig(p.name, fmt.Sprintf("%g not in [0,1]", p.v))
		}
	}
	counts := []struct {
		name string
		v    int
	}{
		{"num_avail_explorations", c.NumAvailExplorations},
		{"num_tree_selections", c.NumTreeSelections},
		{"num_free_vol_samples", c.NumFreeVolSamples},
		{"coverage_grid_length", c.CoverageGridLength},
	}
	for _, n := range counts {
		if n.v < 1 {
			return invalidConfig(n.name, fmt.Sprintf("%d must be >= 1", n.v))
		}
	}
	return nil
}

func invalidConfig(field, detail string) error {
	return errors.New(errors.ErrCodeInvalidPlannerConfig, "invalid planner configuration").
		WithDetail(field + ": " + detail)
}
