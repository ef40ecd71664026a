package run

import "github.com/google/uuid"

// RegionSnapshot is the final estimate state of one decomposition region.
type RegionSnapshot struct {
	Index             int     `json:"index"`
	Volume            float64 `json:"volume"`
	FreeVolume        float64 `json:"free_volume"`
	PercentValidCells float64 `json:"percent_valid_cells"`
	NumSelections     int     `json:"num_selections"`
	Weight            float64 `json:"weight"`
	Alpha             float64 `json:"alpha"`
	CoverageCells     int     `json:"coverage_cells"`
	TreeStates        int     `json:"tree_states"`
}

// AdjacencySnapshot is the final estimate state of one region-graph edge.
type AdjacencySnapshot struct {
	Source        int     `json:"source"`
	Target        int     `json:"target"`
	Cost          float64 `json:"cost"`
	NumSelections int     `json:"num_selections"`
	CoverageCells int     `json:"coverage_cells"`
}

// GraphSnapshot captures the region graph of a run after Solve returned.
type GraphSnapshot struct {
	RunID       uuid.UUID           `json:"run_id"`
	StartRegion int                 `json:"start_region"`
	GoalRegion  int                 `json:"goal_region"`
	Regions     []RegionSnapshot    `json:"regions"`
	Adjacencies []AdjacencySnapshot `json:"adjacencies"`
}

// Report is the document archived for every finished run.
type Report struct {
	Run   *Run           `json:"run"`
	Graph *GraphSnapshot `json:"graph,omitempty"`
}
