package testutil

import "github.com/turtacn/syclop/internal/config"

// OpenScenarioJSON is OpenScenario as a request body.
const OpenScenarioJSON = `{"name":"open","low":[0,0],"high":[1,1],"grid":{"cols":4,"rows":4},
"start":[0.1,0.1],"goal":[0.9,0.9],"goal_tolerance":0.1,"seed":7}`

// PlannerConfig returns default planner settings scaled down so a run over
// OpenScenario finishes in milliseconds.
func PlannerConfig() config.PlannerConfig {
	pc := config.Default().Planner
	pc.NumFreeVolSamples = 400
	pc.MaxIterations = 5000
	pc.MaxStep = 0.2
	pc.Resolution = 0.01
	return pc
}

// OpenScenario is an obstacle-free unit square on a 4x4 grid with the start
// and goal in opposite corner regions.
func OpenScenario() *config.ScenarioConfig {
	return &config.ScenarioConfig{
		Name:          "open",
		Low:           []float64{0, 0},
		High:          []float64{1, 1},
		Grid:          config.GridConfig{Cols: 4, Rows: 4},
		Start:         []float64{0.1, 0.1},
		Goal:          []float64{0.9, 0.9},
		GoalTolerance: 0.1,
		Seed:          7,
	}
}
