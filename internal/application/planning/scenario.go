// Package planning is the application service that turns scenario
// descriptions into planner runs and hands the results to the configured
// sinks.
package planning

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/turtacn/syclop/internal/config"
	"github.com/turtacn/syclop/internal/planning/decomposition"
	"github.com/turtacn/syclop/internal/planning/extend"
	"github.com/turtacn/syclop/internal/planning/space"
	"github.com/turtacn/syclop/internal/planning/syclop"
	"github.com/turtacn/syclop/pkg/errors"
)

// Problem is a scenario resolved into planner collaborators.
type Problem struct {
	Scenario config.ScenarioConfig
	Space    *space.RealVectorSpace
	World    *space.BoxWorld
	Grid     *decomposition.Grid
	Extender *extend.RRT
	Start    space.State
	Goal     *space.StateGoal
	Config   syclop.Config

	// Fingerprint identifies the free-volume estimates of this problem.
	Fingerprint string
	// EstimateSeed seeds the free-volume sampling so that estimates depend on
	// the geometry only.
	EstimateSeed int64
}

// PlannerSettings extracts the planner tunables from the service
// configuration.
func PlannerSettings(pc config.PlannerConfig) syclop.Config {
	return syclop.Config{
		ProbShortestPath:      pc.ProbShortestPath,
		ProbAbandonLeadEarly:  pc.ProbAbandonLeadEarly,
		ProbKeepAddingToAvail: pc.ProbKeepAddingToAvail,
		NumAvailExplorations:  pc.NumAvailExplorations,
		NumTreeSelections:     pc.NumTreeSelections,
		NumFreeVolSamples:     pc.NumFreeVolSamples,
		CoverageGridLength:    pc.CoverageGridLength,
		FallbackValidFraction: pc.FallbackValidFraction,
		LiteralLeadIndexing:   pc.LiteralLeadIndexing,
	}
}

// BuildProblem validates sc and builds the box world, grid decomposition,
// goal and RRT extender it describes.  sc is copied; defaults are applied to
// the copy.
func BuildProblem(sc *config.ScenarioConfig, pc config.PlannerConfig) (*Problem, error) {
	if sc == nil {
		return nil, errors.InvalidParam("scenario is required")
	}
	scenario := *sc
	config.ApplyScenarioDefaults(&scenario)
	if err := scenario.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeScenarioInvalid, "invalid scenario").WithDetail(err.Error())
	}

	cfg := PlannerSettings(pc)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	bounds := space.Bounds{Low: scenario.Low, High: scenario.High}
	sp, err := space.NewRealVectorSpace(bounds)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeScenarioInvalid, "invalid scenario bounds")
	}

	obstacles := make([]space.Box, 0, len(scenario.Obstacles))
	for _, o := range scenario.Obstacles {
		obstacles = append(obstacles, space.Box{Min: o.Min, Max: o.Max})
	}
	world := space.NewBoxWorld(sp, obstacles...)

	var gridOpts []decomposition.GridOption
	if scenario.Grid.Diagonal {
		gridOpts = append(gridOpts, decomposition.WithDiagonalNeighbors())
	}
	grid, err := decomposition.NewGrid(scenario.Grid.Cols, scenario.Grid.Rows, bounds, gridOpts...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeScenarioInvalid, "invalid scenario grid")
	}

	start := space.State(scenario.Start).Clone()
	if !world.IsValid(start) {
		return nil, errors.New(errors.ErrCodeStartInvalid, "start state is invalid").
			WithDetail(fmt.Sprintf("start=%v", scenario.Start))
	}
	goalState := space.State(scenario.Goal).Clone()
	if !world.IsValid(goalState) {
		return nil, errors.New(errors.ErrCodeGoalInvalid, "goal state is invalid").
			WithDetail(fmt.Sprintf("goal=%v", scenario.Goal))
	}
	goal := space.NewStateGoal(goalState, scenario.GoalTolerance)

	rrt, err := extend.NewRRT(sp, world,
		extend.WithMaxStep(pc.MaxStep),
		extend.WithResolution(pc.Resolution),
		extend.WithGoalBias(goalState, pc.GoalBias),
		extend.WithDecomposition(grid))
	if err != nil {
		return nil, err
	}

	fp, seed := Fingerprint(&scenario, pc)
	return &Problem{
		Scenario:     scenario,
		Space:        sp,
		World:        world,
		Grid:         grid,
		Extender:     rrt,
		Start:        start,
		Goal:         goal,
		Config:       cfg,
		Fingerprint:  fp,
		EstimateSeed: seed,
	}, nil
}

// fingerprintInput lists everything the free-volume estimates depend on.
type fingerprintInput struct {
	Low       []float64               `json:"low"`
	High      []float64               `json:"high"`
	Grid      config.GridConfig       `json:"grid"`
	Obstacles []config.ObstacleConfig `json:"obstacles"`
	Samples   int                     `json:"samples"`
	Fallback  float64                 `json:"fallback"`
}

// Fingerprint hashes the geometry and sampling settings of a scenario.  The
// hex digest keys the estimate cache; the leading eight bytes double as the
// estimate sampling seed.
func Fingerprint(sc *config.ScenarioConfig, pc config.PlannerConfig) (string, int64) {
	in := fingerprintInput{
		Low:       sc.Low,
		High:      sc.High,
		Grid:      sc.Grid,
		Obstacles: sc.Obstacles,
		Samples:   pc.NumFreeVolSamples,
		Fallback:  pc.FallbackValidFraction,
	}
	if in.Obstacles == nil {
		in.Obstacles = []config.ObstacleConfig{}
	}
	// Marshal cannot fail for these field types.
	data, _ := json.Marshal(in)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), int64(binary.BigEndian.Uint64(sum[:8]))
}
