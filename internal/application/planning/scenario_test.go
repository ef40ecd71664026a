package planning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/syclop/internal/config"
	"github.com/turtacn/syclop/internal/testutil"
	"github.com/turtacn/syclop/pkg/errors"
)

func testPlannerConfig() config.PlannerConfig { return testutil.PlannerConfig() }

func openScenario() *config.ScenarioConfig { return testutil.OpenScenario() }

func TestBuildProblem(t *testing.T) {
	sc := openScenario()
	sc.Grid.Diagonal = true
	sc.Obstacles = []config.ObstacleConfig{{Min: []float64{0.4, 0.4}, Max: []float64{0.6, 0.6}}}

	p, err := BuildProblem(sc, testPlannerConfig())
	require.NoError(t, err)
	assert.Equal(t, 16, p.Grid.NumRegions())
	assert.True(t, p.Grid.Diagonal())
	assert.Len(t, p.World.Obstacles(), 1)
	assert.False(t, p.World.IsValid([]float64{0.5, 0.5}))
	assert.Equal(t, []float64{0.9, 0.9}, []float64(p.Goal.GoalState()))
	assert.Equal(t, 400, p.Config.NumFreeVolSamples)
	assert.NotEmpty(t, p.Fingerprint)
}

func TestBuildProblem_AppliesDefaultsToCopy(t *testing.T) {
	sc := openScenario()
	sc.Name = ""
	sc.Grid = config.GridConfig{}

	p, err := BuildProblem(sc, testPlannerConfig())
	require.NoError(t, err)
	assert.Equal(t, "scenario", p.Scenario.Name)
	assert.Equal(t, config.DefaultGridCells*config.DefaultGridCells, p.Grid.NumRegions())
	assert.Empty(t, sc.Name)
}

func TestBuildProblem_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.ScenarioConfig)
		code   errors.ErrorCode
	}{
		{"bad bounds", func(sc *config.ScenarioConfig) { sc.High = []float64{0, 1} }, errors.ErrCodeScenarioInvalid},
		{"dimension mismatch", func(sc *config.ScenarioConfig) { sc.Start = []float64{0.1} }, errors.ErrCodeScenarioInvalid},
		{"start in obstacle", func(sc *config.ScenarioConfig) {
			sc.Obstacles = []config.ObstacleConfig{{Min: []float64{0, 0}, Max: []float64{0.2, 0.2}}}
		}, errors.ErrCodeStartInvalid},
		{"goal out of bounds", func(sc *config.ScenarioConfig) { sc.Goal = []float64{1.5, 0.5} }, errors.ErrCodeGoalInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := openScenario()
			tt.mutate(sc)
			_, err := BuildProblem(sc, testPlannerConfig())
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, tt.code), "got %v", err)
		})
	}

	_, err := BuildProblem(nil, testPlannerConfig())
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))

	pc := testPlannerConfig()
	pc.NumAvailExplorations = 0
	_, err = BuildProblem(openScenario(), pc)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidPlannerConfig))
}

func TestFingerprint(t *testing.T) {
	pc := testPlannerConfig()
	a := openScenario()
	b := openScenario()
	b.Seed = 99
	b.Start = []float64{0.2, 0.3}
	b.Name = "renamed"

	fpA, seedA := Fingerprint(a, pc)
	fpB, seedB := Fingerprint(b, pc)
	assert.Equal(t, fpA, fpB, "seed, name and endpoints do not affect estimates")
	assert.Equal(t, seedA, seedB)
	assert.Len(t, fpA, 64)

	b.Obstacles = []config.ObstacleConfig{{Min: []float64{0.4, 0.4}, Max: []float64{0.6, 0.6}}}
	fpC, _ := Fingerprint(b, pc)
	assert.NotEqual(t, fpA, fpC)

	pc.NumFreeVolSamples++
	fpD, _ := Fingerprint(a, pc)
	assert.NotEqual(t, fpA, fpD)
}

func TestPlannerSettings(t *testing.T) {
	pc := testPlannerConfig()
	pc.LiteralLeadIndexing = true
	cfg := PlannerSettings(pc)
	assert.Equal(t, pc.ProbShortestPath, cfg.ProbShortestPath)
	assert.Equal(t, pc.CoverageGridLength, cfg.CoverageGridLength)
	assert.True(t, cfg.LiteralLeadIndexing)
	assert.NoError(t, cfg.Validate())
}
