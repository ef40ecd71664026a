package config

import "fmt"

// ObstacleConfig is an axis-aligned box obstacle.
type ObstacleConfig struct {
	Min []float64 `mapstructure:"min" json:"min" binding:"required"`
	Max []float64 `mapstructure:"max" json:"max" binding:"required"`
}

// GridConfig describes the planning decomposition.
type GridConfig struct {
	Cols     int  `mapstructure:"cols" json:"cols"`
	Rows     int  `mapstructure:"rows" json:"rows"`
	Diagonal bool `mapstructure:"diagonal" json:"diagonal"`
}

// ScenarioConfig is a complete planning problem: a bounded box world with
// obstacles, a grid decomposition, one start state and one goal state.
type ScenarioConfig struct {
	Name          string           `mapstructure:"name" json:"name"`
	Low           []float64        `mapstructure:"low" json:"low" binding:"required"`
	High          []float64        `mapstructure:"high" json:"high" binding:"required"`
	Grid          GridConfig       `mapstructure:"grid" json:"grid"`
	Start         []float64        `mapstructure:"start" json:"start" binding:"required"`
	Goal          []float64        `mapstructure:"goal" json:"goal" binding:"required"`
	GoalTolerance float64          `mapstructure:"goal_tolerance" json:"goal_tolerance"`
	Obstacles     []ObstacleConfig `mapstructure:"obstacles" json:"obstacles"`
	Seed          int64            `mapstructure:"seed" json:"seed"`
}

// Scenario defaults.
const (
	DefaultGridCells     = 8
	DefaultGoalTolerance = 0.05
	DefaultScenarioSeed  = 1
)

// ApplyScenarioDefaults fills zero-value scenario fields.
func ApplyScenarioDefaults(s *ScenarioConfig) {
	if s == nil {
		return
	}
	if s.Name == "" {
		s.Name = "scenario"
	}
	if s.Grid.Cols == 0 {
		s.Grid.Cols = DefaultGridCells
	}
	if s.Grid.Rows == 0 {
		s.Grid.Rows = DefaultGridCells
	}
	if s.GoalTolerance == 0 {
		s.GoalTolerance = DefaultGoalTolerance
	}
	if s.Seed == 0 {
		s.Seed = DefaultScenarioSeed
	}
}

// Validate checks that the scenario is internally consistent.
func (s *ScenarioConfig) Validate() error {
	dim := len(s.Low)
	if dim < 2 || len(s.High) != dim {
		return fmt.Errorf("scenario: low/high must have the same dimension >= 2, got %d/%d", len(s.Low), len(s.High))
	}
	for i := 0; i < dim; i++ {
		if !(s.High[i] > s.Low[i]) {
			return fmt.Errorf("scenario: high[%d]=%g must exceed low[%d]=%g", i, s.High[i], i, s.Low[i])
		}
	}
	if len(s.Start) != dim || len(s.Goal) != dim {
		return fmt.Errorf("scenario: start and goal must have dimension %d", dim)
	}
	if s.Grid.Cols < 1 || s.Grid.Rows < 1 {
		return fmt.Errorf("scenario: grid must have at least one cell, got %dx%d", s.Grid.Cols, s.Grid.Rows)
	}
	if s.GoalTolerance < 0 {
		return fmt.Errorf("scenario: goal_tolerance must be >= 0")
	}
	for i, o := range s.Obstacles {
		if len(o.Min) == 0 || len(o.Min) != len(o.Max) || len(o.Min) > dim {
			return fmt.Errorf("scenario: obstacle %d has malformed bounds", i)
		}
	}
	return nil
}
