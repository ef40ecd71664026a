package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/syclop/internal/application/planning"
	"github.com/turtacn/syclop/internal/config"
	"github.com/turtacn/syclop/pkg/errors"
)

// NewScenarioCmd creates the scenario command group.
func NewScenarioCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scenario",
		Short: "Inspect planning scenarios",
	}
	cmd.AddCommand(newScenarioCheckCmd())
	return cmd
}

func newScenarioCheckCmd() *cobra.Command {
	var (
		path  string
		quiet bool
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate a scenario file and print its decomposition summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			sc, err := config.LoadScenario(path)
			if err != nil {
				return errors.Wrap(err, errors.ErrCodeScenarioInvalid, "failed to load scenario")
			}
			problem, err := planning.BuildProblem(sc, cliCtx.Config.Planner)
			if err != nil {
				return err
			}
			if quiet {
				PrintSuccess(cmd, fmt.Sprintf("scenario %q is valid (%d regions)",
					problem.Scenario.Name, problem.Grid.NumRegions()))
				return nil
			}

			return PrintResult(cmd, &scenarioSummary{
				Name:        problem.Scenario.Name,
				Dimension:   len(problem.Scenario.Low),
				Regions:     problem.Grid.NumRegions(),
				Diagonal:    problem.Grid.Diagonal(),
				Obstacles:   len(problem.Scenario.Obstacles),
				Start:       problem.Scenario.Start,
				Goal:        problem.Scenario.Goal,
				Seed:        problem.Scenario.Seed,
				Fingerprint: problem.Fingerprint,
			})
		},
	}

	cmd.Flags().StringVarP(&path, "scenario", "s", "", "scenario file path (required)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "print only a one-line confirmation")
	_ = cmd.MarkFlagRequired("scenario")
	return cmd
}

type scenarioSummary struct {
	Name        string    `json:"name"`
	Dimension   int       `json:"dimension"`
	Regions     int       `json:"regions"`
	Diagonal    bool      `json:"diagonal"`
	Obstacles   int       `json:"obstacles"`
	Start       []float64 `json:"start"`
	Goal        []float64 `json:"goal"`
	Seed        int64     `json:"seed"`
	Fingerprint string    `json:"fingerprint"`
}

func (s *scenarioSummary) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Scenario:    %s\n", s.Name)
	fmt.Fprintf(&sb, "Dimension:   %d\n", s.Dimension)
	fmt.Fprintf(&sb, "Regions:     %d (diagonal adjacency: %t)\n", s.Regions, s.Diagonal)
	fmt.Fprintf(&sb, "Obstacles:   %d\n", s.Obstacles)
	fmt.Fprintf(&sb, "Start:       %s\n", formatState(s.Start))
	fmt.Fprintf(&sb, "Goal:        %s\n", formatState(s.Goal))
	fmt.Fprintf(&sb, "Seed:        %d\n", s.Seed)
	fmt.Fprintf(&sb, "Fingerprint: %s\n", s.Fingerprint)
	return sb.String()
}
