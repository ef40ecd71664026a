package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/syclop/internal/application/planning"
	"github.com/turtacn/syclop/internal/config"
	"github.com/turtacn/syclop/internal/domain/run"
	"github.com/turtacn/syclop/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/syclop/pkg/errors"
)

type solveOptions struct {
	scenarioPath  string
	seed          int64
	timeLimit     time.Duration
	maxIterations int
	showPath      bool
}

// NewSolveCmd creates the solve command.
func NewSolveCmd() *cobra.Command {
	opts := &solveOptions{}

	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Plan a path for a scenario file",
		Long: "Load a scenario (YAML or JSON), run the planner until it reaches the goal\n" +
			"or a termination condition fires, and print the run report.",
		Example: "  syclop solve -s configs/scenarios/corridor.yaml\n" +
			"  syclop solve -s corridor.yaml --seed 42 -o json",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			return runSolve(cmd, cliCtx, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.scenarioPath, "scenario", "s", "", "scenario file path (required)")
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "planner seed (overrides the scenario seed when non-zero)")
	cmd.Flags().DurationVar(&opts.timeLimit, "time-limit", 0, "planning time limit (overrides planner.time_limit)")
	cmd.Flags().IntVar(&opts.maxIterations, "max-iterations", 0, "iteration cap (overrides planner.max_iterations)")
	cmd.Flags().BoolVar(&opts.showPath, "path", false, "include the solution path in text output")
	_ = cmd.MarkFlagRequired("scenario")

	return cmd
}

func runSolve(cmd *cobra.Command, cliCtx *CLIContext, opts *solveOptions) error {
	sc, err := config.LoadScenario(opts.scenarioPath)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeScenarioInvalid, "failed to load scenario")
	}
	if opts.seed != 0 {
		sc.Seed = opts.seed
	}

	pc := cliCtx.Config.Planner
	if opts.timeLimit > 0 {
		pc.TimeLimit = opts.timeLimit
	}
	if opts.maxIterations > 0 {
		pc.MaxIterations = opts.maxIterations
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if cliCtx.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cliCtx.Timeout)
		defer cancel()
	}

	cliCtx.Logger.Info("solving scenario",
		logging.String(logging.FieldScenario, sc.Name),
		logging.String("file", opts.scenarioPath),
		logging.Int64(logging.FieldSeed, sc.Seed))

	svc := planning.NewService(pc, cliCtx.Logger)
	report, err := svc.Run(ctx, sc)
	if report == nil {
		return err
	}

	if printErr := PrintResult(cmd, &solveResult{Report: report, ShowPath: opts.showPath || cliCtx.Verbose}); printErr != nil {
		return printErr
	}
	return err
}

// solveResult renders a run report for the terminal.
type solveResult struct {
	*run.Report
	ShowPath bool `json:"-"`
}

func (r *solveResult) String() string {
	var sb strings.Builder
	rn := r.Run
	fmt.Fprintf(&sb, "Run:        %s\n", rn.ID)
	fmt.Fprintf(&sb, "Scenario:   %s (seed %d)\n", rn.Scenario, rn.Seed)
	fmt.Fprintf(&sb, "Status:     %s\n", rn.Status)
	fmt.Fprintf(&sb, "Elapsed:    %s\n", rn.Elapsed.Round(time.Microsecond))
	if rn.Error != "" {
		fmt.Fprintf(&sb, "Error:      %s\n", rn.Error)
		return sb.String()
	}
	fmt.Fprintf(&sb, "Iterations: %d\n", rn.Stats.Iterations)
	fmt.Fprintf(&sb, "Tree size:  %d\n", rn.TreeSize)
	fmt.Fprintf(&sb, "Leads:      %d shortest-path, %d random, %d abandoned early\n",
		rn.Stats.ShortestPathLeads, rn.Stats.RandomLeads, rn.Stats.EarlyAbandons)
	fmt.Fprintf(&sb, "Last lead:  %s\n", formatInts(rn.Lead))
	if rn.Status == run.StatusSuccess {
		fmt.Fprintf(&sb, "Path:       %d states\n", len(rn.Path))
		if r.ShowPath {
			for i, st := range rn.Path {
				fmt.Fprintf(&sb, "  %3d  %s\n", i, formatState(st))
			}
		}
	}
	return sb.String()
}

// TableHeaders lists the per-region estimate columns.
func (r *solveResult) TableHeaders() []string {
	return []string{"REGION", "FREE_VOL", "VALID_%", "SELECTIONS", "COVERAGE", "STATES", "WEIGHT"}
}

// TableRows returns one row per decomposition region.
func (r *solveResult) TableRows() [][]string {
	if r.Graph == nil {
		return nil
	}
	rows := make([][]string, 0, len(r.Graph.Regions))
	for _, reg := range r.Graph.Regions {
		label := strconv.Itoa(reg.Index)
		switch reg.Index {
		case r.Graph.StartRegion:
			label += " (start)"
		case r.Graph.GoalRegion:
			label += " (goal)"
		}
		rows = append(rows, []string{
			label,
			strconv.FormatFloat(reg.FreeVolume, 'f', 4, 64),
			strconv.FormatFloat(reg.PercentValidCells*100, 'f', 1, 64),
			strconv.Itoa(reg.NumSelections),
			strconv.Itoa(reg.CoverageCells),
			strconv.Itoa(reg.TreeStates),
			strconv.FormatFloat(reg.Weight, 'g', 4, 64),
		})
	}
	return rows
}

func formatInts(v []int) string {
	if len(v) == 0 {
		return "-"
	}
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = strconv.Itoa(x)
	}
	return strings.Join(parts, " -> ")
}

func formatState(st []float64) string {
	parts := make([]string, len(st))
	for i, x := range st {
		parts[i] = strconv.FormatFloat(x, 'f', 4, 64)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
