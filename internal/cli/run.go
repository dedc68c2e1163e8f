package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/synapse-cir/cirrepair/internal/config"
	"github.com/synapse-cir/cirrepair/internal/critic"
	"github.com/synapse-cir/cirrepair/internal/display"
	"github.com/synapse-cir/cirrepair/internal/executor"
	"github.com/synapse-cir/cirrepair/internal/orchestrator"
	"github.com/synapse-cir/cirrepair/internal/planner"
	"github.com/synapse-cir/cirrepair/internal/types"
	"github.com/synapse-cir/cirrepair/internal/workspace"
)

var runVerbose bool

var runCmd = &cobra.Command{
	Use:   "run <goal>",
	Short: "Run one repair task to completion",
	Long: `Drives the Controlled Iterative Repair loop against the nearest
.cir workspace for a single goal, printing the resolved or unresolved
outcome once the loop reaches SUCCESS, FAIL, or the hard iteration cap.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		goal := strings.Join(args, " ")

		wsDir, err := workspace.Find()
		if err != nil {
			return err
		}

		cfg, err := config.Load(wsDir)
		if err != nil {
			return err
		}

		repairRoot := filepath.Join(wsDir, cfg.Workspace.Path)
		toolFs := workspace.Open(repairRoot)
		rootFs := afero.NewBasePathFs(afero.NewOsFs(), wsDir)

		client, err := buildLLMClient(cfg)
		if err != nil {
			return err
		}

		logger, err := zap.NewProduction()
		if err != nil {
			return err
		}
		defer logger.Sync() //nolint:errcheck

		p := planner.New(client)
		e := executor.New(toolFs, repairRoot, client, executor.Config{Interpreter: cfg.Executor.Interpreter})
		c := critic.New(client)

		disp := display.New()
		opts := []orchestrator.Option{
			orchestrator.WithCaseID(uuid.NewString()),
			orchestrator.WithWorkspacePath(repairRoot),
		}
		if runVerbose {
			disp.RunStart(goal)
			opts = append(opts, orchestrator.WithObserver(orchestrator.Observer{
				OnIteration: func(iteration int, phase types.Phase, task string) {
					disp.PhaseTransition(iteration, string(phase), task)
				},
				OnDecision: func(decision types.Decision, reason string) {
					disp.Decision(string(decision), reason)
				},
			}))
		}

		o := orchestrator.New(rootFs, toolFs, p, e, c, logger, opts...)

		start := time.Now()
		result := o.RunTask(context.Background(), goal)

		disp.RunSummary(result.Success, result.Status, result.TotalIterations, time.Since(start))
		if result.Details != "" {
			disp.Info("Details", result.Details)
		}

		if !result.Success {
			return fmt.Errorf("repair did not succeed: %s", result.Status)
		}
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&runVerbose, "verbose", false, "stream phase transitions and mediator decisions")
	rootCmd.AddCommand(runCmd)
}
