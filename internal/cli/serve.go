package cli

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/synapse-cir/cirrepair/internal/config"
	"github.com/synapse-cir/cirrepair/internal/critic"
	"github.com/synapse-cir/cirrepair/internal/executor"
	"github.com/synapse-cir/cirrepair/internal/httpapi"
	"github.com/synapse-cir/cirrepair/internal/orchestrator"
	"github.com/synapse-cir/cirrepair/internal/planner"
	"github.com/synapse-cir/cirrepair/internal/types"
	"github.com/synapse-cir/cirrepair/internal/workspace"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose the repair loop over HTTP",
	Long: `Starts the control plane: POST /cir/run {"task": "..."} drives one
repair task through RunTask and returns its RunResult; GET /healthz reports
liveness. Concurrent runs are bounded by server.concurrency in config.yaml.`,
	RunE: func(cmd *cobra.Command, args []string) error {
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

		runner := func(ctx context.Context, goal string) types.RunResult {
			p := planner.New(client)
			e := executor.New(toolFs, repairRoot, client, executor.Config{Interpreter: cfg.Executor.Interpreter})
			c := critic.New(client)
			o := orchestrator.New(rootFs, toolFs, p, e, c, logger,
				orchestrator.WithCaseID(uuid.NewString()),
				orchestrator.WithWorkspacePath(repairRoot),
			)
			return o.RunTask(ctx, goal)
		}

		router := httpapi.NewRouter(runner, cfg.Server.Concurrency, logger)
		addr := fmt.Sprintf(":%d", servePort)
		logger.Info("control plane listening", zap.String("addr", addr))
		return http.ListenAndServe(addr, router)
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "port to listen on")
	rootCmd.AddCommand(serveCmd)
}
