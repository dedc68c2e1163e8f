// Package httpapi is the control plane: a single POST endpoint that runs
// one repair task to completion and returns its result, plus a health
// check, bounded to a fixed number of concurrent runs (SPEC_FULL §6).
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/synapse-cir/cirrepair/internal/types"
)

// RunnerFunc drives one repair task to completion. The Orchestrator's
// RunTask method satisfies this directly.
type RunnerFunc func(ctx context.Context, goal string) types.RunResult

// runRequest is the POST /cir/run request body.
type runRequest struct {
	Task string `json:"task"`
}

// runResponse wraps the run result with a run identifier generated per
// request. The runner is not given this identifier, so it is independent of
// the benchmark log's case_id.
type runResponse struct {
	RunID  string          `json:"run_id"`
	Result types.RunResult `json:"result"`
}

// NewRouter builds the control-plane router. concurrency bounds the number
// of runTask invocations in flight at once; additional requests block on
// the pool until a slot frees up.
func NewRouter(runner RunnerFunc, concurrency int, logger *zap.Logger) *chi.Mux {
	if concurrency < 1 {
		concurrency = 1
	}
	p := pool.New().WithMaxGoroutines(concurrency)

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: false,
	}))

	r.Get("/healthz", healthHandler)
	r.Post("/cir/run", runHandler(runner, p, logger))

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func runHandler(runner RunnerFunc, p *pool.Pool, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req runRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "malformed request body")
			return
		}
		if req.Task == "" {
			writeError(w, http.StatusBadRequest, "task must not be empty")
			return
		}

		runID := uuid.NewString()
		resultCh := make(chan types.RunResult, 1)
		ctx := r.Context()

		p.Go(func() {
			defer func() {
				if rec := recover(); rec != nil {
					if logger != nil {
						logger.Error("panic in run goroutine", zap.Any("recover", rec), zap.String("run_id", runID))
					}
					resultCh <- types.RunResult{Success: false, Status: "FAIL", Details: "internal error"}
				}
			}()
			resultCh <- runner(ctx, req.Task)
		})

		result := <-resultCh
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(runResponse{RunID: runID, Result: result})
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
