package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/synapse-cir/cirrepair/internal/types"
)

func TestHealthz_ReturnsOK(t *testing.T) {
	r := NewRouter(func(ctx context.Context, goal string) types.RunResult {
		return types.RunResult{}
	}, 1, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRun_EmptyTaskReturns400(t *testing.T) {
	r := NewRouter(func(ctx context.Context, goal string) types.RunResult {
		return types.RunResult{Success: true}
	}, 1, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/cir/run", strings.NewReader(`{"task": ""}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestRun_ValidTaskReturns200WithResult(t *testing.T) {
	r := NewRouter(func(ctx context.Context, goal string) types.RunResult {
		if goal != "fix it" {
			t.Fatalf("unexpected goal: %q", goal)
		}
		return types.RunResult{Success: true, Status: "SUCCESS", TotalIterations: 3}
	}, 2, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/cir/run", strings.NewReader(`{"task": "fix it"}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp runResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.RunID == "" {
		t.Fatal("expected a non-empty run id")
	}
	if !resp.Result.Success || resp.Result.TotalIterations != 3 {
		t.Fatalf("unexpected result: %+v", resp.Result)
	}
}

func TestRun_MalformedBodyReturns400(t *testing.T) {
	r := NewRouter(func(ctx context.Context, goal string) types.RunResult {
		return types.RunResult{}
	}, 1, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/cir/run", strings.NewReader(`not json`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
