package orchestrator

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/synapse-cir/cirrepair/internal/critic"
	"github.com/synapse-cir/cirrepair/internal/executor"
	"github.com/synapse-cir/cirrepair/internal/mediator"
	"github.com/synapse-cir/cirrepair/internal/planner"
	"github.com/synapse-cir/cirrepair/internal/state"
	"github.com/synapse-cir/cirrepair/internal/types"
)

// roleScriptedClient answers by role, letting one fake transport drive the
// planner, executor, and critic consistently for an integration test.
type roleScriptedClient struct {
	plan     string
	exec     string
	critique string
}

func (c roleScriptedClient) Generate(ctx context.Context, role types.Role, prompt string, temperature float64) (string, error) {
	switch role {
	case types.RolePlanner:
		return c.plan, nil
	case types.RoleExecutor:
		return c.exec, nil
	default:
		return c.critique, nil
	}
}

func TestRunTask_NoRepairNeededSucceedsImmediately(t *testing.T) {
	root := t.TempDir()
	fs := afero.NewBasePathFs(afero.NewOsFs(), root)

	client := roleScriptedClient{
		plan:     `{"repair_steps": ["run tests"], "reasoning": "confirm current state"}`,
		exec:     `{"reasoning": "running tests", "tool_calls": [{"tool": "run_tests", "args": {}}]}`,
		critique: "tests pass, nothing to do",
	}

	p := planner.New(client)
	e := executor.New(fs, root, client, executor.Config{Interpreter: "exit 0"})
	c := critic.New(client)
	logger := zap.NewNop()

	o := New(fs, fs, p, e, c, logger, WithWorkspacePath(root))

	result := o.RunTask(context.Background(), "fix the failing test")
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if result.Status != "no repair needed" {
		t.Fatalf("expected status %q, got %q", "no repair needed", result.Status)
	}
	if result.Details != "No files modified" {
		t.Fatalf("expected details %q, got %q", "No files modified", result.Details)
	}
}

func TestRunTask_HardIterationCapFails(t *testing.T) {
	root := t.TempDir()
	fs := afero.NewBasePathFs(afero.NewOsFs(), root)

	client := roleScriptedClient{
		plan:     `{"repair_steps": ["run tests"], "reasoning": "loop"}`,
		exec:     `{"reasoning": "running tests", "tool_calls": []}`,
		critique: "stuck",
	}

	p := planner.New(client)
	e := executor.New(fs, root, client, executor.Config{Interpreter: "exit 0"})
	c := critic.New(client)
	logger := zap.NewNop()

	o := New(fs, fs, p, e, c, logger)

	result := o.RunTask(context.Background(), "never confirms")
	if result.Success {
		t.Fatal("expected failure once the iteration cap is hit")
	}
	if result.TotalIterations < types.MaxTotalIterations {
		t.Fatalf("expected at least %d iterations, got %d", types.MaxTotalIterations, result.TotalIterations)
	}
}

// TestReplanOutcome_SearchFailedFromRepairPatch covers scenario S3: a
// REPAIR_PATCH tool error reporting a missing search block must classify
// as SEARCH_FAILED, not the generic NO_PATCH outcome.
func TestReplanOutcome_SearchFailedFromRepairPatch(t *testing.T) {
	s := state.New("fix it")
	s.CurrentPhase = types.PhaseRepairPatch

	outcome := mediator.Outcome{
		Decision: types.DecisionReplan,
		Reason:   `replace_in_file: search block not found (near "def multiply")`,
	}

	got := replanOutcome(s, outcome)
	if got != types.OutcomeSearchFailed {
		t.Fatalf("expected %s, got %s", types.OutcomeSearchFailed, got)
	}
}

func TestReplanOutcome_SearchAmbiguousFromRepairPatch(t *testing.T) {
	s := state.New("fix it")
	s.CurrentPhase = types.PhaseRepairPatch

	outcome := mediator.Outcome{
		Decision: types.DecisionReplan,
		Reason:   "replace_in_file: search block found multiple times",
	}

	got := replanOutcome(s, outcome)
	if got != types.OutcomeSearchAmbiguous {
		t.Fatalf("expected %s, got %s", types.OutcomeSearchAmbiguous, got)
	}
}

// TestReplanOutcome_SyntaxErrorFromValidate covers scenario S4: a VALIDATE
// failure the analyzer classifies as a syntax error must produce
// SYNTAX_ERROR rather than the generic VALIDATE_FAILED.
func TestReplanOutcome_SyntaxErrorFromValidate(t *testing.T) {
	s := state.New("fix it")
	s.CurrentPhase = types.PhaseValidate
	s.CollectionFailureSubtype = types.CollectionSyntaxError

	got := replanOutcome(s, mediator.Outcome{Decision: types.DecisionReplan, Reason: "validation failed"})
	if got != types.OutcomeSyntaxError {
		t.Fatalf("expected %s, got %s", types.OutcomeSyntaxError, got)
	}
}

func TestReplanOutcome_ValidateFailedWithoutSyntaxClassification(t *testing.T) {
	s := state.New("fix it")
	s.CurrentPhase = types.PhaseValidate

	got := replanOutcome(s, mediator.Outcome{Decision: types.DecisionReplan, Reason: "validation failed"})
	if got != types.OutcomeValidateFailed {
		t.Fatalf("expected %s, got %s", types.OutcomeValidateFailed, got)
	}
}

func TestReplanOutcome_AnalysisCapExceededWithoutAnyAnalysis(t *testing.T) {
	s := state.New("fix it")
	s.CurrentPhase = types.PhaseRepairAnalyze

	got := replanOutcome(s, mediator.Outcome{Decision: types.DecisionReplan, Reason: "no valid analysis yet"})
	if got != types.OutcomeAnalysisCapExceeded {
		t.Fatalf("expected %s, got %s", types.OutcomeAnalysisCapExceeded, got)
	}
}

func TestReplanOutcome_AnalysisInvalidWhenAnalysisWasProduced(t *testing.T) {
	s := state.New("fix it")
	s.CurrentPhase = types.PhaseRepairAnalyze
	s.LastRootCauseAnalysis = &types.RootCauseAnalysis{InvalidReason: "line outside tolerance"}

	got := replanOutcome(s, mediator.Outcome{Decision: types.DecisionReplan, Reason: "line outside tolerance"})
	if got != types.OutcomeAnalysisInvalid {
		t.Fatalf("expected %s, got %s", types.OutcomeAnalysisInvalid, got)
	}
}

func TestModifiedFilesDetails_EmptyYieldsNoFilesModified(t *testing.T) {
	if got := modifiedFilesDetails(nil); got != "No files modified" {
		t.Fatalf("expected %q, got %q", "No files modified", got)
	}
}

func TestModifiedFilesDetails_JoinsPaths(t *testing.T) {
	got := modifiedFilesDetails([]string{"src/calculator.py"})
	if got != "src/calculator.py" {
		t.Fatalf("expected %q, got %q", "src/calculator.py", got)
	}
}
