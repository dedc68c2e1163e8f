package mediator

import (
	"testing"

	"github.com/synapse-cir/cirrepair/internal/critic"
	"github.com/synapse-cir/cirrepair/internal/state"
	"github.com/synapse-cir/cirrepair/internal/types"
)

func TestDecide_MaxIterationsFails(t *testing.T) {
	s := state.New("g")
	s.TotalIterations = types.MaxTotalIterations
	out := Decide(types.ExecutionResult{}, critic.Feedback{}, s)
	if out.Decision != types.DecisionFail {
		t.Fatalf("expected FAIL, got %s", out.Decision)
	}
}

func TestDecide_Reproduce_TestsNotRunRetries(t *testing.T) {
	s := state.New("g")
	s.CurrentPhase = types.PhaseReproduce
	out := Decide(types.ExecutionResult{}, critic.Feedback{}, s)
	if out.Decision != types.DecisionRetry {
		t.Fatalf("expected RETRY, got %s", out.Decision)
	}
}

func TestDecide_Reproduce_FailingTestsAdvance(t *testing.T) {
	s := state.New("g")
	s.CurrentPhase = types.PhaseReproduce
	result := types.ExecutionResult{TestResults: &types.TestResults{WasRun: true, Failing: []string{"x"}}}
	out := Decide(result, critic.Feedback{}, s)
	if out.Decision != types.DecisionAdvance {
		t.Fatalf("expected ADVANCE, got %s", out.Decision)
	}
}

func TestDecide_Reproduce_PassingNoFailureObservedSucceeds(t *testing.T) {
	s := state.New("g")
	s.CurrentPhase = types.PhaseReproduce
	result := types.ExecutionResult{TestResults: &types.TestResults{WasRun: true, Passing: []string{"x"}}}
	out := Decide(result, critic.Feedback{}, s)
	if out.Decision != types.DecisionSuccess {
		t.Fatalf("expected SUCCESS, got %s", out.Decision)
	}
}

func TestDecide_Reproduce_PassingAfterFailureWithoutRepairRetries(t *testing.T) {
	s := state.New("g")
	s.CurrentPhase = types.PhaseReproduce
	s.FailureObserved = true
	result := types.ExecutionResult{TestResults: &types.TestResults{WasRun: true, Passing: []string{"x"}}}
	out := Decide(result, critic.Feedback{}, s)
	if out.Decision != types.DecisionRetry {
		t.Fatalf("expected RETRY (unexpected pass without patch), got %s", out.Decision)
	}
}

func TestDecide_Reproduce_PassingAfterRecordedRepairSucceeds(t *testing.T) {
	s := state.New("g")
	s.CurrentPhase = types.PhaseReproduce
	s.FailureObserved = true
	s.AddRepairAttempt(types.RepairAttempt{Index: 1, Outcome: types.OutcomeValidateFailed})
	result := types.ExecutionResult{TestResults: &types.TestResults{WasRun: true, Passing: []string{"x"}}}
	out := Decide(result, critic.Feedback{}, s)
	if out.Decision != types.DecisionSuccess {
		t.Fatalf("expected SUCCESS, got %s", out.Decision)
	}
}

func TestDecide_RepairAnalyze_ValidAdvances(t *testing.T) {
	s := state.New("g")
	s.CurrentPhase = types.PhaseRepairAnalyze
	s.LastRootCauseAnalysis = &types.RootCauseAnalysis{Valid: true}
	out := Decide(types.ExecutionResult{NotRun: true}, critic.Feedback{}, s)
	if out.Decision != types.DecisionAdvance {
		t.Fatalf("expected ADVANCE, got %s", out.Decision)
	}
}

func TestDecide_RepairAnalyze_InvalidRetriesThenReplans(t *testing.T) {
	s := state.New("g")
	s.CurrentPhase = types.PhaseRepairAnalyze
	s.LastRootCauseAnalysis = &types.RootCauseAnalysis{Valid: false, InvalidReason: "bad"}
	out := Decide(types.ExecutionResult{NotRun: true}, critic.Feedback{}, s)
	if out.Decision != types.DecisionRetry {
		t.Fatalf("expected RETRY, got %s", out.Decision)
	}
	s.AttemptsOnCurrentTask = types.MaxRetriesPerTask
	out = Decide(types.ExecutionResult{NotRun: true}, critic.Feedback{}, s)
	if out.Decision != types.DecisionReplan {
		t.Fatalf("expected REPLAN after exhausting retries, got %s", out.Decision)
	}
}

func TestDecide_RepairPatch_ModifiedFilesAdvance(t *testing.T) {
	s := state.New("g")
	s.CurrentPhase = types.PhaseRepairPatch
	out := Decide(types.ExecutionResult{ModifiedFiles: []string{"a.go"}}, critic.Feedback{}, s)
	if out.Decision != types.DecisionAdvance {
		t.Fatalf("expected ADVANCE, got %s", out.Decision)
	}
}

func TestDecide_RepairPatch_NoPatchRetries(t *testing.T) {
	s := state.New("g")
	s.CurrentPhase = types.PhaseRepairPatch
	out := Decide(types.ExecutionResult{}, critic.Feedback{}, s)
	if out.Decision != types.DecisionRetry {
		t.Fatalf("expected RETRY, got %s", out.Decision)
	}
}

func TestDecide_Validate_PassSucceeds(t *testing.T) {
	s := state.New("g")
	s.CurrentPhase = types.PhaseValidate
	result := types.ExecutionResult{TestResults: &types.TestResults{WasRun: true, Passing: []string{"x"}}}
	out := Decide(result, critic.Feedback{}, s)
	if out.Decision != types.DecisionSuccess {
		t.Fatalf("expected SUCCESS, got %s", out.Decision)
	}
}

func TestDecide_Validate_FailReplans(t *testing.T) {
	s := state.New("g")
	s.CurrentPhase = types.PhaseValidate
	result := types.ExecutionResult{TestResults: &types.TestResults{WasRun: true, Failing: []string{"x"}}}
	out := Decide(result, critic.Feedback{}, s)
	if out.Decision != types.DecisionReplan {
		t.Fatalf("expected REPLAN, got %s", out.Decision)
	}
}

func TestDecide_RepairPatchEscalation_NotFoundReplansImmediately(t *testing.T) {
	s := state.New("g")
	s.CurrentPhase = types.PhaseRepairPatch
	result := types.ExecutionResult{ToolResults: []types.ToolResult{
		{Success: false, ErrorMsg: "Search block not found"},
	}}
	out := Decide(result, critic.Feedback{}, s)
	if out.Decision != types.DecisionReplan {
		t.Fatalf("expected REPLAN on 'not found', got %s", out.Decision)
	}
}

func TestDecide_RepairPatchEscalation_MultipleTimesRetriesOnceThenReplans(t *testing.T) {
	s := state.New("g")
	s.CurrentPhase = types.PhaseRepairPatch
	result := types.ExecutionResult{ToolResults: []types.ToolResult{
		{Success: false, ErrorMsg: "found multiple times"},
	}}
	s.ConsecutiveToolErrors = 1
	out := Decide(result, critic.Feedback{}, s)
	if out.Decision != types.DecisionRetry {
		t.Fatalf("expected RETRY on first occurrence, got %s", out.Decision)
	}
	s.ConsecutiveToolErrors = 2
	out = Decide(result, critic.Feedback{}, s)
	if out.Decision != types.DecisionReplan {
		t.Fatalf("expected REPLAN on second consecutive occurrence, got %s", out.Decision)
	}
}

func TestDecide_RepairPatchEscalation_OtherErrorRetries(t *testing.T) {
	s := state.New("g")
	s.CurrentPhase = types.PhaseRepairPatch
	result := types.ExecutionResult{ToolResults: []types.ToolResult{
		{Success: false, ErrorMsg: "permission denied"},
	}}
	out := Decide(result, critic.Feedback{}, s)
	if out.Decision != types.DecisionRetry {
		t.Fatalf("expected RETRY, got %s", out.Decision)
	}
}

func TestDecide_ToolErrorsInReproduceRetryThenReplan(t *testing.T) {
	s := state.New("g")
	s.CurrentPhase = types.PhaseReproduce
	result := types.ExecutionResult{ToolResults: []types.ToolResult{{Success: false, ErrorMsg: "boom"}}}
	out := Decide(result, critic.Feedback{}, s)
	if out.Decision != types.DecisionRetry {
		t.Fatalf("expected RETRY, got %s", out.Decision)
	}
	s.AttemptsOnCurrentTask = types.MaxRetriesPerTask
	out = Decide(result, critic.Feedback{}, s)
	if out.Decision != types.DecisionReplan {
		t.Fatalf("expected REPLAN after exhausting retries, got %s", out.Decision)
	}
}

func TestDecide_ToolErrorsFallThroughWhenTestsRanAnyway(t *testing.T) {
	s := state.New("g")
	s.CurrentPhase = types.PhaseReproduce
	result := types.ExecutionResult{
		ToolResults: []types.ToolResult{{Success: false, ErrorMsg: "boom"}},
		TestResults: &types.TestResults{WasRun: true, Failing: []string{"x"}},
	}
	out := Decide(result, critic.Feedback{}, s)
	if out.Decision != types.DecisionAdvance {
		t.Fatalf("expected fallthrough to phase dispatch (ADVANCE), got %s", out.Decision)
	}
}
