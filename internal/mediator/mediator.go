// Package mediator implements the Mediator: a pure decision function over
// (ExecutionResult, Critic feedback, SharedState) that returns the next
// Decision. It performs no IO and never mutates SharedState — the
// Orchestrator applies the returned Decision's state transition
// (SPEC_FULL §4.4).
package mediator

import (
	"strings"

	"github.com/synapse-cir/cirrepair/internal/critic"
	"github.com/synapse-cir/cirrepair/internal/state"
	"github.com/synapse-cir/cirrepair/internal/types"
)

// Outcome is the Decision plus the reason the Orchestrator logs and, on
// REPLAN from a repair phase, folds into the next RepairAttempt record.
type Outcome struct {
	Decision types.Decision
	Reason   string
}

// Decide applies the decision-order logic from SPEC_FULL §4.4. result and
// feedback describe the just-completed step; feedback is accepted for
// symmetry with the spec's signature but its numeric fields are never
// inspected here — the Critic is advisory only.
func Decide(result types.ExecutionResult, feedback critic.Feedback, s *state.SharedState) Outcome {
	_ = feedback

	if s.TotalIterations >= types.MaxTotalIterations {
		return Outcome{Decision: types.DecisionFail, Reason: "Maximum iterations exceeded"}
	}

	if result.HasErrors() {
		testsRanAnyway := result.TestResults != nil && result.TestResults.WasRun
		if !testsRanAnyway {
			if s.CurrentPhase == types.PhaseRepairPatch {
				return repairPatchEscalation(result.LastError(), s)
			}
			if s.AttemptsOnCurrentTask >= types.MaxRetriesPerTask {
				return Outcome{Decision: types.DecisionReplan, Reason: "tool errors exhausted retries"}
			}
			return Outcome{Decision: types.DecisionRetry, Reason: result.LastError()}
		}
	}

	switch s.CurrentPhase {
	case types.PhaseReproduce:
		return decideReproduce(result, s)
	case types.PhaseRepairAnalyze:
		return decideRepairAnalyze(s)
	case types.PhaseRepairPatch:
		return decideRepairPatch(result, s)
	case types.PhaseValidate:
		return decideValidate(result)
	default:
		return Outcome{Decision: types.DecisionReplan, Reason: "unknown phase"}
	}
}

func decideReproduce(result types.ExecutionResult, s *state.SharedState) Outcome {
	tr := result.TestResults
	if tr == nil || !tr.WasRun {
		if s.AttemptsOnCurrentTask >= types.MaxRetriesPerTask {
			return Outcome{Decision: types.DecisionReplan, Reason: "tests never ran in REPRODUCE"}
		}
		return Outcome{Decision: types.DecisionRetry, Reason: "tests not yet run"}
	}
	if !tr.AllPassing() {
		return Outcome{Decision: types.DecisionAdvance, Reason: "reproduced the reported failure"}
	}
	if !s.FailureObserved {
		return Outcome{Decision: types.DecisionSuccess, Reason: "no repair needed"}
	}
	if len(s.RepairHistory) == 0 {
		return Outcome{Decision: types.DecisionRetry, Reason: "unexpected pass without a recorded repair"}
	}
	return Outcome{Decision: types.DecisionSuccess, Reason: "repair confirmed by passing tests"}
}

func decideRepairAnalyze(s *state.SharedState) Outcome {
	if s.HasValidRootCauseAnalysis() {
		return Outcome{Decision: types.DecisionAdvance, Reason: "valid root-cause analysis produced"}
	}
	reason := "no valid analysis yet"
	if s.LastRootCauseAnalysis != nil {
		reason = s.LastRootCauseAnalysis.InvalidReason
	}
	if s.AttemptsOnCurrentTask >= types.MaxRetriesPerTask {
		return Outcome{Decision: types.DecisionReplan, Reason: reason}
	}
	return Outcome{Decision: types.DecisionRetry, Reason: reason}
}

func decideRepairPatch(result types.ExecutionResult, s *state.SharedState) Outcome {
	if len(result.ModifiedFiles) > 0 {
		return Outcome{Decision: types.DecisionAdvance, Reason: "patch applied"}
	}
	if s.AttemptsOnCurrentTask >= types.MaxRetriesPerTask {
		return Outcome{Decision: types.DecisionReplan, Reason: "no patch applied after max retries"}
	}
	return Outcome{Decision: types.DecisionRetry, Reason: "no patch applied yet"}
}

func decideValidate(result types.ExecutionResult) Outcome {
	tr := result.TestResults
	if tr == nil || !tr.WasRun {
		return Outcome{Decision: types.DecisionRetry, Reason: "tests not yet run"}
	}
	if tr.AllPassing() {
		return Outcome{Decision: types.DecisionSuccess, Reason: "validation passed"}
	}
	return Outcome{Decision: types.DecisionReplan, Reason: "validation failed"}
}

// repairPatchEscalation implements the escalation ladder from SPEC_FULL
// §4.4: a "not found" error escalates immediately (the model hallucinated
// content); a "multiple times" error retries once then escalates; any
// other tool error retries until the attempt cap, then escalates.
func repairPatchEscalation(lastError string, s *state.SharedState) Outcome {
	lower := strings.ToLower(lastError)

	if s.AttemptsOnCurrentTask >= types.MaxRetriesPerTask {
		return Outcome{Decision: types.DecisionReplan, Reason: lastError}
	}

	if strings.Contains(lower, "not found") {
		return Outcome{Decision: types.DecisionReplan, Reason: lastError}
	}

	if strings.Contains(lower, "multiple times") {
		if s.ConsecutiveToolErrors >= 2 {
			return Outcome{Decision: types.DecisionReplan, Reason: lastError}
		}
		return Outcome{Decision: types.DecisionRetry, Reason: lastError}
	}

	return Outcome{Decision: types.DecisionRetry, Reason: lastError}
}
