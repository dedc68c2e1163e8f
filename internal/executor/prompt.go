package executor

import (
	"fmt"
	"strings"

	"github.com/synapse-cir/cirrepair/internal/prompts"
	"github.com/synapse-cir/cirrepair/internal/state"
	"github.com/synapse-cir/cirrepair/internal/types"
)

// buildToolPrompt composes the common-tool-path prompt for the current
// phase: test summary, error snippet, the failing artifact and its
// windowed content if cached, and tool-error feedback from the previous
// attempt.
func buildToolPrompt(task string, s *state.SharedState) string {
	ctx := toolContext(s)
	switch s.CurrentPhase {
	case types.PhaseReproduce:
		return mustFormat("execute/reproduce", task, ctx)
	case types.PhaseRepairPatch:
		return mustFormat("execute/repair_patch", task, ctx)
	case types.PhaseValidate:
		return mustFormat("execute/validate", task)
	default:
		return mustFormat("execute/reproduce", task, ctx)
	}
}

// buildAnalysisPrompt composes the REPAIR_ANALYZE prompt: raw failure
// output, the cached failing-artifact window only, and prior failed
// diagnoses.
func buildAnalysisPrompt(task string, s *state.SharedState) string {
	var b strings.Builder
	if s.LastTestResults != nil {
		b.WriteString("Test output:\n")
		b.WriteString(truncateLines(s.LastTestResults.RawOutput, 80))
		b.WriteString("\n")
	}
	if s.FailingArtifact != "" {
		fmt.Fprintf(&b, "Failing artifact: %s", s.FailingArtifact)
		if s.FailingArtifactLine > 0 {
			fmt.Fprintf(&b, " line %d", s.FailingArtifactLine)
		}
		b.WriteString("\n")
		if win, ok := windowCachedArtifact(s.RecentFileReads, state.NormalizePath(s.FailingArtifact), s.FailingArtifactLine); ok {
			b.WriteString(win)
		}
	}
	if history := types.RenderHistory(s.RepairHistory); history != "" {
		b.WriteString("Prior failed diagnoses:\n")
		b.WriteString(history)
	}
	return mustFormat("execute/analyze", task, b.String())
}

func toolContext(s *state.SharedState) string {
	var b strings.Builder

	if s.LastTestResults != nil {
		tr := s.LastTestResults
		fmt.Fprintf(&b, "Last test result: %d passing, %d failing, type=%s\n",
			len(tr.Passing), len(tr.Failing), tr.FailureType)
		if tr.ErrorSnippet != "" {
			b.WriteString("Error snippet:\n")
			b.WriteString(tr.ErrorSnippet)
			b.WriteString("\n")
		}
		if tr.FailureType == types.FailureCollectionError {
			b.WriteString("Collection failure output:\n")
			b.WriteString(truncateLines(tr.RawOutput, 40))
			b.WriteString("\n")
		}
	}

	if s.FailingArtifact != "" {
		fmt.Fprintf(&b, "Failing artifact: %s", s.FailingArtifact)
		if s.FailingArtifactLine > 0 {
			fmt.Fprintf(&b, " line %d", s.FailingArtifactLine)
		}
		b.WriteString("\n")
		if win, ok := windowCachedArtifact(s.RecentFileReads, state.NormalizePath(s.FailingArtifact), s.FailingArtifactLine); ok {
			b.WriteString(win)
		}
	}

	if s.LastToolError != "" {
		fmt.Fprintf(&b, "Previous tool call failed: %s\n", s.LastToolError)
	}

	if s.CurrentPhase == types.PhaseRepairPatch && s.HasValidRootCauseAnalysis() {
		rca := s.LastRootCauseAnalysis
		fmt.Fprintf(&b, "Validated diagnosis:\n  artifact: %s line %d\n  summary: %s\n  fix strategy: %s\n",
			rca.ArtifactPath, rca.ArtifactLine, rca.RootCauseSummary, rca.MinimalFixStrategy)
		if rca.ProposedSearchBlock != "" {
			fmt.Fprintf(&b, "  proposed search block:\n%s\n", rca.ProposedSearchBlock)
		}
	}

	return b.String()
}

func truncateLines(s string, max int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= max {
		return s
	}
	return strings.Join(lines[:max], "\n")
}

// reenforcementReminder is appended verbatim when the first executor
// response fails to parse structurally, per SPEC_FULL §4.3 step 3.
const reenforcementReminder = "\n\nYour previous response did not parse as the required JSON object. Respond with exactly one JSON object of the documented shape and nothing else."

func mustFormat(template string, args ...any) string {
	tpl, err := prompts.Get(template)
	if err != nil {
		return fallbackPromptText(args...)
	}
	return fmt.Sprintf(tpl, args...)
}

func fallbackPromptText(args ...any) string {
	var b strings.Builder
	for _, a := range args {
		fmt.Fprintf(&b, "%v\n", a)
	}
	return b.String()
}
