// Package planner builds phase-specific LLM prompts and parses the model's
// response into a types.PlannerOutput, falling back to a safe, phase-
// appropriate plan on any parse failure (SPEC_FULL §4.2).
package planner

import (
	"context"
	"fmt"
	"strings"

	"github.com/synapse-cir/cirrepair/internal/llm"
	"github.com/synapse-cir/cirrepair/internal/prompts"
	"github.com/synapse-cir/cirrepair/internal/state"
	"github.com/synapse-cir/cirrepair/internal/types"
)

// Planner invokes the LLM with the Planner role and parses its response.
type Planner struct {
	client llm.Client
}

func New(client llm.Client) *Planner {
	return &Planner{client: client}
}

// GeneratePlan builds the phase-specific prompt for s.CurrentPhase, invokes
// the LLM, and returns a valid PlannerOutput — substituting the phase's
// fallback plan if parsing fails or the model's step list is empty.
func (p *Planner) GeneratePlan(ctx context.Context, s *state.SharedState) types.PlannerOutput {
	prompt := p.buildPrompt(s)
	raw, err := p.client.Generate(ctx, types.RolePlanner, prompt, types.RolePlanner.Temperature())
	if err != nil {
		return Fallback(s.CurrentPhase)
	}
	return parseOrFallback(raw, s.CurrentPhase)
}

// RevisePlan is the REPLAN variant: it appends the previous root-cause
// analysis (annotated as having led to a failed patch) and the structured
// repair history, and instructs that the first task re-run tests.
func (p *Planner) RevisePlan(ctx context.Context, s *state.SharedState) types.PlannerOutput {
	prompt := p.buildPrompt(s)
	prompt += "\n\n" + p.revisionContext(s)
	raw, err := p.client.Generate(ctx, types.RolePlanner, prompt, types.RolePlanner.Temperature())
	if err != nil {
		return Fallback(types.PhaseReproduce)
	}
	return parseOrFallback(raw, types.PhaseReproduce)
}

func (p *Planner) revisionContext(s *state.SharedState) string {
	var b strings.Builder
	b.WriteString("--- REVISION CONTEXT ---\n")
	b.WriteString("The previous repair attempt failed validation. The first task in the revised plan must re-run tests to reconfirm the current state.\n")
	if s.LastRootCauseAnalysis != nil {
		b.WriteString("Previous root-cause analysis (led to a failed patch):\n")
		b.WriteString(fmt.Sprintf("  summary: %s\n", s.LastRootCauseAnalysis.RootCauseSummary))
		b.WriteString(fmt.Sprintf("  fix strategy: %s\n", s.LastRootCauseAnalysis.MinimalFixStrategy))
	}
	if history := types.RenderHistory(s.RepairHistory); history != "" {
		b.WriteString("Repair history:\n")
		b.WriteString(history)
	}
	return b.String()
}

func (p *Planner) buildPrompt(s *state.SharedState) string {
	switch s.CurrentPhase {
	case types.PhaseReproduce:
		return mustFormat("phases/reproduce", s.Goal, discoveryHint(s))
	case types.PhaseRepairAnalyze:
		return mustFormat("phases/repair_analyze", s.Goal, evidenceBlock(s))
	case types.PhaseRepairPatch:
		return mustFormat("phases/repair_patch", s.Goal, repairTargetBlock(s))
	case types.PhaseValidate:
		return mustFormat("phases/validate", s.Goal)
	default:
		return mustFormat("phases/reproduce", s.Goal, discoveryHint(s))
	}
}

func discoveryHint(s *state.SharedState) string {
	if s.StructureDiscovered {
		return "Workspace structure has already been explored; focus on running the test suite."
	}
	return "Workspace structure has not yet been explored; discover it first."
}

func evidenceBlock(s *state.SharedState) string {
	var b strings.Builder
	if s.LastTestResults != nil {
		b.WriteString(truncateLines(s.LastTestResults.RawOutput, 40))
	}
	if s.FailingArtifact != "" {
		b.WriteString(fmt.Sprintf("\nAnalyzer-identified artifact (context only): %s", s.FailingArtifact))
		if s.FailingArtifactLine > 0 {
			b.WriteString(fmt.Sprintf(" line %d", s.FailingArtifactLine))
		}
	}
	if history := types.RenderHistory(s.RepairHistory); history != "" {
		b.WriteString("\nPrior failed diagnoses:\n")
		b.WriteString(history)
	}
	return b.String()
}

func repairTargetBlock(s *state.SharedState) string {
	if s.HasValidRootCauseAnalysis() {
		rca := s.LastRootCauseAnalysis
		return fmt.Sprintf("Validated diagnosis:\n  artifact: %s line %d\n  summary: %s\n  fix strategy: %s",
			rca.ArtifactPath, rca.ArtifactLine, rca.RootCauseSummary, rca.MinimalFixStrategy)
	}
	if s.FailingArtifact != "" {
		return fmt.Sprintf("No validated diagnosis available; use the analyzer-identified artifact: %s line %d",
			s.FailingArtifact, s.FailingArtifactLine)
	}
	return "No validated diagnosis and no analyzer-identified artifact available."
}

func truncateLines(s string, max int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= max {
		return s
	}
	return strings.Join(lines[:max], "\n")
}

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
