// Package critic produces an advisory, free-text review of one executed
// step. Its heuristic risk/satisfaction attributes are for a human reading
// the run log; the Mediator never consumes them for transitions
// (SPEC_FULL §4.5).
package critic

import (
	"context"
	"fmt"
	"strings"

	"github.com/synapse-cir/cirrepair/internal/llm"
	"github.com/synapse-cir/cirrepair/internal/state"
	"github.com/synapse-cir/cirrepair/internal/types"
)

const maxPromptChars = 14000
const maxErrorLines = 20
const maxErrorChars = 2500

// RiskLevel is a heuristic severity label derived from the execution alone.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// Feedback is the Critic's advisory output for one executed step.
type Feedback struct {
	Critique     string
	RiskLevel    RiskLevel
	Satisfaction float64
}

type Critic struct {
	client llm.Client
}

func New(client llm.Client) *Critic {
	return &Critic{client: client}
}

// Review builds a bounded critique prompt, invokes the LLM, and attaches
// the heuristic risk/satisfaction attributes. A transport failure yields an
// empty critique with the same heuristic attributes, never an error — the
// Critic cannot block the loop.
func (c *Critic) Review(ctx context.Context, result types.ExecutionResult, s *state.SharedState) Feedback {
	fb := Feedback{
		RiskLevel:    riskLevel(result),
		Satisfaction: satisfaction(result),
	}

	prompt := buildPrompt(result, s)
	raw, err := c.client.Generate(ctx, types.RoleCritic, prompt, types.RoleCritic.Temperature())
	if err != nil {
		return fb
	}
	fb.Critique = strings.TrimSpace(raw)
	return fb
}

func riskLevel(result types.ExecutionResult) RiskLevel {
	hasErrors := result.HasErrors()
	testsFailed := result.TestResults != nil && result.TestResults.WasRun && !result.TestResults.AllPassing()
	switch {
	case hasErrors && testsFailed:
		return RiskHigh
	case hasErrors || testsFailed:
		return RiskMedium
	default:
		return RiskLow
	}
}

func satisfaction(result types.ExecutionResult) float64 {
	hasErrors := result.HasErrors()
	testsFailed := result.TestResults != nil && result.TestResults.WasRun && !result.TestResults.AllPassing()
	switch {
	case hasErrors && testsFailed:
		return 0.2
	case hasErrors || testsFailed:
		return 0.5
	default:
		return 1.0
	}
}

func buildPrompt(result types.ExecutionResult, s *state.SharedState) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Phase: %s\nTask: %s\n", s.CurrentPhase, result.Task)

	if result.TestResults != nil {
		fmt.Fprintf(&b, "Tests: ran=%v passing=%d failing=%d type=%s\n",
			result.TestResults.WasRun, len(result.TestResults.Passing),
			len(result.TestResults.Failing), result.TestResults.FailureType)
	}

	if len(result.ModifiedFiles) > 0 {
		fmt.Fprintf(&b, "Modified files: %s\n", strings.Join(result.ModifiedFiles, ", "))
	}

	if result.HasErrors() {
		b.WriteString("Tool errors:\n")
		b.WriteString(truncateErrorDetail(result.LastError()))
		b.WriteString("\n")
	}

	b.WriteString("Write one or two sentences assessing whether this step made progress toward the goal.\n")

	prompt := b.String()
	if len(prompt) > maxPromptChars {
		prompt = prompt[:maxPromptChars]
	}
	return prompt
}

// truncateErrorDetail bounds error text to at most 20 lines and 2500
// characters, cutting at a line boundary rather than mid-line.
func truncateErrorDetail(detail string) string {
	lines := strings.Split(detail, "\n")
	if len(lines) > maxErrorLines {
		lines = lines[:maxErrorLines]
	}
	out := strings.Join(lines, "\n")
	if len(out) <= maxErrorChars {
		return out
	}
	cut := strings.LastIndexByte(out[:maxErrorChars], '\n')
	if cut <= 0 {
		return out[:maxErrorChars]
	}
	return out[:cut]
}
