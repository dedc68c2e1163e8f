package critic

import (
	"context"
	"strings"
	"testing"

	"github.com/synapse-cir/cirrepair/internal/state"
	"github.com/synapse-cir/cirrepair/internal/types"
)

type stubClient struct {
	text string
	err  error
}

func (s stubClient) Generate(ctx context.Context, role types.Role, prompt string, temperature float64) (string, error) {
	return s.text, s.err
}

func TestRiskLevel_HighOnErrorsAndFailingTests(t *testing.T) {
	result := types.ExecutionResult{
		ToolResults: []types.ToolResult{{Success: false, ErrorMsg: "boom"}},
		TestResults: &types.TestResults{WasRun: true, Failing: []string{"x"}},
	}
	c := New(stubClient{text: "critique"})
	fb := c.Review(context.Background(), result, state.New("g"))
	if fb.RiskLevel != RiskHigh || fb.Satisfaction != 0.2 {
		t.Fatalf("unexpected feedback: %+v", fb)
	}
}

func TestRiskLevel_LowOnCleanPass(t *testing.T) {
	result := types.ExecutionResult{
		TestResults: &types.TestResults{WasRun: true, Passing: []string{"a"}},
	}
	c := New(stubClient{text: "critique"})
	fb := c.Review(context.Background(), result, state.New("g"))
	if fb.RiskLevel != RiskLow || fb.Satisfaction != 1.0 {
		t.Fatalf("unexpected feedback: %+v", fb)
	}
}

func TestRiskLevel_MediumOnOneProblem(t *testing.T) {
	result := types.ExecutionResult{
		ToolResults: []types.ToolResult{{Success: false, ErrorMsg: "boom"}},
		TestResults: &types.TestResults{WasRun: true, Passing: []string{"a"}},
	}
	c := New(stubClient{text: "critique"})
	fb := c.Review(context.Background(), result, state.New("g"))
	if fb.RiskLevel != RiskMedium || fb.Satisfaction != 0.5 {
		t.Fatalf("unexpected feedback: %+v", fb)
	}
}

func TestReview_TransportFailureYieldsEmptyCritiqueNotError(t *testing.T) {
	c := New(stubClient{err: errBoom{}})
	fb := c.Review(context.Background(), types.ExecutionResult{}, state.New("g"))
	if fb.Critique != "" {
		t.Fatalf("expected empty critique on transport failure, got %q", fb.Critique)
	}
}

type errBoom struct{}

func (errBoom) Error() string { return "transport down" }

func TestTruncateErrorDetail_BoundsLinesAndChars(t *testing.T) {
	var lines []string
	for i := 0; i < 50; i++ {
		lines = append(lines, strings.Repeat("x", 100))
	}
	out := truncateErrorDetail(strings.Join(lines, "\n"))
	if strings.Count(out, "\n")+1 > maxErrorLines {
		t.Fatalf("expected at most %d lines, got content:\n%s", maxErrorLines, out)
	}
	if len(out) > maxErrorChars {
		t.Fatalf("expected at most %d chars, got %d", maxErrorChars, len(out))
	}
}
