// Package executor runs one plan step against the workspace: either the
// common tool path (REPRODUCE, REPAIR_PATCH, VALIDATE) that dispatches a
// model-proposed sequence of tool calls through gates and an allowlist, or
// the tool-less REPAIR_ANALYZE path that produces a structured diagnosis
// (SPEC_FULL §4.3).
package executor

import (
	"context"
	"fmt"

	"github.com/spf13/afero"

	"github.com/synapse-cir/cirrepair/internal/llm"
	"github.com/synapse-cir/cirrepair/internal/state"
	"github.com/synapse-cir/cirrepair/internal/types"
)

// Executor dispatches one task for the current phase. fs is expected to be
// confined to the workspace root (an afero.BasePathFs) so every tool path
// resolves beneath it; workspaceRoot is the same root as a real OS path,
// used only to spawn the test-runner process.
type Executor struct {
	fs            afero.Fs
	workspaceRoot string
	client        llm.Client
	cfg           Config
}

func New(fs afero.Fs, workspaceRoot string, client llm.Client, cfg Config) *Executor {
	return &Executor{fs: fs, workspaceRoot: workspaceRoot, client: client, cfg: cfg}
}

// Execute runs task for s.CurrentPhase and returns the resulting
// ExecutionResult. It never returns an error: a fatal step condition (LLM
// transport failure, grounding-invariant cache miss) is represented as an
// ExecutionResult carrying a failed ToolResult.
func (e *Executor) Execute(ctx context.Context, task string, s *state.SharedState) types.ExecutionResult {
	if s.CurrentPhase == types.PhaseRepairAnalyze {
		return e.executeAnalysis(ctx, task, s)
	}
	return e.executeTooled(ctx, task, s)
}

func (e *Executor) executeTooled(ctx context.Context, task string, s *state.SharedState) types.ExecutionResult {
	prompt := buildToolPrompt(task, s)

	raw, err := e.client.Generate(ctx, types.RoleExecutor, prompt, types.RoleExecutor.Temperature())
	if err != nil {
		return transportFailure(task, err)
	}

	wf, parsed := parseToolCalls(raw)
	if !parsed {
		raw, err = e.client.Generate(ctx, types.RoleExecutor, prompt+reenforcementReminder, types.RoleExecutor.Temperature())
		if err != nil {
			return transportFailure(task, err)
		}
		wf, parsed = parseToolCalls(raw)
		if !parsed {
			wf = toolWireFormat{}
		}
	}

	calls := wf.ToolCalls
	calls = discoveryGate(s, calls)
	calls = repairEvidenceGate(s, calls)
	calls = phaseFilter(s.CurrentPhase, calls)

	result := types.ExecutionResult{Task: task}

	for _, call := range calls {
		tr := e.runTool(ctx, call, s)
		result.ToolResults = append(result.ToolResults, tr)
		s.ToolCallCount++

		if !tr.Success {
			s.LastToolError = tr.ErrorMsg
			s.ConsecutiveToolErrors++
			continue
		}
		s.ConsecutiveToolErrors = 0
		s.LastToolError = ""

		if call.Tool == "run_tests" && s.LastTestResults != nil && !s.LastTestResults.AllPassing() {
			if groundErr := e.groundFailingArtifact(s); groundErr != nil {
				result.ToolResults = append(result.ToolResults, fail(
					toolCall{Tool: "read_file", Args: map[string]any{"path": s.FailingArtifact}},
					fmt.Sprintf("grounding invariant failed: %v", groundErr),
				))
				return result
			}
		}
	}

	result.ModifiedFiles = append([]string(nil), s.ModifiedFiles...)
	result.TestResults = s.LastTestResults
	return result
}

// groundFailingArtifact is the grounding invariant from SPEC_FULL §4.3: once
// the analyzer has identified a failing artifact, its content must be
// cached before the loop continues, so every later phase reasons about real
// file content rather than a path string.
func (e *Executor) groundFailingArtifact(s *state.SharedState) error {
	if s.FailingArtifact == "" {
		return nil
	}
	if _, cached := s.RecentFileReads[state.NormalizePath(s.FailingArtifact)]; cached {
		return nil
	}
	data, err := afero.ReadFile(e.fs, s.FailingArtifact)
	if err != nil {
		return err
	}
	s.CacheFileRead(s.FailingArtifact, string(data))
	return nil
}

func (e *Executor) executeAnalysis(ctx context.Context, task string, s *state.SharedState) types.ExecutionResult {
	prompt := buildAnalysisPrompt(task, s)

	raw, err := e.client.Generate(ctx, types.RoleExecutor, prompt, types.RoleExecutor.Temperature())
	if err != nil {
		return transportFailure(task, err)
	}

	rca, parsed := parseRootCause(raw)
	if !parsed {
		rca = types.RootCauseAnalysis{InvalidReason: "analysis response did not parse as JSON"}
	}

	validated := rca.Validate(s.ValidationContext())
	s.LastRootCauseAnalysis = &validated

	return types.ExecutionResult{Task: task, NotRun: true}
}

func transportFailure(task string, err error) types.ExecutionResult {
	return types.ExecutionResult{
		Task: task,
		ToolResults: []types.ToolResult{
			{Tool: "generate", Success: false, ErrorMsg: err.Error()},
		},
	}
}
