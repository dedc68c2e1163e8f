package executor

import (
	"encoding/json"
	"strings"

	"github.com/synapse-cir/cirrepair/internal/types"
)

// toolCall is one entry in the executor wire format's tool_calls array.
type toolCall struct {
	Tool string         `json:"tool"`
	Args map[string]any `json:"args"`
}

type toolWireFormat struct {
	Reasoning string     `json:"reasoning"`
	ToolCalls []toolCall `json:"tool_calls"`
}

// parseToolCalls scans raw to the first '{' and parses it as the tool wire
// format. ok is false only on structural failure (no JSON object found, or
// the object fails to unmarshal) — an object with an empty tool_calls array
// is a valid, successful parse of "do nothing".
func parseToolCalls(raw string) (toolWireFormat, bool) {
	body := scanToFirstBrace(raw)
	if body == "" {
		return toolWireFormat{}, false
	}
	var wf toolWireFormat
	if err := json.Unmarshal([]byte(body), &wf); err != nil {
		return toolWireFormat{}, false
	}
	return wf, true
}

func scanToFirstBrace(raw string) string {
	start := strings.IndexByte(raw, '{')
	if start < 0 {
		return ""
	}
	end := strings.LastIndexByte(raw, '}')
	if end < start {
		return ""
	}
	return raw[start : end+1]
}

// rootCauseWire mirrors the RootCauseAnalysis wire fields (snake_case,
// matching the plan and tool wire formats' convention).
type rootCauseWire struct {
	ArtifactPath              string `json:"artifact_path"`
	ArtifactLine              int    `json:"artifact_line"`
	RootCauseSummary          string `json:"root_cause_summary"`
	CausalExplanation         string `json:"causal_explanation"`
	MinimalFixStrategy        string `json:"minimal_fix_strategy"`
	ProposedSearchBlock       string `json:"proposed_search_block"`
	WhyPreviousAttemptsFailed string `json:"why_previous_attempts_failed"`
}

// parseRootCause scans raw to the first JSON object and parses it as a
// RootCauseAnalysis. ok is false on structural failure; the caller treats
// that as an invalid analysis rather than re-prompting.
func parseRootCause(raw string) (types.RootCauseAnalysis, bool) {
	body := scanToFirstBrace(raw)
	if body == "" {
		return types.RootCauseAnalysis{}, false
	}
	var w rootCauseWire
	if err := json.Unmarshal([]byte(body), &w); err != nil {
		return types.RootCauseAnalysis{}, false
	}
	return types.RootCauseAnalysis{
		ArtifactPath:              w.ArtifactPath,
		ArtifactLine:              w.ArtifactLine,
		RootCauseSummary:          w.RootCauseSummary,
		CausalExplanation:         w.CausalExplanation,
		MinimalFixStrategy:        w.MinimalFixStrategy,
		ProposedSearchBlock:       w.ProposedSearchBlock,
		WhyPreviousAttemptsFailed: w.WhyPreviousAttemptsFailed,
	}, true
}
