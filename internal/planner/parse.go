package planner

import (
	"encoding/json"
	"strings"

	"github.com/synapse-cir/cirrepair/internal/types"
)

// wireFormat mirrors the plan wire format from SPEC_FULL §6, accepting the
// legacy "investigation_steps" key alongside the canonical "repair_steps".
type wireFormat struct {
	RepairSteps        []string `json:"repair_steps"`
	InvestigationSteps []string `json:"investigation_steps"`
	Reasoning          string   `json:"reasoning"`
}

// parseOrFallback parses raw as plan JSON, tolerating a prose preamble and a
// leading fenced code block by scanning to the first '{'. On any parse
// failure or an empty step list it substitutes the phase's fallback plan —
// it never returns an error to the caller.
func parseOrFallback(raw string, phase types.Phase) types.PlannerOutput {
	body := scanToFirstBrace(raw)
	if body == "" {
		return Fallback(phase)
	}

	var wf wireFormat
	if err := json.Unmarshal([]byte(body), &wf); err != nil {
		return Fallback(phase)
	}

	steps := wf.RepairSteps
	if len(steps) == 0 {
		steps = wf.InvestigationSteps
	}
	out := types.PlannerOutput{Steps: steps, Reasoning: wf.Reasoning}
	if err := out.Validate(phase); err != nil {
		return Fallback(phase)
	}
	return out
}

// scanToFirstBrace strips a prose preamble and any fenced code block marker
// by returning the substring starting at the first '{' through the matching
// end of the JSON value (the last '}' in the string, which is sufficient
// since a single top-level object is expected).
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

// Fallback returns the phase-appropriate safe plan from SPEC_FULL §4.2.
func Fallback(phase types.Phase) types.PlannerOutput {
	switch phase {
	case types.PhaseReproduce:
		return types.PlannerOutput{
			Steps:     []string{"Discover the workspace structure.", "Run the test suite."},
			Reasoning: "fallback: planner output unavailable or invalid",
		}
	case types.PhaseRepairAnalyze:
		return types.PlannerOutput{
			Steps:     []string{"Produce a structured root-cause diagnosis of the test failure using no tools."},
			Reasoning: "fallback: planner output unavailable or invalid",
		}
	case types.PhaseRepairPatch:
		return types.PlannerOutput{
			Steps:     []string{"Read the diagnosed artifact and apply a minimal patch with replace_in_file in the same response."},
			Reasoning: "fallback: planner output unavailable or invalid",
		}
	case types.PhaseValidate:
		return types.PlannerOutput{
			Steps:     []string{"Run the test suite."},
			Reasoning: "fallback: planner output unavailable or invalid",
		}
	default:
		return types.PlannerOutput{
			Steps:     []string{"Discover the workspace structure.", "Run the test suite."},
			Reasoning: "fallback: unknown phase",
		}
	}
}
