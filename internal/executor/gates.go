package executor

import (
	"strings"

	"github.com/synapse-cir/cirrepair/internal/state"
	"github.com/synapse-cir/cirrepair/internal/types"
)

// phaseAllowlist is the per-phase tool filter from SPEC_FULL §4.3.
var phaseAllowlist = map[types.Phase]map[string]bool{
	types.PhaseReproduce: {
		"read_file": true, "run_tests": true, "grep": true,
		"list_files": true, "file_tree": true,
	},
	types.PhaseRepairAnalyze: {},
	types.PhaseRepairPatch: {
		"read_file": true, "replace_in_file": true, "write_file": true,
		"grep": true, "list_files": true, "file_tree": true,
	},
	types.PhaseValidate: {
		"run_tests": true,
	},
}

func isDiscoveryTool(tool string) bool {
	return tool == "list_files" || tool == "file_tree"
}

// discoveryGate fires in REPRODUCE before structure has been discovered: if
// the model proposed no discovery tool, it replaces the call list with a
// single list_files ".".
func discoveryGate(s *state.SharedState, calls []toolCall) []toolCall {
	if s.CurrentPhase != types.PhaseReproduce || s.StructureDiscovered {
		return calls
	}
	for _, c := range calls {
		if isDiscoveryTool(c.Tool) {
			return calls
		}
	}
	return []toolCall{{Tool: "list_files", Args: map[string]any{"path": "."}}}
}

// repairEvidenceGate fires in REPAIR_PATCH: if the last failure needs the
// failing artifact read and it isn't cached yet, it replaces the call list
// with a single read_file of that artifact.
func repairEvidenceGate(s *state.SharedState, calls []toolCall) []toolCall {
	if s.CurrentPhase != types.PhaseRepairPatch {
		return calls
	}
	if s.LastTestResults == nil {
		return calls
	}
	ft := s.LastTestResults.FailureType
	if ft != types.FailureAssertionError && ft != types.FailureCollectionError {
		return calls
	}
	if s.FailingArtifact == "" {
		return calls
	}
	if _, cached := s.RecentFileReads[state.NormalizePath(s.FailingArtifact)]; cached {
		return calls
	}
	path := sanitizePathForGate(s.FailingArtifact)
	if path == "" {
		return []toolCall{{Tool: "list_files", Args: map[string]any{"path": "."}}}
	}
	return []toolCall{{Tool: "read_file", Args: map[string]any{"path": path}}}
}

// sanitizePathForGate strips newline, '>' or internal-whitespace
// contamination before the gate builds a synthetic tool call from it.
func sanitizePathForGate(path string) string {
	if strings.ContainsAny(path, "\n>") || strings.Contains(path, " ") {
		return ""
	}
	return path
}

// phaseFilter drops any tool call not in the current phase's allowlist.
func phaseFilter(phase types.Phase, calls []toolCall) []toolCall {
	allowed := phaseAllowlist[phase]
	out := calls[:0:0]
	for _, c := range calls {
		if allowed[c.Tool] {
			out = append(out, c)
		}
	}
	return out
}
