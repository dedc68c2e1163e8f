package types

import (
	"fmt"
	"strings"
)

// PlannerOutput is an ordered, non-empty sequence of repair steps plus the
// model's free-text reasoning. Once constructed it is never mutated.
type PlannerOutput struct {
	Steps     []string `json:"repair_steps"`
	Reasoning string   `json:"reasoning"`
}

// Validate enforces the non-empty-steps invariant shared by every phase, and
// the REPAIR_PATCH-only invariant that no step smuggles a test re-run past
// the Executor's tool-less analysis path.
func (p PlannerOutput) Validate(phase Phase) error {
	if len(p.Steps) == 0 {
		return fmt.Errorf("plan has no steps")
	}
	for i, step := range p.Steps {
		if step == "" {
			return fmt.Errorf("plan step %d is empty", i)
		}
	}
	if phase == PhaseRepairPatch {
		for i, step := range p.Steps {
			if containsTestReRun(step) {
				return fmt.Errorf("plan step %d for REPAIR_PATCH must not re-run tests: %q", i, step)
			}
		}
	}
	return nil
}

func containsTestReRun(step string) bool {
	lower := strings.ToLower(step)
	if strings.Contains(lower, "run test") || strings.Contains(lower, "execute test") || strings.Contains(lower, "reproduce") {
		return true
	}
	return strings.Contains(lower, "test") && strings.Contains(lower, "run")
}

// CurrentStep returns the step at idx, or ("", false) if idx is out of range
// — the Orchestrator treats the false case as "no current task".
func (p PlannerOutput) CurrentStep(idx int) (string, bool) {
	if idx < 0 || idx >= len(p.Steps) {
		return "", false
	}
	return p.Steps[idx], true
}
