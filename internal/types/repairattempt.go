package types

import "fmt"

// RepairAttempt is an immutable record of one repair cycle captured the
// moment REPLAN fires from a repair phase. It is rendered as plain text for
// injection into the next plan's prompt, never re-parsed.
type RepairAttempt struct {
	Index                    int
	Outcome                  RepairOutcome
	PatchSummary             string
	SearchBlockUsed          string
	DiagnosisSummary         string
	FixStrategy              string
	ValidationFailureSubtype string
	ValidationFailureLine    int
	ValidationFailureReason  string
}

// Render produces the plain-text block the Planner's revisePlan injects into
// the REPLAN prompt.
func (a RepairAttempt) Render() string {
	s := fmt.Sprintf("Attempt #%d — outcome: %s\n", a.Index, a.Outcome)
	if a.DiagnosisSummary != "" {
		s += fmt.Sprintf("  diagnosis: %s\n", a.DiagnosisSummary)
	}
	if a.FixStrategy != "" {
		s += fmt.Sprintf("  fix strategy: %s\n", a.FixStrategy)
	}
	if a.PatchSummary != "" {
		s += fmt.Sprintf("  patch: %s\n", a.PatchSummary)
	}
	if a.SearchBlockUsed != "" {
		s += fmt.Sprintf("  search block used: %q\n", a.SearchBlockUsed)
	}
	if a.ValidationFailureReason != "" {
		loc := ""
		if a.ValidationFailureLine > 0 {
			loc = fmt.Sprintf(" at line %d", a.ValidationFailureLine)
		}
		s += fmt.Sprintf("  validation failed%s (%s): %s\n", loc, a.ValidationFailureSubtype, a.ValidationFailureReason)
	}
	return s
}

// RenderHistory renders a bounded sequence of attempts for prompt injection.
func RenderHistory(history []RepairAttempt) string {
	if len(history) == 0 {
		return ""
	}
	s := ""
	for _, a := range history {
		s += a.Render()
	}
	return s
}
