// Package types holds the immutable and mutable data model shared by the
// repair loop's components: phases, plans, test results, analyses, and the
// per-run result returned to callers.
package types

// Phase is the repair loop's state. The only legal ADVANCE sequence is
// Reproduce -> RepairAnalyze -> RepairPatch -> Validate; REPLAN always
// returns to Reproduce.
type Phase string

const (
	PhaseReproduce     Phase = "REPRODUCE"
	PhaseRepairAnalyze Phase = "REPAIR_ANALYZE"
	PhaseRepairPatch   Phase = "REPAIR_PATCH"
	PhaseValidate      Phase = "VALIDATE"
)

func (p Phase) IsValid() bool {
	switch p {
	case PhaseReproduce, PhaseRepairAnalyze, PhaseRepairPatch, PhaseValidate:
		return true
	}
	return false
}

func (p Phase) String() string {
	return string(p)
}

// AllPhases returns phases in state-machine order, REPRODUCE first.
func AllPhases() []Phase {
	return []Phase{PhaseReproduce, PhaseRepairAnalyze, PhaseRepairPatch, PhaseValidate}
}

// Decision is what the Mediator returns after inspecting an execution.
type Decision string

const (
	DecisionSuccess Decision = "SUCCESS"
	DecisionFail    Decision = "FAIL"
	DecisionAdvance Decision = "ADVANCE"
	DecisionRetry   Decision = "RETRY"
	DecisionReplan  Decision = "REPLAN"
)

func (d Decision) IsValid() bool {
	switch d {
	case DecisionSuccess, DecisionFail, DecisionAdvance, DecisionRetry, DecisionReplan:
		return true
	}
	return false
}

// FailureType classifies the outcome of the test runner.
type FailureType string

const (
	FailureNone            FailureType = "NONE"
	FailureAssertionError  FailureType = "ASSERTION_ERROR"
	FailureSyntaxError     FailureType = "SYNTAX_ERROR"
	FailureImportError     FailureType = "IMPORT_ERROR"
	FailureAttributeError  FailureType = "ATTRIBUTE_ERROR"
	FailureTypeError       FailureType = "TYPE_ERROR"
	FailureIndexError      FailureType = "INDEX_ERROR"
	FailureKeyError        FailureType = "KEY_ERROR"
	FailureCollectionError FailureType = "COLLECTION_ERROR"
	FailureUnknown         FailureType = "UNKNOWN"
)

// CollectionFailureSubtype further classifies a COLLECTION_ERROR.
type CollectionFailureSubtype string

const (
	CollectionImportError  CollectionFailureSubtype = "IMPORT_ERROR"
	CollectionSyntaxError  CollectionFailureSubtype = "SYNTAX_ERROR"
	CollectionNoTestsFound CollectionFailureSubtype = "NO_TESTS_FOUND"
	CollectionUnknown      CollectionFailureSubtype = "UNKNOWN"
)

// RepairOutcome classifies why a REPLAN fired from a repair phase.
type RepairOutcome string

const (
	OutcomeAnalysisInvalid     RepairOutcome = "ANALYSIS_INVALID"
	OutcomeAnalysisCapExceeded RepairOutcome = "ANALYSIS_CAP_EXCEEDED"
	OutcomeSearchFailed        RepairOutcome = "SEARCH_FAILED"
	OutcomeSearchAmbiguous     RepairOutcome = "SEARCH_AMBIGUOUS"
	OutcomeValidateFailed      RepairOutcome = "VALIDATE_FAILED"
	OutcomeSyntaxError         RepairOutcome = "SYNTAX_ERROR"
	OutcomeNoPatch             RepairOutcome = "NO_PATCH"
)

// Role identifies which LLM role is calling the transport; each role maps to
// a canonical temperature and system preamble.
type Role string

const (
	RolePlanner  Role = "planner"
	RoleExecutor Role = "executor"
	RoleCritic   Role = "critic"
	RoleMediator Role = "mediator"
)

// Temperature returns the canonical sampling temperature for the role.
func (r Role) Temperature() float64 {
	switch r {
	case RolePlanner:
		return 0.2
	case RoleExecutor:
		return 0.1
	case RoleCritic:
		return 0.4
	case RoleMediator:
		return 0.0
	default:
		return 0.3
	}
}
