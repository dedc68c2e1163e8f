package types

// TestResults is an immutable snapshot of one test-runner invocation.
type TestResults struct {
	Passing      []string
	Failing      []string
	RawOutput    string
	WasRun       bool
	FailureType  FailureType
	ErrorSnippet string
}

// AllPassing reports whether the suite ran and nothing failed.
func (t TestResults) AllPassing() bool {
	return t.WasRun && len(t.Failing) == 0
}

// ClassifyExitCode maps a test-runner exit code to a FailureType per the
// Executor's run_tests tool semantics.
func ClassifyExitCode(exitCode int) FailureType {
	switch exitCode {
	case 0:
		return FailureNone
	case 1:
		return FailureAssertionError
	case 2, 4, 5:
		return FailureCollectionError
	default:
		return FailureAssertionError
	}
}
