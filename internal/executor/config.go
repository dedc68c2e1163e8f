package executor

import "time"

// Config is the subset of runtime configuration the Executor needs to run
// tools against a workspace: the test-runner command and the process
// timeouts bounding it (SPEC_FULL §5).
type Config struct {
	// Interpreter is the command that runs the test suite, e.g. "pytest"
	// or "go test ./...". It is invoked via the shell so operators can
	// supply arguments inline.
	Interpreter string
	// TestTimeout bounds a single run_tests invocation. Defaults to 60s.
	TestTimeout time.Duration
	// ProcessTimeout is not read by the executor: run_tests is the only
	// process it spawns, and TestTimeout bounds that one.
	ProcessTimeout time.Duration
}

func (c Config) testTimeout() time.Duration {
	if c.TestTimeout > 0 {
		return c.TestTimeout
	}
	return 60 * time.Second
}
