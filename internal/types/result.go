package types

// RunResult is the Orchestrator's output contract: a structured value that
// the HTTP control plane and the CLI both render without ever needing to
// catch a panic from runTask.
type RunResult struct {
	Success         bool   `json:"success"`
	TotalIterations int    `json:"total_iterations"`
	Status          string `json:"status"`
	Details         string `json:"details"`
}

// Metadata is the per-run JSON file written at the workspace root
// (synapsenet_metadata.json in SPEC_FULL §6).
type Metadata struct {
	Workspace     string   `json:"workspace"`
	ModifiedFiles []string `json:"modified_files"`
	Iterations    int      `json:"iterations"`
	Replans       int      `json:"replans"`
	TestsPassed   bool     `json:"tests_passed"`
	ExitCode      int      `json:"exit_code"`
}

// Benchmark is the single structured log line emitted per run.
type Benchmark struct {
	CaseID           string      `json:"case_id"`
	Resolved         bool        `json:"resolved"`
	TotalIterations  int         `json:"total_iterations"`
	ReplanCount      int         `json:"replan_count"`
	ToolCallCount    int         `json:"tool_call_count"`
	FailureType      FailureType `json:"failure_type"`
	FailingArtifact  string      `json:"failing_artifact"`
	WallTimeSeconds  float64     `json:"wall_time_seconds"`
	FinalStatus      string      `json:"final_status"`
}
