package executor

import (
	"context"
	"testing"

	"github.com/spf13/afero"

	"github.com/synapse-cir/cirrepair/internal/state"
	"github.com/synapse-cir/cirrepair/internal/types"
)

type scriptedClient struct {
	responses []string
	calls     int
}

func (c *scriptedClient) Generate(ctx context.Context, role types.Role, prompt string, temperature float64) (string, error) {
	i := c.calls
	if i >= len(c.responses) {
		i = len(c.responses) - 1
	}
	c.calls++
	return c.responses[i], nil
}

func TestExecute_RepairPatch_AppliesPatch(t *testing.T) {
	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, "/ws/a.go", []byte("return 1\n"), 0o644)

	client := &scriptedClient{responses: []string{
		`{"reasoning":"patch","tool_calls":[{"tool":"replace_in_file","args":{"path":"/ws/a.go","search_block":"return 1","replace_block":"return 2"}}]}`,
	}}
	e := New(fs, "/ws", client, Config{})
	s := state.New("fix it")
	s.CurrentPhase = types.PhaseRepairPatch
	s.RecentFileReads[state.NormalizePath("/ws/a.go")] = state.CachedFile{Content: "return 1\n", LineCount: 1}

	result := e.Execute(context.Background(), "apply patch", s)
	if result.HasErrors() {
		t.Fatalf("unexpected tool error: %s", result.LastError())
	}
	if len(result.ModifiedFiles) != 1 {
		t.Fatalf("expected one modified file, got %+v", result.ModifiedFiles)
	}
	data, _ := afero.ReadFile(fs, "/ws/a.go")
	if string(data) != "return 2\n" {
		t.Fatalf("patch not applied, content: %q", data)
	}
}

func TestExecute_RepairAnalyze_StoresValidatedAnalysis(t *testing.T) {
	fs := afero.NewMemMapFs()
	client := &scriptedClient{responses: []string{
		`{"artifact_path":"a.go","artifact_line":10,"root_cause_summary":"s","causal_explanation":"c","minimal_fix_strategy":"f","proposed_search_block":"","why_previous_attempts_failed":""}`,
	}}
	e := New(fs, "/ws", client, Config{})
	s := state.New("diagnose")
	s.CurrentPhase = types.PhaseRepairAnalyze
	s.FailingArtifact = "a.go"
	s.FailingArtifactLine = 10

	result := e.Execute(context.Background(), "diagnose", s)
	if !result.NotRun {
		t.Fatal("expected NotRun ExecutionResult for analysis path")
	}
	if s.LastRootCauseAnalysis == nil || !s.LastRootCauseAnalysis.Valid {
		t.Fatalf("expected valid analysis stored, got %+v", s.LastRootCauseAnalysis)
	}
}

func TestExecute_RepairAnalyze_MalformedResponseStoresInvalid(t *testing.T) {
	fs := afero.NewMemMapFs()
	client := &scriptedClient{responses: []string{"not json at all"}}
	e := New(fs, "/ws", client, Config{})
	s := state.New("diagnose")
	s.CurrentPhase = types.PhaseRepairAnalyze

	e.Execute(context.Background(), "diagnose", s)
	if s.LastRootCauseAnalysis == nil || s.LastRootCauseAnalysis.Valid {
		t.Fatalf("expected invalid analysis stored, got %+v", s.LastRootCauseAnalysis)
	}
}

func TestExecute_ReprompsOnceOnStructuralParseFailure(t *testing.T) {
	fs := afero.NewMemMapFs()
	client := &scriptedClient{responses: []string{
		"garbage, no json here",
		`{"reasoning":"r","tool_calls":[]}`,
	}}
	e := New(fs, "/ws", client, Config{})
	s := state.New("g")
	s.CurrentPhase = types.PhaseValidate

	e.Execute(context.Background(), "run tests", s)
	if client.calls != 2 {
		t.Fatalf("expected exactly one re-prompt (2 calls total), got %d", client.calls)
	}
}

func TestExecute_TransportErrorProducesErrorResult(t *testing.T) {
	fs := afero.NewMemMapFs()
	e := New(fs, "/ws", &erroringClient{}, Config{})
	s := state.New("g")
	s.CurrentPhase = types.PhaseReproduce

	result := e.Execute(context.Background(), "discover", s)
	if !result.HasErrors() {
		t.Fatal("expected transport failure to surface as a tool error")
	}
}

type erroringClient struct{}

func (erroringClient) Generate(ctx context.Context, role types.Role, prompt string, temperature float64) (string, error) {
	return "", errTransport
}

var errTransport = &transportErr{"simulated transport failure"}

type transportErr struct{ msg string }

func (e *transportErr) Error() string { return e.msg }
