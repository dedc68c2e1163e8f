package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/synapse-cir/cirrepair/internal/types"
)

type fakeClient struct {
	calls   int
	errs    []error
	texts   []string
}

func (f *fakeClient) Generate(ctx context.Context, role types.Role, prompt string, temperature float64) (string, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.texts) {
		return f.texts[i], nil
	}
	return "", errors.New("fakeClient: no more scripted responses")
}

func TestRetryingClient_RetriesTransientThenSucceeds(t *testing.T) {
	fc := &fakeClient{
		errs:  []error{errors.New("received 503 from upstream"), nil},
		texts: []string{"", "ok"},
	}
	rc := NewRetryingClient(fc, 2*time.Second)

	text, err := rc.Generate(context.Background(), types.RolePlanner, "prompt", 0.2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "ok" {
		t.Fatalf("expected ok, got %q", text)
	}
	if fc.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", fc.calls)
	}
}

func TestRetryingClient_NonRetryableFailsImmediately(t *testing.T) {
	fc := &fakeClient{errs: []error{errors.New("invalid api key")}}
	rc := NewRetryingClient(fc, 2*time.Second)

	_, err := rc.Generate(context.Background(), types.RolePlanner, "prompt", 0.2)
	if err == nil {
		t.Fatal("expected error")
	}
	if fc.calls != 1 {
		t.Fatalf("expected exactly 1 call for a non-retryable error, got %d", fc.calls)
	}
}
