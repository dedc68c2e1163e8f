package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/synapse-cir/cirrepair/internal/types"
)

// RetryingClient wraps another Client with a capped exponential backoff +
// jitter retry for transient transport errors (HTTP 503, 429, IO errors).
// Non-retryable errors propagate immediately and fail the run, matching
// SPEC_FULL §5 and the "LLM transport exhaustion" error category in §7.
type RetryingClient struct {
	inner      Client
	maxElapsed time.Duration
}

// NewRetryingClient wraps inner with a retry policy bounded by maxElapsed
// total wall-clock time across all attempts.
func NewRetryingClient(inner Client, maxElapsed time.Duration) *RetryingClient {
	return &RetryingClient{inner: inner, maxElapsed: maxElapsed}
}

func (r *RetryingClient) Generate(ctx context.Context, role types.Role, prompt string, temperature float64) (string, error) {
	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = r.maxElapsed
	bo := backoff.WithContext(policy, ctx)

	var result string
	op := func() error {
		text, err := r.inner.Generate(ctx, role, prompt, temperature)
		if err != nil {
			if !isRetryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		result = text
		return nil
	}

	if err := backoff.Retry(op, bo); err != nil {
		return "", unwrapPermanent(err)
	}
	return result, nil
}

func unwrapPermanent(err error) error {
	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		return perm.Err
	}
	return err
}

// isRetryable classifies transient transport failures. Anything else
// (malformed request, auth failure, context cancellation) is not retried.
func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"503", "429", "timeout", "connection reset", "eof", "temporary failure"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
