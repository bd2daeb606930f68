package pipeline

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/leduardoaraujo/jsonexplorer/internal/pathstore"
)

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var retryErr *pathstore.RetryableError
	return errors.As(err, &retryErr)
}

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}

const MaxRetries = 3

// backoffFunc is swapped in tests to avoid real sleeps.
var backoffFunc = Backoff

// withRetry runs fn up to MaxRetries times while it fails with a
// retryable error.
func withRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := range MaxRetries {
		lastErr = fn()
		if lastErr == nil || !IsRetryable(lastErr) || attempt == MaxRetries-1 {
			break
		}
		select {
		case <-time.After(backoffFunc(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}
