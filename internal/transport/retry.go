package transport

import (
	"context"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// retryInitialInterval is the first backoff step. Tests shrink it.
var retryInitialInterval = 500 * time.Millisecond

// Retryable reports whether err is a response the server rejected without
// applying the request: throttling (429) or temporary unavailability (503).
// Network errors and every other status are not retried, since a create that
// timed out may still have been applied.
func Retryable(err error) bool {
	switch StatusCode(err) {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable:
		return true
	}
	return false
}

func newRetryBackoff(maxElapsed time.Duration) backoff.BackOff {
	// BackOff implementations are stateful; always return a fresh instance.
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = retryInitialInterval
	bo.MaxElapsedTime = maxElapsed
	return bo
}

// Do runs op, retrying retryable failures with exponential backoff until
// maxElapsed has passed. A maxElapsed of zero or less runs op exactly once.
func Do(ctx context.Context, maxElapsed time.Duration, op func() error) error {
	if maxElapsed <= 0 {
		return op()
	}

	return backoff.Retry(func() error {
		err := op()
		if err != nil && Retryable(err) {
			return err // Retryable - backoff will retry
		}
		if err != nil {
			return backoff.Permanent(err)
		}
		return nil
	}, backoff.WithContext(newRetryBackoff(maxElapsed), ctx))
}
