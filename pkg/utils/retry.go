package utils

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Retry runs op up to attempts times with a constant interval between attempts.
// It stops early when ctx is done or op returns an error wrapped with Permanent,
// and returns the last error (unwrapped from Permanent).
func Retry(ctx context.Context, attempts int, interval time.Duration, op func() error) error {
	if attempts < 1 {
		attempts = 1
	}
	var b backoff.BackOff = &backoff.ZeroBackOff{}
	if interval > 0 {
		b = backoff.NewConstantBackOff(interval)
	}
	b = backoff.WithMaxRetries(b, uint64(attempts-1))
	return backoff.Retry(op, backoff.WithContext(b, ctx))
}

// Permanent marks err as non-retryable for Retry.
func Permanent(err error) error {
	return backoff.Permanent(err)
}
