// Package retry implements a small retry policy for outbound calls.
package retry

import (
	"context"
	"time"
)

// Policy describes how an operation is retried. Only failures accepted by
// IsRetryable are retried; everything else terminates on the first attempt.
type Policy struct {
	MaxAttempts int
	IsRetryable func(error) bool
	// Backoff returns the delay before the given attempt (2 for the first
	// retry). Defaults to no delay.
	Backoff func(attempt int) time.Duration
	// Sleep is overridable for tests. Defaults to a context-aware sleep.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Exponential doubles the base delay on every retry: base, 2*base, 4*base, ...
func Exponential(base time.Duration) func(attempt int) time.Duration {
	return func(attempt int) time.Duration {
		return base << (attempt - 2)
	}
}

// Do runs fn up to p.MaxAttempts times and returns the first success or the
// last error. The error from fn is returned as-is so callers can classify it.
func Do[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 && p.Backoff != nil {
			if err := sleep(ctx, p.Backoff(attempt)); err != nil {
				return zero, err
			}
		}

		out, err := fn(ctx)
		if err == nil {
			return out, nil
		}
		lastErr = err

		if p.IsRetryable != nil && !p.IsRetryable(err) {
			return zero, err
		}
	}
	return zero, lastErr
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
