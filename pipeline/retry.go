package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/canillita"
)

// Default retry settings: 3 attempts separated by 1s and 2s.
const (
	DefaultMaxAttempts = 3
	DefaultRetryUnit   = time.Second
)

// RetryPolicy retries transient failures with exponential backoff. The
// delay after the failed attempt n (counting from zero) is Unit * 2^n.
type RetryPolicy struct {
	MaxAttempts int
	Unit        time.Duration
	Logger      *slog.Logger
}

// DefaultRetryPolicy returns the policy used when none is configured.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: DefaultMaxAttempts, Unit: DefaultRetryUnit}
}

// Delay returns the backoff after the given zero-based attempt.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	return p.Unit << attempt
}

// Retryable reports whether err is a transient failure worth another
// attempt. Rejections and invalid input are structural and never retried.
func Retryable(err error) bool {
	switch canillita.ErrorCode(err) {
	case "", canillita.EREJECTED, canillita.EINVALID, canillita.ECONFLICT:
		return false
	}
	return true
}

// Retry calls fn until it succeeds, fails with a non-retryable error, or
// the policy runs out of attempts. The last error is returned.
func Retry[T any](ctx context.Context, p RetryPolicy, fn func(ctx context.Context) (T, error)) (T, error) {
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var zero T
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err

		if !Retryable(err) || attempt >= maxAttempts-1 {
			break
		}

		// Check context before sleeping
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}

		delay := p.Delay(attempt)
		if p.Logger != nil {
			p.Logger.Debug("retry", "attempt", attempt+2, "delay", delay, "err", err)
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}
	}

	return zero, lastErr
}
