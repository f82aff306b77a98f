// Package resilience provides the injectable retry policy used by upstream
// ingestion. Unlike exponential-backoff API retries, warmup fetches follow a
// fixed schedule: a short delay for the first attempts, a longer delay after
// that, by default without an attempt ceiling.
package resilience

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Policy is a fixed-schedule retry policy.
type Policy struct {
	// ShortAttempts is how many failed attempts use ShortDelay before the
	// schedule switches to LongDelay. Default: 3.
	ShortAttempts int

	// ShortDelay is the wait after each of the first ShortAttempts failures.
	// Default: 10s.
	ShortDelay time.Duration

	// LongDelay is the wait after every later failure. Default: 30s.
	LongDelay time.Duration

	// MaxAttempts caps total attempts. 0 means retry forever.
	MaxAttempts int

	// OnRetry is called before each retry sleep with the attempt number that
	// just failed and its error.
	OnRetry func(attempt int, err error)
}

// DefaultPolicy returns the standard warmup schedule: 10s for the first three
// failures, 30s after, unbounded.
func DefaultPolicy() Policy {
	return Policy{
		ShortAttempts: 3,
		ShortDelay:    10 * time.Second,
		LongDelay:     30 * time.Second,
	}
}

// Delay returns the wait after the given failed attempt (1-based).
func (p Policy) Delay(attempt int) time.Duration {
	if attempt <= p.ShortAttempts {
		return p.ShortDelay
	}
	return p.LongDelay
}

func (p Policy) withDefaults() Policy {
	if p.ShortAttempts <= 0 {
		p.ShortAttempts = 3
	}
	if p.ShortDelay <= 0 {
		p.ShortDelay = 10 * time.Second
	}
	if p.LongDelay <= 0 {
		p.LongDelay = 30 * time.Second
	}
	return p
}

// Do runs fn until it succeeds, the policy's attempt ceiling is reached, or
// the context is canceled.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	_, err := DoVal(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// DoVal is Do for functions returning a value.
func DoVal[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	p = p.withDefaults()

	var zero T
	for attempt := 1; ; attempt++ {
		val, err := fn(ctx)
		if err == nil {
			return val, nil
		}

		if ctx.Err() != nil {
			return zero, err
		}
		if p.MaxAttempts > 0 && attempt >= p.MaxAttempts {
			return zero, err
		}

		if p.OnRetry != nil {
			p.OnRetry(attempt, err)
		}

		timer := time.NewTimer(p.Delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, err
		case <-timer.C:
		}
	}
}

// Logger returns an OnRetry callback that logs each retry attempt.
func Logger(service, operation string) func(int, error) {
	return func(attempt int, err error) {
		zap.L().Warn("retrying operation",
			zap.String("service", service),
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
}
