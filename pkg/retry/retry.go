package retry

import (
	"context"
	"fmt"
	"time"
)

// Policy describes how many times an operation is attempted and how long to
// wait between attempts. A zero Increment yields a fixed backoff.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
	Increment   time.Duration
}

// DefaultPolicy matches the behavior used for scraper and API calls: three
// attempts with a fixed five-second pause.
var DefaultPolicy = Policy{
	MaxAttempts: 3,
	Delay:       5 * time.Second,
}

// Do invokes fn until it succeeds, the policy is exhausted, or the context is
// canceled. The last error is returned when all attempts fail.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}

	var lastErr error
	delay := p.Delay
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if attempt == p.MaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay += p.Increment
	}
	return fmt.Errorf("all %d attempts failed: %w", p.MaxAttempts, lastErr)
}

// DoValue is Do for operations that produce a value.
func DoValue[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := Do(ctx, p, func(ctx context.Context) error {
		var innerErr error
		result, innerErr = fn(ctx)
		return innerErr
	})
	return result, err
}
