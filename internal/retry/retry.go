// Package retry wraps external adapter calls with bounded exponential
// backoff and proactive rate limiting, keeping retry mechanics out of the
// pipeline stage logic.
package retry

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/reportchat-cli/internal/core/domain"
	"github.com/custodia-labs/reportchat-cli/internal/logger"
)

// Default policy values.
const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 500 * time.Millisecond
	DefaultMaxDelay    = 8 * time.Second
)

// Policy describes how a call may be retried. The zero value retries
// nothing; use Default() for the standard adapter policy.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// BaseDelay is the delay before the first retry; each subsequent
	// retry doubles it, capped at MaxDelay.
	BaseDelay time.Duration

	// MaxDelay caps the backoff growth.
	MaxDelay time.Duration

	// Limiter optionally throttles attempts proactively. Shared limiters
	// let several adapters respect one upstream quota.
	Limiter *rate.Limiter
}

// Default returns the standard policy for external adapter calls.
func Default() Policy {
	return Policy{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
		MaxDelay:    DefaultMaxDelay,
	}
}

// Do runs fn, retrying transient failures with exponential backoff until the
// attempt budget is exhausted. Non-transient errors (validation, consistency)
// return immediately: retrying bad input never helps. The context cancels
// both waits and attempts; the last error is returned once attempts run out.
func (p Policy) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	delay := p.BaseDelay
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		if p.Limiter != nil {
			if err := p.Limiter.Wait(ctx); err != nil {
				return err
			}
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if !domain.IsTransient(lastErr) {
			return lastErr
		}
		if attempt == attempts {
			break
		}

		logger.Warn("%s failed (attempt %d/%d), retrying in %s: %v", op, attempt, attempts, delay, lastErr)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		delay *= 2
		if p.MaxDelay > 0 && delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}

	return lastErr
}
