// Package retry provides a retry policy value object and a generic
// retry combinator for transient external failures, built on
// exponential backoff.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/custodia-labs/lexsearch/internal/core/domain"
)

// Policy describes a bounded exponential-backoff retry schedule.
// With the defaults the waits are 1s, 2s, 4s between the attempts.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// BaseDelay is the wait before the first retry; each further retry
	// doubles it.
	BaseDelay time.Duration

	// Jitter is the randomisation factor in [0,1) applied to each wait.
	Jitter float64
}

// DefaultPolicy returns the standard embedding-API retry schedule:
// four attempts in total (one initial plus three retries), 1s base
// delay, no jitter.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 4,
		BaseDelay:   time.Second,
	}
}

// Do runs op under the policy. Errors not wrapping domain.ErrRetryable
// stop the loop immediately; retryable errors are re-attempted until
// the policy is exhausted. The context cancels waits in between.
func Do(ctx context.Context, p Policy, op func(ctx context.Context) error) error {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = time.Second
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.BaseDelay
	bo.Multiplier = 2
	bo.RandomizationFactor = p.Jitter
	bo.MaxInterval = p.BaseDelay << uint(p.MaxAttempts)
	bo.MaxElapsedTime = 0 // bounded by attempt count, not wall clock

	wrapped := func() error {
		err := op(ctx)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrRetryable) {
			return backoff.Permanent(err)
		}
		return err
	}

	return backoff.Retry(
		wrapped,
		backoff.WithContext(backoff.WithMaxRetries(bo, uint64(p.MaxAttempts-1)), ctx),
	)
}
