package common

import (
	"context"
	"time"

	"github.com/avast/retry-go/v4"
)

// RetryPolicy describes a bounded retry schedule with randomized
// exponential backoff.
type RetryPolicy struct {
	Attempts   uint          // Total attempts including the first
	MinBackoff time.Duration // Base delay between attempts
	MaxBackoff time.Duration // Upper bound on any single delay
}

// DefaultRetryPolicy returns the standard policy for remote calls:
// 3 attempts, delays between 1s and 10s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts:   3,
		MinBackoff: 1 * time.Second,
		MaxBackoff: 10 * time.Second,
	}
}

// Do runs fn under the policy. Each retry waits an exponentially growing
// delay plus random jitter, capped at MaxBackoff. The last error is
// returned when all attempts fail. onRetry may be nil.
func (p RetryPolicy) Do(ctx context.Context, fn func() error, onRetry func(attempt uint, err error)) error {
	attempts := p.Attempts
	if attempts == 0 {
		attempts = 1
	}
	minBackoff := p.MinBackoff
	if minBackoff <= 0 {
		minBackoff = 1 * time.Second
	}
	maxBackoff := p.MaxBackoff
	if maxBackoff < minBackoff {
		maxBackoff = minBackoff
	}

	opts := []retry.Option{
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(minBackoff),
		retry.MaxDelay(maxBackoff),
		retry.MaxJitter(minBackoff),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		retry.LastErrorOnly(true),
	}
	if onRetry != nil {
		// The library fires OnRetry after every failed attempt, the last
		// one included. Only report failures that another attempt follows.
		opts = append(opts, retry.OnRetry(func(n uint, err error) {
			if n+1 < attempts {
				onRetry(n+1, err)
			}
		}))
	}

	return retry.Do(fn, opts...)
}
