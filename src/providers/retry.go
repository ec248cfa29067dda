package providers

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"

	"github.com/raulisai/Gateway-IA/src/config"
	"github.com/raulisai/Gateway-IA/src/models"
)

type RetryDecision int

const (
	DoNotRetry RetryDecision = iota
	Retry
)

// RetryPolicy bounds how one model is retried. Attempts are 1-based.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     func(attempt int) time.Duration
	Classify    func(err error) RetryDecision
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Backoff:     ExponentialBackoff(2*time.Second, 10*time.Second),
		Classify:    RetryTransient,
	}
}

func NewRetryPolicy(cfg *config.RetryConfig) RetryPolicy {
	p := DefaultRetryPolicy()
	if cfg.MaxAttempts > 0 {
		p.MaxAttempts = cfg.MaxAttempts
	}
	if cfg.BaseDelay > 0 && cfg.MaxDelay > 0 {
		p.Backoff = ExponentialBackoff(cfg.BaseDelay, cfg.MaxDelay)
	}
	return p
}

// ExponentialBackoff doubles base after every attempt, capped at max.
func ExponentialBackoff(base, max time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		d := base
		for i := 1; i < attempt; i++ {
			d *= 2
			if d >= max {
				return max
			}
		}
		return min(d, max)
	}
}

// RetryTransient retries transient upstream failures, except a refusal by an
// open circuit breaker or the caller's own context ending.
func RetryTransient(err error) RetryDecision {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return DoNotRetry
	}
	var gwErr *models.Error
	if !errors.As(err, &gwErr) && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return DoNotRetry
	}
	if models.IsKind(err, models.KindUpstreamTransient) {
		return Retry
	}
	return DoNotRetry
}

// Do calls fn until it succeeds, the error is not retryable, attempts run out
// or ctx is done. It returns the number of attempts made.
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context, attempt int) error) (int, error) {
	for attempt := 1; ; attempt++ {
		err := fn(ctx, attempt)
		if err == nil || attempt >= p.MaxAttempts || p.Classify(err) != Retry {
			return attempt, err
		}

		timer := time.NewTimer(p.Backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return attempt, ctx.Err()
		case <-timer.C:
		}
	}
}
