package llm

import (
	"context"
	"errors"
	"math"
	"time"

	"resume-tailor/internal/shared/metrics"
	"resume-tailor/internal/shared/telemetry"
)

// RetryPolicy is an exponential backoff applied only to ErrRateLimited.
// The wait before retry n (1-based) is Multiplier * 2^(n-1) seconds, clamped to [Min, Max].
type RetryPolicy struct {
	Attempts   int
	Multiplier float64
	Min        time.Duration
	Max        time.Duration
}

// DefaultRetryPolicy allows five attempts waiting 4s, 4s, 8s and 16s between them.
var DefaultRetryPolicy = RetryPolicy{
	Attempts:   5,
	Multiplier: 2,
	Min:        4 * time.Second,
	Max:        60 * time.Second,
}

// Wait returns the pause after the given failed attempt (1-based).
func (p RetryPolicy) Wait(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	seconds := p.Multiplier * math.Pow(2, float64(attempt-1))
	wait := time.Duration(seconds * float64(time.Second))
	if wait < p.Min {
		wait = p.Min
	}
	if p.Max > 0 && wait > p.Max {
		wait = p.Max
	}
	return wait
}

type retryingGateway struct {
	base   Gateway
	policy RetryPolicy
	sleep  func(ctx context.Context, d time.Duration) error
}

// WithRateLimitRetry wraps base so rate-limited calls are retried per policy.
// Any other error is returned immediately. When attempts run out the last
// ErrRateLimited error is returned.
func WithRateLimitRetry(base Gateway, policy RetryPolicy) Gateway {
	if base == nil {
		return nil
	}
	if policy.Attempts < 1 {
		policy.Attempts = 1
	}
	return retryingGateway{base: base, policy: policy, sleep: sleepContext}
}

func (r retryingGateway) Send(ctx context.Context, req Request) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= r.policy.Attempts; attempt++ {
		reply, err := r.base.Send(ctx, req)
		if err == nil {
			return reply, nil
		}
		if !errors.Is(err, ErrRateLimited) {
			return "", err
		}
		lastErr = err
		if attempt == r.policy.Attempts {
			break
		}

		wait := r.policy.Wait(attempt)
		metrics.IncLLMRateLimitRetry()
		telemetry.Info("llm.rate_limited.retry", map[string]any{
			"provider": req.Provider,
			"model":    req.Model,
			"attempt":  attempt,
			"wait_ms":  wait.Milliseconds(),
		})
		if err := r.sleep(ctx, wait); err != nil {
			return "", err
		}
	}
	telemetry.Warn("llm.rate_limited.exhausted", map[string]any{
		"provider": req.Provider,
		"model":    req.Model,
		"attempts": r.policy.Attempts,
		"error":    lastErr,
	})
	return "", lastErr
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
