package llm

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog"
)

// RetryProvider re-sends failed generations with capped exponential
// backoff. A reply that failed schema validation is re-sampled at most
// once; cancellation and truncation are returned immediately.
type RetryProvider struct {
	inner  Provider
	config RetryConfig
	logger zerolog.Logger
}

// WithRetry wraps a Provider with retry logic.
func WithRetry(p Provider, cfg RetryConfig) Provider {
	return withRetryLogger(p, cfg, zerolog.Nop())
}

func withRetryLogger(p Provider, cfg RetryConfig, logger zerolog.Logger) *RetryProvider {
	return &RetryProvider{inner: p, config: cfg, logger: logger}
}

func (r *RetryProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	attempts := max(r.config.MaxAttempts, 1)
	resampled := false

	for attempt := 1; ; attempt++ {
		resp, err := r.inner.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		if attempt == attempts {
			return nil, err
		}

		switch classify(err) {
		case retryNever:
			return nil, err
		case retryOnce:
			if resampled {
				return nil, err
			}
			resampled = true
		}

		wait := r.delay(attempt, err)
		if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < wait {
			// Sleeping would only end in DeadlineExceeded; the provider
			// error says more.
			return nil, err
		}

		r.logger.Debug().
			Err(err).
			Int("attempt", attempt).
			Dur("wait", wait).
			Str("purpose", PurposeFrom(ctx)).
			Str("request_id", RequestIDFrom(ctx)).
			Msg("retrying generation")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func (r *RetryProvider) ModelID() string {
	return r.inner.ModelID()
}

// delay returns how long to wait after the given 1-based attempt failed.
// A provider-supplied Retry-After wins; otherwise the wait grows by
// Multiplier per attempt up to MaxWait, and the upper half is jittered.
func (r *RetryProvider) delay(attempt int, err error) time.Duration {
	if rl, ok := asRateLimit(err); ok && rl.RetryAfter > 0 {
		return rl.RetryAfter
	}

	wait := r.config.InitialWait
	for i := 1; i < attempt; i++ {
		wait = time.Duration(float64(wait) * r.config.Multiplier)
		if r.config.MaxWait > 0 && wait >= r.config.MaxWait {
			break
		}
	}
	if r.config.MaxWait > 0 && wait > r.config.MaxWait {
		wait = r.config.MaxWait
	}
	if wait <= 0 {
		return 0
	}

	half := wait / 2
	return half + rand.N(half+1)
}
