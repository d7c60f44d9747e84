package llm

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TimeoutProvider bounds a whole generation, retries included, by a single
// deadline. It also stamps a request id so retried attempts share it.
type TimeoutProvider struct {
	inner   Provider
	timeout time.Duration
}

// WithTimeout wraps a Provider with an overall deadline. A non-positive
// timeout disables the deadline but still assigns request ids.
func WithTimeout(p Provider, timeout time.Duration) Provider {
	return &TimeoutProvider{inner: p, timeout: timeout}
}

func (t *TimeoutProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	if RequestIDFrom(ctx) == "" {
		ctx = WithRequestID(ctx, uuid.NewString())
	}
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}
	return t.inner.Generate(ctx, req)
}

func (t *TimeoutProvider) ModelID() string {
	return t.inner.ModelID()
}
