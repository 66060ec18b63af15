// internal/httpclient/ratelimit.go
package httpclient

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter paces outbound requests for one remote endpoint. With a burst of
// one, consecutive grants are spaced at least 1/rps apart, which is the
// ceiling the marketplace and accounting APIs enforce per client.
//
// A single Limiter instance is shared by all concurrent callers of the
// client that owns it.
type Limiter struct {
	limiter *rate.Limiter
}

// NewLimiter creates a limiter allowing rps requests per second.
// Non-positive rates fall back to one request per second.
func NewLimiter(rps float64) *Limiter {
	if rps <= 0 {
		rps = 1
	}
	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// Acquire blocks until issuing the next request would not exceed the
// configured rate, or until ctx is cancelled. Waiters are served roughly
// in arrival order; no stronger fairness is guaranteed.
func (l *Limiter) Acquire(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}
