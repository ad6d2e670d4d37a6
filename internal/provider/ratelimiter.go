package provider

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// callLimiter paces outbound calls to an upstream API: one call per
// interval on average, with an initial burst.
type callLimiter struct {
	limiter *rate.Limiter
}

func newCallLimiter(burst int, every time.Duration) *callLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &callLimiter{limiter: rate.NewLimiter(rate.Every(every), burst)}
}

// Wait blocks until a call is allowed or ctx is done. It fails fast when
// the deadline cannot be met.
func (l *callLimiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}
