package fetch

import (
	"context"

	"golang.org/x/time/rate"
)

// newLimiter builds a token-bucket rate limiter for a fetcher's configured
// requests-per-second, with a burst of 1, enforcing the configured
// per-source rate limit.
func newLimiter(perSec float64) *rate.Limiter {
	if perSec <= 0 {
		perSec = 1
	}
	return rate.NewLimiter(rate.Limit(perSec), 1)
}

// wait blocks until the limiter admits one request or ctx is cancelled.
func wait(ctx context.Context, l *rate.Limiter) error {
	return l.Wait(ctx)
}
