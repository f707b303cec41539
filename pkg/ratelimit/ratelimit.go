// Package ratelimit paces outbound fetches with an optional jitter so
// sequential collaborator calls do not hammer one host at a fixed cadence.
package ratelimit

import (
	"context"
	"math/rand"
	"time"
)

// Limiter spaces operations at a fixed rate with optional jitter. Safe for
// concurrent use.
type Limiter struct {
	ticker   *time.Ticker
	interval time.Duration
	jitter   float64
}

// NewLimiter builds a limiter allowing rps operations per second. jitter is
// clamped into [0, 1] and randomizes each wait by up to that fraction of the
// base interval. A non-positive rps yields a limiter that never blocks.
func NewLimiter(rps, jitter float64) *Limiter {
	if rps <= 0 {
		return &Limiter{}
	}
	if jitter < 0 {
		jitter = 0
	} else if jitter > 1 {
		jitter = 1
	}

	interval := time.Duration(float64(time.Second) / rps)
	return &Limiter{
		ticker:   time.NewTicker(interval),
		interval: interval,
		jitter:   jitter,
	}
}

// Wait blocks until the next slot opens or ctx is canceled.
func (l *Limiter) Wait(ctx context.Context) error {
	if l.ticker == nil {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-l.ticker.C:
	}

	if l.jitter > 0 {
		// Only positive offsets are applied; the ticker already enforces the
		// minimum spacing, so negative jitter means "go now".
		extra := time.Duration(float64(l.interval) * l.jitter * (rand.Float64()*2 - 1))
		if extra > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(extra):
			}
		}
	}
	return nil
}

// Stop releases the limiter's ticker. The limiter must not be used after.
func (l *Limiter) Stop() {
	if l.ticker != nil {
		l.ticker.Stop()
	}
}
