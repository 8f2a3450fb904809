package backoff // import "divergent/wxpatch/pkg/backoff"

import (
	"context"
	"time"
)

// Backoff paces repeated attempts against a service that may still be
// redeploying. The delay doubles on every failure and stays clamped at
// max; deciding when to stop is the caller's context's job.
type Backoff struct {
	n            int
	currentDelay time.Duration
	minDelay     time.Duration
	maxDelay     time.Duration
	factor       time.Duration
}

func New(minDelay, maxDelay time.Duration) *Backoff {
	return &Backoff{
		currentDelay: minDelay,
		minDelay:     minDelay,
		maxDelay:     maxDelay,
		factor:       2,
	}
}

// Sleep waits for the current delay. The first attempt never waits.
// Returns the context error when the caller was cancelled mid-wait.
func (b *Backoff) Sleep(ctx context.Context) error {
	if b.n == 0 {
		b.n += 1
		return nil
	}
	b.n += 1
	select {
	case <-time.After(b.currentDelay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Failure grows the delay before the next Sleep, up to the maximum.
func (b *Backoff) Failure() {
	b.currentDelay = min(b.maxDelay, b.currentDelay*b.factor)
}

// Reset drops back to the minimum delay.
func (b *Backoff) Reset() {
	b.n = 0
	b.currentDelay = b.minDelay
}

// Attempts made so far.
func (b *Backoff) Attempts() int {
	return b.n
}
