package genai

import (
	"context"
	"math"
	"math/rand/v2"
	"time"
)

// Backoff computes the delay before retry attempt n (1-indexed).
type Backoff interface {
	Delay(attempt int) time.Duration
}

// ExponentialJitter applies full jitter to an exponential base:
// a random value in [0, min(Initial * 2^(attempt-1), Max)].
type ExponentialJitter struct {
	Initial time.Duration
	Max     time.Duration
}

func (e ExponentialJitter) Delay(attempt int) time.Duration {
	base := float64(e.Initial) * math.Pow(2, float64(attempt-1))
	if e.Max > 0 && base > float64(e.Max) {
		base = float64(e.Max)
	}
	return time.Duration(rand.Float64() * base) //nolint:gosec
}

// NoBackoff retries immediately.
type NoBackoff struct{}

func (NoBackoff) Delay(int) time.Duration { return 0 }

// DefaultBackoff is 2s initial, 30s max.
func DefaultBackoff() Backoff {
	return ExponentialJitter{Initial: 2 * time.Second, Max: 30 * time.Second}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
