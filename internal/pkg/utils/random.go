package utils

import (
	"context"
	"math/rand/v2"
	"time"
)

// Random is the source of randomized multipliers and pauses. Tests replace
// it with a fixed value.
type Random interface {
	Float64() float64
}

type defaultRandom struct{}

func (defaultRandom) Float64() float64 { return rand.Float64() }

// DefaultRandom uses math/rand/v2's global generator.
var DefaultRandom Random = defaultRandom{} //nolint:gochecknoglobals

// Uniform returns a value in [lo, hi).
func Uniform(r Random, lo, hi float64) float64 {
	if r == nil {
		r = DefaultRandom
	}
	if hi <= lo {
		return lo
	}
	return lo + r.Float64()*(hi-lo)
}

// UniformDuration returns a random duration between lo and hi seconds.
func UniformDuration(r Random, lo, hi float64) time.Duration {
	return time.Duration(Uniform(r, lo, hi) * float64(time.Second))
}

// Sleep waits d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
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
