// Package delay holds the cooperative waits used between rate-limited requests.
package delay

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep is the default Sleeper.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Jitter picks uniformly random durations in [lo, hi).
type Jitter struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewJitter seeds a generator; use a fixed seed in tests.
func NewJitter(seed int64) *Jitter {
	return &Jitter{rng: rand.New(rand.NewSource(seed))}
}

// Between returns a random duration in [lo, hi). It returns lo when the
// range is empty.
func (j *Jitter) Between(lo, hi time.Duration) time.Duration {
	if lo >= hi {
		return lo
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	return lo + time.Duration(j.rng.Int63n(int64(hi-lo)))
}
