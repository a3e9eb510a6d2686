package ratelimit

import (
	"sync"
	"time"
)

// bucket is a token bucket: up to capacity requests at once, refilled at
// rate tokens per second.
type bucket struct {
	mu         sync.Mutex
	capacity   float64
	rate       float64
	tokens     float64
	lastRefill time.Time
}

func newBucket(capacity int, rate float64, now time.Time) *bucket {
	return &bucket{
		capacity:   float64(capacity),
		rate:       rate,
		tokens:     float64(capacity),
		lastRefill: now,
	}
}

// refill must be called with mu held.
func (b *bucket) refill(now time.Time) {
	if elapsed := now.Sub(b.lastRefill).Seconds(); elapsed > 0 {
		b.tokens = min(b.capacity, b.tokens+elapsed*b.rate)
	}
	b.lastRefill = now
}

// take consumes a token when one is available. It reports whether the
// request is allowed, the whole tokens left and how long until the next token.
func (b *bucket) take(now time.Time) (allowed bool, remaining int, wait time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill(now)
	if b.tokens >= 1 {
		b.tokens--
		return true, int(b.tokens), 0
	}

	missing := 1 - b.tokens
	wait = time.Duration(missing / b.rate * float64(time.Second))
	return false, 0, wait
}
