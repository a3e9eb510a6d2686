package ratelimit

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestLimiter(config *Config) (*Limiter, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := NewLimiter(config)
	l.now = clock.Now
	return l, clock
}

func TestBucket_Take(t *testing.T) {
	start := time.Now()
	b := newBucket(3, 1, start)

	for i := 0; i < 3; i++ {
		allowed, remaining, _ := b.take(start)
		require.True(t, allowed, "request %d", i+1)
		assert.Equal(t, 2-i, remaining)
	}

	allowed, _, wait := b.take(start)
	assert.False(t, allowed)
	assert.Equal(t, time.Second, wait)

	allowed, _, _ = b.take(start.Add(1100 * time.Millisecond))
	assert.True(t, allowed)
}

func TestBucket_RefillCapped(t *testing.T) {
	start := time.Now()
	b := newBucket(2, 10, start)
	b.take(start)

	_, remaining, _ := b.take(start.Add(time.Hour))
	assert.Equal(t, 1, remaining)
}

func TestConfig_Match(t *testing.T) {
	cfg := DefaultConfig(1, 5)

	tests := []struct {
		method, path string
		want         string
	}{
		{"POST", "/ask", "/ask"},
		{"GET", "/ask", ""},
		{"POST", "/answers/123/feedback", "/answers/"},
		{"GET", "/health", ""},
		{"GET", "/metrics", ""},
		{"POST", "/other", ""},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rule := cfg.Match(tt.method, tt.path)
			if tt.want == "" {
				assert.Nil(t, rule)
				return
			}
			require.NotNil(t, rule)
			assert.Equal(t, tt.want, rule.Path)
		})
	}
}

func TestLimiter_Allow(t *testing.T) {
	l, clock := newTestLimiter(DefaultConfig(1, 2))

	allowed, info := l.Allow("10.0.0.1", "POST", "/ask")
	assert.True(t, allowed)
	assert.Equal(t, 2, info.Limit)
	assert.Equal(t, 1, info.Remaining)

	allowed, _ = l.Allow("10.0.0.1", "POST", "/ask")
	assert.True(t, allowed)

	allowed, info = l.Allow("10.0.0.1", "POST", "/ask")
	assert.False(t, allowed)
	assert.Equal(t, time.Second, info.RetryAfter)

	// Other clients have their own bucket.
	allowed, _ = l.Allow("10.0.0.2", "POST", "/ask")
	assert.True(t, allowed)

	clock.Advance(time.Second)
	allowed, _ = l.Allow("10.0.0.1", "POST", "/ask")
	assert.True(t, allowed)
}

func TestLimiter_UnlimitedPaths(t *testing.T) {
	l, _ := newTestLimiter(DefaultConfig(1, 1))

	for i := 0; i < 20; i++ {
		allowed, _ := l.Allow("10.0.0.1", "GET", "/health")
		require.True(t, allowed)
	}
}

func TestLimiter_Disabled(t *testing.T) {
	for _, cfg := range []*Config{nil, DefaultConfig(0, 5)} {
		l, _ := newTestLimiter(cfg)
		for i := 0; i < 20; i++ {
			allowed, _ := l.Allow("10.0.0.1", "POST", "/ask")
			require.True(t, allowed)
		}
	}
}

func TestLimiter_FeedbackSeparateFromAsk(t *testing.T) {
	l, _ := newTestLimiter(DefaultConfig(1, 1))

	allowed, _ := l.Allow("10.0.0.1", "POST", "/ask")
	require.True(t, allowed)
	allowed, _ = l.Allow("10.0.0.1", "POST", "/ask")
	require.False(t, allowed)

	allowed, _ = l.Allow("10.0.0.1", "POST", "/answers/a/feedback")
	assert.True(t, allowed)
	// Feedback on different answers shares one bucket.
	allowed, info := l.Allow("10.0.0.1", "POST", "/answers/b/feedback")
	assert.True(t, allowed)
	assert.Equal(t, 10, info.Limit)
}

func TestLimiter_Concurrent(t *testing.T) {
	l, _ := newTestLimiter(DefaultConfig(1, 50))

	var allowed atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := l.Allow("10.0.0.1", "POST", "/ask"); ok {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(50), allowed.Load())
}
