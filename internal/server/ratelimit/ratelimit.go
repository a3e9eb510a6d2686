// Package ratelimit limits requests per client and endpoint with token buckets.
package ratelimit

import (
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

// idleBucketTTL is how long an unused bucket is kept.
const idleBucketTTL = time.Hour

// Rule limits one endpoint. Path ending in "/" matches by prefix.
type Rule struct {
	Method string
	Path   string
	// Rate is the sustained number of requests per second.
	Rate float64
	// Burst is the number of requests allowed at once.
	Burst int
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled bool
	Rules   []Rule
	// Unlimited lists paths that are never limited.
	Unlimited []string
}

// DefaultConfig limits question answering to rate requests per second with
// the given burst, and feedback to ten times that.
func DefaultConfig(rate float64, burst int) *Config {
	return &Config{
		Enabled: rate > 0,
		Rules: []Rule{
			{Method: "POST", Path: "/ask", Rate: rate, Burst: burst},
			{Method: "POST", Path: "/answers/", Rate: rate * 10, Burst: burst * 10},
		},
		Unlimited: []string{"/health", "/metrics"},
	}
}

// Info contains information about rate limit status.
type Info struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Limiter manages one bucket per client and rule.
type Limiter struct {
	config  *Config
	buckets *cache.Cache
	now     func() time.Time
}

// NewLimiter creates a new rate limiter with the given configuration.
// A nil config disables limiting.
func NewLimiter(config *Config) *Limiter {
	if config == nil {
		config = &Config{}
	}
	return &Limiter{
		config:  config,
		buckets: cache.New(idleBucketTTL, 10*time.Minute),
		now:     time.Now,
	}
}

// Match returns the rule for a request, or nil when it is not limited.
func (c *Config) Match(method, path string) *Rule {
	for _, p := range c.Unlimited {
		if p == path {
			return nil
		}
	}
	for i := range c.Rules {
		r := &c.Rules[i]
		if r.Method != method {
			continue
		}
		if r.Path == path || (strings.HasSuffix(r.Path, "/") && strings.HasPrefix(path, r.Path)) {
			return r
		}
	}
	return nil
}

// Allow checks whether clientID may call method on path.
func (l *Limiter) Allow(clientID, method, path string) (bool, Info) {
	if !l.config.Enabled {
		return true, Info{Allowed: true}
	}
	rule := l.config.Match(method, path)
	if rule == nil || rule.Rate <= 0 {
		return true, Info{Allowed: true}
	}

	burst := max(rule.Burst, 1)
	key := clientID + " " + rule.Method + " " + rule.Path
	now := l.now()

	var b *bucket
	if v, ok := l.buckets.Get(key); ok {
		b = v.(*bucket)
	} else {
		b = newBucket(burst, rule.Rate, now)
		if err := l.buckets.Add(key, b, cache.DefaultExpiration); err != nil {
			// Another request created it first.
			if v, ok := l.buckets.Get(key); ok {
				b = v.(*bucket)
			}
		}
	}
	// Refresh the idle timeout.
	l.buckets.SetDefault(key, b)

	allowed, remaining, wait := b.take(now)
	return allowed, Info{
		Allowed:    allowed,
		Limit:      burst,
		Remaining:  remaining,
		RetryAfter: wait,
	}
}
