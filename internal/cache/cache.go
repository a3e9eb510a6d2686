// Package cache stores answered questions in Redis so repeated questions
// skip search, fetch and the QA model.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/calpoly-csai/nimbus-transformer/internal/types"
)

// KeyPrefix namespaces answer keys.
const KeyPrefix = "nimbus:answer:"

// DefaultTTL is how long a cached answer stays valid.
const DefaultTTL = 6 * time.Hour

// ErrMiss is returned by Get when no answer is cached for the question.
var ErrMiss = errors.New("cache miss")

// Options configures the Redis connection.
type Options struct {
	Address  string        `mapstructure:"address"`
	Password string        `mapstructure:"password" json:"-"`
	DB       int           `mapstructure:"db" validate:"gte=0"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// AnswerCache is a Redis backed cache of Results keyed by question.
type AnswerCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New creates an AnswerCache connected to opts.Address.
func New(opts Options) *AnswerCache {
	rdb := redis.NewClient(&redis.Options{
		Addr:         opts.Address,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	return NewWithClient(rdb, opts.TTL)
}

// NewWithClient wraps an existing client. A ttl <= 0 uses DefaultTTL.
func NewWithClient(client *redis.Client, ttl time.Duration) *AnswerCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &AnswerCache{client: client, ttl: ttl}
}

// Key returns the Redis key for question asked under scope. Questions that
// differ only in case or surrounding whitespace share a key; a different
// scope, such as another site or context mode, never does.
func Key(question types.Question, scope string) string {
	normalized := strings.ToLower(strings.TrimSpace(string(question)))
	sum := sha256.Sum256([]byte(normalized + "\x00" + scope))
	return KeyPrefix + hex.EncodeToString(sum[:])
}

// Ping tests the Redis connection
func (c *AnswerCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Get returns the cached result for question under scope, or ErrMiss.
func (c *AnswerCache) Get(ctx context.Context, question types.Question, scope string) (*types.Result, error) {
	data, err := c.client.Get(ctx, Key(question, scope)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("failed to get cached answer: %w", err)
	}

	var result types.Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode cached answer: %w", err)
	}
	result.Cached = true
	return &result, nil
}

// Set caches result under its question and scope.
func (c *AnswerCache) Set(ctx context.Context, scope string, result *types.Result) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode answer: %w", err)
	}
	if err := c.client.Set(ctx, Key(result.Question, scope), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache answer: %w", err)
	}
	return nil
}

// Delete removes the cached answer for question under scope.
func (c *AnswerCache) Delete(ctx context.Context, question types.Question, scope string) error {
	return c.client.Del(ctx, Key(question, scope)).Err()
}

// Close closes the Redis connection
func (c *AnswerCache) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}
