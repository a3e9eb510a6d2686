package fetch

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// DefaultPageCacheTTL is how long a stored page is served without refetching.
const DefaultPageCacheTTL = 24 * time.Hour

// PageStore persists fetched pages.
// GetFreshPage returns nil, nil when no page younger than ttl exists.
type PageStore interface {
	GetFreshPage(ctx context.Context, url string, ttl time.Duration) (*Result, error)
	SavePage(ctx context.Context, page *Result) error
}

// CachedFetcher wraps a PageFetcher with a PageStore cache.
// Store errors are logged and never fail a fetch.
type CachedFetcher struct {
	next     PageFetcher
	store    PageStore
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewCachedFetcher creates a cached fetcher. A nil store passes every call through.
func NewCachedFetcher(next PageFetcher, store PageStore, cacheTTL time.Duration, logger *zap.Logger) *CachedFetcher {
	if cacheTTL <= 0 {
		cacheTTL = DefaultPageCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedFetcher{
		next:     next,
		store:    store,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// Fetch returns a stored page within the TTL, otherwise fetches and stores it.
func (f *CachedFetcher) Fetch(ctx context.Context, url string) (*Result, error) {
	if f.store != nil {
		cached, err := f.store.GetFreshPage(ctx, url, f.cacheTTL)
		if err != nil {
			f.logger.Warn("page cache lookup failed", zap.String("url", url), zap.Error(err))
		} else if cached != nil {
			cached.FromCache = true
			return cached, nil
		}
	}

	result, err := f.next.Fetch(ctx, url)
	if err != nil {
		return result, err
	}

	if f.store != nil {
		if err := f.store.SavePage(ctx, result); err != nil {
			f.logger.Warn("page cache store failed", zap.String("url", url), zap.Error(err))
		}
	}
	return result, nil
}
