package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/calpoly-csai/nimbus-transformer/internal/cache"
	"github.com/calpoly-csai/nimbus-transformer/internal/history"
	"github.com/calpoly-csai/nimbus-transformer/internal/types"
)

// lookupCache returns a cached result or nil. Cache errors are logged.
func (p *Pipeline) lookupCache(ctx context.Context, question types.Question) *types.Result {
	if p.cache == nil {
		return nil
	}
	result, err := p.cache.Get(ctx, question, p.cacheScope())
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			p.logger.Warn("answer cache lookup failed", zap.Error(err))
		}
		return nil
	}
	p.metrics.CacheHit()
	return result
}

// cacheScope fingerprints the settings that shape a web answer: the search
// site, how many pages are read, and how the context is built from them.
func (p *Pipeline) cacheScope() string {
	r := p.opts.Relevance
	return fmt.Sprintf("site=%s results=%d sections=%t section_limit=%d min_length=%d fuzz=%d limit=%d",
		strings.ToLower(strings.TrimSpace(p.opts.Site)), p.opts.Results,
		p.opts.Sections, p.opts.SectionLimit, r.MinLength, r.FuzzThreshold, r.Limit)
}

// finish stores, caches and records a fresh result. Every sink is
// best-effort: failures are logged and the result is still returned.
func (p *Pipeline) finish(ctx context.Context, result *types.Result, log *zap.Logger) {
	if p.store != nil {
		p.emitProgress(StageStore, "storing answer", nil)
		id, err := p.store.SaveAnswer(ctx, result)
		if err != nil {
			log.Warn("failed to store answer", zap.Error(err))
		} else {
			result.ID = id.String()
		}
	}

	if p.cache != nil && result.Found() {
		if err := p.cache.Set(ctx, p.cacheScope(), result); err != nil {
			log.Warn("failed to cache answer", zap.Error(err))
		}
	}

	p.appendHistory(result, log)
}

func (p *Pipeline) appendHistory(result *types.Result, log *zap.Logger) {
	if p.opts.History == "" {
		return
	}
	if err := history.Append(p.opts.History, history.NewRecord(result, p.now())); err != nil {
		log.Warn("failed to append history", zap.String("path", p.opts.History), zap.Error(err))
	}
}

func hashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func urlStrings(urls []types.URL) []string {
	out := make([]string, len(urls))
	for i, u := range urls {
		out[i] = string(u)
	}
	return out
}
