package search

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/calpoly-csai/nimbus-transformer/internal/fetch"
	"github.com/calpoly-csai/nimbus-transformer/internal/query"
	"github.com/calpoly-csai/nimbus-transformer/internal/types"
)

// DefaultPause is the wait between consecutive result pages.
const DefaultPause = 2 * time.Second

// DefaultResults is the number of result URLs requested by default.
const DefaultResults = 5

// pageSize is how far the start parameter advances per result page.
const pageSize = 10

// Config configures a Searcher.
type Config struct {
	BaseURL string
	Pause   time.Duration
	Options *fetch.Options
}

// Searcher collects result URLs for a query.
type Searcher struct {
	baseURL string
	pause   time.Duration
	options *fetch.Options
	logger  *zap.Logger
}

// New creates a Searcher. Zero Config fields take their defaults; a negative
// Pause disables pausing.
func New(config Config, logger *zap.Logger) *Searcher {
	if config.BaseURL == "" {
		config.BaseURL = query.DefaultSearchBaseURL
	}
	if config.Pause == 0 {
		config.Pause = DefaultPause
	}
	if config.Options == nil {
		config.Options = fetch.DefaultOptions()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Searcher{
		baseURL: config.BaseURL,
		pause:   config.Pause,
		options: config.Options,
		logger:  logger,
	}
}

// Search returns up to limit result URLs for q, following result pages until
// enough URLs are collected or a page adds nothing new. limit <= 0 reads a
// single page. URLs collected before a failing page are returned with the error.
func (s *Searcher) Search(ctx context.Context, q types.Query, limit int) ([]types.URL, error) {
	sanitized := query.Sanitize(q)
	seen := make(map[types.URL]bool)
	urls := make([]types.URL, 0)

	for start := 0; ; start += pageSize {
		pageURL := query.SearchURL(s.baseURL, sanitized, start)
		s.logger.Debug("fetching result page", zap.String("url", string(pageURL)))

		result, err := fetch.URL(ctx, string(pageURL), s.options)
		if err != nil {
			return urls, &Error{Query: string(q), Message: "failed to fetch result page", Cause: err}
		}

		links, err := ExtractResultLinks(result.HTML, string(pageURL))
		if err != nil {
			return urls, &Error{Query: string(q), Message: "failed to parse result page", Cause: err}
		}

		added := 0
		for _, link := range links {
			if seen[link] {
				continue
			}
			seen[link] = true
			urls = append(urls, link)
			added++
			if limit > 0 && len(urls) >= limit {
				break
			}
		}

		s.logger.Debug("result page parsed",
			zap.Int("start", start),
			zap.Int("links", len(links)),
			zap.Int("new", added),
		)

		if limit <= 0 || len(urls) >= limit || added == 0 {
			return urls, nil
		}

		if err := s.wait(ctx); err != nil {
			return urls, err
		}
	}
}

func (s *Searcher) wait(ctx context.Context) error {
	if s.pause <= 0 {
		return nil
	}
	timer := time.NewTimer(s.pause)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
