package fetch

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of pages fetched in parallel by FetchAll.
const DefaultConcurrency = 4

// PageFetcher retrieves a page and its extracted text.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*Result, error)
}

// FetcherConfig configures a Fetcher.
type FetcherConfig struct {
	Options        *Options
	Selectors      []string
	RespectRobots  bool
	UseBrowser     bool
	BrowserTimeout time.Duration
}

// DefaultFetcherConfig returns the configuration used for campus result pages.
func DefaultFetcherConfig() *FetcherConfig {
	return &FetcherConfig{
		Options:        DefaultOptions(),
		Selectors:      CampusPageSelectors(),
		RespectRobots:  true,
		BrowserTimeout: DefaultBrowserTimeout,
	}
}

// Fetcher downloads pages and turns them into text.
// HTML goes through ExtractMainText, PDFs through PDFText.
type Fetcher struct {
	options        *Options
	selectors      []string
	robots         *Robots
	render         RenderFunc
	browserTimeout time.Duration
	logger         *zap.Logger
}

// NewFetcher creates a Fetcher. A nil logger disables logging.
func NewFetcher(config *FetcherConfig, logger *zap.Logger) *Fetcher {
	if config == nil {
		config = DefaultFetcherConfig()
	}
	if config.Options == nil {
		config.Options = DefaultOptions()
	}
	if len(config.Selectors) == 0 {
		config.Selectors = CampusPageSelectors()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	f := &Fetcher{
		options:        config.Options,
		selectors:      config.Selectors,
		browserTimeout: config.BrowserTimeout,
		logger:         logger,
	}
	if config.RespectRobots {
		f.robots = NewRobots(config.Options.httpClient(), DefaultRobotsTTL)
	}
	if config.UseBrowser {
		f.render = WithBrowser
	}
	return f
}

// WithRenderer replaces the browser renderer. Passing nil disables the fallback.
func (f *Fetcher) WithRenderer(render RenderFunc) *Fetcher {
	f.render = render
	return f
}

// Fetch retrieves url and fills Result.Text.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Result, error) {
	if f.robots != nil {
		allowed, err := f.robots.Allowed(ctx, url)
		if err != nil {
			if !allowed {
				return nil, err
			}
			f.logger.Debug("robots.txt unavailable", zap.String("url", url), zap.Error(err))
		}
		if !allowed {
			return nil, &Error{URL: url, Message: "disallowed by robots.txt"}
		}
	}

	result, err := URL(ctx, url, f.options)
	if err != nil {
		return result, err
	}

	if IsPDF(result.ContentType, url) {
		text, err := PDFText([]byte(result.HTML))
		if err != nil {
			return result, &Error{URL: url, Message: "failed to extract PDF text", Cause: err}
		}
		result.HTML = ""
		result.Text = text
		return result, nil
	}

	text, err := ExtractMainText(result.HTML, f.selectors)
	if err != nil {
		return result, &Error{URL: url, Message: "failed to extract text", Cause: err}
	}

	if html, rendered, used := f.browserFallback(ctx, url, text); used {
		result.HTML = html
		text = rendered
	}
	result.Text = text

	f.logger.Debug("fetched page",
		zap.String("url", url),
		zap.Int("status", result.StatusCode),
		zap.Int("text_length", len(result.Text)),
	)
	return result, nil
}

// Outcome is the result of fetching one URL in FetchAll.
type Outcome struct {
	URL    string
	Result *Result
	Err    error
}

// FetchAll fetches urls with at most concurrency requests in flight.
// Outcomes keep the input order. Individual failures are recorded in
// Outcome.Err; the returned error is only set when ctx is done.
func FetchAll(ctx context.Context, fetcher PageFetcher, urls []string, concurrency int) ([]Outcome, error) {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	outcomes := make([]Outcome, len(urls))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, u := range urls {
		g.Go(func() error {
			result, err := fetcher.Fetch(gctx, u)
			outcomes[i] = Outcome{URL: u, Result: result, Err: err}
			return nil
		})
	}

	_ = g.Wait()
	return outcomes, ctx.Err()
}
