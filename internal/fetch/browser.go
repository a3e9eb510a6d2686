package fetch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// MinContentLength is the minimum extracted text length to consider HTTP fetch successful.
// If content is shorter, the page is rendered in a browser instead.
const MinContentLength = 500

// DefaultBrowserTimeout bounds a single headless render.
const DefaultBrowserTimeout = 30 * time.Second

// RenderFunc renders a URL and returns the resulting HTML.
type RenderFunc func(ctx context.Context, url string, timeout time.Duration) (string, error)

// ShouldUseBrowser returns true if the extracted text is too short,
// indicating the page is likely rendered by JavaScript.
func ShouldUseBrowser(extractedText string) bool {
	return len(strings.TrimSpace(extractedText)) < MinContentLength
}

// WithBrowser renders a page in headless Chrome and returns the rendered HTML.
// Requires Chrome/Chromium to be installed on the system.
func WithBrowser(ctx context.Context, url string, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		timeout = DefaultBrowserTimeout
	}

	allocCtx, cancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.UserAgent(DefaultUserAgent),
		)...,
	)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, timeout)
	defer cancel()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		// campus pages load directory listings after first paint
		chromedp.Sleep(2*time.Second),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", fmt.Errorf("browser rendering failed: %w", err)
	}

	return html, nil
}

// browserFallback renders url when text is too short and returns the better text.
func (f *Fetcher) browserFallback(ctx context.Context, url, text string) (html string, newText string, used bool) {
	if f.render == nil || !ShouldUseBrowser(text) {
		return "", text, false
	}

	f.logger.Debug("rendering page in browser",
		zap.String("url", url),
		zap.Int("text_length", len(text)),
	)

	rendered, err := f.render(ctx, url, f.browserTimeout)
	if err != nil {
		f.logger.Warn("browser fallback failed", zap.String("url", url), zap.Error(err))
		return "", text, false
	}

	renderedText, err := ExtractMainText(rendered, f.selectors)
	if err != nil || len(renderedText) <= len(text) {
		return "", text, false
	}
	return rendered, renderedText, true
}
