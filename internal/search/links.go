package search

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/calpoly-csai/nimbus-transformer/internal/types"
)

// ExtractResultLinks returns the organic result links of a search result page,
// in page order and without duplicates. Redirect links of the form
// /url?q=<target> are unwrapped. Links back to the search engine itself are dropped.
func ExtractResultLinks(htmlContent string, pageURL string) ([]types.URL, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, &LinkExtractionError{
			Message: "failed to parse page URL",
			Cause:   err,
		}
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, &LinkExtractionError{
			Message: fmt.Sprintf("invalid page URL: %s (must have scheme and host)", pageURL),
		}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, &LinkExtractionError{
			Message: "failed to parse HTML",
			Cause:   err,
		}
	}

	seen := make(map[string]bool)
	links := make([]types.URL, 0)

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		target, ok := resolveResultLink(base, strings.TrimSpace(href))
		if !ok {
			return
		}

		if !seen[target] {
			seen[target] = true
			links = append(links, types.URL(target))
		}
	})

	return links, nil
}

// resolveResultLink turns an href into an absolute result URL, or reports false
// when the link is navigation, a redirect to nowhere, or points at the search engine.
func resolveResultLink(base *url.URL, href string) (string, bool) {
	if href == "" || strings.HasPrefix(href, "#") {
		return "", false
	}

	linkURL, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	absolute := base.ResolveReference(linkURL)

	if absolute.Host == base.Host && absolute.Path == "/url" {
		redirect := absolute.Query()
		target := redirect.Get("q")
		if target == "" {
			target = redirect.Get("url")
		}
		if absolute, err = url.Parse(target); err != nil {
			return "", false
		}
	}

	if absolute.Scheme != "http" && absolute.Scheme != "https" {
		return "", false
	}
	if absolute.Host == "" || absolute.Host == base.Host || isGoogleHost(absolute.Hostname()) {
		return "", false
	}

	absolute.Fragment = ""
	return absolute.String(), true
}

var googleHostSuffixes = []string{
	".google.com",
	".googleusercontent.com",
	".gstatic.com",
	".googleapis.com",
}

func isGoogleHost(host string) bool {
	host = strings.ToLower(host)
	if strings.HasPrefix(host, "google.") || strings.Contains(host, ".google.") {
		return true
	}
	for _, suffix := range googleHostSuffixes {
		if strings.HasSuffix("."+host, suffix) {
			return true
		}
	}
	return false
}
