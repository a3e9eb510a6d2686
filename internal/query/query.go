// Package query builds search queries from questions.
//
// A query can become quite advanced (https://www.google.com/advanced_search). Here we
// only use the site: operator to limit results to a single domain.
package query

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/calpoly-csai/nimbus-transformer/internal/types"
)

// DefaultSite is the domain every query is scoped to unless configured otherwise.
const DefaultSite = "calpoly.edu"

// DefaultSearchBaseURL is the Google search endpoint; the sanitized query is appended to it.
const DefaultSearchBaseURL = "https://www.google.com/search"

// Create builds a Query from a Question by appending a site: scope.
// An empty site leaves the question unscoped.
func Create(question types.Question, site string) types.Query {
	q := strings.TrimSpace(string(question))
	site = strings.TrimSpace(site)
	if site == "" {
		return types.Query(q)
	}
	return types.Query(fmt.Sprintf("%s site:%s", q, site))
}

// Sanitize escapes a Query for use as an HTTP GET parameter.
// Spaces become "+" and everything outside [A-Za-z0-9_.~-] is percent-encoded.
func Sanitize(q types.Query) types.SanitizedQuery {
	return types.SanitizedQuery(url.QueryEscape(string(q)))
}

// SearchURL returns the result page URL for a sanitized query.
// start is the zero-based offset of the first result; 0 omits the parameter.
func SearchURL(baseURL string, sanitized types.SanitizedQuery, start int) types.URL {
	if baseURL == "" {
		baseURL = DefaultSearchBaseURL
	}
	u := fmt.Sprintf("%s?q=%s", baseURL, sanitized)
	if start > 0 {
		u = fmt.Sprintf("%s&start=%d", u, start)
	}
	return types.URL(u)
}
