package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/temoto/robotstxt"
)

// RobotsAgent is the agent name matched against robots.txt groups.
const RobotsAgent = "NimbusTransformer"

// DefaultRobotsTTL is how long a host's robots.txt is remembered.
const DefaultRobotsTTL = 1 * time.Hour

// FailedRobotsTTL is how long a host whose robots.txt could not be
// retrieved is treated as allow-all before it is tried again.
const FailedRobotsTTL = 5 * time.Minute

// allowAll stands in for the robots.txt of an unreachable host.
var allowAll, _ = robotstxt.FromStatusAndBytes(http.StatusNotFound, nil)

// Robots checks URLs against their host's robots.txt.
// Parsed files are cached per host.
type Robots struct {
	client    *http.Client
	userAgent string
	cache     *cache.Cache
}

// NewRobots creates a robots.txt checker. A nil client uses a client with DefaultTimeout.
func NewRobots(client *http.Client, ttl time.Duration) *Robots {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	if ttl <= 0 {
		ttl = DefaultRobotsTTL
	}
	return &Robots{
		client:    client,
		userAgent: DefaultUserAgent,
		cache:     cache.New(ttl, 10*time.Minute),
	}
}

// Allowed reports whether RobotsAgent may fetch rawURL.
// A robots.txt that cannot be retrieved allows everything; the failure is
// returned once and then remembered for FailedRobotsTTL.
func (r *Robots) Allowed(ctx context.Context, rawURL string) (bool, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return false, &Error{URL: rawURL, Message: "invalid URL", Cause: err}
	}

	origin := u.Scheme + "://" + u.Host
	data, err := r.load(ctx, origin)
	if err != nil {
		return true, err
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return data.FindGroup(RobotsAgent).Test(path), nil
}

func (r *Robots) load(ctx context.Context, origin string) (*robotstxt.RobotsData, error) {
	if x, found := r.cache.Get(origin); found {
		return x.(*robotstxt.RobotsData), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin+"/robots.txt", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create robots.txt request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		if ctx.Err() == nil {
			r.cache.Set(origin, allowAll, FailedRobotsTTL)
		}
		return nil, fmt.Errorf("failed to fetch robots.txt: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// FromResponse treats 4xx as allow-all and 5xx as disallow-all.
	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to parse robots.txt: %w", err)
	}

	r.cache.Set(origin, data, cache.DefaultExpiration)
	return data, nil
}
