// Package permit decides whether a catalogued URL may be fetched for content
// analysis.
package permit

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"

	"github.com/FranksOps/magpie/internal/fetch"
	"github.com/temoto/robotstxt"
)

// Checker reports whether a URL may be analyzed. Implementations must be
// conservative about errors in only one direction: a malformed URL is denied,
// an unreachable robots.txt is allowed (fail open, matching common crawler
// practice).
type Checker interface {
	Allowed(ctx context.Context, rawURL string) bool
}

// AllowAll permits every URL. Useful for corpora already cleared for
// analysis, and in tests.
type AllowAll struct{}

func (AllowAll) Allowed(context.Context, string) bool { return true }

// Robots checks robots.txt per host, caching parsed rule sets for the
// lifetime of the checker (one ingestion run).
type Robots struct {
	client    *fetch.Client
	userAgent string
	logger    *slog.Logger

	mu    sync.RWMutex
	cache map[string]*robotstxt.RobotsData // nil entry: fetch failed, allow
}

// NewRobots creates a robots.txt-backed Checker. userAgent is the agent token
// matched against robots groups, defaulting to "*".
func NewRobots(client *fetch.Client, userAgent string, logger *slog.Logger) *Robots {
	if userAgent == "" {
		userAgent = "*"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Robots{
		client:    client,
		userAgent: userAgent,
		logger:    logger,
		cache:     make(map[string]*robotstxt.RobotsData),
	}
}

// Allowed implements Checker.
func (r *Robots) Allowed(ctx context.Context, rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}

	data, err := r.rulesFor(ctx, u.Scheme+"://"+u.Host)
	if err != nil {
		r.logger.Debug("robots.txt unavailable, allowing", "host", u.Host, "err", err)
		return true
	}
	if data == nil {
		return true
	}

	return data.FindGroup(r.userAgent).Test(u.Path)
}

func (r *Robots) rulesFor(ctx context.Context, origin string) (*robotstxt.RobotsData, error) {
	r.mu.RLock()
	data, ok := r.cache[origin]
	r.mu.RUnlock()
	if ok {
		return data, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if data, ok = r.cache[origin]; ok {
		return data, nil
	}

	resp, err := r.client.Get(ctx, origin+"/robots.txt")
	if err != nil {
		r.cache[origin] = nil
		return nil, fmt.Errorf("fetch robots.txt: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		// Missing or forbidden robots.txt imposes no restrictions.
		r.cache[origin] = nil
		return nil, nil
	}

	parsed, err := robotstxt.FromBytes(resp.Body)
	if err != nil {
		r.cache[origin] = nil
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}

	r.cache[origin] = parsed
	return parsed, nil
}
