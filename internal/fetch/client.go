// Package fetch provides the HTTP plumbing the content and permission
// collaborators share: one client with a timeout, a redirect cap, User-Agent
// rotation and an optional politeness limiter.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/FranksOps/magpie/pkg/ratelimit"
	"github.com/FranksOps/magpie/pkg/useragent"
)

// Config sets up a fetch Client.
type Config struct {
	Timeout      time.Duration // default 15s
	MaxRedirects int           // default 5
	Profile      Profile       // TLS fingerprint profile, default chrome
	ProxyURL     *url.URL      // optional outbound proxy
	UserAgents   []string      // optional UA pool override
	// RequestsPerSecond throttles fetches when > 0.
	RequestsPerSecond float64
	Jitter            float64
}

// Response is a fetched document. Body is fully read and the connection
// released before Get returns.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Client performs collaborator fetches. It is safe for concurrent use,
// though ingestion runs drive it strictly sequentially.
type Client struct {
	client  *http.Client
	uas     *useragent.Pool
	limiter *ratelimit.Limiter
}

// NewClient creates a Client from cfg.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.MaxRedirects <= 0 {
		cfg.MaxRedirects = 5
	}

	transport, err := newTransport(cfg.Profile, cfg.ProxyURL)
	if err != nil {
		return nil, fmt.Errorf("setup transport: %w", err)
	}

	hc := &http.Client{
		Timeout:   cfg.Timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= cfg.MaxRedirects {
				return fmt.Errorf("stopped after %d redirects", cfg.MaxRedirects)
			}
			return nil
		},
	}

	return &Client{
		client:  hc,
		uas:     useragent.NewPool(cfg.UserAgents),
		limiter: ratelimit.NewLimiter(cfg.RequestsPerSecond, cfg.Jitter),
	}, nil
}

// Get fetches targetURL. Transport-level failures return an error; HTTP
// error statuses do not, the caller inspects StatusCode.
func (c *Client) Get(ctx context.Context, targetURL string) (*Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.uas.Next())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", targetURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       body,
	}, nil
}

// Close releases limiter resources.
func (c *Client) Close() {
	c.limiter.Stop()
}
