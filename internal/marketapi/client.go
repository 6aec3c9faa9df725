// Package marketapi provides a client for the macroeconomic indicator API.
package marketapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/theirongolddev/ratewatch/internal/model"

	"golang.org/x/sync/errgroup"
)

const (
	defaultTimeout = 10 * time.Second
	maxBodySize    = 1 << 20 // 1 MB
	userAgent      = "ratewatch/1.0"
)

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithClock overrides time.Now for FetchedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// Client fetches indicators from the three read-only endpoints.
type Client struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
	now     func() time.Time
}

// NewClient creates a client for baseURL. It returns ErrMissingBaseURL for a
// blank base URL and never touches the network while doing so.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, ErrMissingBaseURL
	}

	u, err := url.Parse(baseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("marketapi: invalid base URL %q", baseURL)
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: defaultTimeout,
		http:    &http.Client{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// FetchSnapshot fetches all three indicators concurrently. The snapshot is
// all-or-nothing: the first failure cancels the remaining requests and is
// returned as a *SourceError.
func (c *Client) FetchSnapshot(ctx context.Context) (*model.MarketSnapshot, error) {
	var snap model.MarketSnapshot

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := c.FetchInflation(gctx)
		snap.Inflation = v
		return err
	})
	g.Go(func() error {
		v, err := c.FetchTBill(gctx)
		snap.TBill = v
		return err
	})
	g.Go(func() error {
		v, err := c.FetchLongTermRates(gctx)
		snap.LongTermRates = v
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap.FetchedAt = c.now()
	return &snap, nil
}

// FetchInflation returns the current inflation rate in percent.
func (c *Client) FetchInflation(ctx context.Context) (*float64, error) {
	return c.fetchIndicator(ctx, SourceInflation)
}

// FetchTBill returns the short-term bill yield in percent.
func (c *Client) FetchTBill(ctx context.Context) (*float64, error) {
	return c.fetchIndicator(ctx, SourceTBill)
}

// FetchLongTermRates returns the long-term nominal and TIPS yields.
func (c *Client) FetchLongTermRates(ctx context.Context) (*model.LongTermRates, error) {
	body, err := c.get(ctx, SourceLongTermRates.Path())
	if err != nil {
		return nil, &SourceError{Source: SourceLongTermRates, Err: err}
	}
	r, err := parseLongTermRates(body)
	if err != nil {
		return nil, &SourceError{Source: SourceLongTermRates, Err: err}
	}
	return r, nil
}

func (c *Client) fetchIndicator(ctx context.Context, src Source) (*float64, error) {
	body, err := c.get(ctx, src.Path())
	if err != nil {
		return nil, &SourceError{Source: src, Err: err}
	}
	v, err := parseIndicator(body, src)
	if err != nil {
		return nil, &SourceError{Source: src, Err: err}
	}
	return v, nil
}

// get performs a GET request and returns the response body.
func (c *Client) get(ctx context.Context, path string) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("marketapi: creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	//nolint:gosec // URL is built from the configured base URL
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("marketapi: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, ErrRateLimited
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("marketapi: reading response: %w", err)
	}
	return body, nil
}
