// Package finnhub is a REST client for the Finnhub market data API.
package finnhub

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"resty.dev/v3"

	"stockwatch/internal/fetcher"
	"stockwatch/internal/ratelimit"
)

// DefaultBaseURL is the production API root.
const DefaultBaseURL = "https://finnhub.io/api/v1"

// Endpoints
const (
	pathSearch      = "/search"
	pathNews        = "/news"
	pathCompanyNews = "/company-news"
	pathCandles     = "/stock/candle"
	pathMetrics     = "/stock/metric"
)

// DefaultResolution requests one-minute candles.
const DefaultResolution = "1"

// Option configures a Client.
type Option func(*Client)

// WithLimiter shares a rate limiter with other clients.
func WithLimiter(l *ratelimit.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// WithRetryCount enables retries of transient failures. The default is none.
func WithRetryCount(n int) Option {
	return func(c *Client) { c.retryCount = n }
}

// WithResolution sets the candle resolution ("1", "5", "15", "30", "60", "D", "W", "M").
func WithResolution(resolution string) Option {
	return func(c *Client) { c.resolution = resolution }
}

// WithClock overrides the clock used for news date ranges.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// Client fetches candles, symbol matches, news and fundamentals from Finnhub.
type Client struct {
	apiKey     string
	client     *resty.Client
	limiter    *ratelimit.Limiter
	retryCount int
	resolution string
	now        func() time.Time
}

// NewClient creates a new Finnhub client
func NewClient(apiKey, baseURL string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		resolution: DefaultResolution,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.client = fetcher.NewHTTPClient(baseURL, c.retryCount)
	return c
}

// get performs one GET against path and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, path string, params map[string]string, out any) error {
	if err := c.limiter.Wait(ctx, ratelimit.APIFinnhub); err != nil {
		return fetcher.ClassifyTransportError(err)
	}

	query := make(map[string]string, len(params)+1)
	for k, v := range params {
		query[k] = v
	}
	query["token"] = c.apiKey

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(query).
		Get(path)
	if err != nil {
		return fetcher.ClassifyTransportError(err)
	}

	if !resp.IsSuccess() {
		return fetcher.ClassifyHTTPError(resp.StatusCode())
	}

	if err := json.Unmarshal(resp.Bytes(), out); err != nil {
		return fetcher.NewDecodeError(err)
	}
	return nil
}

func unixString(t time.Time) string {
	return strconv.FormatInt(t.Unix(), 10)
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
