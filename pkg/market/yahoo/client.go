// Package yahoo implements the primary market data provider against a
// Yahoo-style chart endpoint.
package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"sigflow/pkg/market"
)

const (
	defaultBaseURL          = "https://query1.finance.yahoo.com"
	defaultHTTPTimeout      = 10 * time.Second
	defaultMaxRetries       = 2
	defaultRetryBackoffBase = 150 * time.Millisecond
)

// ErrNoData indicates the endpoint answered but carried no usable rows.
var ErrNoData = errors.New("yahoo: no data returned")

// Interval names accepted by the chart endpoint, keyed by canonical name.
var intervalNames = map[string]string{
	"1m": "1m",
	"1h": "60m",
	"4h": "4h",
	"1d": "1d",
}

// Client fetches historical OHLCV bars from the chart endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
}

// Option configures a new Client.
type Option func(*Client)

// WithHTTPClient injects a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithBaseURL overrides the default endpoint URL.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithMaxRetries adjusts the per-request retry budget.
func WithMaxRetries(max int) Option {
	return func(c *Client) {
		if max >= 0 {
			c.maxRetries = max
		}
	}
}

// NewClient constructs a chart API client.
func NewClient(opts ...Option) *Client {
	client := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		maxRetries: defaultMaxRetries,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Name implements market.Provider.
func (c *Client) Name() string { return "yahoo" }

// FetchBars implements market.Provider. Null rows and the adjusted-close
// column in the payload are discarded; the result is normalized into the
// canonical series schema.
func (c *Client) FetchBars(ctx context.Context, req market.Request) (market.Series, error) {
	interval, ok := intervalNames[req.Interval]
	if !ok {
		return nil, fmt.Errorf("yahoo: unsupported interval %q", req.Interval)
	}
	if req.LookbackDays <= 0 {
		return nil, fmt.Errorf("yahoo: lookback must be positive")
	}

	end := time.Now().UTC()
	start := end.AddDate(0, 0, -req.LookbackDays)

	query := url.Values{}
	query.Set("interval", interval)
	query.Set("period1", fmt.Sprintf("%d", start.Unix()))
	query.Set("period2", fmt.Sprintf("%d", end.Unix()))
	query.Set("events", "history")
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(req.Symbol), query.Encode())

	var payload chartResponse
	if err := c.doRequest(ctx, endpoint, &payload); err != nil {
		return nil, err
	}
	return payload.series(req.Symbol)
}

// doRequest performs a GET with bounded retries and doubling backoff.
func (c *Client) doRequest(ctx context.Context, endpoint string, result interface{}) error {
	var lastErr error
	backoff := defaultRetryBackoffBase
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return fmt.Errorf("yahoo: build request: %w", err)
		}
		httpReq.Header.Set("User-Agent", "sigflow/1.0")

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
		} else {
			body, readErr := io.ReadAll(resp.Body)
			resp.Body.Close()
			if readErr != nil {
				lastErr = fmt.Errorf("yahoo: read response: %w", readErr)
			} else if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				lastErr = fmt.Errorf("yahoo: http status %d: %s", resp.StatusCode, string(body))
			} else {
				if err := json.Unmarshal(body, result); err != nil {
					return fmt.Errorf("yahoo: decode response: %w", err)
				}
				return nil
			}
		}

		if attempt < c.maxRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
				backoff *= 2
			}
		}
	}
	if lastErr != nil {
		return lastErr
	}
	return fmt.Errorf("yahoo: request failed without error detail")
}
