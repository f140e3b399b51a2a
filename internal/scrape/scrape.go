// Package scrape wraps a render-capable scraping proxy behind a simple
// "fetch rendered page" capability. Everything above this layer deals in
// HTML strings; everything below is the proxy's concern.
package scrape

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var pageFetches = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "cs2_page_fetches_total",
	Help: "Total rendered-page fetches by outcome",
}, []string{"outcome"})

// Fetcher is the transport contract the HTML provider depends on.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) (string, error)
}

type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *zap.SugaredLogger
}

func NewClient(apiKey, baseURL string, logger *zap.Logger) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			// Rendered pages can take a while behind the proxy.
			Timeout: 60 * time.Second,
		},
		logger: logger.Sugar(),
	}
}

// Fetch returns the rendered HTML of pageURL. A missing API key fails fast
// so the calling adapter can degrade to empty results without a network
// round trip.
func (c *Client) Fetch(ctx context.Context, pageURL string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("scraper api key not configured")
	}

	params := url.Values{}
	params.Set("api_key", c.apiKey)
	params.Set("url", pageURL)
	params.Set("render", "true")
	params.Set("country_code", "us")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("building scrape request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		pageFetches.WithLabelValues("error").Inc()
		return "", fmt.Errorf("fetching %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		pageFetches.WithLabelValues("error").Inc()
		return "", fmt.Errorf("fetching %s: status %d", pageURL, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		pageFetches.WithLabelValues("error").Inc()
		return "", fmt.Errorf("reading %s: %w", pageURL, err)
	}

	pageFetches.WithLabelValues("ok").Inc()
	c.logger.Debugw("Fetched rendered page", "url", pageURL, "bytes", len(body))
	return string(body), nil
}

// FetchMultiple fetches a set of pages sequentially with a short delay
// between requests. Failed pages map to empty strings.
func (c *Client) FetchMultiple(ctx context.Context, urls []string) map[string]string {
	results := make(map[string]string, len(urls))
	for i, u := range urls {
		if i > 0 {
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
				return results
			}
		}
		html, err := c.Fetch(ctx, u)
		if err != nil {
			c.logger.Warnw("Page fetch failed", "url", u, "error", err)
			results[u] = ""
			continue
		}
		results[u] = html
	}
	return results
}
