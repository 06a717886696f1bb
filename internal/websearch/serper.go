package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	serrors "github.com/Aman-CERP/hybridsearch/internal/errors"
)

// Config configures a Client.
type Config struct {
	Endpoint      string
	APIKey        string
	RatePerMinute int
	Timeout       time.Duration
}

// Client calls a Serper-compatible search endpoint. Requests are throttled
// by a token bucket shared by all callers of the client.
type Client struct {
	client  *http.Client
	config  Config
	limiter *rate.Limiter
}

var _ Searcher = (*Client)(nil)

// NewClient creates a client. An empty API key is rejected; use
// NewSearcher to fall back to canned results instead.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, serrors.ConfigError("web search API key is not set", nil).
			WithSuggestion("set SERPER_API_KEY or web.api_key")
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.RatePerMinute <= 0 {
		cfg.RatePerMinute = DefaultRatePerMinute
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Client{
		client: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     30 * time.Second,
			},
		},
		config:  cfg,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RatePerMinute)), 1),
	}, nil
}

// NewSearcher returns a live Client when an API key is configured and a
// StaticSearcher otherwise.
func NewSearcher(cfg Config) Searcher {
	if cfg.APIKey == "" {
		slog.Warn("web_search_mock_results", slog.String("reason", "no API key configured"))
		return NewStaticSearcher(nil)
	}
	c, err := NewClient(cfg)
	if err != nil {
		return NewStaticSearcher(nil)
	}
	return c
}

type serperRequest struct {
	Q   string `json:"q"`
	Num int    `json:"num"`
}

type serperResponse struct {
	Organic []serperItem `json:"organic"`
	// Some compatible APIs return "results" instead of "organic".
	Results []serperItem `json:"results"`
}

type serperItem struct {
	Title    string `json:"title"`
	Link     string `json:"link"`
	Snippet  string `json:"snippet"`
	Date     string `json:"date"`
	Position int    `json:"position"`
}

// Search returns up to num organic results for query. It waits for a rate
// limit token under ctx, so a caller's deadline also bounds the wait.
func (c *Client) Search(ctx context.Context, query string, num int) ([]Result, error) {
	if num <= 0 {
		num = DefaultNumResults
	}
	if num > maxNumResults {
		num = maxNumResults
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, serrors.WebSearchFailed("web search rate limit wait aborted", err)
	}

	body, err := json.Marshal(serperRequest{Q: query, Num: num})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", c.config.APIKey)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, serrors.WebSearchFailed("web search request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, serrors.WebSearchFailed(
			fmt.Sprintf("web search API error (status %d)", resp.StatusCode),
			fmt.Errorf("%s", bytes.TrimSpace(msg)))
	}

	var parsed serperResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, serrors.WebSearchFailed("failed to decode web search response", err)
	}

	items := parsed.Organic
	if len(items) == 0 {
		items = parsed.Results
	}
	if len(items) > num {
		items = items[:num]
	}

	results := make([]Result, 0, len(items))
	for i, item := range items {
		pos := item.Position
		if pos <= 0 {
			pos = i + 1
		}
		results = append(results, Result{
			Title:     StripHTML(item.Title),
			URL:       item.Link,
			Snippet:   StripHTML(item.Snippet),
			Published: normalizeDate(item.Date),
			Position:  pos,
		})
	}

	slog.Debug("web_search_complete",
		slog.Int("results", len(results)),
		slog.Duration("duration", time.Since(start)))
	return results, nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	if transport, ok := c.client.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
	return nil
}
