package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/Aman-CERP/hybridsearch/internal/resilience"
)

// HTTP reranker defaults
const (
	DefaultRerankerEndpoint = "http://localhost:9659"
	DefaultRerankerTimeout  = 3 * time.Second
)

// HTTPRerankerConfig configures an HTTPReranker.
type HTTPRerankerConfig struct {
	// Endpoint is the server base URL; /rerank and /health are appended.
	Endpoint string

	// Model is sent with each request when set.
	Model string

	// Timeout bounds each rerank request.
	Timeout time.Duration

	// Breaker configures the circuit breaker around the server.
	Breaker resilience.BreakerConfig

	// SkipHealthCheck skips the health check during creation.
	SkipHealthCheck bool
}

// HTTPReranker calls a cross-encoder server over HTTP. Calls go through a
// circuit breaker so a dead server costs nothing once the breaker opens.
type HTTPReranker struct {
	client  *http.Client
	config  HTTPRerankerConfig
	breaker *gobreaker.CircuitBreaker[[]RerankResult]
	mu      sync.RWMutex
	closed  bool
}

var _ Reranker = (*HTTPReranker)(nil)

var errRerankerClosed = errors.New("reranker is closed")

// NewHTTPReranker creates a reranker client and checks the server's health.
func NewHTTPReranker(ctx context.Context, cfg HTTPRerankerConfig) (*HTTPReranker, error) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultRerankerEndpoint
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultRerankerTimeout
	}

	r := &HTTPReranker{
		client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     30 * time.Second,
			},
		},
		config: cfg,
		breaker: resilience.NewBreaker[[]RerankResult]("reranker", cfg.Breaker, func(err error) bool {
			// The caller giving up says nothing about the server.
			return !errors.Is(err, context.Canceled)
		}),
	}

	if !cfg.SkipHealthCheck {
		checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := r.healthCheck(checkCtx); err != nil {
			return nil, fmt.Errorf("reranker health check failed: %w", err)
		}
	}

	slog.Debug("http_reranker_created",
		slog.String("endpoint", cfg.Endpoint),
		slog.String("model", cfg.Model),
		slog.Duration("timeout", cfg.Timeout))
	return r, nil
}

func (r *HTTPReranker) healthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.config.Endpoint+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to reranker: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("reranker unhealthy (status %d): %s", resp.StatusCode, string(body))
	}
	return nil
}

type rerankRequest struct {
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	Model     string   `json:"model,omitempty"`
	TopK      int      `json:"top_k,omitempty"`
}

type rerankResponse struct {
	Results []struct {
		Index    int     `json:"index"`
		Score    float64 `json:"score"`
		Document string  `json:"document"`
	} `json:"results"`
	ProcessingTimeMs float64 `json:"processing_time_ms"`
}

// Rerank scores documents against query.
func (r *HTTPReranker) Rerank(ctx context.Context, query string, documents []string, topK int) ([]RerankResult, error) {
	r.mu.RLock()
	closed := r.closed
	r.mu.RUnlock()
	if closed {
		return nil, errRerankerClosed
	}
	if len(documents) == 0 {
		return []RerankResult{}, nil
	}

	return r.breaker.Execute(func() ([]RerankResult, error) {
		return r.rerank(ctx, query, documents, topK)
	})
}

func (r *HTTPReranker) rerank(ctx context.Context, query string, documents []string, topK int) ([]RerankResult, error) {
	start := time.Now()

	body, err := json.Marshal(rerankRequest{
		Query:     query,
		Documents: documents,
		Model:     r.config.Model,
		TopK:      topK,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal rerank request: %w", err)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodPost, r.config.Endpoint+"/rerank", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create rerank request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rerank request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("rerank failed (status %d): %s", resp.StatusCode, string(msg))
	}

	var parsed rerankResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode rerank response: %w", err)
	}

	results := make([]RerankResult, len(parsed.Results))
	for i, res := range parsed.Results {
		results[i] = RerankResult{Index: res.Index, Score: res.Score, Document: res.Document}
	}

	slog.Debug("reranker_http_timing",
		slog.Int("doc_count", len(documents)),
		slog.Int("payload_bytes", len(body)),
		slog.Duration("total", time.Since(start)),
		slog.Float64("server_time_ms", parsed.ProcessingTimeMs))
	return results, nil
}

// Available reports whether the breaker is closed and the server is healthy.
func (r *HTTPReranker) Available(ctx context.Context) bool {
	r.mu.RLock()
	closed := r.closed
	r.mu.RUnlock()
	if closed || r.breaker.State() == gobreaker.StateOpen {
		return false
	}

	checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return r.healthCheck(checkCtx) == nil
}

// Close releases idle connections. Close is idempotent.
func (r *HTTPReranker) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	if transport, ok := r.client.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
	return nil
}
