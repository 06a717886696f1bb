package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/hybridsearch/internal/resilience"
)

// newRerankServer serves /health and /rerank. Documents are scored by their
// length so the expected order is easy to reason about.
func newRerankServer(t *testing.T, status *atomic.Int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/rerank", func(w http.ResponseWriter, r *http.Request) {
		if code := int(status.Load()); code != http.StatusOK {
			http.Error(w, "model not loaded", code)
			return
		}
		var req rerankRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		type result struct {
			Index    int     `json:"index"`
			Score    float64 `json:"score"`
			Document string  `json:"document"`
		}
		resp := struct {
			Results []result `json:"results"`
		}{}
		for i, d := range req.Documents {
			resp.Results = append(resp.Results, result{Index: i, Score: float64(len(d)), Document: d})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPReranker_Rerank(t *testing.T) {
	// Given: a healthy server
	var status atomic.Int32
	status.Store(http.StatusOK)
	srv := newRerankServer(t, &status)

	r, err := NewHTTPReranker(context.Background(), HTTPRerankerConfig{Endpoint: srv.URL})
	require.NoError(t, err)
	defer r.Close()

	// When: reranking three documents
	results, err := r.Rerank(context.Background(), "q", []string{"a", "ccc", "bb"}, 0)

	// Then: every document is scored against its input index
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, 1, results[1].Index)
	assert.Equal(t, 3.0, results[1].Score)
	assert.Equal(t, "ccc", results[1].Document)
	assert.True(t, r.Available(context.Background()))
}

func TestHTTPReranker_EmptyDocuments(t *testing.T) {
	r, err := NewHTTPReranker(context.Background(), HTTPRerankerConfig{
		Endpoint:        "http://127.0.0.1:1",
		SkipHealthCheck: true,
	})
	require.NoError(t, err)

	results, err := r.Rerank(context.Background(), "q", nil, 0)

	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestHTTPReranker_HealthCheckFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "loading", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewHTTPReranker(context.Background(), HTTPRerankerConfig{Endpoint: srv.URL})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
}

func TestHTTPReranker_BreakerOpensAfterFailures(t *testing.T) {
	// Given: a server whose rerank endpoint fails
	var status atomic.Int32
	status.Store(http.StatusInternalServerError)
	srv := newRerankServer(t, &status)

	r, err := NewHTTPReranker(context.Background(), HTTPRerankerConfig{
		Endpoint: srv.URL,
		Breaker: resilience.BreakerConfig{
			FailureRatio: 0.5,
			MinRequests:  2,
			OpenTimeout:  time.Minute,
		},
	})
	require.NoError(t, err)
	defer r.Close()

	// When: two calls fail
	for i := 0; i < 2; i++ {
		_, err := r.Rerank(context.Background(), "q", []string{"doc"}, 0)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 500")
	}

	// Then: the breaker refuses further calls even after the server recovers
	status.Store(http.StatusOK)
	_, err = r.Rerank(context.Background(), "q", []string{"doc"}, 0)
	require.Error(t, err)
	assert.True(t, resilience.IsOpen(err))
	assert.False(t, r.Available(context.Background()))
}

func TestHTTPReranker_Closed(t *testing.T) {
	r, err := NewHTTPReranker(context.Background(), HTTPRerankerConfig{SkipHealthCheck: true})
	require.NoError(t, err)

	require.NoError(t, r.Close())
	require.NoError(t, r.Close())

	_, err = r.Rerank(context.Background(), "q", []string{"doc"}, 0)
	assert.ErrorIs(t, err, errRerankerClosed)
	assert.False(t, r.Available(context.Background()))
}
