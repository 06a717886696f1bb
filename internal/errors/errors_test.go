package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchError_Unwrap_PreservesCause(t *testing.T) {
	// Given: an original error
	cause := errors.New("connection refused")

	// When: wrapping it as a retriever failure
	err := RetrieverUnavailable("dense", cause)

	// Then: the cause is reachable through the chain
	require.NotNil(t, err)
	assert.Equal(t, cause, errors.Unwrap(err))
	assert.True(t, errors.Is(err, cause))
}

func TestSearchError_Error_ReturnsFormattedMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      *SearchError
		expected string
	}{
		{
			name:     "no cause",
			err:      New(ErrCodeInvalidRequest, "query must not be empty", nil),
			expected: "[ERR_101_INVALID_REQUEST] query must not be empty",
		},
		{
			name:     "wrapped cause repeats message",
			err:      Wrap(ErrCodeInternal, errors.New("boom")),
			expected: "[ERR_501_INTERNAL] boom",
		},
		{
			name:     "distinct cause",
			err:      RerankUnavailable(context.DeadlineExceeded),
			expected: "[ERR_203_RERANK_UNAVAILABLE] reranker unavailable: context deadline exceeded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestSearchError_Is_MatchesByCode(t *testing.T) {
	err := fmt.Errorf("search: %w", InvalidRequest("k must be between %d and %d", 1, 50))

	assert.True(t, errors.Is(err, ErrInvalidRequest))
	assert.False(t, errors.Is(err, ErrAllRetrievalFailed))
}

func TestAllRetrievalFailed_JoinsCauses(t *testing.T) {
	denseErr := RetrieverUnavailable("dense", context.DeadlineExceeded)
	sparseErr := RetrieverUnavailable("sparse", errors.New("index closed"))

	err := AllRetrievalFailed(denseErr, sparseErr)

	assert.True(t, errors.Is(err, ErrAllRetrievalFailed))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.True(t, errors.Is(err, ErrRetrieverUnavailable))
	assert.Equal(t, SeverityFatal, err.Severity)
	assert.NotEmpty(t, err.Suggestion)
}

func TestNew_DerivesCategoryFromCode(t *testing.T) {
	tests := []struct {
		code     string
		category Category
	}{
		{ErrCodeInvalidRequest, CategoryRequest},
		{ErrCodeRetrieverUnavailable, CategoryRetrieval},
		{ErrCodeCacheBackendUnavailable, CategoryCache},
		{ErrCodeConfigInvalid, CategoryConfig},
		{ErrCodeInternal, CategoryInternal},
		{"bad", CategoryInternal},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.category, New(tt.code, "x", nil).Category)
		})
	}
}

func TestIsAbsorbed(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		absorbed bool
	}{
		{"retriever", RetrieverUnavailable("sparse", nil), true},
		{"rerank", RerankUnavailable(nil), true},
		{"cache", CacheUnavailable("get", nil), true},
		{"all failed", AllRetrievalFailed(), false},
		{"invalid", InvalidRequest("empty"), false},
		{"plain", errors.New("x"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.absorbed, IsAbsorbed(tt.err))
		})
	}
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(RetrieverUnavailable("dense", nil)))
	assert.True(t, IsRetryable(fmt.Errorf("wrapped: %w", AllRetrievalFailed())))
	assert.False(t, IsRetryable(InvalidRequest("empty query")))
	assert.False(t, IsRetryable(errors.New("plain")))
	assert.False(t, IsRetryable(nil))
}

func TestGetCode_WalksChain(t *testing.T) {
	err := fmt.Errorf("outer: %w", CacheUnavailable("set", errors.New("disk full")))

	assert.Equal(t, ErrCodeCacheBackendUnavailable, GetCode(err))
	assert.Equal(t, CategoryCache, GetCategory(err))
	assert.Equal(t, "", GetCode(errors.New("plain")))
}

func TestWithDetail_Chains(t *testing.T) {
	err := New(ErrCodeCorpusInvalid, "duplicate document id", nil).
		WithDetail("id", "d1").
		WithSuggestion("give every document a unique id")

	assert.Equal(t, "d1", err.Details["id"])
	assert.Equal(t, "give every document a unique id", err.Suggestion)
}

func TestFormatForCLI(t *testing.T) {
	out := FormatForCLI(AllRetrievalFailed(errors.New("dense down")))

	assert.Contains(t, out, "Error: all required retrievers failed")
	assert.Contains(t, out, "Cause: dense down")
	assert.Contains(t, out, "Hint:")
	assert.Contains(t, out, "Code: ERR_202_ALL_RETRIEVAL_FAILED")

	assert.Contains(t, FormatForCLI(errors.New("plain")), "Code: ERR_501_INTERNAL")
	assert.Equal(t, "", FormatForCLI(nil))
}

func TestFormatJSON(t *testing.T) {
	data, err := FormatJSON(RetrieverUnavailable("web", errors.New("429")))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, ErrCodeRetrieverUnavailable, decoded["code"])
	assert.Equal(t, "RETRIEVAL", decoded["category"])
	assert.Equal(t, "429", decoded["cause"])
	assert.Equal(t, true, decoded["retryable"])
}

func TestLogAttrs(t *testing.T) {
	attrs := LogAttrs(RetrieverUnavailable("dense", nil))
	assert.Contains(t, attrs, "error_code")
	assert.Contains(t, attrs, ErrCodeRetrieverUnavailable)
	assert.Contains(t, attrs, "detail_retriever")

	assert.Equal(t, []any{"error", "plain"}, LogAttrs(errors.New("plain")))
	assert.Nil(t, LogAttrs(nil))
}
