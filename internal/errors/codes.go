// Package errors provides the typed failure taxonomy for hybridsearch.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Request errors (surfaced immediately)
//   - 2XX: Retrieval errors (dense, sparse, web, rerank)
//   - 3XX: Cache errors
//   - 4XX: Configuration and input data errors
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryRequest indicates a malformed search request.
	CategoryRequest Category = "REQUEST"
	// CategoryRetrieval indicates a retrieval or scoring backend failure.
	CategoryRetrieval Category = "RETRIEVAL"
	// CategoryCache indicates a result cache backend failure.
	CategoryCache Category = "CACHE"
	// CategoryConfig indicates invalid configuration or corpus data.
	CategoryConfig Category = "CONFIG"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates the request cannot be served.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates the operation failed.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Request errors (100-199)
	ErrCodeInvalidRequest = "ERR_101_INVALID_REQUEST"

	// Retrieval errors (200-299)
	ErrCodeRetrieverUnavailable = "ERR_201_RETRIEVER_UNAVAILABLE"
	ErrCodeAllRetrievalFailed   = "ERR_202_ALL_RETRIEVAL_FAILED"
	ErrCodeRerankUnavailable    = "ERR_203_RERANK_UNAVAILABLE"
	ErrCodeWebSearchFailed      = "ERR_204_WEB_SEARCH_FAILED"

	// Cache errors (300-399)
	ErrCodeCacheBackendUnavailable = "ERR_301_CACHE_BACKEND_UNAVAILABLE"

	// Config errors (400-499)
	ErrCodeConfigInvalid = "ERR_401_CONFIG_INVALID"
	ErrCodeCorpusInvalid = "ERR_402_CORPUS_INVALID"

	// Internal errors (500-599)
	ErrCodeInternal = "ERR_501_INTERNAL"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	switch code[4] {
	case '1':
		return CategoryRequest
	case '2':
		return CategoryRetrieval
	case '3':
		return CategoryCache
	case '4':
		return CategoryConfig
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeAllRetrievalFailed:
		return SeverityFatal
	case ErrCodeRetrieverUnavailable, ErrCodeRerankUnavailable,
		ErrCodeCacheBackendUnavailable, ErrCodeWebSearchFailed:
		return SeverityWarning
	}
	return SeverityError
}

// isRetryableCode reports whether the same request may succeed later.
func isRetryableCode(code string) bool {
	switch code {
	case ErrCodeRetrieverUnavailable, ErrCodeAllRetrievalFailed,
		ErrCodeRerankUnavailable, ErrCodeWebSearchFailed,
		ErrCodeCacheBackendUnavailable:
		return true
	default:
		return false
	}
}

// isAbsorbedCode reports whether the pipeline recovers from the failure locally.
func isAbsorbedCode(code string) bool {
	switch code {
	case ErrCodeRetrieverUnavailable, ErrCodeRerankUnavailable,
		ErrCodeCacheBackendUnavailable, ErrCodeWebSearchFailed:
		return true
	default:
		return false
	}
}
