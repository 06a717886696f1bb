package errors

import (
	stderrors "errors"
	"fmt"
)

// SearchError is the structured error type for hybridsearch.
// It carries enough context for the pipeline to decide whether to degrade
// or surface the failure, and for the CLI to render it.
type SearchError struct {
	// Code is the unique error code (e.g., "ERR_201_RETRIEVER_UNAVAILABLE").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Request, Retrieval, Cache, ...).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Sentinels for errors.Is matching. Matching is by code only.
var (
	ErrInvalidRequest          = &SearchError{Code: ErrCodeInvalidRequest}
	ErrRetrieverUnavailable    = &SearchError{Code: ErrCodeRetrieverUnavailable}
	ErrAllRetrievalFailed      = &SearchError{Code: ErrCodeAllRetrievalFailed}
	ErrRerankUnavailable       = &SearchError{Code: ErrCodeRerankUnavailable}
	ErrWebSearchFailed         = &SearchError{Code: ErrCodeWebSearchFailed}
	ErrCacheBackendUnavailable = &SearchError{Code: ErrCodeCacheBackendUnavailable}
	ErrConfigInvalid           = &SearchError{Code: ErrCodeConfigInvalid}
	ErrCorpusInvalid           = &SearchError{Code: ErrCodeCorpusInvalid}
	ErrInternal                = &SearchError{Code: ErrCodeInternal}
)

// Error implements the error interface.
func (e *SearchError) Error() string {
	if e.Cause != nil && e.Cause.Error() != e.Message {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *SearchError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
func (e *SearchError) Is(target error) bool {
	if t, ok := target.(*SearchError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *SearchError) WithDetail(key, value string) *SearchError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
func (e *SearchError) WithSuggestion(suggestion string) *SearchError {
	e.Suggestion = suggestion
	return e
}

// New creates a new SearchError with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *SearchError {
	return &SearchError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates a SearchError from an existing error.
func Wrap(code string, err error) *SearchError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// InvalidRequest creates a request validation error.
func InvalidRequest(format string, args ...any) *SearchError {
	return New(ErrCodeInvalidRequest, fmt.Sprintf(format, args...), nil)
}

// RetrieverUnavailable reports that a named retriever failed or timed out.
func RetrieverUnavailable(name string, cause error) *SearchError {
	return New(ErrCodeRetrieverUnavailable, name+" retriever unavailable", cause).
		WithDetail("retriever", name)
}

// AllRetrievalFailed reports that no required retriever produced a result.
// The causes are joined so each one stays reachable through errors.Is.
func AllRetrievalFailed(causes ...error) *SearchError {
	return New(ErrCodeAllRetrievalFailed, "all required retrievers failed", stderrors.Join(causes...)).
		WithSuggestion("check that the vector store, sparse index, and web search backends are reachable")
}

// RerankUnavailable reports a reranker failure or timeout.
func RerankUnavailable(cause error) *SearchError {
	return New(ErrCodeRerankUnavailable, "reranker unavailable", cause)
}

// CacheUnavailable reports a cache backend read or write failure.
func CacheUnavailable(op string, cause error) *SearchError {
	return New(ErrCodeCacheBackendUnavailable, "cache backend "+op+" failed", cause).
		WithDetail("op", op)
}

// WebSearchFailed creates an ERR_204 error for a failed web search call.
func WebSearchFailed(message string, cause error) *SearchError {
	return New(ErrCodeWebSearchFailed, message, cause)
}

// CorpusInvalid creates an ERR_402 error for an unreadable or malformed corpus.
func CorpusInvalid(message string, cause error) *SearchError {
	return New(ErrCodeCorpusInvalid, message, cause).
		WithSuggestion("check the corpus file: each document needs an id and content")
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *SearchError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *SearchError {
	return New(ErrCodeInternal, message, cause)
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var se *SearchError
	if stderrors.As(err, &se) {
		return se.Retryable
	}
	return false
}

// IsAbsorbed reports whether the pipeline degrades instead of failing on err.
func IsAbsorbed(err error) bool {
	var se *SearchError
	if stderrors.As(err, &se) {
		return isAbsorbedCode(se.Code)
	}
	return false
}

// GetCode extracts the error code from the first SearchError in the chain.
// Returns empty string if there is none.
func GetCode(err error) string {
	var se *SearchError
	if stderrors.As(err, &se) {
		return se.Code
	}
	return ""
}

// GetCategory extracts the category from the first SearchError in the chain.
func GetCategory(err error) Category {
	var se *SearchError
	if stderrors.As(err, &se) {
		return se.Category
	}
	return ""
}
