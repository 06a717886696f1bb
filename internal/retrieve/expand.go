package retrieve

import (
	"strings"
	"unicode"
)

// QueryExpander adds related terms to a lexical query so that BM25 can match
// passages that use different words for the same thing.
//
// Example:
//
//	Input:  "co2 policy"
//	Output: "co2 policy carbon dioxide emissions regulation"
//
// Only the sparse side uses it. Dense retrieval already bridges vocabulary.
type QueryExpander struct {
	synonyms      map[string][]string
	maxExpansions int
}

// QueryExpanderOption configures the query expander.
type QueryExpanderOption func(*QueryExpander)

// WithMaxExpansions sets the maximum synonyms added per term (default 3).
func WithMaxExpansions(n int) QueryExpanderOption {
	return func(e *QueryExpander) {
		if n >= 0 {
			e.maxExpansions = n
		}
	}
}

// WithSynonyms adds synonym mappings on top of DefaultSynonyms. Keys are
// matched case-insensitively.
func WithSynonyms(synonyms map[string][]string) QueryExpanderOption {
	return func(e *QueryExpander) {
		for k, v := range synonyms {
			k = strings.ToLower(k)
			e.synonyms[k] = append(e.synonyms[k], v...)
		}
	}
}

// NewQueryExpander creates an expander seeded with DefaultSynonyms.
func NewQueryExpander(opts ...QueryExpanderOption) *QueryExpander {
	e := &QueryExpander{
		synonyms:      make(map[string][]string, len(DefaultSynonyms)),
		maxExpansions: 3,
	}
	for k, v := range DefaultSynonyms {
		e.synonyms[k] = append([]string(nil), v...)
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Expand returns query followed by synonyms of its terms. Original terms come
// first and no term appears twice.
func (e *QueryExpander) Expand(query string) string {
	terms := splitTerms(query)
	if len(terms) == 0 {
		return query
	}

	seen := make(map[string]bool, len(terms))
	expanded := make([]string, 0, len(terms)*(1+e.maxExpansions))
	for _, term := range terms {
		if !seen[term] {
			expanded = append(expanded, term)
			seen[term] = true
		}
	}

	for _, term := range terms {
		added := 0
		for _, syn := range e.synonyms[term] {
			if added == e.maxExpansions {
				break
			}
			syn = strings.ToLower(syn)
			if seen[syn] {
				continue
			}
			expanded = append(expanded, syn)
			seen[syn] = true
			added++
		}
	}

	return strings.Join(expanded, " ")
}

// splitTerms lower-cases query and splits it on anything that is not a
// letter or digit.
func splitTerms(query string) []string {
	return strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
