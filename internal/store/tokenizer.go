package store

import (
	"strings"
	"unicode"
)

// Tokenize splits text into lower-cased word tokens. Letters and digits are
// token characters; everything else separates tokens. Tokens shorter than
// minLen runes are dropped, and apostrophe suffixes ("policy's") are trimmed.
func Tokenize(text string, minLen int) []string {
	if minLen < 1 {
		minLen = 1
	}

	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})

	tokens := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.Trim(w, "'")
		if i := strings.IndexRune(w, '\''); i > 0 {
			w = w[:i]
		}
		w = strings.ToLower(w)
		if len([]rune(w)) >= minLen {
			tokens = append(tokens, w)
		}
	}
	return tokens
}

// FilterStopWords removes stop words from a token list.
func FilterStopWords(tokens []string, stopWords map[string]struct{}) []string {
	result := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if _, isStop := stopWords[strings.ToLower(token)]; !isStop {
			result = append(result, token)
		}
	}
	return result
}

// BuildStopWordMap converts a slice of stop words to a lookup set.
func BuildStopWordMap(stopWords []string) map[string]struct{} {
	m := make(map[string]struct{}, len(stopWords))
	for _, word := range stopWords {
		m[strings.ToLower(word)] = struct{}{}
	}
	return m
}

// analyze is the shared document/query pipeline for both BM25 backends.
func analyze(text string, cfg BM25Config, stopWords map[string]struct{}) []string {
	minLen := cfg.MinTokenLength
	if minLen == 0 {
		minLen = 2
	}
	return FilterStopWords(Tokenize(text, minLen), stopWords)
}
