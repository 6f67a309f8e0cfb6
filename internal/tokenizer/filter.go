package tokenizer

import (
	"strings"
	"unicode/utf8"
)

// Filter lowercases candidates and drops those that are too short, are
// stopwords, contain a digit, or contain no ASCII letter. Surviving tokens
// have every '-' replaced by '_'.
type Filter struct {
	stopWords StopWords
}

// NewFilter returns a Filter that rejects the given stopwords.
func NewFilter(stopWords StopWords) *Filter {
	return &Filter{stopWords: stopWords}
}

// Apply filters texts in order. A minLength of zero or less disables the
// length check.
func (f *Filter) Apply(texts []string, minLength int) []string {
	tokens := make([]string, 0, len(texts))
	for _, text := range texts {
		if token, ok := f.Keep(text, minLength); ok {
			tokens = append(tokens, token)
		}
	}
	return tokens
}

// Keep normalises a single candidate and reports whether it survives.
func (f *Filter) Keep(text string, minLength int) (string, bool) {
	token := strings.ToLower(text)
	if utf8.RuneCountInString(token) < minLength {
		return "", false
	}
	if f.stopWords.Contains(token) {
		return "", false
	}
	hasLetter := false
	for i := 0; i < len(token); i++ {
		b := token[i]
		if b >= '0' && b <= '9' {
			return "", false
		}
		if b >= 'a' && b <= 'z' {
			hasLetter = true
		}
	}
	if !hasLetter {
		return "", false
	}
	return strings.ReplaceAll(token, "-", "_"), true
}
