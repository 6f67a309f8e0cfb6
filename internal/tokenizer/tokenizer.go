// Package tokenizer turns raw abstract text into normalised tokens. Each
// sentence is scanned with an ordered, first-match-wins set of patterns
// (URLs, hyphenated compounds, mentions, tags, contractions, words) and the
// resulting candidates are lowercased and filtered against a stopword set.
package tokenizer

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/Adithya-Monish-Kumar-K/abstract-features/internal/sentence"
	apperrors "github.com/Adithya-Monish-Kumar-K/abstract-features/pkg/errors"
)

// DefaultMinLength is the minimum token length used when none is configured.
const DefaultMinLength = 3

// Tokenizer is immutable after construction and safe for concurrent use.
type Tokenizer struct {
	splitter sentence.Splitter
	filter   *Filter
}

// New returns a Tokenizer using the given sentence splitter and stopwords.
func New(splitter sentence.Splitter, stopWords StopWords) *Tokenizer {
	return &Tokenizer{
		splitter: splitter,
		filter:   NewFilter(stopWords),
	}
}

// Document is the tokenised form of one abstract. When Flattened is set,
// Tokens holds every token in sentence order and Sentences is nil;
// otherwise Sentences holds one token list per sentence.
type Document struct {
	Flattened bool
	Tokens    []string
	Sentences [][]string
}

// Flat returns all tokens in order regardless of mode.
func (d Document) Flat() []string {
	if d.Flattened {
		return d.Tokens
	}
	return flattenSentences(d.Sentences)
}

// Len returns the total token count.
func (d Document) Len() int {
	if d.Flattened {
		return len(d.Tokens)
	}
	n := 0
	for _, s := range d.Sentences {
		n += len(s)
	}
	return n
}

// MarshalJSON encodes a flattened document as a list of strings and a
// structured one as a list of lists.
func (d Document) MarshalJSON() ([]byte, error) {
	if d.Flattened {
		if d.Tokens == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(d.Tokens)
	}
	if d.Sentences == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(d.Sentences)
}

// UnmarshalJSON accepts either representation produced by MarshalJSON. An
// empty list decodes as an empty flattened document.
func (d *Document) UnmarshalJSON(data []byte) error {
	var tokens []string
	if err := json.Unmarshal(data, &tokens); err == nil {
		*d = Document{Flattened: true, Tokens: tokens}
		return nil
	}
	var sentences [][]string
	if err := json.Unmarshal(data, &sentences); err != nil {
		return fmt.Errorf("decoding tokenized document: %w", err)
	}
	*d = Document{Sentences: sentences}
	return nil
}

// Tokenize splits text into sentences, scans and filters each one, and
// returns the per-sentence token lists, or their concatenation when flatten
// is set. Text that is not valid UTF-8 is rejected before any work is done.
func (t *Tokenizer) Tokenize(text string, minLength int, flatten bool) (Document, error) {
	if !utf8.ValidString(text) {
		return Document{}, apperrors.New(apperrors.ErrMalformedInput, 400, "document text is not valid UTF-8")
	}
	sentences := t.splitter.Split(text)
	perSentence := make([][]string, 0, len(sentences))
	for _, s := range sentences {
		perSentence = append(perSentence, t.Sentence(s, minLength))
	}
	if flatten {
		return Document{Flattened: true, Tokens: flattenSentences(perSentence)}, nil
	}
	return Document{Sentences: perSentence}, nil
}

// Sentence scans and filters a single sentence.
func (t *Tokenizer) Sentence(s string, minLength int) []string {
	candidates := Scan(s)
	texts := make([]string, len(candidates))
	for i, c := range candidates {
		texts[i] = c.Text
	}
	return t.filter.Apply(texts, minLength)
}

func flattenSentences(sentences [][]string) []string {
	n := 0
	for _, s := range sentences {
		n += len(s)
	}
	out := make([]string, 0, n)
	for _, s := range sentences {
		out = append(out, s...)
	}
	return out
}
