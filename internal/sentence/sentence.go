// Package sentence segments raw document text into sentences. The default
// Splitter wraps the English Punkt model from neurosnap/sentences; any other
// deterministic boundary detector can be substituted through the Splitter
// interface.
package sentence

import (
	"fmt"
	"strings"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
)

// Splitter turns text into an ordered list of sentences. Implementations
// must not panic on empty or malformed input.
type Splitter interface {
	Split(text string) []string
}

// Func adapts an ordinary function to the Splitter interface.
type Func func(text string) []string

// Split calls f(text).
func (f Func) Split(text string) []string {
	return f(text)
}

// Whole treats the entire text as one sentence.
var Whole Splitter = Func(func(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return []string{text}
})

// Punkt splits English text with a pre-trained Punkt model, which handles
// terminal punctuation and common abbreviations.
type Punkt struct {
	tokenizer *sentences.DefaultSentenceTokenizer
}

// NewPunkt loads the bundled English Punkt model.
func NewPunkt() (*Punkt, error) {
	t, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, fmt.Errorf("loading english punkt model: %w", err)
	}
	return &Punkt{tokenizer: t}, nil
}

// Split returns the sentences of text in order. Whitespace-only text yields
// no sentences.
func (p *Punkt) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	found := p.tokenizer.Tokenize(text)
	out := make([]string, 0, len(found))
	for _, s := range found {
		if strings.TrimSpace(s.Text) == "" {
			continue
		}
		out = append(out, s.Text)
	}
	if len(out) == 0 {
		return []string{text}
	}
	return out
}
