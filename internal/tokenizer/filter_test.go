package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterKeep(t *testing.T) {
	f := NewFilter(EnglishStopWords())
	tests := []struct {
		in     string
		want   string
		keep   bool
		reason string
	}{
		{"ai", "", false, "too short"},
		{"go2", "", false, "contains a digit"},
		{"the", "", false, "stopword"},
		{"The", "", false, "stopword after lowercasing"},
		{"!!", "", false, "too short"},
		{"!!!", "", false, "no letter"},
		{"quot", "", false, "entity remnant"},
		{`\n`, "", false, "escaped newline"},
		{"Embedding", "embedding", true, "lowercased"},
		{"state-of-the", "state_of_the", true, "hyphens become underscores"},
		{"don't", "", false, "stopword contraction"},
		{"model's", "model's", true, "contraction kept"},
		{"café", "café", true, "ascii letters present"},
		{"ééé", "", false, "no ascii letter"},
		{"http://example.com/a?x=1", "", false, "url with digit"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := f.Keep(tt.in, 3)
			assert.Equal(t, tt.keep, ok, tt.reason)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFilterLengthCountsRunes(t *testing.T) {
	f := NewFilter(NewStopWords(nil))
	_, ok := f.Keep("aé", 3)
	assert.False(t, ok, "two runes is shorter than three even though it is three bytes")
	got, ok := f.Keep("abé", 3)
	assert.True(t, ok)
	assert.Equal(t, "abé", got)
}

func TestFilterZeroMinLength(t *testing.T) {
	f := NewFilter(NewStopWords(nil))
	assert.Equal(t, []string{"a", "b"}, f.Apply([]string{"A", "1", "b"}, 0))
}

func TestFilterIdempotent(t *testing.T) {
	f := NewFilter(EnglishStopWords())
	input := []string{"Deep", "learning", "-", "state-of-the", "art", "is", "used", "in", "2024", "models", "@lab"}
	once := f.Apply(input, 3)
	twice := f.Apply(once, 3)
	assert.Equal(t, once, twice)
	assert.Equal(t, []string{"deep", "learning", "state_of_the", "art", "used", "models", "@lab"}, once)
}

func TestStopWords(t *testing.T) {
	sw := EnglishStopWords()
	for _, w := range []string{"the", "and", "now", "quot", `\n`, "-", "!", "~"} {
		assert.True(t, sw.Contains(w), w)
	}
	assert.False(t, sw.Contains("embedding"))
	assert.False(t, sw.Contains("The"), "lookup is case sensitive; the filter lowercases first")

	custom := NewStopWords([]string{"foo"})
	assert.True(t, custom.Contains("foo"))
	assert.True(t, custom.Contains("."))
	assert.False(t, custom.Contains("the"))
	assert.Equal(t, 1+len(Punctuation)+2, custom.Len())
}
