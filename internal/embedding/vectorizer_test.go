package embedding

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/abstract-features/pkg/errors"
)

func testVocab(t *testing.T) *MapVocabulary {
	t.Helper()
	vocab, err := NewMapVocabulary(map[string][]float64{
		"a": {1, 2},
		"b": {3, 4},
	})
	require.NoError(t, err)
	return vocab
}

func TestVectorizeAveraging(t *testing.T) {
	vocab := testVocab(t)

	got, err := Vectorize([]string{"a", "b"}, vocab)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{2.0, 3.0}, got, 1e-9)

	got, err = Vectorize([]string{"a", "a", "b"}, vocab)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{5.0 / 3, 8.0 / 3}, got, 1e-9)
}

func TestVectorizeIgnoresUnknownTokens(t *testing.T) {
	vocab := testVocab(t)
	got, err := Vectorize([]string{"zzz", "a", "yyy"}, vocab)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, got)
}

func TestVectorizeZeroFallback(t *testing.T) {
	vocab := testVocab(t)
	tests := map[string][]string{
		"empty":       {},
		"nil":         nil,
		"all unknown": {"x", "y"},
	}
	for name, tokens := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := Vectorize(tokens, vocab)
			require.NoError(t, err)
			assert.Equal(t, ZeroVector(vocab), got)
			assert.Len(t, got, vocab.Dim())
		})
	}
}

func TestVectorizeDoesNotMutateVocabulary(t *testing.T) {
	vocab := testVocab(t)
	_, err := Vectorize([]string{"a", "b", "a"}, vocab)
	require.NoError(t, err)
	vec, ok := vocab.Lookup("a")
	require.True(t, ok)
	assert.Equal(t, []float64{1, 2}, vec)
}

func TestEmbedCounts(t *testing.T) {
	vocab := testVocab(t)
	e, err := Embed([]string{"a", "x", "b", "a"}, vocab)
	require.NoError(t, err)
	assert.Equal(t, 3, e.Known)
	assert.Equal(t, 1, e.Unknown)
	assert.InDelta(t, 0.25, e.OOVRatio(), 1e-9)
	assert.Equal(t, 0.0, Embedding{}.OOVRatio())
}

// ragged violates the Vocabulary contract on purpose.
type ragged struct{}

func (ragged) Lookup(token string) ([]float64, bool) {
	if token == "bad" {
		return []float64{1}, true
	}
	return []float64{1, 2}, true
}

func (ragged) Dim() int { return 2 }

func TestEmbedDimensionMismatch(t *testing.T) {
	_, err := Embed([]string{"good", "bad"}, ragged{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrDimensionMismatch))
	assert.True(t, apperrors.IsContractViolation(err))
}
