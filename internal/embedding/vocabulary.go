// Package embedding maps tokenized abstracts onto dense document vectors by
// averaging trained word embeddings. Vocabularies are produced by an external
// trainer and consumed read-only.
package embedding

import (
	"sort"

	apperrors "github.com/Adithya-Monish-Kumar-K/abstract-features/pkg/errors"
)

// Vocabulary looks up the trained vector for a token. Every vector it
// returns must have length Dim().
type Vocabulary interface {
	Lookup(token string) ([]float64, bool)
	Dim() int
}

// MapVocabulary is an in-memory Vocabulary. It is never mutated after
// construction, so concurrent lookups need no locking.
type MapVocabulary struct {
	vectors map[string][]float64
	dim     int
}

// NewMapVocabulary validates that all vectors share one dimension and wraps
// them. The map is copied. An empty map is rejected because its dimension is
// unknown.
func NewMapVocabulary(vectors map[string][]float64) (*MapVocabulary, error) {
	if len(vectors) == 0 {
		return nil, apperrors.New(apperrors.ErrInvalidVocabulary, 422, "vocabulary has no entries")
	}
	dim := -1
	copied := make(map[string][]float64, len(vectors))
	for _, token := range sortedKeys(vectors) {
		vec := vectors[token]
		if dim < 0 {
			dim = len(vec)
		}
		if len(vec) != dim {
			return nil, apperrors.Newf(apperrors.ErrDimensionMismatch, 422,
				"token %q has %d dimensions, expected %d", token, len(vec), dim)
		}
		copied[token] = append([]float64(nil), vec...)
	}
	if dim == 0 {
		return nil, apperrors.New(apperrors.ErrInvalidVocabulary, 422, "vocabulary vectors are empty")
	}
	return &MapVocabulary{vectors: copied, dim: dim}, nil
}

func (v *MapVocabulary) Lookup(token string) ([]float64, bool) {
	vec, ok := v.vectors[token]
	return vec, ok
}

func (v *MapVocabulary) Dim() int {
	return v.dim
}

// Size returns the number of tokens in the vocabulary.
func (v *MapVocabulary) Size() int {
	return len(v.vectors)
}

func sortedKeys(m map[string][]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
