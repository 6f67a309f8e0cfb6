package embedding

import (
	apperrors "github.com/Adithya-Monish-Kumar-K/abstract-features/pkg/errors"
)

// Embedding is a document vector together with how many tokens contributed
// to it.
type Embedding struct {
	Vector  []float64 `json:"vector"`
	Known   int       `json:"known"`
	Unknown int       `json:"unknown"`
}

// OOVRatio returns the fraction of tokens that were out of vocabulary, or 0
// for an empty document.
func (e Embedding) OOVRatio() float64 {
	total := e.Known + e.Unknown
	if total == 0 {
		return 0
	}
	return float64(e.Unknown) / float64(total)
}

// Vectorize returns the mean of the vectors of all tokens present in vocab.
// Repeated tokens count once per occurrence. When no token is known the
// zero vector of length vocab.Dim() is returned.
func Vectorize(tokens []string, vocab Vocabulary) ([]float64, error) {
	e, err := Embed(tokens, vocab)
	if err != nil {
		return nil, err
	}
	return e.Vector, nil
}

// Embed is Vectorize with known/unknown token counts.
func Embed(tokens []string, vocab Vocabulary) (Embedding, error) {
	sum := ZeroVector(vocab)
	dim := len(sum)
	known := 0
	for _, token := range tokens {
		vec, ok := vocab.Lookup(token)
		if !ok {
			continue
		}
		if len(vec) != dim {
			return Embedding{}, apperrors.Newf(apperrors.ErrDimensionMismatch, 422,
				"token %q has %d dimensions, vocabulary has %d", token, len(vec), dim)
		}
		for i, x := range vec {
			sum[i] += x
		}
		known++
	}
	if known > 0 {
		for i := range sum {
			sum[i] /= float64(known)
		}
	}
	return Embedding{
		Vector:  sum,
		Known:   known,
		Unknown: len(tokens) - known,
	}, nil
}

// ZeroVector returns the fallback vector for a vocabulary.
func ZeroVector(vocab Vocabulary) []float64 {
	return make([]float64, vocab.Dim())
}
