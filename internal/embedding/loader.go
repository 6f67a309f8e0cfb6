package embedding

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/abstract-features/pkg/errors"
)

const maxLineSize = 16 * 1024 * 1024

// LoadWord2VecFile reads a vocabulary in word2vec text format from path.
func LoadWord2VecFile(path string) (*MapVocabulary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening vocabulary file %s: %w", path, err)
	}
	defer f.Close()
	vocab, err := LoadWord2Vec(f)
	if err != nil {
		return nil, fmt.Errorf("loading vocabulary file %s: %w", path, err)
	}
	return vocab, nil
}

// LoadWord2Vec parses the word2vec text format: an optional "<count> <dim>"
// header followed by one "<token> <v1> ... <vd>" line per token. When the
// header is present, the declared dimension and count must match the body.
func LoadWord2Vec(r io.Reader) (*MapVocabulary, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	vectors := make(map[string][]float64)
	declaredCount, declaredDim := -1, -1
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if lineNo == 1 && len(fields) == 2 {
			count, errCount := strconv.Atoi(fields[0])
			dim, errDim := strconv.Atoi(fields[1])
			if errCount == nil && errDim == nil {
				declaredCount, declaredDim = count, dim
				continue
			}
		}
		if len(fields) < 2 {
			return nil, apperrors.Newf(apperrors.ErrInvalidVocabulary, 422, "line %d: no vector values", lineNo)
		}
		vec := make([]float64, len(fields)-1)
		for i, raw := range fields[1:] {
			x, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, apperrors.Newf(apperrors.ErrInvalidVocabulary, 422, "line %d: bad value %q", lineNo, raw)
			}
			vec[i] = x
		}
		if declaredDim >= 0 && len(vec) != declaredDim {
			return nil, apperrors.Newf(apperrors.ErrDimensionMismatch, 422,
				"line %d: token %q has %d dimensions, header declares %d", lineNo, fields[0], len(vec), declaredDim)
		}
		vectors[fields[0]] = vec
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading vocabulary: %w", err)
	}
	if declaredCount >= 0 && declaredCount != len(vectors) {
		return nil, apperrors.Newf(apperrors.ErrInvalidVocabulary, 422,
			"header declares %d tokens, found %d", declaredCount, len(vectors))
	}
	return NewMapVocabulary(vectors)
}
