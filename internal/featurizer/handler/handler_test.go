package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/abstract-features/internal/embedding"
	"github.com/Adithya-Monish-Kumar-K/abstract-features/internal/featurizer"
	"github.com/Adithya-Monish-Kumar-K/abstract-features/internal/featurizer/cache"
	"github.com/Adithya-Monish-Kumar-K/abstract-features/internal/featurizer/store"
	"github.com/Adithya-Monish-Kumar-K/abstract-features/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/abstract-features/internal/sentence"
	"github.com/Adithya-Monish-Kumar-K/abstract-features/internal/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/abstract-features/pkg/errors"
)

type fakeReader map[string]*store.Record

func (f fakeReader) Get(ctx context.Context, id string) (*store.Record, error) {
	rec, ok := f[id]
	if !ok {
		return nil, apperrors.Newf(apperrors.ErrFeaturesNotFound, http.StatusNotFound, "no features for abstract %s", id)
	}
	return rec, nil
}

func newMux(t *testing.T, reader FeatureReader) *http.ServeMux {
	t.Helper()
	return newCachedMux(t, reader, nil)
}

func newCachedMux(t *testing.T, reader FeatureReader, vc *cache.VectorCache) *http.ServeMux {
	t.Helper()
	vocab, err := embedding.NewMapVocabulary(map[string][]float64{
		"a": {1, 2},
		"b": {3, 4},
		"protein": {0, 1},
	})
	require.NoError(t, err)
	sentences := sentence.Func(func(text string) []string { return strings.Split(text, ". ") })
	engine := featurizer.NewEngine(tokenizer.New(sentences, tokenizer.EnglishStopWords()), vocab, vc, 3, nil)
	mux := http.NewServeMux()
	New(engine, reader, true).Register(mux)
	return mux
}

func do(mux http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestTokenizeEndpoint(t *testing.T) {
	mux := newMux(t, fakeReader{})

	rec := do(mux, http.MethodPost, "/api/v1/tokenize", `{"text":"Protein folding. State-of-the-art methods"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"tokens":["protein","folding","state_of_the","art","methods"],"token_count":5}`, rec.Body.String())

	rec = do(mux, http.MethodPost, "/api/v1/tokenize", `{"text":"Protein folding. State-of-the-art methods","flatten":false,"min_length":4}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"tokens":[["protein","folding"],["state_of_the","methods"]],"token_count":4}`, rec.Body.String())
}

func TestTokenizeEndpointErrors(t *testing.T) {
	mux := newMux(t, fakeReader{})
	assert.Equal(t, http.StatusBadRequest, do(mux, http.MethodPost, "/api/v1/tokenize", `nope`).Code)
	assert.Equal(t, http.StatusBadRequest, do(mux, http.MethodPost, "/api/v1/tokenize", `{"text":"x","min_length":-1}`).Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(mux, http.MethodGet, "/api/v1/tokenize", ``).Code)
}

func TestVectorizeEndpoint(t *testing.T) {
	mux := newMux(t, fakeReader{})

	rec := do(mux, http.MethodPost, "/api/v1/vectorize", `{"tokens":["a","a","b","zzz"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp vectorizeResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.InDeltaSlice(t, []float64{5.0 / 3, 8.0 / 3}, resp.Vector, 1e-9)
	assert.Equal(t, 2, resp.Dimension)
	assert.Equal(t, 3, resp.Known)
	assert.Equal(t, 1, resp.Unknown)
	assert.InDelta(t, 0.25, resp.OOVRatio, 1e-9)

	rec = do(mux, http.MethodPost, "/api/v1/vectorize", `{"tokens":[]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, []float64{0, 0}, resp.Vector)

	rec = do(mux, http.MethodPost, "/api/v1/vectorize", `{"text":"The protein."}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, []float64{0, 1}, resp.Vector)
}

func TestFeaturesEndpoint(t *testing.T) {
	mux := newMux(t, fakeReader{
		"6f1c2d1e-3b7a-4c55-9a0e-2f5d8b7c9a10": {
			AbstractID:   "6f1c2d1e-3b7a-4c55-9a0e-2f5d8b7c9a10",
			Status:       ingestion.StatusFeaturized,
			Tokens:       []string{"protein"},
			Vector:       []float64{0, 1},
			KnownTokens:  1,
			Dimension:    2,
			FeaturizedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		},
	})

	rec := do(mux, http.MethodGet, "/api/v1/abstracts/6f1c2d1e-3b7a-4c55-9a0e-2f5d8b7c9a10/features", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got store.Record
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, []float64{0, 1}, got.Vector)
	assert.Equal(t, ingestion.StatusFeaturized, got.Status)

	rec = do(mux, http.MethodGet, "/api/v1/abstracts/0b8e4f0a-5d7c-4e1b-8a2f-9c3d6e1f4a27/features", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFeaturesRejectsNonUUID(t *testing.T) {
	reader := &countingReader{}
	mux := newMux(t, reader)
	rec := do(mux, http.MethodGet, "/api/v1/abstracts/not-a-uuid/features", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "not a uuid")
	assert.Zero(t, reader.calls, "invalid ids never reach the store")
}

type countingReader struct{ calls int }

func (c *countingReader) Get(ctx context.Context, id string) (*store.Record, error) {
	c.calls++
	return nil, apperrors.ErrFeaturesNotFound
}

func TestCacheEndpointsWithoutCache(t *testing.T) {
	mux := newMux(t, fakeReader{})
	rec := do(mux, http.MethodGet, "/api/v1/cache/stats", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"disabled"}`, rec.Body.String())
	assert.Equal(t, http.StatusServiceUnavailable, do(mux, http.MethodDelete, "/api/v1/cache", "").Code)
}

type downStore struct{}

func (downStore) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, errors.New("connection refused")
}

func (downStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return errors.New("connection refused")
}

func (downStore) FlushByPattern(ctx context.Context, pattern string) (int64, error) {
	return 0, errors.New("connection refused")
}

func TestCacheStatsReportsBreaker(t *testing.T) {
	mux := newCachedMux(t, fakeReader{}, cache.New(downStore{}, "v", time.Minute, nil))

	stats := func() map[string]any {
		rec := do(mux, http.MethodGet, "/api/v1/cache/stats", "")
		require.Equal(t, http.StatusOK, rec.Code)
		var body map[string]any
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		return body
	}
	assert.Equal(t, "closed", stats()["breaker"])

	for i := 0; i < 5; i++ {
		rec := do(mux, http.MethodPost, "/api/v1/vectorize", `{"tokens":["a","b"]}`)
		require.Equal(t, http.StatusOK, rec.Code, "vectorize succeeds with redis down")
	}
	body := stats()
	assert.Equal(t, "open", body["breaker"])
	assert.Equal(t, float64(5), body["misses"])

	assert.Equal(t, http.StatusInternalServerError, do(mux, http.MethodDelete, "/api/v1/cache", "").Code)
}
