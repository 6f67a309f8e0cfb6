// Package featurizer turns abstracts into features: a flattened token list
// and the mean word vector of the tokens the vocabulary knows.
package featurizer

import (
	"context"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/abstract-features/internal/embedding"
	"github.com/Adithya-Monish-Kumar-K/abstract-features/internal/featurizer/cache"
	"github.com/Adithya-Monish-Kumar-K/abstract-features/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/abstract-features/internal/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/abstract-features/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/abstract-features/pkg/tracing"
)

// Features is the result of featurizing one abstract. Embedding is the zero
// value when the abstract produced no tokens.
type Features struct {
	Status    string
	Tokens    []string
	Embedding embedding.Embedding
	CacheHit  bool
}

// Engine is safe for concurrent use.
type Engine struct {
	tokenizer *tokenizer.Tokenizer
	vocab     embedding.Vocabulary
	cache     *cache.VectorCache
	minLength int
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewEngine creates an Engine. vectorCache and m may be nil.
func NewEngine(tok *tokenizer.Tokenizer, vocab embedding.Vocabulary, vectorCache *cache.VectorCache, minLength int, m *metrics.Metrics) *Engine {
	return &Engine{
		tokenizer: tok,
		vocab:     vocab,
		cache:     vectorCache,
		minLength: minLength,
		metrics:   m,
		logger:    slog.Default().With("component", "featurizer-engine"),
	}
}

func (e *Engine) MinLength() int {
	return e.minLength
}

func (e *Engine) Dimension() int {
	return e.vocab.Dim()
}

func (e *Engine) Cache() *cache.VectorCache {
	return e.cache
}

// Tokenize runs the tokenizer and records its latency.
func (e *Engine) Tokenize(text string, minLength int, flatten bool) (tokenizer.Document, error) {
	start := time.Now()
	doc, err := e.tokenizer.Tokenize(text, minLength, flatten)
	if e.metrics != nil {
		e.metrics.TokenizeDuration.Observe(time.Since(start).Seconds())
	}
	return doc, err
}

// Vectorize averages the known token vectors, consulting the cache first
// when one is configured.
func (e *Engine) Vectorize(ctx context.Context, tokens []string) (embedding.Embedding, bool, error) {
	compute := func() (embedding.Embedding, error) {
		return embedding.Embed(tokens, e.vocab)
	}
	var (
		emb embedding.Embedding
		hit bool
		err error
	)
	if e.cache != nil {
		emb, hit, err = e.cache.GetOrCompute(ctx, tokens, compute)
	} else {
		emb, err = compute()
	}
	if err != nil {
		return embedding.Embedding{}, false, err
	}
	if e.metrics != nil {
		e.metrics.OOVRatio.Observe(emb.OOVRatio())
	}
	return emb, hit, nil
}

// Featurize tokenizes text flattened and vectorizes the result. An abstract
// with no surviving tokens is reported as skipped and is not vectorized.
func (e *Engine) Featurize(ctx context.Context, text string) (*Features, error) {
	_, span := tracing.Child(ctx, "tokenize")
	doc, err := e.Tokenize(text, e.minLength, true)
	if err != nil {
		span.End(err)
		return nil, err
	}
	tokens := doc.Flat()
	span.SetAttr("tokens", len(tokens))
	span.End(nil)
	if e.metrics != nil {
		e.metrics.TokensPerAbstract.Observe(float64(len(tokens)))
	}
	if len(tokens) == 0 {
		return &Features{Status: ingestion.StatusSkipped, Tokens: []string{}}, nil
	}
	vctx, span := tracing.Child(ctx, "vectorize")
	emb, hit, err := e.Vectorize(vctx, tokens)
	if err != nil {
		span.End(err)
		return nil, err
	}
	span.SetAttr("known_tokens", emb.Known)
	span.SetAttr("cache_hit", hit)
	span.End(nil)
	if emb.Known == 0 {
		e.logger.Debug("no token in vocabulary, using zero vector", "tokens", len(tokens))
	}
	return &Features{
		Status:    ingestion.StatusFeaturized,
		Tokens:    tokens,
		Embedding: emb,
		CacheHit:  hit,
	}, nil
}
