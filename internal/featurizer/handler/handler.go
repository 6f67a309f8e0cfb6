package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/Adithya-Monish-Kumar-K/abstract-features/internal/featurizer"
	"github.com/Adithya-Monish-Kumar-K/abstract-features/internal/featurizer/store"
	"github.com/Adithya-Monish-Kumar-K/abstract-features/internal/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/abstract-features/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/abstract-features/pkg/logger"
)

const maxBodyBytes = 2 << 20

// FeatureReader loads stored features.
type FeatureReader interface {
	Get(ctx context.Context, abstractID string) (*store.Record, error)
}

type Handler struct {
	engine  *featurizer.Engine
	reader  FeatureReader
	flatten bool
	logger  *slog.Logger
}

// New creates a Handler. flatten is the default for tokenize requests that
// do not set it.
func New(engine *featurizer.Engine, reader FeatureReader, flatten bool) *Handler {
	return &Handler{
		engine:  engine,
		reader:  reader,
		flatten: flatten,
		logger:  slog.Default().With("component", "featurizer-handler"),
	}
}

// Register mounts the handler's routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/tokenize", h.Tokenize)
	mux.HandleFunc("POST /api/v1/vectorize", h.Vectorize)
	mux.HandleFunc("GET /api/v1/abstracts/{id}/features", h.Features)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("DELETE /api/v1/cache", h.CacheInvalidate)
}

type tokenizeRequest struct {
	Text      string `json:"text"`
	MinLength *int   `json:"min_length"`
	Flatten   *bool  `json:"flatten"`
}

type tokenizeResponse struct {
	Tokens     tokenizer.Document `json:"tokens"`
	TokenCount int                `json:"token_count"`
}

func (h *Handler) Tokenize(w http.ResponseWriter, r *http.Request) {
	var req tokenizeRequest
	if !h.decode(w, r, &req) {
		return
	}
	minLength := h.engine.MinLength()
	if req.MinLength != nil {
		if *req.MinLength < 0 {
			h.writeError(w, http.StatusBadRequest, "min_length must not be negative")
			return
		}
		minLength = *req.MinLength
	}
	flatten := h.flatten
	if req.Flatten != nil {
		flatten = *req.Flatten
	}
	doc, err := h.engine.Tokenize(req.Text, minLength, flatten)
	if err != nil {
		h.fail(w, r, "tokenize failed", err)
		return
	}
	h.writeJSON(w, http.StatusOK, tokenizeResponse{Tokens: doc, TokenCount: doc.Len()})
}

// vectorizeRequest carries either pre-tokenized input or raw text. Tokens
// win when both are set.
type vectorizeRequest struct {
	Tokens []string `json:"tokens"`
	Text   string   `json:"text"`
}

type vectorizeResponse struct {
	Vector    []float64 `json:"vector"`
	Dimension int       `json:"dimension"`
	Known     int       `json:"known_tokens"`
	Unknown   int       `json:"unknown_tokens"`
	OOVRatio  float64   `json:"oov_ratio"`
	CacheHit  bool      `json:"cache_hit"`
}

func (h *Handler) Vectorize(w http.ResponseWriter, r *http.Request) {
	var req vectorizeRequest
	if !h.decode(w, r, &req) {
		return
	}
	tokens := req.Tokens
	if tokens == nil {
		doc, err := h.engine.Tokenize(req.Text, h.engine.MinLength(), true)
		if err != nil {
			h.fail(w, r, "tokenize failed", err)
			return
		}
		tokens = doc.Flat()
	}
	emb, hit, err := h.engine.Vectorize(r.Context(), tokens)
	if err != nil {
		h.fail(w, r, "vectorize failed", err)
		return
	}
	h.writeJSON(w, http.StatusOK, vectorizeResponse{
		Vector:    emb.Vector,
		Dimension: h.engine.Dimension(),
		Known:     emb.Known,
		Unknown:   emb.Unknown,
		OOVRatio:  emb.OOVRatio(),
		CacheHit:  hit,
	})
}

func (h *Handler) Features(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if h.reader == nil {
		h.writeError(w, http.StatusServiceUnavailable, "feature store is disabled")
		return
	}
	if _, err := uuid.Parse(id); err != nil {
		h.fail(w, r, "loading features failed",
			apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest, "abstract id %q is not a uuid", id))
		return
	}
	rec, err := h.reader.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, "loading features failed", err)
		return
	}
	h.writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	c := h.engine.Cache()
	if c == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	hits, misses := c.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
		"breaker":  c.BreakerState(),
	})
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	c := h.engine.Cache()
	if c == nil {
		h.writeError(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}
	if err := c.Invalidate(r.Context()); err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// fail maps err to its status code. Client errors are returned with their
// message; server errors are logged and reported generically.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	status := apperrors.HTTPStatusCode(err)
	if status >= http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error(msg, "error", err)
		h.writeError(w, status, msg)
		return
	}
	h.writeError(w, status, err.Error())
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
