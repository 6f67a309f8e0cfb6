package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Adithya-Monish-Kumar-K/abstract-features/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/abstract-features/internal/ingestion/validator"
	apperrors "github.com/Adithya-Monish-Kumar-K/abstract-features/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/abstract-features/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/abstract-features/pkg/metrics"
)

const maxBodyBytes = 2 << 20

// Ingester accepts a validated abstract.
type Ingester interface {
	Ingest(ctx context.Context, req *ingestion.AbstractRequest) (*ingestion.AbstractResponse, error)
}

type Handler struct {
	ingester  Ingester
	validator *validator.Validator
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func New(ingester Ingester, v *validator.Validator, m *metrics.Metrics) *Handler {
	return &Handler{
		ingester:  ingester,
		validator: v,
		metrics:   m,
		logger:    slog.Default().With("component", "ingestion-handler"),
	}
}

// Register mounts the handler's routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/abstracts", h.Ingest)
	mux.HandleFunc("GET /health", h.Health)
}

func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)
	var req ingestion.AbstractRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		var validationErr *validator.ValidationError
		if errors.As(err, &validationErr) {
			h.writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":  "validation failed",
				"fields": validationErr.Fields,
			})
			return
		}
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.ingester.Ingest(ctx, &req)
	if err != nil {
		statusCode := apperrors.HTTPStatusCode(err)
		log.Error("ingestion failed",
			"error", err,
			"status_code", statusCode,
		)
		h.writeError(w, statusCode, "ingestion failed")
		return
	}
	if h.metrics != nil {
		h.metrics.AbstractsIngested.Inc()
	}
	log.Info("abstract ingested",
		"abstract_id", resp.AbstractID,
		"project_id", req.ProjectID,
	)
	h.writeJSON(w, http.StatusAccepted, resp)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
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
