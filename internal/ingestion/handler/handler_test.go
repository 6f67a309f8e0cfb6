package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/abstract-features/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/abstract-features/internal/ingestion/validator"
	apperrors "github.com/Adithya-Monish-Kumar-K/abstract-features/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/abstract-features/pkg/metrics"
)

type fakeIngester struct {
	got []*ingestion.AbstractRequest
	err error
}

func (f *fakeIngester) Ingest(ctx context.Context, req *ingestion.AbstractRequest) (*ingestion.AbstractResponse, error) {
	f.got = append(f.got, req)
	if f.err != nil {
		return nil, f.err
	}
	return &ingestion.AbstractResponse{AbstractID: "abs-1", Status: ingestion.StatusPending}, nil
}

func newTestHandler(ing Ingester) (*http.ServeMux, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	h := New(ing, validator.New(10, nil), metrics.New(reg))
	mux := http.NewServeMux()
	h.Register(mux)
	return mux, reg
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	var total float64
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			total += metric.GetCounter().GetValue()
		}
	}
	return total
}

func post(mux http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/abstracts", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestIngestAccepted(t *testing.T) {
	ing := &fakeIngester{}
	mux, reg := newTestHandler(ing)

	rec := post(mux, `{"project_id":"p","abstract_text":"A sufficiently long abstract.","lead_funder":"EPSRC"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp ingestion.AbstractResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "abs-1", resp.AbstractID)
	assert.Equal(t, ingestion.StatusPending, resp.Status)
	require.Len(t, ing.got, 1)
	assert.Equal(t, "EPSRC", ing.got[0].LeadFunder)
	assert.Equal(t, 1.0, counterValue(t, reg, "abstracts_ingested_total"))
}

func TestIngestValidationFailure(t *testing.T) {
	ing := &fakeIngester{}
	mux, reg := newTestHandler(ing)

	rec := post(mux, `{"abstract_text":"short","lead_funder":""}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "validation failed", body.Error)
	assert.Contains(t, body.Fields, "abstract_text")
	assert.Contains(t, body.Fields, "lead_funder")
	assert.Empty(t, ing.got)
	assert.Equal(t, 0.0, counterValue(t, reg, "abstracts_ingested_total"))
}

func TestIngestBadJSON(t *testing.T) {
	mux, _ := newTestHandler(&fakeIngester{})
	rec := post(mux, `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIngestBackendErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"conflict", apperrors.New(apperrors.ErrIdempotencyConflict, http.StatusConflict, "taken"), http.StatusConflict},
		{"internal", context.DeadlineExceeded, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux, _ := newTestHandler(&fakeIngester{err: tt.err})
			rec := post(mux, `{"abstract_text":"A sufficiently long abstract.","lead_funder":"EPSRC"}`)
			assert.Equal(t, tt.code, rec.Code)
			assert.Contains(t, rec.Body.String(), "ingestion failed")
		})
	}
}

func TestHealth(t *testing.T) {
	mux, _ := newTestHandler(&fakeIngester{})
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
