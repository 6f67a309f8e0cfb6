package validator

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/abstract-features/internal/ingestion"
)

const placeholder = "Abstracts are not currently available in GtR for all funded research."

func validRequest() *ingestion.AbstractRequest {
	return &ingestion.AbstractRequest{
		ProjectID:    "p-1",
		Title:        "Protein folding",
		AbstractText: "This project measures protein folding rates with single-molecule spectroscopy.",
		LeadFunder:   "BBSRC",
	}
}

func TestValidateAccepts(t *testing.T) {
	v := New(20, []string{placeholder})
	assert.NoError(t, v.Validate(validRequest()))
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ingestion.AbstractRequest)
		field  string
	}{
		{"empty text", func(r *ingestion.AbstractRequest) { r.AbstractText = "  " }, "abstract_text"},
		{"invalid utf8", func(r *ingestion.AbstractRequest) { r.AbstractText = "bad \xff bytes in a long enough abstract" }, "abstract_text"},
		{"too short", func(r *ingestion.AbstractRequest) { r.AbstractText = "Short abstract." }, "abstract_text"},
		{"exactly min chars", func(r *ingestion.AbstractRequest) { r.AbstractText = strings.Repeat("é", 20) }, "abstract_text"},
		{"placeholder", func(r *ingestion.AbstractRequest) { r.AbstractText = placeholder }, "abstract_text"},
		{"no funder", func(r *ingestion.AbstractRequest) { r.LeadFunder = "" }, "lead_funder"},
		{"long title", func(r *ingestion.AbstractRequest) { r.Title = strings.Repeat("t", maxTitleLength+1) }, "title"},
		{"long key", func(r *ingestion.AbstractRequest) { r.IdempotencyKey = strings.Repeat("k", maxKeyLength+1) }, "idempotency_key"},
	}
	v := New(20, []string{placeholder})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(req)
			err := v.Validate(req)
			require.Error(t, err)
			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Contains(t, ve.Fields, tt.field)
			assert.Len(t, ve.Fields, 1)
		})
	}
}

func TestValidationErrorIsSorted(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{"b": "second", "a": "first"}}
	assert.Equal(t, "a:first; b:second", err.Error())
}
