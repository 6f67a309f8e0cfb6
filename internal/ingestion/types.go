// Package ingestion defines the request/response types and Kafka event schemas
// used by the abstract ingestion and featurization pipeline.
package ingestion

import "time"

// Abstract lifecycle states stored in the abstracts table.
const (
	StatusPending    = "PENDING"
	StatusFeaturized = "FEATURIZED"
	StatusSkipped    = "SKIPPED"
	StatusFailed     = "FAILED"
)

// AbstractRequest is the JSON body accepted by the ingestion HTTP endpoint.
type AbstractRequest struct {
	ProjectID      string `json:"project_id"`
	Title          string `json:"title"`
	AbstractText   string `json:"abstract_text"`
	LeadFunder     string `json:"lead_funder"`
	IdempotencyKey string `json:"idempotency_key"`
}

// AbstractResponse is returned to the caller after an abstract is accepted.
type AbstractResponse struct {
	AbstractID string `json:"abstract_id"`
	Status     string `json:"status"`
}

// AbstractEvent is the Kafka message payload produced after an abstract is
// persisted and ready for featurization.
type AbstractEvent struct {
	AbstractID   string    `json:"abstract_id"`
	ProjectID    string    `json:"project_id"`
	AbstractText string    `json:"abstract_text"`
	LeadFunder   string    `json:"lead_funder"`
	IngestedAt   time.Time `json:"ingested_at"`
}

// FeaturesEvent announces that an abstract has been tokenized and, unless
// it produced no tokens, vectorized.
type FeaturesEvent struct {
	AbstractID   string    `json:"abstract_id"`
	Status       string    `json:"status"`
	TokenCount   int       `json:"token_count"`
	KnownTokens  int       `json:"known_tokens"`
	Dimension    int       `json:"dimension"`
	FeaturizedAt time.Time `json:"featurized_at"`
}
