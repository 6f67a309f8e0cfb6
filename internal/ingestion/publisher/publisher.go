// Package publisher persists abstracts to PostgreSQL and publishes abstract
// events to Kafka for downstream featurization. Writes are idempotent when
// the caller supplies an idempotency key.
package publisher

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Adithya-Monish-Kumar-K/abstract-features/internal/ingestion"
	apperrors "github.com/Adithya-Monish-Kumar-K/abstract-features/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/abstract-features/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/abstract-features/pkg/postgres"
)

// Schema creates the abstracts table. Statements are idempotent.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS abstracts (
		id              UUID PRIMARY KEY,
		project_id      TEXT,
		title           TEXT NOT NULL DEFAULT '',
		abstract_text   TEXT NOT NULL,
		lead_funder     TEXT NOT NULL,
		idempotency_key TEXT UNIQUE,
		status          TEXT NOT NULL DEFAULT 'PENDING',
		created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		featurized_at   TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS abstracts_status_idx ON abstracts (status)`,
}

// Publisher coordinates abstract persistence and Kafka event production.
type Publisher struct {
	db       *postgres.Client
	producer kafka.Publisher
	logger   *slog.Logger
}

// New creates a Publisher with the given database and Kafka producer.
func New(db *postgres.Client, producer kafka.Publisher) *Publisher {
	return &Publisher{
		db:       db,
		producer: producer,
		logger:   slog.Default().With("component", "publisher"),
	}
}

// Ingest persists the abstract in PostgreSQL and publishes an AbstractEvent.
// A repeated idempotency key returns the existing abstract without
// re-inserting or re-publishing it. A failed publish leaves the abstract
// PENDING; it is not reported to the caller.
func (p *Publisher) Ingest(ctx context.Context, req *ingestion.AbstractRequest) (*ingestion.AbstractResponse, error) {
	if req.IdempotencyKey != "" {
		existing, err := p.findByIdempotencyKey(ctx, req.IdempotencyKey)
		if err != nil {
			return nil, fmt.Errorf("checking idempotency key: %w", err)
		}
		if existing != nil {
			p.logger.Info("duplicate ingestion detected",
				"idempotency_key", req.IdempotencyKey,
				"existing_id", existing.AbstractID,
			)
			return existing, nil
		}
	}

	abstractID := uuid.NewString()
	err := p.db.InTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO abstracts (id, project_id, title, abstract_text, lead_funder, idempotency_key, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (idempotency_key) DO NOTHING`,
			abstractID, nullableString(req.ProjectID), req.Title, req.AbstractText,
			req.LeadFunder, nullableString(req.IdempotencyKey), ingestion.StatusPending)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return apperrors.New(apperrors.ErrIdempotencyConflict, 409, "idempotency key already in use")
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("inserting abstract: %w", err)
	}

	event := kafka.Event{
		Key: abstractID,
		Value: ingestion.AbstractEvent{
			AbstractID:   abstractID,
			ProjectID:    req.ProjectID,
			AbstractText: req.AbstractText,
			LeadFunder:   req.LeadFunder,
			IngestedAt:   time.Now().UTC(),
		},
	}
	if err := p.producer.Publish(ctx, event); err != nil {
		p.logger.Error("failed to publish to kafka, abstract stuck in PENDING",
			"abstract_id", abstractID,
			"error", err,
		)
	}
	return &ingestion.AbstractResponse{
		AbstractID: abstractID,
		Status:     ingestion.StatusPending,
	}, nil
}

// findByIdempotencyKey returns the abstract registered under key, or nil.
func (p *Publisher) findByIdempotencyKey(ctx context.Context, key string) (*ingestion.AbstractResponse, error) {
	var resp ingestion.AbstractResponse
	err := p.db.DB.QueryRowContext(ctx,
		`SELECT id, status FROM abstracts WHERE idempotency_key=$1`, key).Scan(&resp.AbstractID, &resp.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying by idempotency key: %w", err)
	}
	return &resp, nil
}

// nullableString converts a Go string to a sql.NullString, treating the
// empty string as NULL.
func nullableString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
