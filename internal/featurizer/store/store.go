// Package store persists featurized abstracts in PostgreSQL: the flattened
// token list, the document vector and the counts behind it.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	apperrors "github.com/Adithya-Monish-Kumar-K/abstract-features/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/abstract-features/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/abstract-features/pkg/resilience"
)

// Schema creates the abstract_features table.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS abstract_features (
		abstract_id    UUID PRIMARY KEY,
		status         TEXT NOT NULL,
		tokens         TEXT[] NOT NULL DEFAULT '{}',
		vector         DOUBLE PRECISION[],
		known_tokens   INTEGER NOT NULL DEFAULT 0,
		unknown_tokens INTEGER NOT NULL DEFAULT 0,
		dimension      INTEGER NOT NULL DEFAULT 0,
		featurized_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// Record is one row of abstract_features. Vector is nil for skipped
// abstracts.
type Record struct {
	AbstractID    string    `json:"abstract_id"`
	Status        string    `json:"status"`
	Tokens        []string  `json:"tokens"`
	Vector        []float64 `json:"vector,omitempty"`
	KnownTokens   int       `json:"known_tokens"`
	UnknownTokens int       `json:"unknown_tokens"`
	Dimension     int       `json:"dimension"`
	FeaturizedAt  time.Time `json:"featurized_at"`
}

type Store struct {
	db           *postgres.Client
	writeTimeout time.Duration
}

// New returns a Store. A zero writeTimeout leaves writes bounded only by the
// caller's context.
func New(db *postgres.Client, writeTimeout time.Duration) *Store {
	return &Store{db: db, writeTimeout: writeTimeout}
}

// Save upserts rec and moves the parent abstract to rec.Status in the same
// transaction.
func (s *Store) Save(ctx context.Context, rec *Record) error {
	return resilience.WithTimeout(ctx, s.writeTimeout, "save-features", func(ctx context.Context) error {
		return s.db.InTx(ctx, func(tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO abstract_features
					(abstract_id, status, tokens, vector, known_tokens, unknown_tokens, dimension, featurized_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
				ON CONFLICT (abstract_id) DO UPDATE SET
					status = EXCLUDED.status,
					tokens = EXCLUDED.tokens,
					vector = EXCLUDED.vector,
					known_tokens = EXCLUDED.known_tokens,
					unknown_tokens = EXCLUDED.unknown_tokens,
					dimension = EXCLUDED.dimension,
					featurized_at = EXCLUDED.featurized_at`,
				rec.AbstractID, rec.Status, pq.Array(nonNil(rec.Tokens)), vectorParam(rec.Vector),
				rec.KnownTokens, rec.UnknownTokens, rec.Dimension, rec.FeaturizedAt,
			)
			if err != nil {
				return fmt.Errorf("upserting features for %s: %w", rec.AbstractID, err)
			}
			return setStatus(ctx, tx, rec.AbstractID, rec.Status)
		})
	})
}

// MarkStatus sets the abstract's lifecycle status without touching features.
func (s *Store) MarkStatus(ctx context.Context, abstractID, status string) error {
	return resilience.WithTimeout(ctx, s.writeTimeout, "mark-status", func(ctx context.Context) error {
		return s.db.InTx(ctx, func(tx *sql.Tx) error {
			return setStatus(ctx, tx, abstractID, status)
		})
	})
}

// Get loads the features for abstractID.
func (s *Store) Get(ctx context.Context, abstractID string) (*Record, error) {
	var (
		rec    Record
		tokens pq.StringArray
		vector pq.Float64Array
	)
	err := s.db.DB.QueryRowContext(ctx,
		`SELECT abstract_id, status, tokens, vector, known_tokens, unknown_tokens, dimension, featurized_at
		FROM abstract_features WHERE abstract_id = $1`, abstractID,
	).Scan(&rec.AbstractID, &rec.Status, &tokens, &vector,
		&rec.KnownTokens, &rec.UnknownTokens, &rec.Dimension, &rec.FeaturizedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.Newf(apperrors.ErrFeaturesNotFound, 404, "no features for abstract %s", abstractID)
	}
	if err != nil {
		return nil, fmt.Errorf("loading features for %s: %w", abstractID, err)
	}
	rec.Tokens = []string(tokens)
	if rec.Tokens == nil {
		rec.Tokens = []string{}
	}
	rec.Vector = []float64(vector)
	return &rec, nil
}

func setStatus(ctx context.Context, tx *sql.Tx, abstractID, status string) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE abstracts SET status = $1, featurized_at = NOW() WHERE id = $2`,
		status, abstractID,
	)
	if err != nil {
		return fmt.Errorf("updating status of %s to %s: %w", abstractID, status, err)
	}
	return nil
}

func nonNil(tokens []string) []string {
	if tokens == nil {
		return []string{}
	}
	return tokens
}

// vectorParam stores a nil vector as SQL NULL.
func vectorParam(v []float64) any {
	if v == nil {
		return nil
	}
	return pq.Array(v)
}
