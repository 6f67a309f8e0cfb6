// Package consumer reads abstract events from Kafka, featurizes them, stores
// the result and announces it on the features topic.
package consumer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/abstract-features/internal/featurizer"
	"github.com/Adithya-Monish-Kumar-K/abstract-features/internal/featurizer/store"
	"github.com/Adithya-Monish-Kumar-K/abstract-features/internal/ingestion"
	apperrors "github.com/Adithya-Monish-Kumar-K/abstract-features/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/abstract-features/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/abstract-features/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/abstract-features/pkg/tracing"
)

// FeatureStore persists features and abstract status.
type FeatureStore interface {
	Save(ctx context.Context, rec *store.Record) error
	MarkStatus(ctx context.Context, abstractID, status string) error
}

// HandleMessage returns a Kafka MessageHandler that featurizes each
// AbstractEvent. Undecodable events and abstracts the tokenizer rejects are
// marked FAILED and returned as contract violations so the consumer commits
// past them; storage and publish failures are returned as is and retried.
// m may be nil.
func HandleMessage(engine *featurizer.Engine, fs FeatureStore, producer kafka.Publisher, m *metrics.Metrics) kafka.MessageHandler {
	logger := slog.Default().With("component", "featurizer-consumer")
	outcome := func(label string) {
		if m != nil {
			m.AbstractsProcessed.WithLabelValues(label).Inc()
		}
	}
	return func(ctx context.Context, key []byte, value []byte) (err error) {
		event, err := kafka.DecodeJSON[ingestion.AbstractEvent](value)
		if err != nil {
			logger.Error("failed to decode abstract event",
				"error", err,
				"key", string(key),
			)
			outcome("failed")
			return err
		}
		logger.Debug("processing abstract event", "abstract_id", event.AbstractID)

		ctx, root := tracing.Start(ctx, "featurize-abstract", event.AbstractID)
		defer func() {
			root.End(err)
			root.Log(logger)
		}()

		features, err := engine.Featurize(ctx, event.AbstractText)
		if err != nil {
			if apperrors.IsContractViolation(err) {
				if markErr := fs.MarkStatus(ctx, event.AbstractID, ingestion.StatusFailed); markErr != nil {
					logger.Error("failed to mark abstract failed",
						"abstract_id", event.AbstractID,
						"error", markErr,
					)
				}
				outcome("failed")
			}
			return fmt.Errorf("featurizing abstract %s: %w", event.AbstractID, err)
		}

		now := time.Now().UTC()
		rec := &store.Record{
			AbstractID:    event.AbstractID,
			Status:        features.Status,
			Tokens:        features.Tokens,
			Vector:        features.Embedding.Vector,
			KnownTokens:   features.Embedding.Known,
			UnknownTokens: features.Embedding.Unknown,
			Dimension:     len(features.Embedding.Vector),
			FeaturizedAt:  now,
		}
		_, saveSpan := tracing.Child(ctx, "store")
		err = fs.Save(ctx, rec)
		saveSpan.End(err)
		if err != nil {
			return fmt.Errorf("saving features for %s: %w", event.AbstractID, err)
		}

		_, pubSpan := tracing.Child(ctx, "publish")
		err = producer.Publish(ctx, kafka.Event{
			Key: event.AbstractID,
			Value: ingestion.FeaturesEvent{
				AbstractID:   event.AbstractID,
				Status:       features.Status,
				TokenCount:   len(features.Tokens),
				KnownTokens:  features.Embedding.Known,
				Dimension:    rec.Dimension,
				FeaturizedAt: now,
			},
		})
		pubSpan.End(err)
		if err != nil {
			return fmt.Errorf("publishing features event for %s: %w", event.AbstractID, err)
		}

		switch features.Status {
		case ingestion.StatusSkipped:
			outcome("skipped")
			logger.Info("abstract skipped, no tokens survived filtering", "abstract_id", event.AbstractID)
		default:
			outcome("featurized")
			logger.Info("abstract featurized",
				"abstract_id", event.AbstractID,
				"tokens", len(features.Tokens),
				"known_tokens", features.Embedding.Known,
				"cache_hit", features.CacheHit,
			)
		}
		return nil
	}
}
