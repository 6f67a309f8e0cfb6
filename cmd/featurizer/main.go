// Command featurizer consumes abstract events from Kafka, tokenizes and
// vectorizes each abstract, stores the features in PostgreSQL and announces
// them on the features topic. It also serves the tokenizer and vectorizer
// over HTTP, together with stored features, health probes and metrics.
//
// Usage:
//
//	go run ./cmd/featurizer [-config configs/development.yaml]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/abstract-features/internal/embedding"
	"github.com/Adithya-Monish-Kumar-K/abstract-features/internal/featurizer"
	"github.com/Adithya-Monish-Kumar-K/abstract-features/internal/featurizer/cache"
	"github.com/Adithya-Monish-Kumar-K/abstract-features/internal/featurizer/consumer"
	"github.com/Adithya-Monish-Kumar-K/abstract-features/internal/featurizer/handler"
	"github.com/Adithya-Monish-Kumar-K/abstract-features/internal/featurizer/store"
	"github.com/Adithya-Monish-Kumar-K/abstract-features/internal/ingestion/publisher"
	"github.com/Adithya-Monish-Kumar-K/abstract-features/internal/sentence"
	"github.com/Adithya-Monish-Kumar-K/abstract-features/internal/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/abstract-features/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/abstract-features/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/abstract-features/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/abstract-features/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/abstract-features/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/abstract-features/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/abstract-features/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/abstract-features/pkg/redis"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting featurizer service", "port", cfg.Featurizer.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	trainer := embedding.TrainerConfig{
		Dimension: cfg.Embedding.Dimension,
		Window:    cfg.Embedding.Window,
		MinCount:  cfg.Embedding.MinCount,
		Workers:   cfg.Embedding.Workers,
		Seed:      cfg.Embedding.Seed,
	}
	embedding.LogReproducibility(logger.WithComponent("embedding"), trainer)
	vocab, err := embedding.LoadWord2VecFile(cfg.Embedding.VocabularyPath)
	if err != nil {
		slog.Error("failed to load vocabulary", "path", cfg.Embedding.VocabularyPath, "error", err)
		os.Exit(1)
	}
	if err := embedding.CheckDimension(vocab, trainer); err != nil {
		slog.Error("vocabulary does not match configuration", "error", err)
		os.Exit(1)
	}
	slog.Info("vocabulary loaded", "tokens", vocab.Size(), "dimension", vocab.Dim())

	punkt, err := sentence.NewPunkt()
	if err != nil {
		slog.Error("failed to load sentence model", "error", err)
		os.Exit(1)
	}
	tok := tokenizer.New(punkt, tokenizer.EnglishStopWords())

	db, err := postgres.New(cfg.Postgres)
	if err != nil {
		slog.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	migrations := append(append([]string{}, publisher.Schema...), store.Schema...)
	if err := db.Migrate(ctx, migrations...); err != nil {
		slog.Error("failed to migrate features tables", "error", err)
		os.Exit(1)
	}
	slog.Info("connected to postgres")

	m := metrics.New(prometheus.DefaultRegisterer)
	checker := health.NewChecker()
	checker.Register("postgres", health.Ping(db.Ping, false))

	var vectorCache *cache.VectorCache
	redisClient, err := pkgredis.NewClient(cfg.Redis)
	if err != nil {
		slog.Warn("redis unavailable, vector cache disabled", "error", err)
	} else {
		defer redisClient.Close()
		vocabID := fmt.Sprintf("%s:%d:%d", filepath.Base(cfg.Embedding.VocabularyPath), vocab.Size(), vocab.Dim())
		vectorCache = cache.New(redisClient, vocabID, cfg.Redis.CacheTTL, m)
		checker.Register("redis", health.Ping(redisClient.Ping, true))
		slog.Info("vector cache enabled", "ttl", cfg.Redis.CacheTTL)
	}

	engine := featurizer.NewEngine(tok, vocab, vectorCache, cfg.Tokenizer.MinLength, m)
	featureStore := store.New(db, cfg.Featurizer.RequestTimeout)

	producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.FeaturesComplete)
	defer producer.Close()
	kafkaConsumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.AbstractIngest,
		consumer.HandleMessage(engine, featureStore, producer, m))

	mux := http.NewServeMux()
	handler.New(engine, featureStore, cfg.Tokenizer.Flatten).Register(mux)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())
	mux.Handle("GET /metrics", metrics.Handler(prometheus.DefaultGatherer))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Featurizer.Port),
		Handler:      middleware.Chain(mux, middleware.RequestID, middleware.Timeout(cfg.Featurizer.RequestTimeout), middleware.Metrics(m)),
		ReadTimeout:  cfg.Featurizer.ReadTimeout,
		WriteTimeout: cfg.Featurizer.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("featurizer consuming from kafka",
			"topic", cfg.Kafka.Topics.AbstractIngest,
			"group", cfg.Kafka.ConsumerGroup,
		)
		return kafkaConsumer.Start(gctx)
	})
	g.Go(func() error {
		slog.Info("featurizer listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Featurizer.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		slog.Error("featurizer stopped with error", "error", err)
		os.Exit(1)
	}
	slog.Info("featurizer service stopped")
}
