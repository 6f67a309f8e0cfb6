// Command ingestion starts the abstract ingestion HTTP service.
//
// The service accepts abstracts via POST /api/v1/abstracts, validates them,
// persists them to PostgreSQL, and publishes them to a Kafka topic for
// downstream featurization. It provides a health endpoint at GET /health.
//
// Usage:
//
//	go run ./cmd/ingestion [-config configs/development.yaml]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Adithya-Monish-Kumar-K/abstract-features/internal/dataset"
	"github.com/Adithya-Monish-Kumar-K/abstract-features/internal/ingestion/handler"
	"github.com/Adithya-Monish-Kumar-K/abstract-features/internal/ingestion/publisher"
	"github.com/Adithya-Monish-Kumar-K/abstract-features/internal/ingestion/validator"
	"github.com/Adithya-Monish-Kumar-K/abstract-features/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/abstract-features/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/abstract-features/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/abstract-features/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/abstract-features/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/abstract-features/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/abstract-features/pkg/ratelimit"
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
	slog.Info("starting ingestion service", "port", cfg.Server.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.New(cfg.Postgres)
	if err != nil {
		slog.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.Migrate(ctx, publisher.Schema...); err != nil {
		slog.Error("failed to migrate abstracts table", "error", err)
		os.Exit(1)
	}
	slog.Info("connected to postgres")

	drop, err := dataset.LoadDropList(cfg.Dataset.DropListPath)
	if err != nil {
		slog.Warn("drop list unavailable, accepting all texts", "path", cfg.Dataset.DropListPath, "error", err)
	}

	producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.AbstractIngest)
	defer producer.Close()
	slog.Info("kafka producer initialized", "topic", cfg.Kafka.Topics.AbstractIngest)

	m := metrics.New(prometheus.DefaultRegisterer)
	if cfg.Metrics.Enabled {
		ln, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Metrics.Port))
		if err != nil {
			slog.Error("failed to bind metrics port", "port", cfg.Metrics.Port, "error", err)
			os.Exit(1)
		}
		go func() {
			if err := metrics.Serve(ctx, ln, prometheus.DefaultGatherer); err != nil {
				slog.Error("metrics server error", "error", err)
			}
		}()
	}

	pub := publisher.New(db, producer)
	h := handler.New(pub, validator.New(cfg.Dataset.MinChars, drop), m)
	mux := http.NewServeMux()
	h.Register(mux)

	chain := []func(http.Handler) http.Handler{middleware.RequestID}
	if cfg.Server.RateLimit > 0 {
		limiter := ratelimit.New(cfg.Server.RateLimit, time.Minute)
		go limiter.Run(ctx, 5*time.Minute)
		chain = append(chain, middleware.RateLimit(limiter))
		slog.Info("rate limiting enabled", "requests_per_minute", cfg.Server.RateLimit)
	}
	chain = append(chain, middleware.Timeout(cfg.Server.RequestTimeout), middleware.Metrics(m))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      middleware.Chain(mux, chain...),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()
	slog.Info("ingestion service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("ingestion service stopped")
}
