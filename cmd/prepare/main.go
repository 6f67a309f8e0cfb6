// Command prepare turns the raw projects CSV into the tokenized dataset.
//
// It reads at most nrows projects, drops duplicates, short abstracts, texts
// on the drop list and incomplete rows, tokenizes the rest in parallel and
// writes a CSV whose processed_documents column holds each abstract's
// flattened token list as JSON.
//
// Usage:
//
//	go run ./cmd/prepare [-config configs/development.yaml] [-nrows 1000] [-out path]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Adithya-Monish-Kumar-K/abstract-features/internal/dataset"
	"github.com/Adithya-Monish-Kumar-K/abstract-features/internal/sentence"
	"github.com/Adithya-Monish-Kumar-K/abstract-features/internal/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/abstract-features/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/abstract-features/pkg/logger"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	nrows := flag.Int("nrows", -1, "maximum rows to read; overrides dataset.nrows when >= 0")
	out := flag.String("out", "", "output CSV path; overrides dataset.outputPath")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.SetupStderr(cfg.Logging.Level, cfg.Logging.Format)
	if *nrows >= 0 {
		cfg.Dataset.NRows = *nrows
	}
	if *out != "" {
		cfg.Dataset.OutputPath = *out
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, cfg); err != nil {
		slog.Error("prepare failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	start := time.Now()
	in, err := os.Open(cfg.Dataset.RawPath)
	if err != nil {
		return fmt.Errorf("opening raw dataset: %w", err)
	}
	defer in.Close()
	records, err := dataset.ReadRecords(in, cfg.Dataset.NRows)
	if err != nil {
		return err
	}
	slog.Info("raw dataset loaded", "path", cfg.Dataset.RawPath, "rows", len(records))

	drop, err := dataset.LoadDropList(cfg.Dataset.DropListPath)
	if err != nil {
		return err
	}
	cleaned, stats := dataset.Clean(records, drop, cfg.Dataset.MinChars)
	slog.Info("dataset cleaned",
		"input", stats.Input,
		"duplicate_id", stats.DuplicateID,
		"duplicate_text", stats.DuplicateText,
		"too_short", stats.TooShort,
		"dropped", stats.Dropped,
		"missing", stats.Missing,
		"output", stats.Output,
	)

	punkt, err := sentence.NewPunkt()
	if err != nil {
		return err
	}
	tok := tokenizer.New(punkt, tokenizer.EnglishStopWords())
	docs, err := dataset.NewTransformer(tok, cfg.Tokenizer.MinLength, cfg.Dataset.Workers).Transform(ctx, cleaned)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Dataset.OutputPath), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	f, err := os.Create(cfg.Dataset.OutputPath)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	if err := dataset.WriteTokenized(f, docs); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing output file: %w", err)
	}
	slog.Info("tokenized dataset written",
		"path", cfg.Dataset.OutputPath,
		"documents", len(docs),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return nil
}
