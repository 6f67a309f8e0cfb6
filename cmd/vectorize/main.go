// Command vectorize builds document vectors for the tokenized dataset.
//
// Each document's vector is the mean of the word2vec vectors of its known
// tokens, or the zero vector when none is known. The output CSV has an id
// column followed by dim_0 .. dim_{d-1}.
//
// Usage:
//
//	go run ./cmd/vectorize [-config configs/development.yaml] [-in path] [-out path]
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Adithya-Monish-Kumar-K/abstract-features/internal/dataset"
	"github.com/Adithya-Monish-Kumar-K/abstract-features/internal/embedding"
	"github.com/Adithya-Monish-Kumar-K/abstract-features/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/abstract-features/pkg/logger"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	in := flag.String("in", "", "tokenized CSV path; overrides dataset.outputPath")
	out := flag.String("out", "", "vectors CSV path; overrides dataset.vectorsPath")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.SetupStderr(cfg.Logging.Level, cfg.Logging.Format)
	if *in != "" {
		cfg.Dataset.OutputPath = *in
	}
	if *out != "" {
		cfg.Dataset.VectorsPath = *out
	}
	if err := run(cfg); err != nil {
		slog.Error("vectorize failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
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
		return err
	}
	if err := embedding.CheckDimension(vocab, trainer); err != nil {
		return err
	}
	slog.Info("vocabulary loaded", "tokens", vocab.Size(), "dimension", vocab.Dim())

	in, err := os.Open(cfg.Dataset.OutputPath)
	if err != nil {
		return fmt.Errorf("opening tokenized dataset: %w", err)
	}
	defer in.Close()
	docs, err := dataset.ReadTokenized(in)
	if err != nil {
		return err
	}

	ids := make([]string, len(docs))
	vectors := make([][]float64, len(docs))
	allUnknown := 0
	for i, doc := range docs {
		e, err := embedding.Embed(doc.Tokens, vocab)
		if err != nil {
			return fmt.Errorf("vectorizing %s: %w", doc.ID, err)
		}
		if e.Known == 0 {
			allUnknown++
		}
		ids[i] = doc.ID
		vectors[i] = e.Vector
	}
	if allUnknown > 0 {
		slog.Warn("documents with no known token got the zero vector", "count", allUnknown)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Dataset.VectorsPath), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	f, err := os.Create(cfg.Dataset.VectorsPath)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	if err := dataset.WriteVectors(f, ids, vectors, vocab.Dim()); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing output file: %w", err)
	}
	slog.Info("document vectors written", "path", cfg.Dataset.VectorsPath, "documents", len(docs))
	return nil
}
