package embedding

import (
	"fmt"
	"log/slog"

	apperrors "github.com/Adithya-Monish-Kumar-K/abstract-features/pkg/errors"
)

// TrainerConfig describes how a vocabulary was (or will be) trained. Training
// happens outside this module; the config is checked here so that callers
// can tell whether the vocabulary they load is reproducible.
type TrainerConfig struct {
	Dimension int    `yaml:"dimension"`
	Window    int    `yaml:"window"`
	MinCount  int    `yaml:"minCount"`
	Workers   int    `yaml:"workers"`
	Seed      *int64 `yaml:"seed"`
}

// Validate rejects configurations no trainer could run with.
func (c TrainerConfig) Validate() error {
	if c.Dimension <= 0 {
		return fmt.Errorf("embedding dimension must be positive, got %d", c.Dimension)
	}
	if c.Window <= 0 {
		return fmt.Errorf("context window must be positive, got %d", c.Window)
	}
	if c.MinCount < 0 {
		return fmt.Errorf("minimum token count must not be negative, got %d", c.MinCount)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("worker count must be positive, got %d", c.Workers)
	}
	return nil
}

// ReproducibilityWarnings lists the reasons training with c would not give
// bit-identical vectors across runs. Reproducible training needs a fixed
// seed and exactly one worker.
func (c TrainerConfig) ReproducibilityWarnings() []string {
	var warnings []string
	if c.Seed == nil {
		warnings = append(warnings, "no random seed set - results not reproducible")
	}
	if c.Workers != 1 {
		warnings = append(warnings, fmt.Sprintf("workers is %d, not 1 - results not reproducible", c.Workers))
	}
	return warnings
}

// LogReproducibility reports the trainer settings behind a vocabulary and
// warns when they are not reproducible.
func LogReproducibility(logger *slog.Logger, c TrainerConfig) {
	warnings := c.ReproducibilityWarnings()
	if len(warnings) == 0 {
		logger.Info("vocabulary trainer settings are reproducible",
			"seed", *c.Seed,
			"workers", c.Workers,
		)
		return
	}
	for _, w := range warnings {
		logger.Warn(w)
	}
}

// CheckDimension confirms a loaded vocabulary matches the configured
// embedding dimension. A zero configured dimension accepts any vocabulary.
func CheckDimension(vocab Vocabulary, c TrainerConfig) error {
	if c.Dimension == 0 || vocab.Dim() == c.Dimension {
		return nil
	}
	return apperrors.Newf(apperrors.ErrDimensionMismatch, 422,
		"vocabulary has %d dimensions, config expects %d", vocab.Dim(), c.Dimension)
}
