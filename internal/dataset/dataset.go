// Package dataset prepares research-project abstracts for feature
// extraction. It cleans raw records (duplicate, short, blacklisted and
// incomplete abstracts are dropped) and tokenizes the survivors in parallel
// while preserving input order.
package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/abstract-features/internal/tokenizer"
)

// Record is one raw project row.
type Record struct {
	ID           string
	AbstractText string
	LeadFunder   string
}

// Tokenized is a record together with its flattened tokens.
type Tokenized struct {
	Record
	Tokens []string
}

// CleanStats counts why records were dropped by Clean.
type CleanStats struct {
	Input         int
	Missing       int
	DuplicateID   int
	DuplicateText int
	TooShort      int
	Dropped       int
	Output        int
}

// Clean removes duplicate ids and duplicate abstract texts (the first
// occurrence wins, even if it is later dropped), abstracts of minChars
// characters or fewer, abstracts listed in drop, and finally records with a
// missing id or funder. Order is preserved.
func Clean(records []Record, drop []string, minChars int) ([]Record, CleanStats) {
	stats := CleanStats{Input: len(records)}
	dropSet := make(map[string]struct{}, len(drop))
	for _, d := range drop {
		dropSet[d] = struct{}{}
	}
	seenIDs := make(map[string]struct{}, len(records))
	seenTexts := make(map[string]struct{}, len(records))
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if _, ok := seenIDs[r.ID]; ok {
			stats.DuplicateID++
			continue
		}
		seenIDs[r.ID] = struct{}{}
		if _, ok := seenTexts[r.AbstractText]; ok {
			stats.DuplicateText++
			continue
		}
		seenTexts[r.AbstractText] = struct{}{}
		if utf8.RuneCountInString(r.AbstractText) <= minChars {
			stats.TooShort++
			continue
		}
		if _, ok := dropSet[r.AbstractText]; ok {
			stats.Dropped++
			continue
		}
		if isBlank(r.ID) || isBlank(r.LeadFunder) {
			stats.Missing++
			continue
		}
		out = append(out, r)
	}
	stats.Output = len(out)
	return out, stats
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// Transformer tokenizes cleaned records with a bounded pool of workers.
type Transformer struct {
	tokenizer *tokenizer.Tokenizer
	minLength int
	workers   int
	logger    *slog.Logger
}

// NewTransformer returns a Transformer running at most workers tokenizations
// at once. workers below 1 is treated as 1.
func NewTransformer(tok *tokenizer.Tokenizer, minLength, workers int) *Transformer {
	if workers < 1 {
		workers = 1
	}
	return &Transformer{
		tokenizer: tok,
		minLength: minLength,
		workers:   workers,
		logger:    slog.Default().With("component", "dataset-transform"),
	}
}

// Transform tokenizes every record's abstract into a flat token list and
// keeps only records with at least one token. The output keeps input order.
// The first tokenization error cancels the remaining work.
func (t *Transformer) Transform(ctx context.Context, records []Record) ([]Tokenized, error) {
	results := make([][]string, len(records))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.workers)
	for i := range records {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			doc, err := t.tokenizer.Tokenize(records[i].AbstractText, t.minLength, true)
			if err != nil {
				return fmt.Errorf("tokenizing record %s: %w", records[i].ID, err)
			}
			results[i] = doc.Tokens
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]Tokenized, 0, len(records))
	empty := 0
	for i, tokens := range results {
		if len(tokens) == 0 {
			empty++
			continue
		}
		out = append(out, Tokenized{Record: records[i], Tokens: tokens})
	}
	t.logger.Info("records tokenized",
		"input", len(records),
		"output", len(out),
		"empty", empty,
		"workers", t.workers,
	)
	return out, nil
}
