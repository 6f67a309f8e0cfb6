// Package validator checks abstracts before they are accepted. It enforces
// UTF-8 text, required fields, the minimum abstract length and the list of
// placeholder abstracts that are never worth featurizing.
package validator

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/Adithya-Monish-Kumar-K/abstract-features/internal/ingestion"
)

const (
	maxTitleLength    = 1024
	maxAbstractLength = 1048576
	maxKeyLength      = 255
)

// ValidationError holds per-field validation failure messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s:%s", field, e.Fields[field]))
	}
	return strings.Join(parts, "; ")
}

// Validator applies the same abstract rules as the batch cleaning job.
type Validator struct {
	minChars int
	drop     map[string]struct{}
}

// New returns a Validator rejecting abstracts of minChars characters or
// fewer and any abstract whose text appears in drop.
func New(minChars int, drop []string) *Validator {
	set := make(map[string]struct{}, len(drop))
	for _, d := range drop {
		set[d] = struct{}{}
	}
	return &Validator{minChars: minChars, drop: set}
}

// Validate returns a *ValidationError describing every failing field, or nil.
func (v *Validator) Validate(req *ingestion.AbstractRequest) error {
	errs := make(map[string]string)

	if len(req.Title) > maxTitleLength {
		errs["title"] = fmt.Sprintf("title must be at most %d characters", maxTitleLength)
	}
	text := req.AbstractText
	switch {
	case !utf8.ValidString(text):
		errs["abstract_text"] = "abstract text must be valid UTF-8"
	case strings.TrimSpace(text) == "":
		errs["abstract_text"] = "abstract text is required"
	case len(text) > maxAbstractLength:
		errs["abstract_text"] = fmt.Sprintf("abstract text must be at most %d bytes", maxAbstractLength)
	case utf8.RuneCountInString(text) <= v.minChars:
		errs["abstract_text"] = fmt.Sprintf("abstract text must be longer than %d characters", v.minChars)
	default:
		if _, ok := v.drop[text]; ok {
			errs["abstract_text"] = "abstract text is a known placeholder"
		}
	}
	if strings.TrimSpace(req.LeadFunder) == "" {
		errs["lead_funder"] = "lead funder is required"
	}
	if len(req.IdempotencyKey) > maxKeyLength {
		errs["idempotency_key"] = fmt.Sprintf("idempotency key must be at most %d characters", maxKeyLength)
	}
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
