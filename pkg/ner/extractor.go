// Package ner defines the contract with the external entity extraction model
package ner

import (
	"context"
	"strings"

	"github.com/ayurlink/tulsi/pkg/models"
)

// Extractor is the external NER collaborator. The matching core treats the
// model as a black box producing entity spans; labels and confidences are
// pass-through metadata.
type Extractor interface {
	Extract(ctx context.Context, text string) ([]models.Entity, error)
}

// DefaultMinEntityLength drops fragments too short to carry clinical meaning
const DefaultMinEntityLength = 4

// FilterConfig configures entity noise filtering.
type FilterConfig struct {
	MinLength int
	Stopwords map[string]bool
}

// DefaultFilterConfig returns the default non-clinical entity filter.
func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		MinLength: DefaultMinEntityLength,
		Stopwords: defaultEntityStopwords(),
	}
}

// Filter drops entities that NER models commonly tag but that are not
// clinical concepts (demographics, units of time, report vocabulary), and
// deduplicates case-insensitively, keeping first occurrence order.
type Filter struct {
	cfg FilterConfig
}

// NewFilter creates an entity filter.
func NewFilter(cfg FilterConfig) *Filter {
	if cfg.MinLength <= 0 {
		cfg.MinLength = DefaultMinEntityLength
	}
	if cfg.Stopwords == nil {
		cfg.Stopwords = defaultEntityStopwords()
	}
	return &Filter{cfg: cfg}
}

// Apply returns the entities that survive filtering.
func (f *Filter) Apply(entities []models.Entity) []models.Entity {
	seen := make(map[string]bool)
	var out []models.Entity
	for _, ent := range entities {
		text := strings.TrimSpace(ent.Text)
		key := strings.ToLower(text)
		if len(text) < f.cfg.MinLength || f.cfg.Stopwords[key] || seen[key] {
			continue
		}
		seen[key] = true
		ent.Text = text
		out = append(out, ent)
	}
	return out
}

// defaultEntityStopwords lists non-clinical words NER models routinely tag
// as entities in case reports.
func defaultEntityStopwords() map[string]bool {
	words := []string{
		"year", "years", "old", "old man", "old woman", "month", "months",
		"day", "days", "week", "weeks", "report", "case", "history",
		"patient", "patient's", "patients", "time", "high", "low",
		"normal", "result", "results", "diagnosis", "prognosis",
		"test", "tests", "scan", "origin", "type", "side", "since",
		"male", "female", "man", "woman", "boy", "girl",
	}
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}
