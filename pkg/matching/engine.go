// Package matching implements the tiered terminology matching cascade
package matching

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/ayurlink/tulsi/pkg/models"
	"github.com/ayurlink/tulsi/pkg/normalizers"
	"github.com/ayurlink/tulsi/pkg/tracing"
	"github.com/ayurlink/tulsi/pkg/vocabulary"
)

// Fuzzy similarity algorithms
const (
	AlgorithmLevenshtein = "levenshtein"
	AlgorithmJaroWinkler = "jaro_winkler"
)

// EngineConfig contains configuration for the match engine
type EngineConfig struct {
	FuzzyThreshold float64 // Minimum similarity for a fuzzy match (default: 0.80)
	FuzzyAlgorithm string  // "levenshtein" or "jaro_winkler" (default: levenshtein)
}

// DefaultConfig returns default engine configuration
func DefaultConfig() EngineConfig {
	return EngineConfig{
		FuzzyThreshold: 0.80,
		FuzzyAlgorithm: AlgorithmLevenshtein,
	}
}

// Engine runs the matching cascade: exact, then word overlap, then fuzzy.
// The first tier to succeed wins; when none succeeds the result is a
// NO_MATCH value, not an error.
type Engine struct {
	logger     ectologger.Logger
	store      *vocabulary.Store
	pipeline   *normalizers.Pipeline
	strategies []Strategy
	config     EngineConfig
}

// NewEngine creates a new match engine over an immutable vocabulary store.
func NewEngine(logger ectologger.Logger, store *vocabulary.Store, pipeline *normalizers.Pipeline, config EngineConfig) *Engine {
	if config.FuzzyThreshold <= 0 {
		config.FuzzyThreshold = 0.80
	}

	scorer := NewScorer()
	similarity := scorer.Levenshtein
	if config.FuzzyAlgorithm == AlgorithmJaroWinkler {
		similarity = scorer.JaroWinkler
	} else {
		config.FuzzyAlgorithm = AlgorithmLevenshtein
	}

	return &Engine{
		logger:   logger,
		store:    store,
		pipeline: pipeline,
		strategies: []Strategy{
			exactStrategy{},
			overlapStrategy{},
			fuzzyStrategy{scorer: scorer, similarity: similarity, threshold: config.FuzzyThreshold, algorithm: config.FuzzyAlgorithm},
		},
		config: config,
	}
}

// Normalize exposes the engine's pipeline so callers share one configuration.
func (e *Engine) Normalize(raw string) normalizers.NormalizedPhrase {
	return e.pipeline.Normalize(raw)
}

// MatchText normalizes raw entity text and runs the cascade.
func (e *Engine) MatchText(ctx context.Context, raw string) models.MatchResult {
	return e.Match(ctx, e.pipeline.Normalize(raw))
}

// Match runs the cascade over an already-normalized phrase. Strategies are
// evaluated in strict order and short-circuit on first success, so repeated
// runs on identical input produce identical results.
func (e *Engine) Match(ctx context.Context, phrase normalizers.NormalizedPhrase) models.MatchResult {
	ctx, span := tracing.StartSpan(ctx, "matching.Engine.Match")
	defer span.End()

	if phrase.Empty() || e.store.Len() == 0 {
		return models.NoMatch()
	}

	for _, strategy := range e.strategies {
		result := strategy.TryMatch(phrase, e.store)
		if result == nil {
			continue
		}
		e.logger.WithContext(ctx).WithFields(map[string]any{
			"phrase": phrase.Text,
			"tier":   strategy.Name(),
			"entry":  result.MatchedEntryID,
			"score":  result.Score,
		}).Debug("Matched phrase")
		return *result
	}

	return models.NoMatch()
}
