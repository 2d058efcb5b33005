// Package aggregator combines per-entity match results into a single ranked
// narrative-level response.
package aggregator

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ayurlink/tulsi/pkg/matching"
	"github.com/ayurlink/tulsi/pkg/models"
	"github.com/ayurlink/tulsi/pkg/normalizers"
	"github.com/ayurlink/tulsi/pkg/resolver"
	"github.com/ayurlink/tulsi/pkg/tracing"
)

// DefaultNarrativeTimeout bounds external code resolution for one narrative.
// Local match tiers do not depend on the resolver, so hitting the deadline
// still returns every locally computed match.
const DefaultNarrativeTimeout = 30 * time.Second

// Config contains aggregator configuration.
type Config struct {
	NarrativeTimeout time.Duration
}

// DefaultConfig returns default aggregator configuration
func DefaultConfig() Config {
	return Config{NarrativeTimeout: DefaultNarrativeTimeout}
}

// Service aggregates entity matches for a narrative.
type Service struct {
	logger   ectologger.Logger
	engine   *matching.Engine
	resolver *resolver.Resolver
	cfg      Config
}

// NewService creates an aggregator. The resolver may be nil when external
// code resolution is disabled; matches still aggregate normally.
func NewService(logger ectologger.Logger, engine *matching.Engine, codeResolver *resolver.Resolver, cfg Config) *Service {
	if cfg.NarrativeTimeout <= 0 {
		cfg.NarrativeTimeout = DefaultNarrativeTimeout
	}
	return &Service{logger: logger, engine: engine, resolver: codeResolver, cfg: cfg}
}

// Aggregate matches every entity against the vocabulary, resolves external
// codes concurrently, deduplicates entities that normalize identically
// (keeping the highest-tier match), and selects the narrative best match.
// It always returns a populated result, never nil.
func (s *Service) Aggregate(ctx context.Context, entities []models.Entity, resolveCodes bool) *models.AggregatedResult {
	ctx, span := tracing.StartSpan(ctx, "aggregator.Service.Aggregate")
	defer span.End()

	result := &models.AggregatedResult{
		NarrativeID: uuid.New().String(),
		Entities:    []models.EntityMatch{},
		CreatedAt:   time.Now().UTC(),
	}
	if len(entities) == 0 {
		return result
	}

	phrases := make([]normalizers.NormalizedPhrase, len(entities))
	for i, ent := range entities {
		phrases[i] = s.engine.Normalize(ent.Text)
	}

	// Matching is pure and local; resolution is network-bound. Run them in
	// parallel, resolution under its own narrative deadline.
	matches := make([]models.MatchResult, len(entities))
	resolved := make([]models.ResolvedCode, len(entities))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for i := range phrases {
			matches[i] = s.engine.Match(gctx, phrases[i])
		}
		return nil
	})
	g.Go(func() error {
		raw := make([]string, len(entities))
		for i, ent := range entities {
			raw[i] = ent.Text
		}
		if s.resolver == nil || !resolveCodes {
			for i := range raw {
				resolved[i] = models.ResolvedCode{Phrase: raw[i]}
			}
			return nil
		}
		resolveCtx, cancel := context.WithTimeout(gctx, s.cfg.NarrativeTimeout)
		defer cancel()
		copy(resolved, s.resolver.ResolveAll(resolveCtx, raw))
		return nil
	})
	_ = g.Wait() // both branches are total

	// Dedupe entities that normalize identically, keeping the best match.
	type slot struct{ index int }
	byPhrase := make(map[string]slot)
	var order []int
	for i := range entities {
		key := phrases[i].Text
		existing, ok := byPhrase[key]
		if !ok {
			byPhrase[key] = slot{index: i}
			order = append(order, i)
			continue
		}
		if matchBeats(matches[i], phrases[i], matches[existing.index], phrases[existing.index]) {
			order[indexOf(order, existing.index)] = i
			byPhrase[key] = slot{index: i}
		}
	}

	narrativePrimary := resolver.SelectPrimary(resolved)

	bestIdx := -1
	for _, i := range order {
		em := models.EntityMatch{
			Entity:     entities[i],
			Normalized: phrases[i].Text,
			Match:      matches[i],
			Codes:      resolved[i],
		}
		result.Entities = append(result.Entities, em)

		if !matches[i].Matched() {
			result.Unmatched = append(result.Unmatched, entities[i].Text)
			continue
		}
		if bestIdx < 0 || narrativeBeats(i, bestIdx, matches, phrases, resolved, narrativePrimary) {
			bestIdx = i
		}
	}

	if bestIdx >= 0 {
		best := models.EntityMatch{
			Entity:     entities[bestIdx],
			Normalized: phrases[bestIdx].Text,
			Match:      matches[bestIdx],
			Codes:      resolved[bestIdx],
		}
		result.Best = &best
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"narrative_id": result.NarrativeID,
		"entities":     len(result.Entities),
		"unmatched":    len(result.Unmatched),
	}).Debug("Aggregated narrative")

	return result
}

// matchBeats orders duplicate entities: tier, then score, then the longer
// (more specific) raw phrase.
func matchBeats(a models.MatchResult, ap normalizers.NormalizedPhrase, b models.MatchResult, bp normalizers.NormalizedPhrase) bool {
	if a.Tier.Rank() != b.Tier.Rank() {
		return a.Tier.Rank() > b.Tier.Rank()
	}
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return len(ap.Raw) > len(bp.Raw)
}

// narrativeBeats orders candidates for the narrative-level best match: tier,
// then score, then carrying the resolver's primary selection, then the longer
// phrase. Remaining ties keep the earlier entity.
func narrativeBeats(i, j int, matches []models.MatchResult, phrases []normalizers.NormalizedPhrase, resolved []models.ResolvedCode, primary *models.CodeCandidate) bool {
	a, b := matches[i], matches[j]
	if a.Tier.Rank() != b.Tier.Rank() {
		return a.Tier.Rank() > b.Tier.Rank()
	}
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if primary != nil {
		ai := holdsPrimary(resolved[i], primary)
		bi := holdsPrimary(resolved[j], primary)
		if ai != bi {
			return ai
		}
	}
	return len(phrases[i].Text) > len(phrases[j].Text)
}

func holdsPrimary(r models.ResolvedCode, primary *models.CodeCandidate) bool {
	for _, c := range r.Candidates {
		if c.ConceptID == primary.ConceptID && c.Code == primary.Code && c.SourcePhrase == primary.SourcePhrase {
			return true
		}
	}
	return false
}

func indexOf(order []int, v int) int {
	for i, o := range order {
		if o == v {
			return i
		}
	}
	return -1
}
