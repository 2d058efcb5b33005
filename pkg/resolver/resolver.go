// Package resolver maps entity phrases to external codes via the two-step
// concept lookup protocol, with bounded concurrent fan-out across entities.
package resolver

import (
	"context"
	"sync"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/ayurlink/tulsi/pkg/models"
	"github.com/ayurlink/tulsi/pkg/tracing"
	"github.com/ayurlink/tulsi/pkg/umls"
	"github.com/ayurlink/tulsi/pkg/vocabulary"
)

const (
	// DefaultConcurrency bounds in-flight external lookups per narrative
	DefaultConcurrency = 5

	// DefaultCallTimeout is the per-call timeout for external lookups
	DefaultCallTimeout = 10 * time.Second

	// maxConceptsPerPhrase caps how many search results are expanded into codes
	maxConceptsPerPhrase = 3
)

// Config contains configuration for the code resolver.
type Config struct {
	TargetSystem models.CodeSystem // coding system resolved codes belong to (default SNOMED)
	TargetSource string            // UMLS source vocabulary for the atoms call (default SNOMEDCT_US)
	SourceFilter string            // restricts concept search, excludes non-clinical nouns ("" = no filter)
	Concurrency  int
	CallTimeout  time.Duration
}

// DefaultConfig returns the default resolver configuration.
func DefaultConfig() Config {
	return Config{
		TargetSystem: models.CodeSystemSNOMED,
		TargetSource: umls.SourceSNOMEDCTUS,
		SourceFilter: umls.SourceSNOMEDCTUS,
		Concurrency:  DefaultConcurrency,
		CallTimeout:  DefaultCallTimeout,
	}
}

// Resolver performs external code resolution. External failures degrade to
// empty candidate sets; they never abort resolution of other entities.
type Resolver struct {
	logger ectologger.Logger
	client umls.ConceptClient
	store  *vocabulary.Store
	cfg    Config
}

// NewResolver creates a resolver over a concept client and the vocabulary
// store used for reverse-index hits.
func NewResolver(logger ectologger.Logger, client umls.ConceptClient, store *vocabulary.Store, cfg Config) *Resolver {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = DefaultCallTimeout
	}
	if cfg.TargetSystem == "" {
		cfg.TargetSystem = models.CodeSystemSNOMED
	}
	if cfg.TargetSource == "" {
		cfg.TargetSource = umls.SourceSNOMEDCTUS
	}
	return &Resolver{logger: logger, client: client, store: store, cfg: cfg}
}

// Resolve maps one phrase to ranked code candidates. A failed external call
// yields an empty candidate set (fails open).
func (r *Resolver) Resolve(ctx context.Context, phrase string) models.ResolvedCode {
	ctx, span := tracing.StartSpan(ctx, "resolver.Resolver.Resolve")
	defer span.End()

	resolved := models.ResolvedCode{Phrase: phrase}
	if phrase == "" {
		return resolved
	}

	log := r.logger.WithContext(ctx).WithFields(map[string]any{"phrase": phrase})

	concepts, err := r.searchConcepts(ctx, phrase)
	if err != nil {
		log.WithError(err).Warn("Concept search failed; continuing without codes")
		return resolved
	}

	if len(concepts) > maxConceptsPerPhrase {
		concepts = concepts[:maxConceptsPerPhrase]
	}

	for _, concept := range concepts {
		codes, err := r.conceptCodes(ctx, concept.CUI)
		if err != nil {
			log.WithError(err).WithFields(map[string]any{"cui": concept.CUI}).Warn("Atom lookup failed; skipping concept")
			continue
		}

		if len(codes) == 0 {
			// Concept with no target-system code still counts as a candidate;
			// it just cannot beat one that has a code.
			resolved.Candidates = append(resolved.Candidates, models.CodeCandidate{
				ConceptID:     concept.CUI,
				SourcePhrase:  phrase,
				PreferredName: concept.Name,
			})
			continue
		}

		for _, code := range codes {
			candidate := models.CodeCandidate{
				ConceptID:     concept.CUI,
				Code:          code,
				SourcePhrase:  phrase,
				PreferredName: concept.Name,
			}
			if entry := r.store.LookupByCode(r.cfg.TargetSystem, code); entry != nil {
				candidate.VocabularyHit = true
				candidate.EntryID = entry.ID
			}
			resolved.Candidates = append(resolved.Candidates, candidate)
		}
	}

	resolved.Primary = SelectPrimary([]models.ResolvedCode{resolved})
	return resolved
}

// ResolveAll resolves every phrase with a bounded number of in-flight
// external lookups. Results preserve input order. Cancelling ctx abandons
// outstanding lookups; finished entries keep whatever they produced.
func (r *Resolver) ResolveAll(ctx context.Context, phrases []string) []models.ResolvedCode {
	ctx, span := tracing.StartSpan(ctx, "resolver.Resolver.ResolveAll")
	defer span.End()

	results := make([]models.ResolvedCode, len(phrases))
	if len(phrases) == 0 {
		return results
	}

	sem := make(chan struct{}, r.cfg.Concurrency)
	var wg sync.WaitGroup

	for i, phrase := range phrases {
		if ctx.Err() != nil {
			results[i] = models.ResolvedCode{Phrase: phrase}
			continue
		}

		wg.Add(1)
		go func(i int, phrase string) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results[i] = models.ResolvedCode{Phrase: phrase}
				return
			}

			results[i] = r.Resolve(ctx, phrase)
		}(i, phrase)
	}

	wg.Wait()
	return results
}

// SelectPrimary ranks every candidate across the given results and returns
// the top one, or nil when there are no candidates. Ranking policy:
// vocabulary reverse-index hit first, then presence of a target code, then
// longer originating phrase; remaining ties keep the earliest candidate.
func SelectPrimary(resolved []models.ResolvedCode) *models.CodeCandidate {
	var best *models.CodeCandidate
	for i := range resolved {
		for j := range resolved[i].Candidates {
			c := &resolved[i].Candidates[j]
			if best == nil || candidateBeats(c, best) {
				best = c
			}
		}
	}
	if best == nil {
		return nil
	}
	out := *best
	return &out
}

// candidateBeats reports whether a strictly outranks b.
func candidateBeats(a, b *models.CodeCandidate) bool {
	if a.VocabularyHit != b.VocabularyHit {
		return a.VocabularyHit
	}
	if (a.Code != "") != (b.Code != "") {
		return a.Code != ""
	}
	return len(a.SourcePhrase) > len(b.SourcePhrase)
}

func (r *Resolver) searchConcepts(ctx context.Context, phrase string) ([]umls.Concept, error) {
	callCtx, cancel := context.WithTimeout(ctx, r.cfg.CallTimeout)
	defer cancel()
	return r.client.SearchConcepts(callCtx, phrase, r.cfg.SourceFilter)
}

func (r *Resolver) conceptCodes(ctx context.Context, cui string) ([]string, error) {
	callCtx, cancel := context.WithTimeout(ctx, r.cfg.CallTimeout)
	defer cancel()
	return r.client.ConceptCodes(callCtx, cui, r.cfg.TargetSource)
}
