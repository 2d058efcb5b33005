package matching

import (
	"strings"

	"github.com/ayurlink/tulsi/pkg/models"
	"github.com/ayurlink/tulsi/pkg/normalizers"
	"github.com/ayurlink/tulsi/pkg/vocabulary"
)

// Strategy is one tier of the matching cascade. TryMatch returns nil when the
// tier does not apply, letting the engine fall through to the next tier.
type Strategy interface {
	Name() string
	TryMatch(phrase normalizers.NormalizedPhrase, store *vocabulary.Store) *models.MatchResult
}

// exactStrategy matches on normalized text equality against canonical and
// display terms, or on a bare external identifier (code/CUI) the phrase
// happens to be. It never produces a false positive, so it runs first.
type exactStrategy struct{}

func (exactStrategy) Name() string { return "exact" }

func (exactStrategy) TryMatch(phrase normalizers.NormalizedPhrase, store *vocabulary.Store) *models.MatchResult {
	if entry := store.LookupExact(phrase.Text); entry != nil {
		return &models.MatchResult{
			MatchedEntryID: entry.ID,
			MatchedTerm:    entry.DisplayName(),
			Tier:           models.MatchTierExact,
			Score:          1.0,
		}
	}

	// Identifier equality: entity text may already be a code. Codes are
	// matched on the raw spelling since case is significant there.
	if code := strings.TrimSpace(phrase.Raw); code != "" {
		if entry := store.LookupAnyCode(code); entry != nil {
			return &models.MatchResult{
				MatchedEntryID: entry.ID,
				MatchedTerm:    entry.DisplayName(),
				Tier:           models.MatchTierExact,
				Score:          1.0,
			}
		}
	}
	return nil
}

// overlapStrategy matches on shared significant tokens. The candidate with
// the largest intersection wins; ties prefer the shortest canonical term,
// then load order.
type overlapStrategy struct{}

func (overlapStrategy) Name() string { return "word_overlap" }

func (overlapStrategy) TryMatch(phrase normalizers.NormalizedPhrase, store *vocabulary.Store) *models.MatchResult {
	if len(phrase.Tokens) == 0 {
		return nil
	}

	phraseTokens := make(map[string]bool, len(phrase.Tokens))
	for _, tok := range phrase.Tokens {
		phraseTokens[tok] = true
	}

	var best *models.VocabularyEntry
	bestOverlap := 0

	for _, entry := range store.IterateCandidates() {
		overlap := 0
		for _, tok := range store.SignificantTokens(entry.ID) {
			if phraseTokens[tok] {
				overlap++
			}
		}
		if overlap == 0 {
			continue
		}
		switch {
		case overlap > bestOverlap:
			best, bestOverlap = entry, overlap
		case overlap == bestOverlap:
			// shorter canonical term is the more specific concept
			if len(entry.CanonicalTerm) < len(best.CanonicalTerm) {
				best = entry
			}
		}
	}

	if best == nil {
		return nil
	}

	score := float64(bestOverlap) / float64(len(phrase.Tokens))
	if score > 1.0 {
		score = 1.0
	}
	return &models.MatchResult{
		MatchedEntryID: best.ID,
		MatchedTerm:    best.DisplayName(),
		Tier:           models.MatchTierWordOverlap,
		Score:          score,
	}
}

// fuzzyStrategy matches on string similarity over every display term,
// gated by a conservative threshold since it is the most permissive tier.
// Ties break by load order (strict improvement required to replace).
type fuzzyStrategy struct {
	scorer     *Scorer
	similarity func(a, b string) float64
	threshold  float64
	algorithm  string
}

func (fuzzyStrategy) Name() string { return "fuzzy" }

func (f fuzzyStrategy) TryMatch(phrase normalizers.NormalizedPhrase, store *vocabulary.Store) *models.MatchResult {
	if phrase.Empty() {
		return nil
	}

	text := phrase.Text
	collapsed := normalizers.CollapsedKey(phrase.Text)

	// The length prune is an edit-distance bound; it does not hold for
	// Jaro-Winkler, which rewards shared prefixes regardless of length gap.
	prune := f.algorithm == AlgorithmLevenshtein

	var best *models.VocabularyEntry
	bestTerm := ""
	bestSim := 0.0

	for _, entry := range store.IterateCandidates() {
		for _, term := range entry.DisplayTerms {
			key := normalizers.TermKey(term)
			ck := normalizers.CollapsedKey(term)

			if prune && !withinEditBound(text, key, f.threshold) && !withinEditBound(collapsed, ck, f.threshold) {
				continue
			}

			sim := f.similarity(text, key)
			if ck != "" && collapsed != "" {
				if cs := f.similarity(collapsed, ck); cs > sim {
					sim = cs
				}
			}
			if sim > bestSim {
				best, bestTerm, bestSim = entry, term, sim
			}
		}
	}

	if best == nil || bestSim < f.threshold {
		return nil
	}
	return &models.MatchResult{
		MatchedEntryID: best.ID,
		MatchedTerm:    bestTerm,
		Tier:           models.MatchTierFuzzy,
		Score:          bestSim,
	}
}

// withinEditBound reports whether two strings can reach the threshold under
// the ratio similarity: distance is at least the length difference, so a gap
// above (1-threshold)*(lenA+lenB) can never score high enough.
func withinEditBound(a, b string, threshold float64) bool {
	total := len(a) + len(b)
	if total == 0 {
		return true
	}
	return float64(abs(len(a)-len(b))) <= (1.0-threshold)*float64(total)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
