package models

// MatchTier is the matching strategy level that produced a match.
// Tiers are ordered by descending confidence.
type MatchTier string

const (
	MatchTierExact       MatchTier = "exact"        // same normalized text or same external identifier
	MatchTierWordOverlap MatchTier = "word_overlap" // shared significant tokens
	MatchTierFuzzy       MatchTier = "fuzzy"        // edit-distance similarity above threshold
	MatchTierNoMatch     MatchTier = "no_match"
)

// tierRanks orders tiers for comparisons; higher is more confident.
var tierRanks = map[MatchTier]int{
	MatchTierExact:       3,
	MatchTierWordOverlap: 2,
	MatchTierFuzzy:       1,
	MatchTierNoMatch:     0,
}

// Rank returns the tier's confidence rank (higher wins).
func (t MatchTier) Rank() int {
	return tierRanks[t]
}

// MatchResult is the outcome of the tiered matcher for one phrase.
// MatchedEntryID is empty iff Tier is MatchTierNoMatch.
type MatchResult struct {
	MatchedEntryID string    `json:"matched_entry_id,omitempty"`
	MatchedTerm    string    `json:"matched_term,omitempty"` // the display term that won
	Tier           MatchTier `json:"tier"`
	Score          float64   `json:"score"` // [0,1]; 1.0 for exact
}

// Matched reports whether the result references a vocabulary entry.
func (r *MatchResult) Matched() bool {
	return r.Tier != MatchTierNoMatch && r.MatchedEntryID != ""
}

// NoMatch is the canonical unmatched result.
func NoMatch() MatchResult {
	return MatchResult{Tier: MatchTierNoMatch, Score: 0.0}
}
