package models

// CodeCandidate is one (concept, target code) pair produced by the resolver.
type CodeCandidate struct {
	ConceptID     string `json:"concept_id"`            // e.g. UMLS CUI
	Code          string `json:"code,omitempty"`        // target system code, may be absent
	SourcePhrase  string `json:"source_phrase"`         // the entity text that produced it
	VocabularyHit bool   `json:"vocabulary_hit"`        // target code resolves in the vocabulary reverse index
	EntryID       string `json:"entry_id,omitempty"`    // vocabulary entry for the hit, when present
	PreferredName string `json:"preferred_name,omitempty"`
}

// ResolvedCode holds all code candidates for one phrase. A failed external
// lookup yields an empty candidate set, never an error.
type ResolvedCode struct {
	Phrase     string          `json:"phrase"`
	Candidates []CodeCandidate `json:"candidates"`
	Primary    *CodeCandidate  `json:"primary,omitempty"`
}

// Empty reports whether resolution produced no candidates.
func (r *ResolvedCode) Empty() bool {
	return len(r.Candidates) == 0
}
