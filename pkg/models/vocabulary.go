package models

// CodeSystem identifies an external coding system
type CodeSystem string

const (
	CodeSystemSNOMED CodeSystem = "SNOMED" // SNOMED CT US edition
	CodeSystemICD10  CodeSystem = "ICD10"  // ICD-10-CM
	CodeSystemUMLS   CodeSystem = "UMLS"   // UMLS CUI
)

// VocabularyEntry is one reference concept from the terminology table.
// Entries are loaded once at startup and never mutated afterwards.
type VocabularyEntry struct {
	ID            string                `json:"id"`
	CanonicalTerm string                `json:"canonical_term"`          // normalized matching key
	DisplayTerms  []string              `json:"display_terms"`           // original spellings and synonyms
	ExternalCodes map[CodeSystem]string `json:"external_codes"`          // a code may be absent for a system
	Description   string                `json:"description,omitempty"`
}

// Code returns the entry's code for a system, or "" when absent.
func (e *VocabularyEntry) Code(system CodeSystem) string {
	if e.ExternalCodes == nil {
		return ""
	}
	return e.ExternalCodes[system]
}

// DisplayName returns the preferred human-readable spelling for the entry.
func (e *VocabularyEntry) DisplayName() string {
	if len(e.DisplayTerms) > 0 {
		return e.DisplayTerms[0]
	}
	return e.CanonicalTerm
}
