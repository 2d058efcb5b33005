package models

import "time"

// EntityMatch pairs one input entity with its match and resolved codes.
type EntityMatch struct {
	Entity     Entity       `json:"entity"`
	Normalized string       `json:"normalized"`
	Match      MatchResult  `json:"match"`
	Codes      ResolvedCode `json:"codes"`
}

// AggregatedResult is the per-narrative response shape. A narrative that
// yields zero matches still produces a populated result with an empty
// Entities slice, never an error.
type AggregatedResult struct {
	NarrativeID string        `json:"narrative_id"`
	Entities    []EntityMatch `json:"entities"`
	Best        *EntityMatch  `json:"best,omitempty"`
	Unmatched   []string      `json:"unmatched,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

// BridgeRequest is the request to bridge a full narrative.
type BridgeRequest struct {
	Text         string `json:"text" validate:"required"`
	ResolveCodes bool   `json:"resolve_codes"`
}

// MatchRequest is the request to match a single phrase.
type MatchRequest struct {
	Phrase string `json:"phrase" validate:"required"`
}
