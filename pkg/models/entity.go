package models

// Entity is one span produced by the external NER collaborator. Label and
// Confidence are pass-through metadata; matching only consumes Text.
type Entity struct {
	Text       string  `json:"text"`
	Label      string  `json:"label,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}
