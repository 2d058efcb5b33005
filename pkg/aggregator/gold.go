package aggregator

import (
	"context"
	"regexp"
	"strings"

	"github.com/ayurlink/tulsi/pkg/matching"
	"github.com/ayurlink/tulsi/pkg/normalizers"
)

// Gold-standard utilities for evaluation mode: two independent raters
// annotate each narrative, and a prediction counts as correct when it matches
// either rater's answer.

var preamblePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^\?\?\s*`),
	regexp.MustCompile(`(?i)^likely\s+`),
	regexp.MustCompile(`(?i)^probable\s+`),
	regexp.MustCompile(`(?i)^possible\s+`),
}

var (
	longParenthetical = regexp.MustCompile(`\([^)]{30,}\)`)
	anyParenthetical  = regexp.MustCompile(`\([^)]*\)`)
	separators        = regexp.MustCompile(`[;,/]`)
	connectives       = regexp.MustCompile(`\band/or\b|\bor\b`)
	edgeJunk          = regexp.MustCompile(`^[\s\?\!\.\,\:\d\)]+|[\s\?\!\.\,\:]+$`)
	blankLines        = regexp.MustCompile(`\n\s*\n`)
	newlines          = regexp.MustCompile(`\n`)
	multiSpace        = regexp.MustCompile(`\s+`)
)

// NormalizeAnnotation flattens one rater's free-text cell: unicode hyphen
// variants, blank-line term breaks, whitespace runs.
func NormalizeAnnotation(text string) string {
	if text == "" {
		return ""
	}
	text = strings.ReplaceAll(text, "‑", "-")
	text = strings.ReplaceAll(text, "‐", "-")
	text = blankLines.ReplaceAllString(text, "; ")
	text = newlines.ReplaceAllString(text, " ")
	return strings.TrimSpace(multiSpace.ReplaceAllString(text, " "))
}

// StripPreamble removes hedging prefixes raters write before a term.
func StripPreamble(term string) string {
	term = strings.TrimSpace(term)
	for _, re := range preamblePatterns {
		term = strings.TrimSpace(re.ReplaceAllString(term, ""))
	}
	return term
}

// SplitTerms splits a multi-term annotation cell into individual terms.
func SplitTerms(text string) []string {
	text = NormalizeAnnotation(text)
	if text == "" {
		return nil
	}
	text = longParenthetical.ReplaceAllString(text, "")

	var terms []string
	for _, part := range splitKeepingWords(text) {
		part = StripPreamble(part)
		part = edgeJunk.ReplaceAllString(part, "")
		part = strings.TrimSpace(anyParenthetical.ReplaceAllString(part, ""))
		if len(part) > 1 {
			terms = append(terms, part)
		}
	}
	return terms
}

// splitKeepingWords splits on separators and connective words. Connectives
// are rewritten first so "and/or" does not leave a dangling "and" behind the
// slash separator.
func splitKeepingWords(text string) []string {
	text = connectives.ReplaceAllString(text, ";")
	return separators.Split(text, -1)
}

// GoldSet is the union of two raters' answers for one narrative field. A
// prediction is correct when it equals any member of the union, either by
// normalized text or by resolving to the same vocabulary entry.
type GoldSet struct {
	engine *matching.Engine
	terms  []string
	texts  map[string]bool // normalized term texts
	ids    map[string]bool // resolved vocabulary entry IDs
}

// NewGoldSet builds the union of both raters' terms and resolves each to a
// vocabulary entry where possible.
func NewGoldSet(ctx context.Context, engine *matching.Engine, rater1, rater2 []string) *GoldSet {
	g := &GoldSet{
		engine: engine,
		texts:  make(map[string]bool),
		ids:    make(map[string]bool),
	}
	for _, term := range append(append([]string{}, rater1...), rater2...) {
		phrase := engine.Normalize(term)
		if phrase.Empty() || g.texts[phrase.Text] {
			continue
		}
		g.texts[phrase.Text] = true
		g.terms = append(g.terms, term)

		if m := engine.Match(ctx, phrase); m.Matched() {
			g.ids[m.MatchedEntryID] = true
		}
	}
	return g
}

// Terms returns the deduplicated union in first-appearance order.
func (g *GoldSet) Terms() []string {
	return g.terms
}

// Len returns the number of distinct gold terms.
func (g *GoldSet) Len() int {
	return len(g.terms)
}

// Contains reports whether a prediction matches any member of the union.
func (g *GoldSet) Contains(ctx context.Context, prediction string) bool {
	phrase := g.engine.Normalize(prediction)
	if phrase.Empty() {
		return false
	}
	if g.texts[phrase.Text] {
		return true
	}
	if m := g.engine.Match(ctx, phrase); m.Matched() && g.ids[m.MatchedEntryID] {
		return true
	}
	return false
}

// ContainsPhrase is Contains for an already-normalized phrase.
func (g *GoldSet) ContainsPhrase(ctx context.Context, phrase normalizers.NormalizedPhrase) bool {
	if phrase.Empty() {
		return false
	}
	if g.texts[phrase.Text] {
		return true
	}
	if m := g.engine.Match(ctx, phrase); m.Matched() && g.ids[m.MatchedEntryID] {
		return true
	}
	return false
}
