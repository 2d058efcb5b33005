// Package normalizers provides text normalization for terminology matching
package normalizers

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalizer is a function that normalizes a string value
type Normalizer func(string) string

// registry holds all registered normalizers
var registry = make(map[string]Normalizer)

func init() {
	// Register built-in normalizers
	Register("lowercase", Lowercase)
	Register("trim", Trim)
	Register("fold_diacritics", FoldDiacritics)
	Register("remove_punctuation", RemovePunctuation)
	Register("collapse_whitespace", CollapseWhitespace)
	Register("term_key", TermKey)
	Register("collapsed_key", CollapsedKey)
}

// Register adds a normalizer to the registry
func Register(name string, fn Normalizer) {
	registry[name] = fn
}

// Get retrieves a normalizer by name
func Get(name string) (Normalizer, bool) {
	fn, ok := registry[name]
	return fn, ok
}

// Apply applies a named normalizer to a value. Unknown names pass the value
// through unchanged.
func Apply(value, normalizer string) string {
	fn, ok := Get(normalizer)
	if !ok {
		return value
	}
	return fn(value)
}

// ApplyChain applies multiple normalizers in sequence
func ApplyChain(value string, normalizers ...string) string {
	result := value
	for _, name := range normalizers {
		result = Apply(result, name)
	}
	return result
}

// Built-in normalizers

// Lowercase converts string to lowercase
func Lowercase(s string) string {
	return strings.ToLower(s)
}

// Trim removes leading and trailing whitespace
func Trim(s string) string {
	return strings.TrimSpace(s)
}

// diacriticStripper decomposes to NFD, drops combining marks, recomposes.
var diacriticStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// FoldDiacritics removes combining diacritical marks so accented and
// unaccented spellings compare equal (e.g. "śūla" vs "sula").
func FoldDiacritics(s string) string {
	out, _, err := transform.String(diacriticStripper, s)
	if err != nil {
		return s
	}
	return out
}

// RemovePunctuation removes all punctuation characters
func RemovePunctuation(s string) string {
	var result strings.Builder
	for _, r := range s {
		if !unicode.IsPunct(r) {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// CollapseWhitespace replaces runs of whitespace with a single space
func CollapseWhitespace(s string) string {
	var result strings.Builder
	prevSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !prevSpace {
				result.WriteRune(' ')
				prevSpace = true
			}
			continue
		}
		result.WriteRune(r)
		prevSpace = false
	}
	return strings.TrimSpace(result.String())
}

// TermKey builds the exact-lookup key for a vocabulary display term:
// diacritics folded, lowercased, whitespace collapsed.
func TermKey(s string) string {
	return CollapseWhitespace(Lowercase(FoldDiacritics(s)))
}

// CollapsedKey builds a fully collapsed key with hyphens and spaces removed,
// for transliterated terms where spacing and hyphenation vary freely between
// sources (e.g. "Vata-Vyadhi" vs "vatavyadhi").
func CollapsedKey(s string) string {
	s = Lowercase(FoldDiacritics(s))
	var result strings.Builder
	for _, r := range s {
		if r == '-' || unicode.IsSpace(r) {
			continue
		}
		result.WriteRune(r)
	}
	return result.String()
}
