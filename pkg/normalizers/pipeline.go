package normalizers

import (
	"regexp"
	"sort"
	"strings"
)

// NormalizedPhrase is the cleaned form of one input string. Text is the full
// normalized phrase (used by exact and fuzzy matching); Tokens are the
// significant words (used by word-overlap matching). A phrase with empty Text
// never matches anything.
type NormalizedPhrase struct {
	Raw    string
	Text   string
	Tokens []string
}

// Empty reports whether normalization produced nothing to match on.
func (p NormalizedPhrase) Empty() bool {
	return p.Text == ""
}

// PipelineConfig configures the normalization pipeline.
type PipelineConfig struct {
	MinTokenLength int               // significant tokens must be at least this long (default 3)
	Stopwords      map[string]bool   // excluded from significant tokens
	Abbreviations  map[string]string // whole-word acronym expansion, longest key first
	Normalizers    []string          // named registry steps run before abbreviation expansion
}

// DefaultPipelineConfig returns the defaults for the WHO-ITA vocabulary.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		MinTokenLength: 3,
		Stopwords:      defaultStopwords(),
		Abbreviations:  defaultAbbreviations(),
		Normalizers:    defaultNormalizerChain(),
	}
}

// defaultNormalizerChain folds diacritics then case before any later step
func defaultNormalizerChain() []string {
	return []string{"fold_diacritics", "lowercase"}
}

// Pipeline canonicalizes raw entity text. The named registry steps run first
// (diacritic folding then case folding by default), then abbreviation
// expansion, hedging strip and tokenization. Later steps assume earlier ones
// ran; in particular the tokenizer expects lowercased input.
type Pipeline struct {
	cfg          PipelineConfig
	abbrevKeys   []string // longest first, to avoid partial substitution
	abbrevRegexs map[string]*regexp.Regexp
}

// NewPipeline creates a pipeline from config. Zero-value fields fall back to
// the defaults.
func NewPipeline(cfg PipelineConfig) *Pipeline {
	if cfg.MinTokenLength <= 0 {
		cfg.MinTokenLength = 3
	}
	if cfg.Stopwords == nil {
		cfg.Stopwords = defaultStopwords()
	}
	if cfg.Abbreviations == nil {
		cfg.Abbreviations = defaultAbbreviations()
	}
	if cfg.Normalizers == nil {
		cfg.Normalizers = defaultNormalizerChain()
	}

	keys := make([]string, 0, len(cfg.Abbreviations))
	regexs := make(map[string]*regexp.Regexp, len(cfg.Abbreviations))
	for k := range cfg.Abbreviations {
		keys = append(keys, k)
		regexs[k] = regexp.MustCompile(`\b` + regexp.QuoteMeta(k) + `\b`)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})

	return &Pipeline{cfg: cfg, abbrevKeys: keys, abbrevRegexs: regexs}
}

// hedgePrefixes are stripped from the front of a phrase, repeatedly, until
// none apply. Clinicians hedge; the vocabulary does not.
var hedgePrefixes = []*regexp.Regexp{
	regexp.MustCompile(`^\?+\s*`),
	regexp.MustCompile(`^most likely\s+`),
	regexp.MustCompile(`^likely\s+`),
	regexp.MustCompile(`^probable\s+`),
	regexp.MustCompile(`^possible\s+`),
	regexp.MustCompile(`^suspected\s+`),
	regexp.MustCompile(`^consider\s+`),
	regexp.MustCompile(`^rule out\s+`),
	regexp.MustCompile(`^r/o\s+`),
}

// hedgeSuffixes are stripped from the end of a phrase.
var hedgeSuffixes = []*regexp.Regexp{
	regexp.MustCompile(`\s*\?+$`),
	regexp.MustCompile(`[\s\.\,\:\!]+$`),
}

var tokenSplitter = regexp.MustCompile(`[\s\-/]+`)
var nonAlpha = regexp.MustCompile(`[^a-z]`)

// Normalize runs the full pipeline. It is total: any input, including the
// empty string, yields a valid phrase, and normalizing an already-normalized
// phrase returns it unchanged.
func (p *Pipeline) Normalize(raw string) NormalizedPhrase {
	text := ApplyChain(raw, p.cfg.Normalizers...)
	text = p.expandAbbreviations(text)
	text = p.stripHedging(text)
	text = CollapseWhitespace(text)

	return NormalizedPhrase{
		Raw:    raw,
		Text:   text,
		Tokens: p.significantTokens(text),
	}
}

// SignificantTokens extracts the significant-word set of an arbitrary string,
// applying the same folding as Normalize.
func (p *Pipeline) SignificantTokens(s string) []string {
	return p.significantTokens(ApplyChain(s, p.cfg.Normalizers...))
}

func (p *Pipeline) expandAbbreviations(text string) string {
	for _, key := range p.abbrevKeys {
		if !strings.Contains(text, key) {
			continue
		}
		text = p.abbrevRegexs[key].ReplaceAllString(text, p.cfg.Abbreviations[key])
	}
	return text
}

func (p *Pipeline) stripHedging(text string) string {
	text = strings.TrimSpace(text)
	for {
		before := text
		for _, re := range hedgePrefixes {
			text = strings.TrimSpace(re.ReplaceAllString(text, ""))
		}
		for _, re := range hedgeSuffixes {
			text = re.ReplaceAllString(text, "")
		}
		if text == before {
			return text
		}
	}
}

// significantTokens tokenizes on whitespace, hyphens and slashes, strips
// non-letters, and drops stopwords and short tokens. Order follows first
// appearance; duplicates collapse.
func (p *Pipeline) significantTokens(text string) []string {
	seen := make(map[string]bool)
	var tokens []string
	for _, w := range tokenSplitter.Split(text, -1) {
		w = nonAlpha.ReplaceAllString(w, "")
		if len(w) < p.cfg.MinTokenLength || p.cfg.Stopwords[w] || seen[w] {
			continue
		}
		seen[w] = true
		tokens = append(tokens, w)
	}
	return tokens
}

// defaultStopwords covers English connectors plus doshic and process words
// that appear in nearly every traditional-medicine term and carry no
// discriminating power.
func defaultStopwords() map[string]bool {
	words := []string{
		"vata", "pitta", "kapha",
		"dosha", "dushti", "vikara", "roga", "vyadhi",
		"samana", "shamana", "hara",
		"chikitsa", "therapy", "treatment",
		"the", "a", "an", "of", "in", "on", "for", "to", "is", "and", "or",
		"with", "due", "type",
	}
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

// defaultAbbreviations expands acronyms common in clinical narratives to the
// spellings the vocabulary uses.
func defaultAbbreviations() map[string]string {
	return map[string]string{
		"oa":   "osteoarthritis",
		"ra":   "rheumatoid arthritis",
		"ibs":  "irritable bowel syndrome",
		"gerd": "gastroesophageal reflux disease",
		"uti":  "urinary tract infection",
		"dm":   "diabetes mellitus",
		"htn":  "hypertension",
		"uri":  "upper respiratory infection",
		"copd": "chronic obstructive pulmonary disease",
	}
}
