package normalizers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipeline_Normalize(t *testing.T) {
	pipe := NewPipeline(DefaultPipelineConfig())

	t.Run("lowercases and collapses whitespace", func(t *testing.T) {
		phrase := pipe.Normalize("  Amavata   Roga ")
		assert.Equal(t, "amavata roga", phrase.Text)
		assert.Equal(t, "  Amavata   Roga ", phrase.Raw)
	})

	t.Run("folds diacritics", func(t *testing.T) {
		phrase := pipe.Normalize("Āmavāta")
		assert.Equal(t, "amavata", phrase.Text)
	})

	t.Run("expands abbreviations on word boundaries", func(t *testing.T) {
		phrase := pipe.Normalize("RA flare")
		assert.Equal(t, "rheumatoid arthritis flare", phrase.Text)

		// "ra" inside a word must not expand
		phrase = pipe.Normalize("grahani")
		assert.Equal(t, "grahani", phrase.Text)
	})

	t.Run("strips hedging prefixes", func(t *testing.T) {
		for _, raw := range []string{
			"? amavata",
			"possible amavata",
			"probable amavata",
			"rule out amavata",
			"r/o amavata",
			"most likely amavata",
		} {
			phrase := pipe.Normalize(raw)
			assert.Equal(t, "amavata", phrase.Text, "input %q", raw)
		}
	})

	t.Run("strips hedging suffixes and trailing punctuation", func(t *testing.T) {
		assert.Equal(t, "amavata", pipe.Normalize("amavata?").Text)
		assert.Equal(t, "amavata", pipe.Normalize("amavata.").Text)
		assert.Equal(t, "amavata", pipe.Normalize("Amavata ??").Text)
	})

	t.Run("strips stacked hedges", func(t *testing.T) {
		phrase := pipe.Normalize("? possible amavata ?")
		assert.Equal(t, "amavata", phrase.Text)
	})

	t.Run("total on empty and junk input", func(t *testing.T) {
		assert.True(t, pipe.Normalize("").Empty())
		assert.True(t, pipe.Normalize("  ??  ").Empty())
	})

	t.Run("idempotent", func(t *testing.T) {
		inputs := []string{
			"? Possible RA flare.",
			"Āmavāta chikitsa",
			"chronic low back pain",
			"",
		}
		for _, raw := range inputs {
			once := pipe.Normalize(raw)
			twice := pipe.Normalize(once.Text)
			assert.Equal(t, once.Text, twice.Text, "input %q", raw)
			assert.Equal(t, once.Tokens, twice.Tokens, "input %q", raw)
		}
	})
}

func TestPipeline_SignificantTokens(t *testing.T) {
	pipe := NewPipeline(DefaultPipelineConfig())

	t.Run("drops stopwords and short tokens", func(t *testing.T) {
		phrase := pipe.Normalize("amavata due to vata dosha")
		assert.Equal(t, []string{"amavata"}, phrase.Tokens)
	})

	t.Run("splits on hyphens and slashes", func(t *testing.T) {
		tokens := pipe.SignificantTokens("sandhi-gata vata/pitta jvara")
		assert.Equal(t, []string{"sandhi", "gata", "jvara"}, tokens)
	})

	t.Run("collapses duplicates keeping first position", func(t *testing.T) {
		tokens := pipe.SignificantTokens("jvara jvara kasa")
		assert.Equal(t, []string{"jvara", "kasa"}, tokens)
	})

	t.Run("min token length is configurable", func(t *testing.T) {
		p := NewPipeline(PipelineConfig{MinTokenLength: 5})
		tokens := p.SignificantTokens("kasa shwasa")
		assert.Equal(t, []string{"shwasa"}, tokens)
	})
}

func TestTermKey(t *testing.T) {
	require.Equal(t, TermKey("Āmavāta  Roga"), TermKey("amavata roga"))
	assert.NotEqual(t, TermKey("amavata"), TermKey("amlapitta"))
}

func TestCollapsedKey(t *testing.T) {
	// transliterated terms differ only in separators
	assert.Equal(t, CollapsedKey("sandhigata vata"), CollapsedKey("sandhi-gata vata"))
	assert.Equal(t, CollapsedKey("sandhigatavata"), CollapsedKey("sandhi gata vata"))
}

func TestRegistry(t *testing.T) {
	t.Run("get retrieves registered normalizers", func(t *testing.T) {
		fn, ok := Get("fold_diacritics")
		require.True(t, ok)
		assert.Equal(t, "amavata", fn("āmavāta"))

		_, ok = Get("no_such_normalizer")
		assert.False(t, ok)
	})

	t.Run("apply chain runs names in order", func(t *testing.T) {
		assert.Equal(t, "amavata", ApplyChain("  Āmavāta  ", "trim", "fold_diacritics", "lowercase"))
	})

	t.Run("unknown names pass the value through", func(t *testing.T) {
		assert.Equal(t, "Jvara", Apply("Jvara", "no_such_normalizer"))
		assert.Equal(t, "jvara", ApplyChain("Jvara", "no_such_normalizer", "lowercase"))
	})
}

func TestPipeline_NormalizerChain(t *testing.T) {
	t.Run("default chain folds diacritics and case", func(t *testing.T) {
		p := NewPipeline(PipelineConfig{})
		assert.Equal(t, "amavata", p.Normalize("Āmavāta").Text)
	})

	t.Run("chain is configurable by name", func(t *testing.T) {
		// a chain without diacritic folding keeps the marks
		p := NewPipeline(PipelineConfig{Normalizers: []string{"lowercase"}})
		assert.Equal(t, "āmavāta", p.Normalize("Āmavāta").Text)
	})
}
