package matching

import (
	"context"
	"strings"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayurlink/tulsi/pkg/models"
	"github.com/ayurlink/tulsi/pkg/normalizers"
	"github.com/ayurlink/tulsi/pkg/vocabulary"
)

const testCSV = `id,term,synonyms,snomed,icd10
ITA-1,Amavata,Rheumatoid arthritis,69896004,M06.9
ITA-2,Sandhigata Vata,Osteoarthritis,396275006,M19.90
ITA-3,Amlapitta,"Hyperacidity, Acid gastritis",,K29.7
ITA-4,Katigraha,Low back pain stiffness,,
ITA-5,Jvara,Fever,386661006,
ITA-6,Santata Jvara,Continuous fever,,
`

func newTestEngine(t *testing.T, cfg EngineConfig) *Engine {
	t.Helper()
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	pipe := normalizers.NewPipeline(normalizers.DefaultPipelineConfig())
	store, err := vocabulary.Load(strings.NewReader(testCSV), pipe)
	require.NoError(t, err)
	return NewEngine(logger, store, pipe, cfg)
}

func TestEngine_ExactTier(t *testing.T) {
	engine := newTestEngine(t, DefaultConfig())
	ctx := context.Background()

	t.Run("canonical term", func(t *testing.T) {
		result := engine.MatchText(ctx, "Amavata")
		assert.Equal(t, models.MatchTierExact, result.Tier)
		assert.Equal(t, "ITA-1", result.MatchedEntryID)
		assert.Equal(t, 1.0, result.Score)
	})

	t.Run("synonym with hedging and case noise", func(t *testing.T) {
		result := engine.MatchText(ctx, "? Rheumatoid Arthritis.")
		assert.Equal(t, models.MatchTierExact, result.Tier)
		assert.Equal(t, "ITA-1", result.MatchedEntryID)
	})

	t.Run("bare external code", func(t *testing.T) {
		result := engine.MatchText(ctx, "M19.90")
		assert.Equal(t, models.MatchTierExact, result.Tier)
		assert.Equal(t, "ITA-2", result.MatchedEntryID)
		assert.Equal(t, 1.0, result.Score)
	})

	t.Run("exact wins over later tiers", func(t *testing.T) {
		// "Jvara" is both an exact term and a token of ITA-6
		result := engine.MatchText(ctx, "jvara")
		assert.Equal(t, models.MatchTierExact, result.Tier)
		assert.Equal(t, "ITA-5", result.MatchedEntryID)
	})
}

func TestEngine_WordOverlapTier(t *testing.T) {
	engine := newTestEngine(t, DefaultConfig())
	ctx := context.Background()

	t.Run("partial token intersection", func(t *testing.T) {
		result := engine.MatchText(ctx, "chronic low back pain")
		assert.Equal(t, models.MatchTierWordOverlap, result.Tier)
		assert.Equal(t, "ITA-4", result.MatchedEntryID)
		// 3 of 4 phrase tokens (low, back, pain) intersect; "chronic" does not
		assert.InDelta(t, 0.75, result.Score, 1e-9)
	})

	t.Run("tie prefers shortest canonical term", func(t *testing.T) {
		// "continuous fever chills" shares "fever" with ITA-5 and both
		// tokens of ITA-6; the larger overlap must win
		result := engine.MatchText(ctx, "continuous fever chills")
		assert.Equal(t, models.MatchTierWordOverlap, result.Tier)
		assert.Equal(t, "ITA-6", result.MatchedEntryID)

		// single shared token ties ITA-5 and ITA-6; ITA-5 has the shorter
		// canonical term
		result = engine.MatchText(ctx, "fever spikes nightly")
		assert.Equal(t, "ITA-5", result.MatchedEntryID)
	})

	t.Run("score is intersection over phrase tokens", func(t *testing.T) {
		result := engine.MatchText(ctx, "fever spikes nightly")
		assert.InDelta(t, 1.0/3.0, result.Score, 1e-9)
	})
}

func TestEngine_FuzzyTier(t *testing.T) {
	engine := newTestEngine(t, DefaultConfig())
	ctx := context.Background()

	t.Run("single typo within threshold", func(t *testing.T) {
		result := engine.MatchText(ctx, "amavta")
		assert.Equal(t, models.MatchTierFuzzy, result.Tier)
		assert.Equal(t, "ITA-1", result.MatchedEntryID)
		assert.GreaterOrEqual(t, result.Score, 0.80)
		assert.Less(t, result.Score, 1.0)
	})

	t.Run("matched term is the closest display spelling", func(t *testing.T) {
		result := engine.MatchText(ctx, "amlapita")
		require.Equal(t, models.MatchTierFuzzy, result.Tier)
		assert.Equal(t, "Amlapitta", result.MatchedTerm)
	})

	t.Run("jaro winkler algorithm", func(t *testing.T) {
		jw := newTestEngine(t, EngineConfig{FuzzyThreshold: 0.85, FuzzyAlgorithm: AlgorithmJaroWinkler})
		result := jw.MatchText(ctx, "katigrha")
		assert.Equal(t, models.MatchTierFuzzy, result.Tier)
		assert.Equal(t, "ITA-4", result.MatchedEntryID)
	})

	t.Run("jaro winkler is not length pruned", func(t *testing.T) {
		// 12 chars against the 7 char "amavata": far outside any edit
		// distance bound, but a shared prefix scores 0.917 under JW
		jw := newTestEngine(t, EngineConfig{FuzzyThreshold: 0.80, FuzzyAlgorithm: AlgorithmJaroWinkler})
		result := jw.MatchText(ctx, "amavatarogah")
		assert.Equal(t, models.MatchTierFuzzy, result.Tier)
		assert.Equal(t, "ITA-1", result.MatchedEntryID)
		assert.GreaterOrEqual(t, result.Score, 0.80)
	})
}

func TestEngine_FuzzySimilarityConvention(t *testing.T) {
	const headacheCSV = `id,term,synonyms,snomed
V1,Headache,Head pain,25064002
`
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	pipe := normalizers.NewPipeline(normalizers.DefaultPipelineConfig())
	store, err := vocabulary.Load(strings.NewReader(headacheCSV), pipe)
	require.NoError(t, err)
	engine := NewEngine(logger, store, pipe, DefaultConfig())

	// one transposed vowel pair must clear the 0.80 default threshold
	result := engine.MatchText(context.Background(), "haedache")
	assert.Equal(t, models.MatchTierFuzzy, result.Tier)
	assert.Equal(t, "V1", result.MatchedEntryID)
	assert.InDelta(t, 0.875, result.Score, 1e-9)
}

func TestEngine_NoMatch(t *testing.T) {
	engine := newTestEngine(t, DefaultConfig())
	ctx := context.Background()

	t.Run("unrelated phrase", func(t *testing.T) {
		result := engine.MatchText(ctx, "completely unrelated gibberish")
		assert.Equal(t, models.MatchTierNoMatch, result.Tier)
		assert.Equal(t, 0.0, result.Score)
		assert.False(t, result.Matched())
	})

	t.Run("empty phrase", func(t *testing.T) {
		result := engine.MatchText(ctx, "   ")
		assert.Equal(t, models.MatchTierNoMatch, result.Tier)
	})

	t.Run("empty vocabulary", func(t *testing.T) {
		logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
		pipe := normalizers.NewPipeline(normalizers.DefaultPipelineConfig())
		store, err := vocabulary.Load(strings.NewReader("id,term,synonyms\n"), pipe)
		require.NoError(t, err)
		empty := NewEngine(logger, store, pipe, DefaultConfig())

		result := empty.MatchText(ctx, "amavata")
		assert.Equal(t, models.MatchTierNoMatch, result.Tier)
	})
}

func TestEngine_ThresholdMonotonicity(t *testing.T) {
	ctx := context.Background()

	loose := newTestEngine(t, EngineConfig{FuzzyThreshold: 0.80})
	strict := newTestEngine(t, EngineConfig{FuzzyThreshold: 0.95})

	// a phrase that clears 0.80 but not 0.95
	looseResult := loose.MatchText(ctx, "amavta")
	strictResult := strict.MatchText(ctx, "amavta")

	assert.Equal(t, models.MatchTierFuzzy, looseResult.Tier)
	assert.Equal(t, models.MatchTierNoMatch, strictResult.Tier)
}

func TestEngine_Deterministic(t *testing.T) {
	engine := newTestEngine(t, DefaultConfig())
	ctx := context.Background()

	inputs := []string{"amavata", "continuous fever chills", "amavta", "gibberish"}
	for _, raw := range inputs {
		first := engine.MatchText(ctx, raw)
		for i := 0; i < 5; i++ {
			assert.Equal(t, first, engine.MatchText(ctx, raw), "input %q", raw)
		}
	}
}
