package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayurlink/tulsi/pkg/kafka"
	"github.com/ayurlink/tulsi/pkg/models"
)

type capturePublisher struct {
	events []*kafka.NarrativeEvent
	err    error
}

func (p *capturePublisher) PublishNarrativeEvent(_ context.Context, event *kafka.NarrativeEvent) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func newTestEmitter(pub *capturePublisher) *Emitter {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	return NewEmitter(pub, logger)
}

func TestEmitter_EmitNarrativeMatched(t *testing.T) {
	ctx := context.Background()

	t.Run("publishes counts and result payload", func(t *testing.T) {
		pub := &capturePublisher{}
		emitter := newTestEmitter(pub)

		result := &models.AggregatedResult{
			NarrativeID: "nar-1",
			Entities: []models.EntityMatch{
				{Match: models.MatchResult{MatchedEntryID: "ITA-1", Tier: models.MatchTierExact, Score: 1.0}},
				{Match: models.NoMatch()},
			},
			Unmatched: []string{"gibberish"},
		}
		require.NoError(t, emitter.EmitNarrativeMatched(ctx, result))
		require.Len(t, pub.events, 1)

		event := pub.events[0]
		assert.Equal(t, "narrative.matched", event.EventType)
		assert.Equal(t, "nar-1", event.NarrativeID)

		var data map[string]any
		require.NoError(t, json.Unmarshal(event.Data, &data))
		assert.Equal(t, SchemaVersion, data["schema_version"])
		assert.Equal(t, float64(2), data["entity_count"])
		assert.Equal(t, float64(1), data["matched_count"])
		assert.Equal(t, float64(1), data["unmatched_count"])
	})

	t.Run("propagates publish failure", func(t *testing.T) {
		pub := &capturePublisher{err: errors.New("broker down")}
		emitter := newTestEmitter(pub)

		err := emitter.EmitNarrativeMatched(ctx, &models.AggregatedResult{NarrativeID: "nar-2"})
		assert.Error(t, err)
	})
}

func TestEmitter_EmitPhraseMatched(t *testing.T) {
	ctx := context.Background()

	pub := &capturePublisher{}
	emitter := newTestEmitter(pub)

	match := models.MatchResult{
		MatchedEntryID: "ITA-1",
		MatchedTerm:    "Amavata",
		Tier:           models.MatchTierFuzzy,
		Score:          0.875,
	}
	require.NoError(t, emitter.EmitPhraseMatched(ctx, "req-7", "amavta", match))
	require.Len(t, pub.events, 1)

	event := pub.events[0]
	assert.Equal(t, "phrase.matched", event.EventType)
	assert.Equal(t, "req-7", event.NarrativeID)

	var data map[string]any
	require.NoError(t, json.Unmarshal(event.Data, &data))
	assert.Equal(t, "amavta", data["phrase"])
	assert.Equal(t, "ITA-1", data["entry_id"])
	assert.Equal(t, "Amavata", data["matched_term"])
	assert.Equal(t, string(models.MatchTierFuzzy), data["tier"])
	assert.InDelta(t, 0.875, data["score"].(float64), 1e-9)
}
