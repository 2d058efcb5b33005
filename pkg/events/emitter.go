// Package events handles event emission for processed narratives
package events

import (
	"context"
	"encoding/json"

	"github.com/Gobusters/ectologger"

	"github.com/ayurlink/tulsi/pkg/kafka"
	"github.com/ayurlink/tulsi/pkg/models"
	"github.com/ayurlink/tulsi/pkg/tracing"
)

// SchemaVersion is the current event schema version
const SchemaVersion = "1.0"

// Publisher is the transport the emitter writes events to
type Publisher interface {
	PublishNarrativeEvent(ctx context.Context, event *kafka.NarrativeEvent) error
}

// Emitter publishes narrative match results for downstream consumers
type Emitter struct {
	producer Publisher
	logger   ectologger.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(producer Publisher, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

// EmitNarrativeMatched emits an event with the full aggregated result
func (e *Emitter) EmitNarrativeMatched(ctx context.Context, result *models.AggregatedResult) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitNarrativeMatched")
	defer span.End()

	matched := 0
	for _, em := range result.Entities {
		if em.Match.Matched() {
			matched++
		}
	}

	data := map[string]any{
		"schema_version":  SchemaVersion,
		"entity_count":    len(result.Entities),
		"matched_count":   matched,
		"unmatched_count": len(result.Unmatched),
		"result":          result,
	}
	dataJSON, _ := json.Marshal(data)

	event := &kafka.NarrativeEvent{
		EventType:   "narrative.matched",
		NarrativeID: result.NarrativeID,
		Data:        dataJSON,
	}

	if err := e.producer.PublishNarrativeEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit narrative.matched event")
		return err
	}

	return nil
}

// EmitPhraseMatched emits an event for a single phrase lookup
func (e *Emitter) EmitPhraseMatched(ctx context.Context, narrativeID, phrase string, match models.MatchResult) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitPhraseMatched")
	defer span.End()

	data := map[string]any{
		"schema_version": SchemaVersion,
		"phrase":         phrase,
		"matched_term":   match.MatchedTerm,
		"entry_id":       match.MatchedEntryID,
		"tier":           match.Tier,
		"score":          match.Score,
	}
	dataJSON, _ := json.Marshal(data)

	event := &kafka.NarrativeEvent{
		EventType:   "phrase.matched",
		NarrativeID: narrativeID,
		Data:        dataJSON,
	}

	if err := e.producer.PublishNarrativeEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit phrase.matched event")
		return err
	}

	return nil
}
