package ner

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/ayurlink/tulsi/pkg/httpclient"
	"github.com/ayurlink/tulsi/pkg/models"
	"github.com/ayurlink/tulsi/pkg/tracing"
)

// HTTPExtractor calls a hosted NER model over HTTP and applies the
// non-clinical entity filter to its output.
type HTTPExtractor struct {
	http    *httpclient.Client
	logger  ectologger.Logger
	filter  *Filter
	baseURL string
}

// NewHTTPExtractor creates an extractor for a hosted NER endpoint.
func NewHTTPExtractor(http *httpclient.Client, logger ectologger.Logger, filter *Filter, baseURL string) *HTTPExtractor {
	return &HTTPExtractor{http: http, logger: logger, filter: filter, baseURL: baseURL}
}

type nerRequest struct {
	Text string `json:"text"`
}

type nerSpan struct {
	Word        string  `json:"word"`
	Score       float64 `json:"score"`
	EntityGroup string  `json:"entity_group"`
}

// Extract runs the hosted model and returns filtered entity spans.
func (e *HTTPExtractor) Extract(ctx context.Context, text string) ([]models.Entity, error) {
	ctx, span := tracing.StartSpan(ctx, "ner.HTTPExtractor.Extract")
	defer span.End()

	var spans []nerSpan
	if err := e.http.PostJSON(ctx, e.baseURL, nerRequest{Text: text}, &spans); err != nil {
		return nil, err
	}

	entities := make([]models.Entity, 0, len(spans))
	for _, s := range spans {
		entities = append(entities, models.Entity{
			Text:       s.Word,
			Label:      s.EntityGroup,
			Confidence: s.Score,
		})
	}

	filtered := e.filter.Apply(entities)
	e.logger.WithContext(ctx).WithFields(map[string]any{
		"raw":      len(entities),
		"filtered": len(filtered),
	}).Debug("Extracted entities")
	return filtered, nil
}
