package bridge

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/ayurlink/tulsi/pkg/aggregator"
	"github.com/ayurlink/tulsi/pkg/context"
	"github.com/ayurlink/tulsi/pkg/events"
	"github.com/ayurlink/tulsi/pkg/matching"
	"github.com/ayurlink/tulsi/pkg/models"
	"github.com/ayurlink/tulsi/pkg/ner"
	"github.com/ayurlink/tulsi/pkg/tracing"
)

var validate = validator.New()

// Register registers bridge routes
func Register(g *echo.Group) {
	g.POST("/bridge", Bridge)
	g.POST("/match", Match)
}

// MatchResponse represents a single phrase match response
type MatchResponse struct {
	Phrase     string             `json:"phrase"`
	Normalized string             `json:"normalized"`
	Tokens     []string           `json:"tokens"`
	Result     models.MatchResult `json:"result"`
}

// Bridge extracts entities from a clinical narrative and matches them
// against the vocabulary, optionally resolving standard codes.
func Bridge(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "bridge_handler.Bridge")
	defer span.End()

	var req models.BridgeRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, extractor, err := ectoinject.GetContext[ner.Extractor](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "entity extractor not available")
	}

	entities, err := extractor.Extract(ctx, req.Text)
	if err != nil {
		return httperror.NewHTTPError(http.StatusBadGateway, "entity extraction failed")
	}

	ctx, service, err := ectoinject.GetContext[*aggregator.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "aggregation service not available")
	}

	result := service.Aggregate(ctx, entities, req.ResolveCodes)

	// event emission is best effort and config gated
	if ctx, emitter, err := ectoinject.GetContext[*events.Emitter](ctx); err == nil && emitter != nil {
		_ = emitter.EmitNarrativeMatched(ctx, result)
	}

	return c.JSON(http.StatusOK, result)
}

// Match runs a single phrase through the matching cascade
func Match(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "bridge_handler.Match")
	defer span.End()

	var req models.MatchRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, engine, err := ectoinject.GetContext[*matching.Engine](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "matching engine not available")
	}

	phrase := engine.Normalize(req.Phrase)
	result := engine.Match(ctx, phrase)

	// event emission is best effort and config gated
	if ctx, emitter, err := ectoinject.GetContext[*events.Emitter](ctx); err == nil && emitter != nil {
		_ = emitter.EmitPhraseMatched(ctx, context.GetRequestID(ctx), req.Phrase, result)
	}

	return c.JSON(http.StatusOK, MatchResponse{
		Phrase:     req.Phrase,
		Normalized: phrase.Text,
		Tokens:     phrase.Tokens,
		Result:     result,
	})
}
