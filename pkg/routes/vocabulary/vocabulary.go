package vocabulary

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	"github.com/ayurlink/tulsi/pkg/models"
	"github.com/ayurlink/tulsi/pkg/tracing"
	"github.com/ayurlink/tulsi/pkg/vocabulary"
)

// Register registers vocabulary lookup routes
func Register(g *echo.Group) {
	g.GET("", Lookup)
	g.GET("/code/:system/:code", LookupByCode)
}

// LookupResponse represents a vocabulary lookup response
type LookupResponse struct {
	Found bool                    `json:"found"`
	Entry *models.VocabularyEntry `json:"entry,omitempty"`
}

// Lookup finds a vocabulary entry by exact term
func Lookup(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "vocabulary_handler.Lookup")
	defer span.End()

	term := c.QueryParam("term")
	if term == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "term is required")
	}

	_, store, err := ectoinject.GetContext[*vocabulary.Store](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "vocabulary not available")
	}

	entry := store.LookupExact(term)
	return c.JSON(http.StatusOK, LookupResponse{
		Found: entry != nil,
		Entry: entry,
	})
}

// LookupByCode finds a vocabulary entry by external code
func LookupByCode(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "vocabulary_handler.LookupByCode")
	defer span.End()

	system := c.Param("system")
	code := c.Param("code")
	if system == "" || code == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "system and code are required")
	}

	_, store, err := ectoinject.GetContext[*vocabulary.Store](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "vocabulary not available")
	}

	entry := store.LookupByCode(models.CodeSystem(system), code)
	return c.JSON(http.StatusOK, LookupResponse{
		Found: entry != nil,
		Entry: entry,
	})
}
