package server

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/hrygo/recall/recommend"
)

// recommendationRequest accepts exactly one query form.
type recommendationRequest struct {
	CustomerID  string                     `json:"customer_id,omitempty"`
	QueryText   string                     `json:"query_text,omitempty"`
	QueryVector []float32                  `json:"query_vector,omitempty"`
	Profile     *recommend.CustomerProfile `json:"profile,omitempty"`
}

// httpError maps engine error kinds onto status codes. Anything unexpected
// is a 500 with a generic message so internals never leak to callers.
func httpError(err error) error {
	switch {
	case errors.Is(err, recommend.ErrInvalidInput):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, recommend.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, recommend.ErrEmbeddingUnavailable):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "embedding provider unavailable")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
}

func (s *Server) handleRecommendations(c echo.Context) error {
	var req recommendationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	forms := 0
	if req.CustomerID != "" {
		forms++
	}
	if req.QueryText != "" {
		forms++
	}
	if len(req.QueryVector) > 0 {
		forms++
	}
	if req.Profile != nil {
		forms++
	}
	if forms != 1 {
		return echo.NewHTTPError(http.StatusBadRequest,
			"exactly one of customer_id, query_text, query_vector or profile is required")
	}

	ctx := c.Request().Context()
	var (
		result *recommend.Result
		err    error
	)
	switch {
	case req.CustomerID != "":
		result, err = s.engine.RecommendForCustomer(ctx, req.CustomerID)
	case req.QueryText != "":
		result, err = s.engine.RecommendForQuery(ctx, req.QueryText)
	case len(req.QueryVector) > 0:
		result, err = s.engine.RecommendForVector(ctx, req.QueryVector)
	default:
		result, err = s.engine.RecommendForProfile(ctx, *req.Profile)
	}
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) handleListCustomers(c echo.Context) error {
	ids, err := s.engine.ListCustomerIDs(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string][]string{"customers": ids})
}

func (s *Server) handleAddCustomer(c echo.Context) error {
	var profile recommend.CustomerProfile
	if err := c.Bind(&profile); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	id, err := s.engine.AddCustomer(c.Request().Context(), profile)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, map[string]string{"customer_id": id})
}

func (s *Server) handleSimilarProducts(c echo.Context) error {
	limit := queryLimit(c)
	recs, err := s.engine.SimilarProducts(c.Request().Context(), c.Param("id"), limit)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"recommendations": recs})
}

func (s *Server) handleCategoryProducts(c echo.Context) error {
	limit := queryLimit(c)
	recs, err := s.engine.RecommendByCategory(c.Request().Context(), c.Param("category"), limit)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"recommendations": recs})
}

func (s *Server) handleSummary(c echo.Context) error {
	summary, err := s.engine.Summary(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, summary)
}

func (s *Server) handleCacheRefresh(c echo.Context) error {
	s.engine.RefreshCache()
	return c.JSON(http.StatusOK, map[string]string{"message": "cache refreshed"})
}

// queryLimit parses the optional limit query parameter; zero lets the engine
// apply its configured top-k.
func queryLimit(c echo.Context) int {
	raw := c.QueryParam("limit")
	if raw == "" {
		return 0
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0
	}
	return limit
}
