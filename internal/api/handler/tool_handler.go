package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/yokaunit/toolbox/internal/api/metrics"
	"github.com/yokaunit/toolbox/internal/core/ports"
)

// ToolHandler serves the catalog.
type ToolHandler struct {
	catalog ports.CatalogService
}

func NewToolHandler(catalog ports.CatalogService) *ToolHandler {
	return &ToolHandler{catalog: catalog}
}

// List handles GET /v1/tools.
//
// @Summary      List tools visible to the caller
// @Tags         tools
// @Produce      json
// @Security     BearerAuth
// @Param        search       query     string  false  "Case-insensitive match on name, description and tags"
// @Param        category     query     string  false  "Category, or \"all\""
// @Param        subcategory  query     string  false  "Subcategory"
// @Param        popular      query     bool    false  "Only popular tools"
// @Param        new          query     bool    false  "Only new tools"
// @Param        premium      query     bool    false  "Premium flag filter"
// @Param        private      query     bool    false  "Private flag filter"
// @Param        sort         query     string  false  "popular (default), new or name"
// @Param        limit        query     int     false  "Page size, default 15, max 100"
// @Param        offset       query     int     false  "Offset; wins over page"
// @Param        page         query     int     false  "1-based page"
// @Success      200          {object}  listToolsResponse
// @Failure      400          {object}  errorResponse
// @Router       /v1/tools [get]
func (h *ToolHandler) List(c echo.Context) error {
	input, err := toListInput(c, ctxSession(c))
	if err != nil {
		return err
	}

	res, err := h.catalog.List(c.Request().Context(), input)
	if err != nil {
		return err
	}

	result := "ok"
	if res.Degraded {
		result = "degraded"
	}
	metrics.CatalogQueriesTotal.WithLabelValues(result).Inc()

	return c.JSON(http.StatusOK, listToolsResponse{
		Items:      toToolResponses(res.Items),
		Total:      res.Total,
		Limit:      res.Limit,
		Offset:     res.Offset,
		Page:       res.Page,
		TotalPages: res.TotalPages,
		Degraded:   res.Degraded,
	})
}

// Get handles GET /v1/tools/:slug.
//
// @Summary      Get a tool by slug
// @Tags         tools
// @Produce      json
// @Security     BearerAuth
// @Param        slug  path      string  true  "Tool slug (e.g. pdf-to-image)"
// @Success      200   {object}  toolResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      502   {object}  errorResponse
// @Router       /v1/tools/{slug} [get]
func (h *ToolHandler) Get(c echo.Context) error {
	tool, err := h.catalog.Get(c.Request().Context(), c.Param("slug"), ctxSession(c).EffectiveRole())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toToolResponse(tool))
}

// Categories handles GET /v1/categories.
//
// @Summary      List categories visible to the caller
// @Tags         tools
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  categoriesResponse
// @Router       /v1/categories [get]
func (h *ToolHandler) Categories(c echo.Context) error {
	cats, err := h.catalog.Categories(c.Request().Context(), ctxSession(c).EffectiveRole())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, categoriesResponse{Categories: cats})
}
