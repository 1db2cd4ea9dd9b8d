package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/yokaunit/toolbox/internal/api/metrics"
	"github.com/yokaunit/toolbox/internal/core/domain"
	"github.com/yokaunit/toolbox/internal/core/ports"
)

// FavoriteHandler serves the signed-in user's favorites.
type FavoriteHandler struct {
	favorites ports.FavoriteService
}

func NewFavoriteHandler(favorites ports.FavoriteService) *FavoriteHandler {
	return &FavoriteHandler{favorites: favorites}
}

// Toggle handles POST /v1/favorites/:slug/toggle.
//
// @Summary      Toggle a tool in the caller's favorites
// @Tags         favorites
// @Produce      json
// @Security     BearerAuth
// @Param        slug  path      string  true  "Tool slug"
// @Success      200   {object}  toggleResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      429   {object}  errorResponse
// @Failure      502   {object}  errorResponse
// @Router       /v1/favorites/{slug}/toggle [post]
func (h *FavoriteHandler) Toggle(c echo.Context) error {
	session, err := requireSession(c)
	if err != nil {
		metrics.FavoriteTogglesTotal.WithLabelValues("rejected").Inc()
		return err
	}

	res, err := h.favorites.Toggle(c.Request().Context(), session, c.Param("slug"))
	if err != nil {
		metrics.FavoriteTogglesTotal.WithLabelValues(toggleFailure(err)).Inc()
		return err
	}

	favorited := res.State == domain.Favorited
	if favorited {
		metrics.FavoriteTogglesTotal.WithLabelValues("favorited").Inc()
	} else {
		metrics.FavoriteTogglesTotal.WithLabelValues("unfavorited").Inc()
	}

	return c.JSON(http.StatusOK, toggleResponse{
		Slug:      res.Slug,
		State:     string(res.State),
		Favorited: favorited,
		Favorites: res.Favorites,
	})
}

func toggleFailure(err error) string {
	switch {
	case errors.Is(err, domain.ErrRemoteFailure):
		return "rolled_back"
	case errors.Is(err, domain.ErrToggleInFlight):
		return "in_flight"
	default:
		return "rejected"
	}
}

// List handles GET /v1/favorites.
//
// @Summary      List the caller's favorite tools
// @Tags         favorites
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  favoriteToolsResponse
// @Failure      401  {object}  errorResponse
// @Router       /v1/favorites [get]
func (h *FavoriteHandler) List(c echo.Context) error {
	session, err := requireSession(c)
	if err != nil {
		return err
	}
	tools, err := h.favorites.List(c.Request().Context(), session)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, favoriteToolsResponse{Items: toToolResponses(tools)})
}

// Slugs handles GET /v1/favorites/slugs.
//
// @Summary      List the caller's favorite slugs
// @Tags         favorites
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  favoriteSlugsResponse
// @Failure      401  {object}  errorResponse
// @Router       /v1/favorites/slugs [get]
func (h *FavoriteHandler) Slugs(c echo.Context) error {
	session, err := requireSession(c)
	if err != nil {
		return err
	}
	slugs, err := h.favorites.Slugs(c.Request().Context(), session)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, favoriteSlugsResponse{Slugs: slugs})
}
