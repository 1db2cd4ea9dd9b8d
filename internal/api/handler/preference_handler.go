package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/yokaunit/toolbox/internal/api/metrics"
	"github.com/yokaunit/toolbox/internal/core/domain"
	"github.com/yokaunit/toolbox/internal/core/ports"
)

// PreferenceHandler exposes the user-owned preference keys.
type PreferenceHandler struct {
	prefs ports.PreferenceService
}

func NewPreferenceHandler(prefs ports.PreferenceService) *PreferenceHandler {
	return &PreferenceHandler{prefs: prefs}
}

// Get handles GET /v1/preferences/:key.
//
// @Summary      Read a preference
// @Tags         preferences
// @Produce      json
// @Security     BearerAuth
// @Param        key  path      string  true  "Preference key"
// @Success      200  {object}  preferenceResponse
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Failure      422  {object}  errorResponse
// @Router       /v1/preferences/{key} [get]
func (h *PreferenceHandler) Get(c echo.Context) error {
	session, err := requireSession(c)
	if err != nil {
		return err
	}
	pref, err := h.prefs.Get(c.Request().Context(), session, c.Param("key"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPreferenceResponse(pref))
}

// Put handles PUT /v1/preferences/:key.
//
// @Summary      Write a preference
// @Tags         preferences
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        key   path      string             true  "Preference key"
// @Param        body  body      preferenceRequest  true  "Either value or values"
// @Success      200   {object}  preferenceResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Failure      502   {object}  errorResponse
// @Router       /v1/preferences/{key} [put]
func (h *PreferenceHandler) Put(c echo.Context) error {
	session, err := requireSession(c)
	if err != nil {
		return err
	}

	var req preferenceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	pref, err := toPreference(c.Param("key"), req)
	if err != nil {
		return err
	}

	if err := h.prefs.Set(c.Request().Context(), session, pref); err != nil {
		countRejection(err)
		return err
	}
	return c.JSON(http.StatusOK, toPreferenceResponse(&pref))
}

// Delete handles DELETE /v1/preferences/:key.
//
// @Summary      Remove a preference
// @Tags         preferences
// @Security     BearerAuth
// @Param        key  path  string  true  "Preference key"
// @Success      204
// @Failure      401  {object}  errorResponse
// @Failure      422  {object}  errorResponse
// @Router       /v1/preferences/{key} [delete]
func (h *PreferenceHandler) Delete(c echo.Context) error {
	session, err := requireSession(c)
	if err != nil {
		return err
	}
	if err := h.prefs.Remove(c.Request().Context(), session, c.Param("key")); err != nil {
		countRejection(err)
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteAt handles DELETE /v1/preferences/:key/:index, e.g. removing one
// saved password.
//
// @Summary      Remove one entry of a list preference
// @Tags         preferences
// @Security     BearerAuth
// @Param        key    path  string  true  "List preference key (e.g. savedPasswords)"
// @Param        index  path  int     true  "0-based index"
// @Success      204
// @Failure      400  {object}  errorResponse
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Failure      422  {object}  errorResponse
// @Router       /v1/preferences/{key}/{index} [delete]
func (h *PreferenceHandler) DeleteAt(c echo.Context) error {
	session, err := requireSession(c)
	if err != nil {
		return err
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "index must be an integer")
	}
	if err := h.prefs.RemoveAt(c.Request().Context(), session, c.Param("key"), index); err != nil {
		countRejection(err)
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func countRejection(err error) {
	var reason string
	switch {
	case errors.Is(err, domain.ErrReadOnlyKey):
		reason = "read_only"
	case errors.Is(err, domain.ErrForbiddenKey):
		reason = "forbidden"
	case errors.Is(err, domain.ErrValueTooLarge):
		reason = "too_large"
	case errors.Is(err, domain.ErrValidation):
		reason = "invalid"
	default:
		return
	}
	metrics.PreferencesRejectedTotal.WithLabelValues(reason).Inc()
}
