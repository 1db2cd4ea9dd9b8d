package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/yokaunit/toolbox/internal/core/ports"
	"github.com/yokaunit/toolbox/internal/infrastructure/queue"
)

// ReconcileQueue schedules likes reconciliation.
type ReconcileQueue interface {
	Enqueue(slug string) bool
	EnqueueAll(ctx context.Context, source queue.SlugSource) (int, error)
}

// AdminHandler exposes maintenance operations to admins and developers.
type AdminHandler struct {
	queue   ReconcileQueue
	source  queue.SlugSource
	catalog ports.CatalogService
}

func NewAdminHandler(q ReconcileQueue, source queue.SlugSource, catalog ports.CatalogService) *AdminHandler {
	return &AdminHandler{queue: q, source: source, catalog: catalog}
}

// Reconcile handles POST /v1/admin/reconcile. With a slug only that tool is
// recomputed; without one every tool is.
//
// @Summary      Recompute likes counters from the favorites table
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      reconcileRequest  false  "Optional single slug"
// @Success      202   {object}  acceptedResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /v1/admin/reconcile [post]
func (h *AdminHandler) Reconcile(c echo.Context) error {
	var req reconcileRequest
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
		}
		if err := c.Validate(&req); err != nil {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
		}
	}
	ctx := c.Request().Context()

	if req.Slug != "" {
		if _, err := h.catalog.Get(ctx, req.Slug, ctxSession(c).EffectiveRole()); err != nil {
			return err
		}
		if !h.queue.Enqueue(req.Slug) {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "reconcile queue full")
		}
		return c.JSON(http.StatusAccepted, acceptedResponse{Message: "reconcile scheduled", Enqueued: 1})
	}

	n, err := h.queue.EnqueueAll(ctx, h.source)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, acceptedResponse{Message: "reconcile scheduled", Enqueued: n})
}
