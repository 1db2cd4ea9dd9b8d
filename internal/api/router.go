package api

import (
	"math"
	"net/http"
	"strings"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/yokaunit/toolbox/internal/api/handler"
	"github.com/yokaunit/toolbox/internal/api/middleware"
	"github.com/yokaunit/toolbox/internal/core/domain"
	"github.com/yokaunit/toolbox/internal/core/ports"
	"github.com/yokaunit/toolbox/internal/infrastructure/http/handlers"
	"github.com/yokaunit/toolbox/internal/infrastructure/queue"
)

// Dependencies is everything the HTTP layer needs. Services are built by
// the caller.
type Dependencies struct {
	JWTSecret string
	Logger    zerolog.Logger

	Sessions    ports.SessionResolver
	Auth        ports.AuthService
	Catalog     ports.CatalogService
	Favorites   ports.FavoriteService
	Preferences ports.PreferenceService

	Streamer  handler.ChangeStreamer
	Reconcile handler.ReconcileQueue
	Slugs     queue.SlugSource

	HealthChecks map[string]handlers.Check

	// SiteURL is the public origin used in /sitemap.xml.
	SiteURL string

	// ToggleRatePerSec limits favorite toggles per user. Zero disables it.
	ToggleRatePerSec float64

	// Registry receives HTTP metrics and serves /metrics. Nil means the
	// default Prometheus registry.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if deps.Registry != nil {
		registerer, gatherer = deps.Registry, deps.Registry
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(deps.Logger))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "toolbox",
		Registerer: registerer,
		Skipper: func(c echo.Context) bool {
			p := c.Path()
			return p == "/metrics" || p == "/v1/stream" || strings.HasPrefix(p, "/health")
		},
	}))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(deps.Auth)
	toolHandler := handler.NewToolHandler(deps.Catalog)
	favoriteHandler := handler.NewFavoriteHandler(deps.Favorites)
	preferenceHandler := handler.NewPreferenceHandler(deps.Preferences)
	streamHandler := handler.NewStreamHandler(deps.Streamer, deps.Logger)
	adminHandler := handler.NewAdminHandler(deps.Reconcile, deps.Slugs, deps.Catalog)
	sitemapHandler := handler.NewSitemapHandler(deps.Catalog, deps.SiteURL)

	requireAuth := middleware.Auth(deps.JWTSecret, deps.Sessions)
	optionalAuth := middleware.OptionalAuth(deps.JWTSecret, deps.Sessions)
	toggleLimit := middleware.PerUserRateLimit(deps.ToggleRatePerSec, int(math.Ceil(deps.ToggleRatePerSec)))

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/logout", authHandler.Logout, requireAuth)

	// --- Catalog (anonymous callers see the basic tier) ---
	v1 := e.Group("/v1")
	v1.GET("/session", authHandler.Session, optionalAuth)
	v1.GET("/tools", toolHandler.List, optionalAuth)
	v1.GET("/tools/:slug", toolHandler.Get, optionalAuth)
	v1.GET("/categories", toolHandler.Categories, optionalAuth)
	e.GET("/sitemap.xml", sitemapHandler.Sitemap)

	// --- Signed-in user state ---
	v1.POST("/favorites/:slug/toggle", favoriteHandler.Toggle, requireAuth, toggleLimit)
	v1.GET("/favorites", favoriteHandler.List, requireAuth)
	v1.GET("/favorites/slugs", favoriteHandler.Slugs, requireAuth)
	v1.GET("/preferences/:key", preferenceHandler.Get, requireAuth)
	v1.PUT("/preferences/:key", preferenceHandler.Put, requireAuth)
	v1.DELETE("/preferences/:key", preferenceHandler.Delete, requireAuth)
	v1.DELETE("/preferences/:key/:index", preferenceHandler.DeleteAt, requireAuth)
	v1.GET("/stream", streamHandler.Stream, requireAuth)

	// --- Admin ---
	v1.POST("/admin/reconcile", adminHandler.Reconcile, requireAuth, middleware.RBAC(domain.RoleAdmin, domain.RoleDeveloper))

	// --- Health probes (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(deps.HealthChecks)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	// --- Ops ---
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	e.GET("/", func(c echo.Context) error {
		return c.Redirect(http.StatusTemporaryRedirect, "/swagger/index.html")
	})

	return e
}
