package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	_ "github.com/yokaunit/toolbox/docs"
	"github.com/yokaunit/toolbox/internal/api"
	"github.com/yokaunit/toolbox/internal/core/ports"
	"github.com/yokaunit/toolbox/internal/core/service"
	"github.com/yokaunit/toolbox/internal/infrastructure/catalog"
	"github.com/yokaunit/toolbox/internal/infrastructure/config"
	"github.com/yokaunit/toolbox/internal/infrastructure/db/memory"
	mongodb "github.com/yokaunit/toolbox/internal/infrastructure/db/mongo"
	redisdb "github.com/yokaunit/toolbox/internal/infrastructure/db/redis"
	"github.com/yokaunit/toolbox/internal/infrastructure/http/handlers"
	"github.com/yokaunit/toolbox/internal/infrastructure/notify"
	"github.com/yokaunit/toolbox/internal/infrastructure/queue"
	"github.com/yokaunit/toolbox/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// @title                       Toolbox API
// @version                     1.0
// @description                 Tool catalog with accounts, favorites and tiered access.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Bearer" followed by a space and the JWT.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "toolbox: %v\n", err)
		os.Exit(1)
	}
}

// backends holds the storage side, either remote or in process.
type backends struct {
	tools     ports.ToolRepository
	favorites ports.FavoriteRepository
	users     ports.UserRepository
	prefs     ports.PreferenceStore
	revoker   ports.TokenRevoker
	redis     *goredis.Client
	checks    map[string]handlers.Check
	close     func()
}

func run(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "toolbox",
	})

	if cfg.InMemory() && !cfg.IsDevelopment() {
		log.Warn().Str("env", cfg.Env).Msg("no remote backend configured, state is lost on restart")
	}

	b, err := openBackends(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer b.close()

	n, err := catalog.NewLoader(cfg.CatalogFile).Sync(ctx, b.tools)
	switch {
	case err != nil && cfg.Mongo.URI == "":
		return fmt.Errorf("seed catalog: %w", err)
	case err != nil:
		log.Warn().Err(err).Str("file", cfg.CatalogFile).Msg("catalog seed skipped, serving stored tools")
	default:
		log.Info().Int("tools", n).Str("file", cfg.CatalogFile).Msg("catalog seeded")
	}

	// --- Change notification ---
	broadcaster := notify.NewBroadcaster(log)
	var bridge *notify.RedisBridge
	if b.redis != nil {
		bridge = notify.NewRedisBridge(b.redis, broadcaster, uuid.NewString(), log)
		broadcaster.SetForwarder(bridge)
	}

	// --- Services ---
	sessions := service.NewSessionProvider(b.prefs, b.revoker, log)
	sessions.Start(broadcaster)
	defer sessions.Stop()

	authOpts := []service.AuthOption{
		service.WithFavoritesSource(b.favorites),
		service.WithTokenRevoker(b.revoker),
	}
	if cfg.DevLoginActive() {
		log.Warn().Str("email", cfg.DevLogin.Email).Msg("developer login enabled")
		authOpts = append(authOpts, service.WithDeveloperLogin(service.NewDeveloperLogin(cfg.DevLogin.Email, cfg.DevLogin.Password)))
	}
	authService := service.NewAuthService(b.users, b.prefs, broadcaster, cfg.JWTSecret, cfg.TokenTTL, log, authOpts...)
	reconciler := service.NewLikesReconciler(b.tools, b.favorites, log)
	dispatcher := queue.NewDispatcher(cfg.Favorites.ReconcileWorkers, reconciler, log)

	e := api.NewRouter(api.Dependencies{
		JWTSecret:        cfg.JWTSecret,
		Logger:           log,
		Sessions:         sessions,
		Auth:             authService,
		Catalog:          service.NewCatalogService(b.tools, log),
		Favorites:        service.NewFavoriteService(b.tools, b.favorites, b.prefs, broadcaster, log),
		Preferences:      service.NewPreferenceService(b.prefs, broadcaster, log),
		Streamer:         broadcaster,
		Reconcile:        dispatcher,
		Slugs:            reconciler,
		HealthChecks:     b.checks,
		SiteURL:          cfg.SiteURL,
		ToggleRatePerSec: cfg.Favorites.ToggleRatePerSec,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	dispatcher.Start(gctx)
	g.Go(func() error {
		return dispatcher.Every(gctx, cfg.Favorites.ReconcileInterval, reconciler)
	})
	if bridge != nil {
		g.Go(func() error { return bridge.Run(gctx) })
	}
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Str("env", cfg.Env).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		// Open change streams would otherwise hold Shutdown until the timeout.
		broadcaster.Close()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info().Msg("server stopped")
	return nil
}

// openBackends connects to MongoDB and Redis when configured and falls back
// to in-process stores otherwise.
func openBackends(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*backends, error) {
	b := &backends{checks: map[string]handlers.Check{}}
	var closers []func()
	b.close = func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.Mongo.URI != "" {
		client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, err
		}
		closers = append(closers, func() {
			dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(dctx)
		})

		tools := mongodb.NewToolRepository(db)
		favorites := mongodb.NewFavoriteRepository(db)
		users := mongodb.NewUserRepository(db)
		if err := mongodb.EnsureIndexes(ctx, tools, favorites, users); err != nil {
			b.close()
			return nil, err
		}
		b.tools, b.favorites, b.users = tools, favorites, users
		b.checks["mongodb"] = handlers.MongoCheck(db)
		log.Info().Str("database", cfg.Mongo.Database).Msg("mongodb connected")
	} else {
		tools := memory.NewToolRepository()
		b.tools, b.favorites, b.users = tools, memory.NewFavoriteRepository(tools), memory.NewUserRepository()
		b.checks["mongodb"] = nil
		log.Warn().Msg("MONGO_URI not set, tools, users and favorites live in memory")
	}

	if cfg.Redis.Addr != "" {
		rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			b.close()
			return nil, err
		}
		closers = append(closers, func() { _ = rdb.Close() })

		b.redis = rdb
		b.prefs = redisdb.NewPreferenceStore(rdb, cfg.Preferences.MaxValueBytes, cfg.Preferences.MaxListEntries)
		b.revoker = redisdb.NewTokenRevoker(rdb)
		b.checks["redis"] = handlers.RedisCheck(rdb)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("redis connected")
	} else {
		b.prefs = memory.NewPreferenceStore(cfg.Preferences.MaxValueBytes, cfg.Preferences.MaxListEntries)
		b.revoker = memory.NewTokenRevoker()
		b.checks["redis"] = nil
		log.Warn().Msg("REDIS_ADDR not set, preferences live in memory and the change bridge is off")
	}

	return b, nil
}
