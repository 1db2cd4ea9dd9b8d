package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const envDevelopment = "development"

type Config struct {
	Port      string        `env:"PORT,      default=8080"`
	Env       string        `env:"ENV,       default=development"`
	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"TOKEN_TTL, default=24h"`
	LogLevel  string        `env:"LOG_LEVEL, default=info"`

	CatalogFile string `env:"CATALOG_FILE, default=configs/catalog.yaml"`
	// SiteURL prefixes the links in /sitemap.xml.
	SiteURL string `env:"SITE_URL, default=https://yokaunit.com"`

	Mongo       MongoConfig
	Redis       RedisConfig
	Preferences PreferenceConfig
	Favorites   FavoritesConfig
	DevLogin    DevLoginConfig
}

// MongoConfig selects the remote store. An empty URI keeps tools, users and
// favorites in process.
type MongoConfig struct {
	URI      string `env:"MONGO_URI"`
	Database string `env:"MONGO_DB,  default=toolbox"`
}

// RedisConfig selects the preference store. An empty Addr keeps preferences
// and revoked tokens in process and disables the cross-instance bridge.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

type PreferenceConfig struct {
	MaxValueBytes  int `env:"PREFS_MAX_VALUE_BYTES,  default=16384"`
	MaxListEntries int `env:"PREFS_MAX_LIST_ENTRIES, default=500"`
}

type FavoritesConfig struct {
	ReconcileInterval time.Duration `env:"FAVORITES_RECONCILE_INTERVAL, default=1h"`
	ReconcileWorkers  int           `env:"FAVORITES_RECONCILE_WORKERS,  default=4"`
	ToggleRatePerSec  float64       `env:"FAVORITES_TOGGLE_RATE,        default=5"`
}

// DevLoginConfig is the local-development credential pair. It is honored
// only when Env is development.
type DevLoginConfig struct {
	Enabled  bool   `env:"DEV_LOGIN_ENABLED,  default=false"`
	Email    string `env:"DEV_LOGIN_EMAIL,    default=hisashi@hisashi"`
	Password string `env:"DEV_LOGIN_PASSWORD, default=hisashi@hisashi"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith reads configuration through l and validates it.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsDevelopment reports whether the service runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == envDevelopment
}

// InMemory reports whether no remote backend is configured at all.
func (c *Config) InMemory() bool {
	return c.Mongo.URI == "" && c.Redis.Addr == ""
}

// DevLoginActive reports whether the developer credential pair may sign in.
func (c *Config) DevLoginActive() bool {
	return c.IsDevelopment() && c.DevLogin.Enabled
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		if !c.IsDevelopment() {
			errs = append(errs, errors.New("JWT_SECRET is required outside development"))
		} else {
			c.JWTSecret = "development-secret"
		}
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL must be positive"))
	}
	if c.Preferences.MaxValueBytes <= 0 {
		errs = append(errs, errors.New("PREFS_MAX_VALUE_BYTES must be positive"))
	}
	if c.Preferences.MaxListEntries <= 0 {
		errs = append(errs, errors.New("PREFS_MAX_LIST_ENTRIES must be positive"))
	}
	if c.Favorites.ReconcileInterval < 0 {
		errs = append(errs, errors.New("FAVORITES_RECONCILE_INTERVAL must not be negative"))
	}
	if c.Favorites.ToggleRatePerSec < 0 {
		errs = append(errs, errors.New("FAVORITES_TOGGLE_RATE must not be negative"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}
