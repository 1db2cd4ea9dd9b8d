package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWith_Defaults(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{}))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, "toolbox", cfg.Mongo.Database)
	assert.Equal(t, 16384, cfg.Preferences.MaxValueBytes)
	assert.Equal(t, 500, cfg.Preferences.MaxListEntries)
	assert.Equal(t, time.Hour, cfg.Favorites.ReconcileInterval)
	assert.Equal(t, "hisashi@hisashi", cfg.DevLogin.Email)
	assert.Equal(t, "https://yokaunit.com", cfg.SiteURL)
	assert.NotEmpty(t, cfg.JWTSecret, "development gets a placeholder secret")
	assert.False(t, cfg.DevLoginActive(), "developer login is opt-in")
	assert.True(t, cfg.InMemory(), "no backend configured by default")
}

func TestLoadWith_Overrides(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"PORT":                         "9090",
		"JWT_SECRET":                   "s3cret",
		"PREFS_MAX_LIST_ENTRIES":       "50",
		"FAVORITES_RECONCILE_INTERVAL": "0s",
		"DEV_LOGIN_ENABLED":            "true",
		"MONGO_URI":                    "mongodb://mongo:27017",
		"REDIS_ADDR":                   "redis:6379",
	}))
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.Equal(t, 50, cfg.Preferences.MaxListEntries)
	assert.Zero(t, cfg.Favorites.ReconcileInterval)
	assert.True(t, cfg.DevLoginActive())
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.False(t, cfg.InMemory())
}

func TestLoadWith_ProductionRules(t *testing.T) {
	_, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"ENV": "production",
	}))
	assert.ErrorContains(t, err, "JWT_SECRET")

	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"ENV":               "production",
		"JWT_SECRET":        "x",
		"DEV_LOGIN_ENABLED": "true",
	}))
	require.NoError(t, err)
	assert.False(t, cfg.DevLoginActive(), "developer login never runs outside development")
}

func TestLoadWith_InvalidCaps(t *testing.T) {
	_, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"PREFS_MAX_VALUE_BYTES": "0",
	}))
	assert.ErrorContains(t, err, "PREFS_MAX_VALUE_BYTES")
}
