package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/pos")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("JWT_SECRET", "test-secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, ":8080", cfg.HTTPAddr())
	assert.Equal(t, "IDR", cfg.CurrencyCode)
	assert.Equal(t, int64(10_000), cfg.LoyaltyPointsPer)
	assert.Equal(t, "db/migrations", cfg.MigrationsDir)
}

func TestLoadMissingDatabase(t *testing.T) {
	setRequired(t)
	t.Setenv("DATABASE_URL", "")
	_, err := Load()
	require.Error(t, err)
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "9000")
	t.Setenv("TAX_CACHE_TTL", "90s")
	t.Setenv("LOYALTY_POINTS_PER", "5000")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://admin.migios.app, https://pos.migios.app")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.HTTPAddr())
	assert.Equal(t, "90s", cfg.TaxCacheTTL.String())
	assert.Equal(t, int64(5000), cfg.LoyaltyPointsPer)
	assert.Equal(t, []string{"https://admin.migios.app", "https://pos.migios.app"}, cfg.CORSAllowedOrigins)
}

func TestLoadBadDurationFallsBack(t *testing.T) {
	setRequired(t)
	t.Setenv("IDEMPOTENCY_TTL", "not-a-duration")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "24h0m0s", cfg.IdempotencyTTL.String())
}
