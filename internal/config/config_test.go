package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDevelopmentDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("JWT_SECRET", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsDev())
	assert.Equal(t, ":8080", cfg.Address())
	assert.Equal(t, devJWTSecret, cfg.JWTSecret)
	assert.Equal(t, defaultSessionTTL, cfg.SessionTTL)
	assert.Equal(t, defaultIdempotencyTTL, cfg.IdempotencyTTL)
	assert.Equal(t, defaultLoginRateLimit, cfg.LoginRateLimit)
}

func TestLoadProductionRequiresBackends(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "")

	_, err := Load()
	require.ErrorContains(t, err, "DATABASE_URL")

	t.Setenv("DATABASE_URL", "postgres://bank@localhost/bank")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("JWT_SECRET", "")
	_, err = Load()
	require.ErrorContains(t, err, "JWT_SECRET")

	t.Setenv("JWT_SECRET", "prod-secret")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.IsDev())
}

func TestLoadDurations(t *testing.T) {
	t.Setenv("APP_ENV", "local")
	t.Setenv(shutdownSecondsEnvVar, "3")
	t.Setenv(idemTTLSecondsEnvVar, "")
	t.Setenv(idemTTLDurEnvVar, "90m")
	t.Setenv(sessionTTLEnvVar, "30m")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, cfg.ShutdownPeriod)
	assert.Equal(t, 90*time.Minute, cfg.IdempotencyTTL)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)

	t.Setenv(shutdownSecondsEnvVar, "soon")
	_, err = Load()
	require.ErrorContains(t, err, shutdownSecondsEnvVar)
}
