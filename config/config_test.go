package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_DSN", "file::memory:")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 4*1024*1024, cfg.BodyLimit())
	assert.Equal(t, 60, cfg.RateLimitMax)
	assert.Equal(t, 10*time.Second, cfg.Geocoder.Timeout)
	assert.Equal(t, time.Second, cfg.Geocoder.Delay)
	assert.Equal(t, "https://nominatim.openstreetmap.org/search", cfg.Geocoder.URL)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "prod-secret")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_NAME", "crm")
	t.Setenv("BODY_LIMIT_BYTES", "1024")
	t.Setenv("GEOCODER_DELAY", "250ms")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 1024, cfg.BodyLimit())
	assert.Equal(t, 250*time.Millisecond, cfg.Geocoder.Delay)
	assert.Equal(t, "crm", cfg.DB.Name)
}

func TestValidate(t *testing.T) {
	t.Run("unknown driver", func(t *testing.T) {
		cfg := &Config{RateLimitMax: 1, DB: DatabaseConfig{Driver: "oracle"}}
		assert.Error(t, cfg.Validate())
	})

	t.Run("postgres without database name", func(t *testing.T) {
		cfg := &Config{RateLimitMax: 1, DB: DatabaseConfig{Driver: "postgres"}}
		assert.Error(t, cfg.Validate())
	})

	t.Run("production without jwt secret", func(t *testing.T) {
		cfg := &Config{AppEnv: "production", RateLimitMax: 1, DB: DatabaseConfig{Driver: "sqlite"}}
		assert.Error(t, cfg.Validate())
		cfg.JWTSecret = "s"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("sqlite needs nothing else", func(t *testing.T) {
		cfg := &Config{RateLimitMax: 1, DB: DatabaseConfig{Driver: "sqlite"}}
		assert.NoError(t, cfg.Validate())
	})
}
