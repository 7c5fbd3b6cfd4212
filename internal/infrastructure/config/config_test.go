package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)

	assert.Equal(t, "ficore-backend", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessTokenExpiration)
	assert.Equal(t, "info", cfg.Log.Level)

	// Standard pricing: one credit per budget action, two for full export
	assert.Equal(t, int64(1), cfg.Credits.CreateBudget)
	assert.Equal(t, int64(1), cfg.Credits.DeleteBudget)
	assert.Equal(t, int64(1), cfg.Credits.DuplicateBudget)
	assert.Equal(t, int64(1), cfg.Credits.ExportBudget)
	assert.Equal(t, int64(2), cfg.Credits.ExportHistory)

	// CORS origins stay empty until explicitly configured
	assert.Empty(t, cfg.HTTP.CORSAllowOrigins)
}

func TestValidate(t *testing.T) {
	newValid := func() *Config {
		cfg := &Config{}
		applyDefaults(cfg)
		return cfg
	}

	t.Run("defaults are valid", func(t *testing.T) {
		require.NoError(t, newValid().validate())
	})

	t.Run("negative action cost rejected", func(t *testing.T) {
		cfg := newValid()
		cfg.Credits.ExportHistory = -1
		require.Error(t, cfg.validate())
	})

	t.Run("idle conns cannot exceed open conns", func(t *testing.T) {
		cfg := newValid()
		cfg.Database.MaxIdleConns = 100
		require.Error(t, cfg.validate())
	})

	t.Run("production requires jwt secret", func(t *testing.T) {
		cfg := newValid()
		cfg.App.Env = "production"
		cfg.Database.Password = "secret"
		cfg.Database.SSLMode = "require"
		err := cfg.validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt.secret")
	})

	t.Run("production rejects wildcard CORS", func(t *testing.T) {
		cfg := newValid()
		cfg.App.Env = "production"
		cfg.JWT.Secret = "0123456789abcdef0123456789abcdef"
		cfg.Database.Password = "secret"
		cfg.Database.SSLMode = "require"
		cfg.HTTP.CORSAllowOrigins = []string{"*"}
		err := cfg.validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cors_allow_origins")
	})

	t.Run("sampling ratio bounds", func(t *testing.T) {
		cfg := newValid()
		cfg.Telemetry.SamplingRatio = 1.5
		require.Error(t, cfg.validate())
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "db.internal",
		Port:     5433,
		User:     "ficore",
		Password: "p@ss/word",
		DBName:   "ledger",
		SSLMode:  "require",
	}

	dsn := cfg.DSN()
	assert.Contains(t, dsn, "postgres://")
	assert.Contains(t, dsn, "db.internal:5433")
	assert.Contains(t, dsn, "sslmode=require")
	// Special characters in the password are escaped
	assert.NotContains(t, dsn, "p@ss/word")
}
