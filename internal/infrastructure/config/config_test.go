package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	// Save original env vars and restore after tests
	originalEnv := map[string]string{
		"ORDERDASH_APP_NAME":                  os.Getenv("ORDERDASH_APP_NAME"),
		"ORDERDASH_APP_ENV":                   os.Getenv("ORDERDASH_APP_ENV"),
		"ORDERDASH_APP_PORT":                  os.Getenv("ORDERDASH_APP_PORT"),
		"ORDERDASH_DATABASE_HOST":             os.Getenv("ORDERDASH_DATABASE_HOST"),
		"ORDERDASH_DATABASE_PORT":             os.Getenv("ORDERDASH_DATABASE_PORT"),
		"ORDERDASH_DATABASE_USER":             os.Getenv("ORDERDASH_DATABASE_USER"),
		"ORDERDASH_DATABASE_PASSWORD":         os.Getenv("ORDERDASH_DATABASE_PASSWORD"),
		"ORDERDASH_DATABASE_DBNAME":           os.Getenv("ORDERDASH_DATABASE_DBNAME"),
		"ORDERDASH_DATABASE_SSLMODE":          os.Getenv("ORDERDASH_DATABASE_SSLMODE"),
		"ORDERDASH_DATABASE_MAX_OPEN_CONNS":   os.Getenv("ORDERDASH_DATABASE_MAX_OPEN_CONNS"),
		"ORDERDASH_DATABASE_MAX_IDLE_CONNS":   os.Getenv("ORDERDASH_DATABASE_MAX_IDLE_CONNS"),
		"ORDERDASH_LINNWORKS_APPLICATION_ID":  os.Getenv("ORDERDASH_LINNWORKS_APPLICATION_ID"),
		"ORDERDASH_LINNWORKS_INSTALL_TOKEN":   os.Getenv("ORDERDASH_LINNWORKS_INSTALL_TOKEN"),
		"ORDERDASH_SYNC_ENABLED":              os.Getenv("ORDERDASH_SYNC_ENABLED"),
		"ORDERDASH_SYNC_OPEN_ORDERS_INTERVAL": os.Getenv("ORDERDASH_SYNC_OPEN_ORDERS_INTERVAL"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	clearEnv := func() {
		for k := range originalEnv {
			os.Unsetenv(k)
		}
	}

	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv()

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "orderdash-backend", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "orderdash", cfg.Database.DBName)
		assert.Equal(t, "disable", cfg.Database.SSLMode)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, "https://api.linnworks.net", cfg.Linnworks.AuthBaseURL)
		assert.Equal(t, 200, cfg.Linnworks.PageSize)
		assert.Equal(t, 15, cfg.Sync.OpenOrdersInterval)
		assert.Equal(t, 60, cfg.Sync.ProcessedOrdersInterval)
		assert.Equal(t, time.Minute, cfg.Sync.PollInterval)
		assert.Equal(t, 50, cfg.Sync.FailedRetryBatchSize)
	})

	t.Run("loads values from environment variables with ORDERDASH prefix", func(t *testing.T) {
		clearEnv()
		os.Setenv("ORDERDASH_APP_NAME", "test-app")
		os.Setenv("ORDERDASH_APP_PORT", "9000")
		os.Setenv("ORDERDASH_DATABASE_HOST", "testdb.local")
		os.Setenv("ORDERDASH_DATABASE_PORT", "5433")
		os.Setenv("ORDERDASH_DATABASE_PASSWORD", "testpass")
		os.Setenv("ORDERDASH_LINNWORKS_APPLICATION_ID", "app-123")
		os.Setenv("ORDERDASH_LINNWORKS_INSTALL_TOKEN", "tok-456")
		os.Setenv("ORDERDASH_SYNC_ENABLED", "true")
		os.Setenv("ORDERDASH_SYNC_OPEN_ORDERS_INTERVAL", "5")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, "testpass", cfg.Database.Password)
		assert.Equal(t, "app-123", cfg.Linnworks.ApplicationID)
		assert.Equal(t, "tok-456", cfg.Linnworks.InstallToken)
		assert.True(t, cfg.Sync.Enabled)
		assert.Equal(t, 5, cfg.Sync.OpenOrdersInterval)
	})

	t.Run("production requires database password", func(t *testing.T) {
		clearEnv()
		os.Setenv("ORDERDASH_APP_ENV", "production")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password")
	})

	t.Run("production rejects sync without install token", func(t *testing.T) {
		clearEnv()
		os.Setenv("ORDERDASH_APP_ENV", "production")
		os.Setenv("ORDERDASH_DATABASE_PASSWORD", "secret")
		os.Setenv("ORDERDASH_DATABASE_SSLMODE", "require")
		os.Setenv("ORDERDASH_SYNC_ENABLED", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "install_token")
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "db.example.com",
		Port:     5432,
		User:     "orderdash",
		Password: "p@ss:word/",
		DBName:   "orderdash",
		SSLMode:  "require",
	}

	dsn := cfg.DSN()
	assert.Contains(t, dsn, "postgres://")
	assert.Contains(t, dsn, "db.example.com:5432")
	assert.Contains(t, dsn, "sslmode=require")
	// Special characters in the password must be escaped.
	assert.NotContains(t, dsn, "p@ss:word/@")
}

func TestConfig_ValidatePoolSettings(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)
	cfg.Database.MaxIdleConns = 100
	cfg.Database.MaxOpenConns = 10

	err := cfg.validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_idle_conns")
}
