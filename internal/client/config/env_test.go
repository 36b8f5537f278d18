package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnv(t *testing.T) {
	t.Setenv(EnvServerURL, "https://api.example.com")
	t.Setenv(EnvDatabasePath, "/var/lib/gophstore.db")
	t.Setenv(EnvRequestTimeout, "1m")
	t.Setenv(EnvMiddlewareInsecure, "true")

	cfg := defaults()
	parseEnv(cfg, "")

	assert.Equal(t, "https://api.example.com", cfg.ServerURL)
	assert.Equal(t, "/var/lib/gophstore.db", cfg.DatabasePath)
	assert.Equal(t, time.Minute, cfg.RequestTimeout)
	assert.True(t, cfg.MiddlewareInsecure)
	assert.Equal(t, "info", cfg.LogLevel, "unset variables keep their value")
}

func TestParseEnv_TimeoutInSeconds(t *testing.T) {
	t.Setenv(EnvRequestTimeout, "30")

	cfg := defaults()
	require.NotPanics(t, func() { parseEnv(cfg, "") })
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
}

func TestParseEnv_Invalid(t *testing.T) {
	t.Run("timeout", func(t *testing.T) {
		t.Setenv(EnvRequestTimeout, "soon")
		require.Panics(t, func() { parseEnv(defaults(), "") })
	})
	t.Run("bool", func(t *testing.T) {
		t.Setenv(EnvMiddlewareInsecure, "maybe")
		require.Panics(t, func() { parseEnv(defaults(), "") })
	})
}

func TestParseEnv_DotenvDoesNotOverrideEnvironment(t *testing.T) {
	dotenv := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(dotenv, []byte("GOPHSTORE_SERVER_URL=http://dotenv\nGOPHSTORE_DB_PATH=dotenv.db\n"), 0o600))
	t.Setenv(EnvServerURL, "http://real-env")

	cfg := defaults()
	parseEnv(cfg, dotenv)

	assert.Equal(t, "http://real-env", cfg.ServerURL)
	assert.Equal(t, "dotenv.db", cfg.DatabasePath)

	_, leaked := os.LookupEnv(EnvDatabasePath)
	assert.False(t, leaked, "dotenv values must not leak into the process environment")
}
