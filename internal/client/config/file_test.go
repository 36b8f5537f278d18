package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseFile_SourcesAndPrecedence(t *testing.T) {
	dir := t.TempDir()
	pathFlag := writeTempJSON(t, dir, "flag.json", map[string]any{
		"server_url":          "http://www.example:9000",
		"request_timeout":     "10s",
		"middleware_insecure": true,
	})

	t.Run("loads from flags", func(t *testing.T) {
		cfg := defaults()
		parseFile(cfg, []string{"-config", pathFlag})

		assert.Equal(t, "http://www.example:9000", cfg.ServerURL)
		assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
		assert.True(t, cfg.MiddlewareInsecure)
		assert.Equal(t, "gophstore.db", cfg.DatabasePath, "absent keys keep their value")
	})

	t.Run("integer timeout is seconds", func(t *testing.T) {
		p := writeTempJSON(t, dir, "secs.json", map[string]any{"request_timeout": 30})
		cfg := defaults()
		parseFile(cfg, []string{"-c=" + p})
		assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	})

	t.Run("toml integer timeout is seconds", func(t *testing.T) {
		p := filepath.Join(dir, "secs.toml")
		require.NoError(t, os.WriteFile(p, []byte("request_timeout = 30\n"), 0o600))
		cfg := defaults()
		require.NotPanics(t, func() { parseFile(cfg, []string{"-c", p}) })
		assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	})

	t.Run("toml", func(t *testing.T) {
		p := filepath.Join(dir, "cfg.toml")
		require.NoError(t, os.WriteFile(p, []byte("download_dir = \"/srv/dl\"\nlog_level = \"error\"\nmiddleware_insecure = false\n"), 0o600))

		cfg := defaults()
		cfg.MiddlewareInsecure = true
		parseFile(cfg, []string{"-c", p})

		assert.Equal(t, "/srv/dl", cfg.DownloadDir)
		assert.Equal(t, "error", cfg.LogLevel)
		assert.False(t, cfg.MiddlewareInsecure)
	})

	t.Run("no config flag → no changes", func(t *testing.T) {
		cfg := &Config{ServerURL: "http://defaults:1234", RequestTimeout: 42 * time.Second}
		parseFile(cfg, []string{"-a", "x"})

		assert.Equal(t, "http://defaults:1234", cfg.ServerURL)
		assert.Equal(t, 42*time.Second, cfg.RequestTimeout)
	})

	t.Run("invalid JSON → panics", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))
		require.Panics(t, func() { parseFile(defaults(), []string{"-config", bad}) })
	})

	t.Run("invalid TOML → panics", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.toml")
		require.NoError(t, os.WriteFile(bad, []byte("server_url = \n"), 0o600))
		require.Panics(t, func() { parseFile(defaults(), []string{"-c", bad}) })
	})

	t.Run("missing file → panics", func(t *testing.T) {
		require.Panics(t, func() { parseFile(defaults(), []string{"-c", filepath.Join(dir, "nope.json")}) })
	})
}
