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

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	dir := t.TempDir()
	pathFlag := writeTempJSON(t, dir, "flag.json", map[string]any{
		"data_dir":        "/srv/bimio",
		"log_level":       "info",
		"request_timeout": "10s",
	})

	t.Run("loads from flags", func(t *testing.T) {
		cfg := &Config{ProjectDir: "."}
		parseJson(cfg, []string{"-config", pathFlag, "list"})

		assert.Equal(t, "/srv/bimio", cfg.DataDir)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
		assert.Equal(t, ".", cfg.ProjectDir, "absent keys keep their value")
	})

	t.Run("no flags → no changes", func(t *testing.T) {
		cfg := &Config{
			DataDir:        "/defaults",
			RequestTimeout: 42 * time.Second,
		}
		parseJson(cfg, []string{"list"})

		assert.Equal(t, "/defaults", cfg.DataDir)
		assert.Equal(t, 42*time.Second, cfg.RequestTimeout)
	})

	t.Run("invalid JSON → panics", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		cfg := &Config{}
		require.Panics(t, func() { parseJson(cfg, []string{"-c", bad}) })
	})

	t.Run("missing file → panics", func(t *testing.T) {
		cfg := &Config{}
		require.Panics(t, func() { parseJson(cfg, []string{"-c", filepath.Join(dir, "none.json")}) })
	})
}
