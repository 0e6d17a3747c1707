package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "prod", c.Env)
	assert.Equal(t, ".", c.ProjectDir)
	assert.Equal(t, DefaultEncryptionKey, c.EncryptionKey)
	assert.Equal(t, 60*time.Second, c.RequestTimeout)
	assert.Equal(t, "warn", c.LogLevel)
	assert.Equal(t, "bimio", filepath.Base(c.DataDir))
}

func TestPaths(t *testing.T) {
	c := Config{DataDir: "/home/me/bimio"}
	assert.Equal(t, filepath.Join("/home/me/bimio", "tokens.json"), c.TokenPath())
	assert.Equal(t, filepath.Join("/home/me/bimio", "cache.db"), c.CachePath())
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	home := t.TempDir()
	t.Setenv("BIMIO_HOME", home)
	t.Setenv("BIMIO_ENV", "")
	t.Setenv("NODE_ENV", "")
	t.Setenv("BIMIO_ENV_FILE", filepath.Join(home, "missing.env"))
	t.Setenv("BIMIO_LOG_LEVEL", "")
	t.Setenv("BIMIO_REQUEST_TIMEOUT", "")

	cfg := LoadConfig([]string{"-v", "list"})

	require.NotNil(t, cfg, "LoadConfig must not return nil")
	assert.Equal(t, home, cfg.DataDir)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 60*time.Second, cfg.RequestTimeout)
	assert.Empty(t, cfg.EnvFile)
}

func TestCommandArgs(t *testing.T) {
	assert.Equal(t, []string{"upload", "-p", "Hello"},
		CommandArgs([]string{"-v", "-c", "conf.json", "upload", "-p", "Hello", "-t", "10"}))
	assert.Equal(t, []string{"login"}, CommandArgs([]string{"-d=/work", "login"}))
}
