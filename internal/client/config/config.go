package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/hitbim/bimio/internal/client/api"
	"github.com/hitbim/bimio/internal/flagx"
	"github.com/hitbim/bimio/internal/tokens"
)

// DefaultEncryptionKey keeps token files written by earlier bimio releases
// readable when ENCRYPTION_KEY is not set.
const DefaultEncryptionKey = "hitbim-bimio-cli-1-20230608-1449"

// CacheFileName is the plugin cache database inside the data directory.
const CacheFileName = "cache.db"

var (
	globalValueFlags = []string{"-t", "-d", "-c", "-config"}
	globalBoolFlags  = []string{"-v"}
)

// Config holds runtime settings for the bimio CLI.
type Config struct {
	// Env is the environment name used to pick the .env file.
	Env string
	// EnvFile is the .env file that was loaded; empty when none was found.
	EnvFile string

	DataDir        string
	ProjectDir     string
	EncryptionKey  string
	RequestTimeout time.Duration
	LogLevel       string

	Endpoints api.Endpoints
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.Env = "prod"
	c.DataDir = defaultDataDir()
	c.ProjectDir = "."
	c.EncryptionKey = DefaultEncryptionKey
	c.RequestTimeout = 60 * time.Second
	c.LogLevel = "warn"
}

// TokenPath is where the session file lives.
func (c *Config) TokenPath() string {
	return filepath.Join(c.DataDir, tokens.FileName)
}

// CachePath is where the plugin cache database lives.
func (c *Config) CachePath() string {
	return filepath.Join(c.DataDir, CacheFileName)
}

// LoadConfig constructs a Config, applies defaults, then overlays the
// environment, JSON (if present) and command-line flags (if present). Later
// sources take precedence over earlier ones. args are the arguments after
// the program name.
func LoadConfig(args []string) *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg, os.LookupEnv)
	parseJson(cfg, args)
	parseFlags(cfg, args)
	return cfg
}

// CommandArgs strips the global flags from args, leaving the command and its
// own flags.
func CommandArgs(args []string) []string {
	_, rest := flagx.SplitArgs(args, globalValueFlags, globalBoolFlags)
	return rest
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "bimio"
	}
	return filepath.Join(home, "bimio")
}
