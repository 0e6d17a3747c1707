package config

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/hitbim/bimio/internal/client/api"
	"github.com/joho/godotenv"
)

// lookupFunc has the signature of os.LookupEnv.
type lookupFunc func(key string) (string, bool)

// EnvFileName maps an environment name to its endpoint file.
func EnvFileName(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "develop", "development":
		return ".env.dev"
	case "local":
		return ".env.local"
	default:
		return ".env.prod"
	}
}

// parseEnv overlays Config with the process environment and the matching
// .env file. A missing file leaves EnvFile empty; a malformed one panics.
func parseEnv(cfg *Config, lookup lookupFunc) {
	if v, ok := lookup("BIMIO_HOME"); ok && v != "" {
		cfg.DataDir = v
	}
	if v, ok := lookup("BIMIO_ENV"); ok && v != "" {
		cfg.Env = v
	} else if v, ok := lookup("NODE_ENV"); ok && v != "" {
		cfg.Env = v
	}

	candidates := []string{
		filepath.Join(cfg.DataDir, EnvFileName(cfg.Env)),
		EnvFileName(cfg.Env),
	}
	if v, ok := lookup("BIMIO_ENV_FILE"); ok && v != "" {
		candidates = []string{v}
	}

	var file map[string]string
	for _, path := range candidates {
		vars, err := godotenv.Read(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			panic(err)
		}
		file, cfg.EnvFile = vars, path
		break
	}

	get := func(key string) string {
		if v, ok := lookup(key); ok {
			return v
		}
		return file[key]
	}

	if v := get("ENCRYPTION_KEY"); v != "" {
		cfg.EncryptionKey = v
	}
	if v := get("BIMIO_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := get("BIMIO_REQUEST_TIMEOUT"); v != "" {
		cfg.RequestTimeout = parseSeconds(v)
	}

	descriptor := func(prefix string) api.Descriptor {
		return api.Descriptor{
			Hostname: get(prefix + "_HOSTNAME"),
			Method:   get(prefix + "_METHOD"),
			Path:     get(prefix + "_PATH"),
		}
	}
	cfg.Endpoints = api.Endpoints{
		Login:    descriptor("AUTH_SERVER_LOGIN"),
		Refresh:  descriptor("AUTH_SERVER_REFRESH"),
		Logout:   descriptor("AUTH_SERVER_LOGOUT"),
		Upload:   descriptor("PLUGIN_SERVER_UPLOAD"),
		Update:   descriptor("PLUGIN_SERVER_UPDATE"),
		Download: descriptor("PLUGIN_SERVER_DOWNLOAD"),
		List:     descriptor("PLUGIN_SERVER_LIST"),
	}
}

// parseSeconds accepts "30" (seconds) or a Go duration such as "1m".
func parseSeconds(v string) time.Duration {
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		panic(err)
	}
	return d
}
