// Package config loads runtime configuration for the bimio CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Process environment and the .env.<env> file (see parseEnv).
//  3. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  4. Command-line flags (see parseFlags), which override earlier values.
//
// Global flags
//
//	-v          verbose (debug) logging
//	-t int      request timeout (seconds)
//	-d string   project directory holding public/PLUGINS
//	-c string   JSON config file
//
// # Environment
//
// BIMIO_ENV (or NODE_ENV) picks the endpoint file: dev, develop and
// development read .env.dev, local reads .env.local, anything else
// .env.prod. BIMIO_ENV_FILE names the file explicitly. The file is looked up
// in the data directory (BIMIO_HOME, default ~/bimio) and then in the working
// directory. Variables already set in the process win over the file.
//
// Endpoints are read from AUTH_SERVER_<OP>_{HOSTNAME,METHOD,PATH} for LOGIN,
// REFRESH and LOGOUT, and PLUGIN_SERVER_<OP>_{...} for UPLOAD, UPDATE,
// DOWNLOAD and LIST.
//
// # JSON schema
//
// Durations use timex.Duration, so they can be strings like "30s" or integer
// nanoseconds:
//
//	{
//	  "data_dir": "/home/me/bimio",
//	  "project_dir": ".",
//	  "log_level": "info",
//	  "request_timeout": "30s"
//	}
package config
