// Package config loads runtime configuration for the gophstore CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Environment variables GOPHSTORE_*, with a .env file in the working
//     directory filling in whatever the real environment does not set.
//  3. Optional config file selected via -c or -config. Files ending in
//     .toml are read as TOML, anything else as JSON.
//  4. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string   backend server URL
//	-d string   path of the local SQLite database
//	-o string   directory downloads are saved to
//	-t int      request timeout (seconds)
//	-m string   certificate middleware URL
//	-k          skip TLS verification for the middleware
//	-l string   log level (debug, info, warn, error)
//	-ephemeral  keep tokens in memory only
//
// # File schema
//
// Durations are timex.Duration, so they may be strings like "30s" or a
// whole number of seconds, the same unit as -t and GOPHSTORE_TIMEOUT:
//
//	{
//	  "server_url": "http://127.0.0.1:8080",
//	  "database_path": "gophstore.db",
//	  "download_dir": "downloads",
//	  "request_timeout": "30s",
//	  "middleware_url": "https://localhost:8443",
//	  "middleware_insecure": false,
//	  "log_level": "info"
//	}
//
// The TOML form uses the same keys.
package config
