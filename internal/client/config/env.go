package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/dmitrijs2005/gophstore/internal/timex"
)

const (
	EnvServerURL          = "GOPHSTORE_SERVER_URL"
	EnvDatabasePath       = "GOPHSTORE_DB_PATH"
	EnvDownloadDir        = "GOPHSTORE_DOWNLOAD_DIR"
	EnvRequestTimeout     = "GOPHSTORE_TIMEOUT"
	EnvMiddlewareURL      = "GOPHSTORE_MIDDLEWARE_URL"
	EnvMiddlewareInsecure = "GOPHSTORE_MIDDLEWARE_INSECURE"
	EnvLogLevel           = "GOPHSTORE_LOG_LEVEL"
)

// parseEnv overlays cfg with GOPHSTORE_* variables. Values from the real
// environment win over those read from the dotenv file. A missing dotenv
// file is ignored; a malformed one panics.
func parseEnv(cfg *Config, dotenv string) {
	fileVals := map[string]string{}
	if dotenv != "" {
		vals, err := godotenv.Read(dotenv)
		switch {
		case err == nil:
			fileVals = vals
		case !errors.Is(err, fs.ErrNotExist):
			panic(fmt.Errorf("read %s: %w", dotenv, err))
		}
	}

	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := fileVals[key]
		return v, ok
	}

	if v, ok := lookup(EnvServerURL); ok {
		cfg.ServerURL = v
	}
	if v, ok := lookup(EnvDatabasePath); ok {
		cfg.DatabasePath = v
	}
	if v, ok := lookup(EnvDownloadDir); ok {
		cfg.DownloadDir = v
	}
	if v, ok := lookup(EnvRequestTimeout); ok {
		var d timex.Duration
		if err := d.UnmarshalText([]byte(v)); err != nil {
			panic(fmt.Errorf("%s: %w", EnvRequestTimeout, err))
		}
		cfg.RequestTimeout = d.Duration
	}
	if v, ok := lookup(EnvMiddlewareURL); ok {
		cfg.MiddlewareURL = v
	}
	if v, ok := lookup(EnvMiddlewareInsecure); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			panic(fmt.Errorf("%s: %w", EnvMiddlewareInsecure, err))
		}
		cfg.MiddlewareInsecure = b
	}
	if v, ok := lookup(EnvLogLevel); ok {
		cfg.LogLevel = v
	}
}
