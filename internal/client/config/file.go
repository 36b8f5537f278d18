package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/dmitrijs2005/gophstore/internal/flagx"
	"github.com/dmitrijs2005/gophstore/internal/timex"
)

// FileConfig is a DTO used exclusively for config file decoding. Empty
// fields leave the current value alone.
type FileConfig struct {
	ServerURL          string         `json:"server_url" toml:"server_url"`
	DatabasePath       string         `json:"database_path" toml:"database_path"`
	DownloadDir        string         `json:"download_dir" toml:"download_dir"`
	RequestTimeout     timex.Duration `json:"request_timeout" toml:"request_timeout"`
	MiddlewareURL      string         `json:"middleware_url" toml:"middleware_url"`
	MiddlewareInsecure *bool          `json:"middleware_insecure" toml:"middleware_insecure"`
	LogLevel           string         `json:"log_level" toml:"log_level"`
}

// parseFile overlays cfg with the file named by -c/-config, if any. Read
// and decode errors panic.
func parseFile(cfg *Config, args []string) {
	path := flagx.ConfigFile(args)
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	var fc FileConfig
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = toml.Unmarshal(data, &fc)
	} else {
		err = json.Unmarshal(data, &fc)
	}
	if err != nil {
		panic(err)
	}

	fc.apply(cfg)
}

func (fc *FileConfig) apply(cfg *Config) {
	if fc.ServerURL != "" {
		cfg.ServerURL = fc.ServerURL
	}
	if fc.DatabasePath != "" {
		cfg.DatabasePath = fc.DatabasePath
	}
	if fc.DownloadDir != "" {
		cfg.DownloadDir = fc.DownloadDir
	}
	if fc.RequestTimeout.Duration != 0 {
		cfg.RequestTimeout = fc.RequestTimeout.Duration
	}
	if fc.MiddlewareURL != "" {
		cfg.MiddlewareURL = fc.MiddlewareURL
	}
	if fc.MiddlewareInsecure != nil {
		cfg.MiddlewareInsecure = *fc.MiddlewareInsecure
	}
	if fc.LogLevel != "" {
		cfg.LogLevel = fc.LogLevel
	}
}
