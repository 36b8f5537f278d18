package config

import (
	"os"
	"time"
)

// Config holds runtime settings for the gophstore CLI.
type Config struct {
	ServerURL          string
	DatabasePath       string
	DownloadDir        string
	RequestTimeout     time.Duration
	MiddlewareURL      string
	MiddlewareInsecure bool
	LogLevel           string
	Ephemeral          bool
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.DatabasePath = "gophstore.db"
	c.DownloadDir = "downloads"
	c.RequestTimeout = 30 * time.Second
	c.MiddlewareURL = "https://localhost:8443"
	c.MiddlewareInsecure = false
	c.LogLevel = "info"
	c.Ephemeral = false
}

// LoadConfig builds a Config from defaults, environment, config file and
// flags taken from os.Args. It panics on invalid input.
func LoadConfig() *Config {
	return Load(os.Args[1:], ".env")
}

// Load is LoadConfig with explicit arguments and .env path ("" skips it).
func Load(args []string, dotenv string) *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg, dotenv)
	parseFile(cfg, args)
	parseFlags(cfg, args)
	return cfg
}
