package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/gophstore/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
// args is filtered with flagx.FilterArgs so flags owned by other layers
// (-c/-config) do not cause parse errors here.
func parseFlags(cfg *Config, args []string) {
	args = flagx.FilterArgs(args, []string{"-a", "-d", "-o", "-t", "-m", "-k", "-l", "-ephemeral"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "backend server URL")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "path of the local database")
	fs.StringVar(&cfg.DownloadDir, "o", cfg.DownloadDir, "download directory")
	timeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")
	fs.StringVar(&cfg.MiddlewareURL, "m", cfg.MiddlewareURL, "certificate middleware URL")
	fs.BoolVar(&cfg.MiddlewareInsecure, "k", cfg.MiddlewareInsecure, "skip TLS verification for the middleware")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")
	fs.BoolVar(&cfg.Ephemeral, "ephemeral", cfg.Ephemeral, "keep tokens in memory only")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			cfg.RequestTimeout = time.Duration(*timeout) * time.Second
		}
	})
}
