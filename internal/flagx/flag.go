// Package flagx lets several config layers share os.Args without tripping
// over each other's flags.
package flagx

import (
	"flag"
	"strings"
)

// FilterArgs keeps only the flags named in allowedFlags (and their values)
// from args, preserving order.
//
// Supported formats:
//  1. Flag and value as separate arguments:  -c gophstore.toml
//  2. Flag and value joined with '=':        -config=gophstore.toml
//  3. Boolean flag with no value:            -ephemeral
//
// A token starting with "-" is never consumed as a value, so "-k -l debug"
// filtered for -k yields just "-k".
//
// Parameters:
//
//	args          the command-line arguments (usually os.Args[1:])
//	allowedFlags  flag names as written on the command line (e.g. "-c", "-config")
//
// Returns:
//
//	A new slice holding the allowed flags and their values. It is never nil.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		// "-flag=value": the whole token stays or goes.
		if name, _, ok := strings.Cut(arg, "="); ok && strings.HasPrefix(arg, "-") {
			if _, known := allowed[name]; known {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, known := allowed[arg]; !known {
			continue
		}
		filtered = append(filtered, arg)
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			filtered = append(filtered, args[i+1])
			i++
		}
	}

	return filtered
}

// ConfigFile extracts the config file path passed as -c or -config.
// The file may be JSON or TOML; the caller picks the decoder by extension.
// It returns "" when neither flag is present.
func ConfigFile(args []string) string {
	var path string

	fs := flag.NewFlagSet("config-file", flag.ContinueOnError)
	fs.StringVar(&path, "config", "", "path to config file")
	fs.StringVar(&path, "c", "", "path to config file (short)")
	_ = fs.Parse(FilterArgs(args, []string{"-c", "-config"}))

	return path
}
