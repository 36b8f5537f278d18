// Package timex holds time helpers for config decoding.
package timex

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Duration is a time.Duration that config files and environment variables
// can spell two ways.
//
// Accepted forms:
//   - a Go duration string: "3s", "1m30s", "250ms"
//   - a whole number of seconds: 30 (JSON number) or "30" (text, TOML, env)
//
// Bare numbers are seconds so that a config file agrees with the -t flag.
// It works for JSON and for any decoder that honours encoding.TextUnmarshaler.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		if value != float64(int64(value)) {
			return fmt.Errorf("invalid duration %s: seconds must be a whole number", string(b))
		}
		d.Duration = time.Duration(value) * time.Second
		return nil
	case string:
		return d.UnmarshalText([]byte(value))
	default:
		return fmt.Errorf("invalid duration: %s", string(b))
	}
}

func (d *Duration) UnmarshalText(b []byte) error {
	s := string(b)
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		d.Duration = time.Duration(secs) * time.Second
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}
