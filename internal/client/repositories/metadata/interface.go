// Package metadata is a small key/value repository over the client's local
// SQLite metadata table. The token store keeps the session tokens here.
package metadata

import (
	"context"
)

// Repository reads and writes string values by key. A missing key reads as
// ok == false, never as an error.
type Repository interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
	Keys(ctx context.Context) ([]string, error)
}
