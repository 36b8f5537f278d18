// Package tokenstore persists the session's token pair.
//
// Two keys are kept, access_token and refresh_token. An empty access token
// means the client is unauthenticated. Only the auth service, the session
// manager and the HTTP client core write through this package.
package tokenstore

import (
	"context"
	"errors"
	"strings"
)

const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
)

// ErrEmptyToken is returned when a pair without an access token is stored.
var ErrEmptyToken = errors.New("empty access token")

// Pair is the credential pair issued by the auth endpoints.
type Pair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Validate rejects pairs the server should never send.
func (p Pair) Validate() error {
	if strings.TrimSpace(p.AccessToken) == "" {
		return ErrEmptyToken
	}
	return nil
}

// Store is the persistent token holder. Reads of a missing token return "".
type Store interface {
	AccessToken(ctx context.Context) (string, error)
	RefreshToken(ctx context.Context) (string, error)
	SetPair(ctx context.Context, p Pair) error
	SetAccessToken(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}
