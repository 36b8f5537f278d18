// Package tokens reads the claims of an access token without verifying its
// signature. Verification is the server's job; the client only needs the
// subject and expiry to decide whether a session is still usable.
package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken wraps every decode failure.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the subset of access-token claims the client cares about.
type Claims struct {
	Subject   string
	Username  string
	Role      string
	ExpiresAt time.Time
	IssuedAt  time.Time
}

// Expired reports whether the token is no longer usable at now
// (exp in milliseconds <= now in milliseconds).
func (c *Claims) Expired(now time.Time) bool {
	return c.ExpiresAt.UnixMilli() <= now.UnixMilli()
}

// accessClaims mirrors what the backend puts in the token body.
type accessClaims struct {
	jwt.RegisteredClaims
	Username string `json:"username,omitempty"`
	Role     string `json:"role,omitempty"`
}

var parser = jwt.NewParser()

// Decode extracts claims from raw. The token must be a well-formed JWT with
// an exp claim.
func Decode(raw string) (*Claims, error) {
	if raw == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidToken)
	}

	var ac accessClaims
	if _, _, err := parser.ParseUnverified(raw, &ac); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if ac.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: missing exp claim", ErrInvalidToken)
	}

	c := &Claims{
		Subject:   ac.Subject,
		Username:  ac.Username,
		Role:      ac.Role,
		ExpiresAt: ac.ExpiresAt.Time,
	}
	if ac.IssuedAt != nil {
		c.IssuedAt = ac.IssuedAt.Time
	}
	return c, nil
}
