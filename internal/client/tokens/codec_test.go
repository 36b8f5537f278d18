package tokens

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(t *testing.T, claims jwt.Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("server-only-secret"))
	require.NoError(t, err)
	return s
}

func TestDecode_ReadsClaimsWithoutKey(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	raw := sign(t, jwt.MapClaims{
		"sub":      "42",
		"username": "alice",
		"role":     "ADMIN",
		"exp":      exp.Unix(),
		"iat":      exp.Add(-time.Hour).Unix(),
	})

	c, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, "42", c.Subject)
	assert.Equal(t, "alice", c.Username)
	assert.Equal(t, "ADMIN", c.Role)
	assert.True(t, exp.Equal(c.ExpiresAt))
	assert.True(t, exp.Add(-time.Hour).Equal(c.IssuedAt))
}

func TestDecode_ExpiredTokenStillDecodes(t *testing.T) {
	raw := sign(t, jwt.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	})

	c, err := Decode(raw)
	require.NoError(t, err)
	assert.True(t, c.Expired(time.Now()))
}

func TestDecode_Errors(t *testing.T) {
	noExp := sign(t, jwt.MapClaims{"sub": "u1"})
	notJSON := "eyJhbGciOiJIUzI1NiJ9." + base64.RawURLEncoding.EncodeToString([]byte("not json")) + ".sig"

	tests := []struct {
		name string
		raw  string
	}{
		{name: "empty", raw: ""},
		{name: "garbage", raw: "not-a-token"},
		{name: "two segments", raw: "a.b"},
		{name: "claims not json", raw: notJSON},
		{name: "missing exp", raw: noExp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Decode(tt.raw)
			require.ErrorIs(t, err, ErrInvalidToken)
			require.Nil(t, c)
		})
	}
}

func TestClaims_Expired_Boundary(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)

	assert.True(t, (&Claims{ExpiresAt: now}).Expired(now), "exp == now counts as expired")
	assert.True(t, (&Claims{ExpiresAt: now.Add(-time.Millisecond)}).Expired(now))
	assert.False(t, (&Claims{ExpiresAt: now.Add(time.Millisecond)}).Expired(now))
}
