package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/gophstore/internal/client/tokens"
	"github.com/dmitrijs2005/gophstore/internal/client/tokenstore"
)

type fakeRefresher struct {
	calls int
	token string
	err   error
	store tokenstore.Store
}

func (f *fakeRefresher) Refresh(ctx context.Context) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	if f.store != nil {
		_ = f.store.SetAccessToken(ctx, f.token)
	}
	return f.token, nil
}

var now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func token(t *testing.T, exp time.Time) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      "7",
		"username": "alice",
		"exp":      exp.Unix(),
	}).SignedString([]byte("k"))
	require.NoError(t, err)
	return s
}

func newStore(t *testing.T, access string) *tokenstore.MemoryStore {
	t.Helper()
	s := tokenstore.NewMemoryStore()
	if access != "" {
		require.NoError(t, s.SetPair(context.Background(), tokenstore.Pair{AccessToken: access, RefreshToken: "r"}))
	}
	return s
}

func fixedClock() func() time.Time { return func() time.Time { return now } }

func TestIsSessionValid_NoToken(t *testing.T) {
	r := &fakeRefresher{}
	m := NewManager(newStore(t, ""), r, WithClock(fixedClock()))

	assert.False(t, m.IsSessionValid(context.Background()))
	assert.Zero(t, r.calls)
}

func TestIsSessionValid_UndecodableToken(t *testing.T) {
	r := &fakeRefresher{}
	m := NewManager(newStore(t, "not-a-jwt"), r, WithClock(fixedClock()))

	assert.False(t, m.IsSessionValid(context.Background()))
	assert.Zero(t, r.calls)
}

func TestIsSessionValid_LiveTokenNeedsNoNetwork(t *testing.T) {
	r := &fakeRefresher{}
	m := NewManager(newStore(t, token(t, now.Add(time.Minute))), r, WithClock(fixedClock()))

	assert.True(t, m.IsSessionValid(context.Background()))
	assert.Zero(t, r.calls)
}

func TestIsSessionValid_ExpiresAtNowCountsAsExpired(t *testing.T) {
	r := &fakeRefresher{token: "new"}
	m := NewManager(newStore(t, token(t, now)), r, WithClock(fixedClock()))

	assert.True(t, m.IsSessionValid(context.Background()))
	assert.Equal(t, 1, r.calls)
}

func TestIsSessionValid_ExpiredRefreshSucceeds(t *testing.T) {
	store := newStore(t, token(t, now.Add(-time.Minute)))
	fresh := token(t, now.Add(time.Hour))
	r := &fakeRefresher{token: fresh, store: store}
	m := NewManager(store, r, WithClock(fixedClock()))

	assert.True(t, m.IsSessionValid(context.Background()))
	assert.Equal(t, 1, r.calls)

	// The refreshed token is live, so the next check is local.
	assert.True(t, m.IsSessionValid(context.Background()))
	assert.Equal(t, 1, r.calls)
}

func TestIsSessionValid_ExpiredRefreshFailsClearsTokens(t *testing.T) {
	store := newStore(t, token(t, now.Add(-time.Minute)))
	r := &fakeRefresher{err: errors.New("refresh token expired")}
	m := NewManager(store, r, WithClock(fixedClock()))

	assert.False(t, m.IsSessionValid(context.Background()))
	assert.Equal(t, 1, r.calls)

	access, _ := store.AccessToken(context.Background())
	refresh, _ := store.RefreshToken(context.Background())
	assert.Empty(t, access)
	assert.Empty(t, refresh)
}

func TestClaims(t *testing.T) {
	m := NewManager(newStore(t, ""), &fakeRefresher{})
	_, err := m.Claims(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)

	m = NewManager(newStore(t, "garbage"), &fakeRefresher{})
	_, err = m.Claims(context.Background())
	assert.ErrorIs(t, err, tokens.ErrInvalidToken)

	m = NewManager(newStore(t, token(t, now.Add(-time.Hour))), &fakeRefresher{})
	c, err := m.Claims(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "alice", c.Username)
}
