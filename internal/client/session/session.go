// Package session decides whether the stored credentials still describe a
// usable session.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/gophstore/internal/client/tokens"
	"github.com/dmitrijs2005/gophstore/internal/client/tokenstore"
	"github.com/dmitrijs2005/gophstore/internal/logging"
)

// ErrNoSession is returned by Claims when no access token is stored.
var ErrNoSession = errors.New("not logged in")

// Refresher obtains a new access token. *client.Client implements it and
// shares the call with any in-flight request refresh.
type Refresher interface {
	Refresh(ctx context.Context) (string, error)
}

type Manager struct {
	tokens    tokenstore.Store
	refresher Refresher
	logger    logging.Logger
	now       func() time.Time
}

type Option func(*Manager)

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func WithLogger(l logging.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

func NewManager(store tokenstore.Store, refresher Refresher, opts ...Option) *Manager {
	m := &Manager{
		tokens:    store,
		refresher: refresher,
		logger:    logging.Nop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// IsSessionValid reports whether protected calls can be made.
//
// No token or an undecodable token is invalid. A live token is valid without
// any network call. An expired token gets exactly one refresh attempt; if it
// fails the local tokens are cleared.
func (m *Manager) IsSessionValid(ctx context.Context) bool {
	raw, err := m.tokens.AccessToken(ctx)
	if err != nil {
		m.logger.Error(ctx, "read access token", "error", err)
		return false
	}
	if raw == "" {
		return false
	}

	claims, err := tokens.Decode(raw)
	if err != nil {
		m.logger.Warn(ctx, "stored access token is unreadable", "error", err)
		return false
	}

	if !claims.Expired(m.now()) {
		return true
	}

	m.logger.Debug(ctx, "access token expired, refreshing", "expired_at", claims.ExpiresAt)
	if _, err := m.refresher.Refresh(ctx); err != nil {
		m.logger.Warn(ctx, "session refresh failed, logging out", "error", err)
		if cerr := m.tokens.Clear(ctx); cerr != nil {
			m.logger.Error(ctx, "clear tokens", "error", cerr)
		}
		return false
	}
	return true
}

// Claims decodes the stored access token without judging its expiry.
func (m *Manager) Claims(ctx context.Context) (*tokens.Claims, error) {
	raw, err := m.tokens.AccessToken(ctx)
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, ErrNoSession
	}
	return tokens.Decode(raw)
}

// Logout drops the stored credentials.
func (m *Manager) Logout(ctx context.Context) error {
	return m.tokens.Clear(ctx)
}
