// Package guard gates navigation to protected screens of the terminal client.
package guard

import (
	"context"

	"github.com/dmitrijs2005/gophstore/internal/logging"
)

// Route names a screen. Protected screens set RequiresAuth.
type Route struct {
	Name         string
	RequiresAuth bool
}

var (
	Login = Route{Name: "login"}
	Home  = Route{Name: "home", RequiresAuth: true}
)

// Session is what the guard needs from the session manager.
type Session interface {
	IsSessionValid(ctx context.Context) bool
	Logout(ctx context.Context) error
}

// AfterFunc runs after a navigation was allowed.
type AfterFunc func(ctx context.Context, to Route) error

type Guard struct {
	session Session
	login   Route
	after   AfterFunc
	logger  logging.Logger
}

type Option func(*Guard)

func WithLoginRoute(r Route) Option {
	return func(g *Guard) { g.login = r }
}

// WithAfterNavigate installs a hook such as a profile prefetch. Its errors
// are logged and never block navigation.
func WithAfterNavigate(fn AfterFunc) Option {
	return func(g *Guard) { g.after = fn }
}

func WithLogger(l logging.Logger) Option {
	return func(g *Guard) { g.logger = l }
}

func New(session Session, opts ...Option) *Guard {
	g := &Guard{session: session, login: Login, logger: logging.Nop()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Navigate returns to when it may be shown. For a protected route without a
// valid session the local tokens are cleared and the login route is
// returned instead.
func (g *Guard) Navigate(ctx context.Context, to Route) Route {
	if to.RequiresAuth && !g.session.IsSessionValid(ctx) {
		if err := g.session.Logout(ctx); err != nil {
			g.logger.Error(ctx, "clear tokens before redirect", "error", err)
		}
		g.logger.Info(ctx, "redirecting to login", "from", to.Name)
		return g.login
	}

	if to.RequiresAuth && g.after != nil {
		if err := g.after(ctx, to); err != nil {
			g.logger.Warn(ctx, "after-navigation hook failed", "route", to.Name, "error", err)
		}
	}
	return to
}

// Allowed is Navigate reduced to a yes/no answer.
func (g *Guard) Allowed(ctx context.Context, to Route) bool {
	return g.Navigate(ctx, to) == to
}
