package guard

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeSession struct {
	valid     bool
	checks    int
	logouts   int
	logoutErr error
}

func (f *fakeSession) IsSessionValid(context.Context) bool {
	f.checks++
	return f.valid
}

func (f *fakeSession) Logout(context.Context) error {
	f.logouts++
	return f.logoutErr
}

func TestNavigate_PublicRouteNeverChecks(t *testing.T) {
	s := &fakeSession{}
	g := New(s)

	assert.Equal(t, Login, g.Navigate(context.Background(), Login))
	assert.Zero(t, s.checks)
	assert.Zero(t, s.logouts)
}

func TestNavigate_ProtectedWithValidSession(t *testing.T) {
	s := &fakeSession{valid: true}
	var hooked []string
	g := New(s, WithAfterNavigate(func(_ context.Context, to Route) error {
		hooked = append(hooked, to.Name)
		return nil
	}))

	assert.Equal(t, Home, g.Navigate(context.Background(), Home))
	assert.Equal(t, 1, s.checks)
	assert.Zero(t, s.logouts)
	assert.Equal(t, []string{"home"}, hooked)
}

func TestNavigate_ProtectedWithoutSessionRedirects(t *testing.T) {
	s := &fakeSession{logoutErr: errors.New("disk full")}
	hookCalled := false
	g := New(s, WithAfterNavigate(func(context.Context, Route) error {
		hookCalled = true
		return nil
	}))

	files := Route{Name: "files", RequiresAuth: true}
	assert.Equal(t, Login, g.Navigate(context.Background(), files))
	assert.Equal(t, 1, s.logouts)
	assert.False(t, hookCalled)
	assert.False(t, g.Allowed(context.Background(), files))
}

func TestNavigate_HookFailureIsNotFatal(t *testing.T) {
	s := &fakeSession{valid: true}
	g := New(s, WithAfterNavigate(func(context.Context, Route) error {
		return errors.New("profile unavailable")
	}))

	assert.Equal(t, Home, g.Navigate(context.Background(), Home))
	assert.True(t, g.Allowed(context.Background(), Home))
}

func TestNavigate_CustomLoginRoute(t *testing.T) {
	signin := Route{Name: "signin"}
	g := New(&fakeSession{}, WithLoginRoute(signin))

	assert.Equal(t, signin, g.Navigate(context.Background(), Home))
}
