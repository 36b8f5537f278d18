package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/gophstore/internal/client/client"
	"github.com/dmitrijs2005/gophstore/internal/client/models"
	"github.com/dmitrijs2005/gophstore/internal/client/tokenstore"
	"github.com/dmitrijs2005/gophstore/internal/logging"
)

var ErrMissingCredentials = errors.New("username and password are required")

// AuthService defines the session entry and exit points.
//
// Login and Register store the returned token pair; on any error nothing is
// stored. Neither call goes through the refresh protocol: a 401 from them
// means bad credentials. Logout only drops the local pair.
type AuthService interface {
	Login(ctx context.Context, username string, password []byte) error
	Register(ctx context.Context, username, email string, password []byte) error
	Logout(ctx context.Context) error
}

type authService struct {
	api    API
	tokens tokenstore.Store
	logger logging.Logger
}

func NewAuthService(api API, tokens tokenstore.Store, logger logging.Logger) AuthService {
	if logger == nil {
		logger = logging.Nop()
	}
	return &authService{api: api, tokens: tokens, logger: logger}
}

func (a *authService) Login(ctx context.Context, username string, password []byte) error {
	username = strings.TrimSpace(username)
	if username == "" || len(password) == 0 {
		return ErrMissingCredentials
	}

	return a.authenticate(ctx, "/api/auth/login", models.LoginRequest{
		Username: username,
		Password: string(password),
	})
}

func (a *authService) Register(ctx context.Context, username, email string, password []byte) error {
	username = strings.TrimSpace(username)
	if username == "" || len(password) == 0 {
		return ErrMissingCredentials
	}

	return a.authenticate(ctx, "/api/auth/register", models.RegisterRequest{
		Username: username,
		Email:    strings.TrimSpace(email),
		Password: string(password),
	})
}

func (a *authService) authenticate(ctx context.Context, path string, body any) error {
	req, err := client.NewJSONRequest(http.MethodPost, path, body)
	if err != nil {
		return err
	}
	req.SkipRefresh = true

	var pair tokenstore.Pair
	if err := a.api.Do(ctx, req, &pair); err != nil {
		return err
	}

	if err := a.tokens.SetPair(ctx, pair); err != nil {
		return fmt.Errorf("store tokens: %w", err)
	}
	a.logger.Info(ctx, "authenticated", "endpoint", path)
	return nil
}

func (a *authService) Logout(ctx context.Context) error {
	if err := a.tokens.Clear(ctx); err != nil {
		return fmt.Errorf("clear tokens: %w", err)
	}
	a.logger.Info(ctx, "logged out")
	return nil
}
