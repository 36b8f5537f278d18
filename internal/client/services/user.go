package services

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/gophstore/internal/client/client"
	"github.com/dmitrijs2005/gophstore/internal/client/models"
)

var ErrEmptyKey = errors.New("public key is empty")

type UserService interface {
	Me(ctx context.Context) (*models.User, error)
	List(ctx context.Context) (models.Users, error)
	PublicKey(ctx context.Context) (string, error)
	RegisterKey(ctx context.Context, publicKey string) error
}

type userService struct {
	api API
}

func NewUserService(api API) UserService {
	return &userService{api: api}
}

// Me returns the profile of the logged-in user.
func (s *userService) Me(ctx context.Context) (*models.User, error) {
	var u models.User
	if err := s.api.Do(ctx, &client.Request{Method: http.MethodGet, Path: "/api/user"}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// List returns all users. Admin only; others get an error matching
// client.ErrUnauthorized.
func (s *userService) List(ctx context.Context) (models.Users, error) {
	var us models.Users
	if err := s.api.Do(ctx, &client.Request{Method: http.MethodGet, Path: "/api/admin/users"}, &us); err != nil {
		return nil, err
	}
	return us, nil
}

func (s *userService) PublicKey(ctx context.Context) (string, error) {
	var k models.PublicKey
	if err := s.api.Do(ctx, &client.Request{Method: http.MethodGet, Path: "/api/user/public-key"}, &k); err != nil {
		return "", err
	}
	return k.PublicKey, nil
}

func (s *userService) RegisterKey(ctx context.Context, publicKey string) error {
	publicKey = strings.TrimSpace(publicKey)
	if publicKey == "" {
		return ErrEmptyKey
	}
	req, err := client.NewJSONRequest(http.MethodPost, "/api/user/register-key", models.PublicKey{PublicKey: publicKey})
	if err != nil {
		return err
	}
	return s.api.Do(ctx, req, nil)
}
