package state

import (
	"sync"

	"github.com/dmitrijs2005/gophstore/internal/client/models"
)

// UserStore caches the profile of the logged-in user.
type UserStore struct {
	mu   sync.RWMutex
	user *models.User
}

func NewUserStore() *UserStore {
	return &UserStore{}
}

func (s *UserStore) Set(u models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = &u
}

// User returns a copy of the cached profile and whether one is cached.
func (s *UserStore) User() (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return models.User{}, false
	}
	return *s.user, true
}

func (s *UserStore) Username() string {
	u, _ := s.User()
	return u.Username
}

func (s *UserStore) Role() string {
	u, _ := s.User()
	return u.Role
}

func (s *UserStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
}
