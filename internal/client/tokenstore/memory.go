package tokenstore

import (
	"context"
	"sync"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore is a process-local Store. Tokens are lost on exit.
type MemoryStore struct {
	mu   sync.RWMutex
	pair Pair
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) AccessToken(context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pair.AccessToken, nil
}

func (m *MemoryStore) RefreshToken(context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pair.RefreshToken, nil
}

func (m *MemoryStore) SetPair(_ context.Context, p Pair) error {
	if err := p.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	m.pair = p
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) SetAccessToken(_ context.Context, token string) error {
	if token == "" {
		return ErrEmptyToken
	}
	m.mu.Lock()
	m.pair.AccessToken = token
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Clear(context.Context) error {
	m.mu.Lock()
	m.pair = Pair{}
	m.mu.Unlock()
	return nil
}
