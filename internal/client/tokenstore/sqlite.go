package tokenstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/gophstore/internal/client/localdb"
	"github.com/dmitrijs2005/gophstore/internal/client/repositories/metadata"
)

var _ Store = (*SQLiteStore)(nil)

// SQLiteStore keeps the tokens in the local metadata table so a session
// survives restarts of the client.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) repo(tx localdb.DBTX) metadata.Repository {
	return metadata.NewSQLiteRepository(tx)
}

func (s *SQLiteStore) get(ctx context.Context, key string) (string, error) {
	v, _, err := s.repo(s.db).Get(ctx, key)
	return v, err
}

func (s *SQLiteStore) AccessToken(ctx context.Context) (string, error) {
	return s.get(ctx, KeyAccessToken)
}

func (s *SQLiteStore) RefreshToken(ctx context.Context) (string, error) {
	return s.get(ctx, KeyRefreshToken)
}

// SetPair writes both tokens atomically. An empty refresh token removes the
// stored one rather than keeping a stale value next to a new access token.
func (s *SQLiteStore) SetPair(ctx context.Context, p Pair) error {
	if err := p.Validate(); err != nil {
		return err
	}
	return localdb.WithTx(ctx, s.db, func(ctx context.Context, tx localdb.DBTX) error {
		repo := s.repo(tx)
		if err := repo.Set(ctx, KeyAccessToken, p.AccessToken); err != nil {
			return err
		}
		if p.RefreshToken == "" {
			return repo.Delete(ctx, KeyRefreshToken)
		}
		return repo.Set(ctx, KeyRefreshToken, p.RefreshToken)
	})
}

func (s *SQLiteStore) SetAccessToken(ctx context.Context, token string) error {
	if token == "" {
		return ErrEmptyToken
	}
	if err := s.repo(s.db).Set(ctx, KeyAccessToken, token); err != nil {
		return fmt.Errorf("store access token: %w", err)
	}
	return nil
}

// Clear removes both tokens. Other metadata keys are left alone.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	return s.repo(s.db).Delete(ctx, KeyAccessToken, KeyRefreshToken)
}
