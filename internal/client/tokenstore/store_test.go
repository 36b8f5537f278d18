package tokenstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/gophstore/internal/client/localdb"
	"github.com/dmitrijs2005/gophstore/internal/client/repositories/metadata"
)

func newSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	db, err := localdb.Open(context.Background(), filepath.Join(t.TempDir(), "tokens.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewSQLiteStore(db)
}

// runStoreContract exercises behaviour both implementations must share.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("empty store reads as unauthenticated", func(t *testing.T) {
		s := newStore(t)
		at, err := s.AccessToken(ctx)
		require.NoError(t, err)
		require.Empty(t, at)
		rt, err := s.RefreshToken(ctx)
		require.NoError(t, err)
		require.Empty(t, rt)
	})

	t.Run("set pair then read", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.SetPair(ctx, Pair{AccessToken: "A1", RefreshToken: "R1"}))

		at, _ := s.AccessToken(ctx)
		rt, _ := s.RefreshToken(ctx)
		require.Equal(t, "A1", at)
		require.Equal(t, "R1", rt)
	})

	t.Run("set access token keeps refresh token", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.SetPair(ctx, Pair{AccessToken: "A1", RefreshToken: "R1"}))
		require.NoError(t, s.SetAccessToken(ctx, "A2"))

		at, _ := s.AccessToken(ctx)
		rt, _ := s.RefreshToken(ctx)
		require.Equal(t, "A2", at)
		require.Equal(t, "R1", rt)
	})

	t.Run("empty values rejected", func(t *testing.T) {
		s := newStore(t)
		require.ErrorIs(t, s.SetPair(ctx, Pair{RefreshToken: "R"}), ErrEmptyToken)
		require.ErrorIs(t, s.SetAccessToken(ctx, ""), ErrEmptyToken)
	})

	t.Run("clear removes both", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.SetPair(ctx, Pair{AccessToken: "A1", RefreshToken: "R1"}))
		require.NoError(t, s.Clear(ctx))

		at, _ := s.AccessToken(ctx)
		rt, _ := s.RefreshToken(ctx)
		require.Empty(t, at)
		require.Empty(t, rt)
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreContract(t, func(t *testing.T) Store { return NewMemoryStore() })
}

func TestSQLiteStore(t *testing.T) {
	runStoreContract(t, func(t *testing.T) Store { return newSQLiteStore(t) })
}

func TestSQLiteStore_ClearLeavesOtherMetadata(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	repo := metadata.NewSQLiteRepository(s.db)

	require.NoError(t, repo.Set(ctx, "last_workspace", "7"))
	require.NoError(t, s.SetPair(ctx, Pair{AccessToken: "A", RefreshToken: "R"}))
	require.NoError(t, s.Clear(ctx))

	v, ok, err := repo.Get(ctx, "last_workspace")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "7", v)
}

func TestSQLiteStore_PairWithoutRefreshDropsStaleOne(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)

	require.NoError(t, s.SetPair(ctx, Pair{AccessToken: "A1", RefreshToken: "R1"}))
	require.NoError(t, s.SetPair(ctx, Pair{AccessToken: "A2"}))

	rt, err := s.RefreshToken(ctx)
	require.NoError(t, err)
	require.Empty(t, rt)
}

func TestPair_Validate(t *testing.T) {
	require.NoError(t, Pair{AccessToken: "x"}.Validate())
	require.ErrorIs(t, Pair{AccessToken: "  "}.Validate(), ErrEmptyToken)
}
