package localdb

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storedKeys(t *testing.T, db *sql.DB) []string {
	t.Helper()
	rows, err := db.Query(`SELECT key FROM metadata ORDER BY key`)
	require.NoError(t, err)
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var k string
		require.NoError(t, rows.Scan(&k))
		keys = append(keys, k)
	}
	require.NoError(t, rows.Err())
	return keys
}

func insertPair(ctx context.Context, tx DBTX) error {
	for _, k := range []string{"access_token", "refresh_token"} {
		if _, err := tx.ExecContext(ctx, `INSERT INTO metadata(key, value) VALUES (?, 'v')`, k); err != nil {
			return err
		}
	}
	return nil
}

func TestWithTx(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name     string
		fn       func(ctx context.Context, tx DBTX) error
		wantErr  error
		wantKeys []string
	}{
		{
			name:     "commits every write",
			fn:       insertPair,
			wantKeys: []string{"access_token", "refresh_token"},
		},
		{
			name: "rolls back when fn fails halfway",
			fn: func(ctx context.Context, tx DBTX) error {
				if err := insertPair(ctx, tx); err != nil {
					return err
				}
				return boom
			},
			wantErr:  boom,
			wantKeys: []string{},
		},
		{
			name: "statement error rolls back earlier writes",
			fn: func(ctx context.Context, tx DBTX) error {
				if err := insertPair(ctx, tx); err != nil {
					return err
				}
				return insertPair(ctx, tx)
			},
			wantKeys: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := openTemp(t)
			err := WithTx(context.Background(), db, tt.fn)

			switch {
			case tt.wantErr != nil:
				require.ErrorIs(t, err, tt.wantErr)
			case tt.wantKeys == nil || len(tt.wantKeys) > 0:
				require.NoError(t, err)
			default:
				require.Error(t, err)
			}
			assert.Equal(t, tt.wantKeys, storedKeys(t, db))
		})
	}
}

func TestWithTx_PanicRollsBackAndPropagates(t *testing.T) {
	db := openTemp(t)

	require.PanicsWithValue(t, "kaboom", func() {
		_ = WithTx(context.Background(), db, func(ctx context.Context, tx DBTX) error {
			if err := insertPair(ctx, tx); err != nil {
				return err
			}
			panic("kaboom")
		})
	})
	assert.Empty(t, storedKeys(t, db))
}

func TestWithTx_BeginError(t *testing.T) {
	db := openTemp(t)
	require.NoError(t, db.Close())

	called := false
	err := WithTx(context.Background(), db, func(context.Context, DBTX) error {
		called = true
		return nil
	})
	require.ErrorContains(t, err, "begin tx")
	assert.False(t, called)
}
