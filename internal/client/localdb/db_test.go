package localdb

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, name).Scan(&n)
	require.NoError(t, err)
	return n > 0
}

func openTemp(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestOpen_CreatesMetadataTable(t *testing.T) {
	t.Parallel()

	db := openTemp(t)

	require.NoError(t, db.PingContext(context.Background()))
	require.True(t, tableExists(t, db, "metadata"))
}

func TestMigrate_IsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := openTemp(t)

	require.NoError(t, Migrate(ctx, db), "second run must be a no-op")
	require.True(t, tableExists(t, db, "metadata"))
}

func TestOpen_ReopenKeepsData(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "client.db")

	db, err := Open(ctx, path)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO metadata(key, value) VALUES ('k', 'v')`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Open(ctx, path)
	require.NoError(t, err)
	defer db.Close()

	var got string
	require.NoError(t, db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key='k'`).Scan(&got))
	require.Equal(t, "v", got)
}

func TestOpen_SingleConnectionPool(t *testing.T) {
	t.Parallel()

	db := openTemp(t)
	require.Equal(t, 1, db.Stats().MaxOpenConnections)

	var timeout int
	require.NoError(t, db.QueryRow(`PRAGMA busy_timeout`).Scan(&timeout))
	require.EqualValues(t, busyTimeout.Milliseconds(), timeout)
}

func TestOpen_ConcurrentReadersAndWriters(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := openTemp(t)

	const workers, rounds = 4, 50
	var wg sync.WaitGroup
	errs := make(chan error, 2*workers*rounds)

	for w := 0; w < workers; w++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				errs <- WithTx(ctx, db, insertPairOrReplace)
			}
		}()
		go func() {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				var v string
				err := db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = 'access_token'`).Scan(&v)
				if errors.Is(err, sql.ErrNoRows) {
					err = nil
				}
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
}

func insertPairOrReplace(ctx context.Context, tx DBTX) error {
	for _, k := range []string{"access_token", "refresh_token"} {
		if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO metadata(key, value) VALUES (?, 'v')`, k); err != nil {
			return err
		}
	}
	return nil
}

func TestWithBusyTimeout(t *testing.T) {
	t.Parallel()

	require.Equal(t, "client.db?_pragma=busy_timeout(5000)", withBusyTimeout("client.db"))
	require.Equal(t, "file:client.db?mode=rwc&_pragma=busy_timeout(5000)", withBusyTimeout("file:client.db?mode=rwc"))
}
