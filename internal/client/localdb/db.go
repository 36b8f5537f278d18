// Package localdb bootstraps the client's local SQLite database: it opens the
// file with the pure-Go driver and applies the embedded goose migrations.
//
// The database only holds client state (the persisted token pair lives in the
// metadata table). It is safe to call Open repeatedly on the same file.
package localdb

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

//go:embed migrations/*.sql
var embedded embed.FS

// Migrate applies all pending migrations to db.
func Migrate(ctx context.Context, db *sql.DB) error {
	fsys, err := fs.Sub(embedded, "migrations")
	if err != nil {
		return fmt.Errorf("migrations fs: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, db, fsys)
	if err != nil {
		return fmt.Errorf("goose provider: %w", err)
	}

	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// busyTimeout bounds how long a statement waits for a lock held by another
// process sharing the file.
const busyTimeout = 5 * time.Second

// Open opens (creating if needed) the SQLite database at dsn and migrates it.
//
// The pool is limited to one connection: the REPL, the upload goroutine and
// a token refresh all touch the metadata table, and SQLite allows a single
// writer. Callers queue on the pool instead of failing with SQLITE_BUSY.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", withBusyTimeout(dsn))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dsn, err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	if err := Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	return db, nil
}

// withBusyTimeout appends the busy_timeout pragma so every connection the
// driver opens carries it.
func withBusyTimeout(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%s_pragma=busy_timeout(%d)", dsn, sep, busyTimeout.Milliseconds())
}
