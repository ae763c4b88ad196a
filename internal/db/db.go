// Package db opens the SQLite store that holds visits, rate schedules and
// saved invoices.
package db

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// busyTimeoutMS is how long a connection waits on a locked database.
const busyTimeoutMS = 5000

// DefaultPath returns the default database path: ~/.care-billing/billing.db
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".care-billing", "billing.db"), nil
}

// dsn builds a go-sqlite3 connection string. Pragmas set here apply to
// every pooled connection, which invoice cascades rely on.
func dsn(path string) string {
	q := url.Values{}
	q.Set("_foreign_keys", "on")
	q.Set("_journal_mode", "WAL")
	q.Set("_busy_timeout", fmt.Sprint(busyTimeoutMS))
	return path + "?" + q.Encode()
}

// Open opens (or creates) a SQLite database at the given path,
// enables WAL mode and foreign keys, and runs migrations.
func Open(path string) (*sql.DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := verify(db); err != nil {
		return nil, closeAfter(db, err)
	}

	if err := migrate(db); err != nil {
		return nil, closeAfter(db, fmt.Errorf("running migrations: %w", err))
	}

	return db, nil
}

// verify checks that the connection pragmas took effect.
func verify(db *sql.DB) error {
	var fk int
	if err := db.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		return fmt.Errorf("checking foreign_keys: %w", err)
	}
	if fk != 1 {
		return fmt.Errorf("foreign keys not enabled")
	}

	var mode string
	if err := db.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		return fmt.Errorf("checking journal_mode: %w", err)
	}
	if mode != "wal" {
		return fmt.Errorf("journal mode is %s, want wal", mode)
	}

	return nil
}

func closeAfter(db *sql.DB, err error) error {
	if closeErr := db.Close(); closeErr != nil {
		return fmt.Errorf("%w (also failed to close: %v)", err, closeErr)
	}
	return err
}
