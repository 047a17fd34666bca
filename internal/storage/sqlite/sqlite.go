// Package sqlite provides a SQLite-backed implementation of the
// storage.Storage interface using Go's standard database/sql package.
//
// WHY SQLite?
// ───────────
// SQLite stores everything in a single file on disk. There is no
// network, no separate server process, and no installation beyond the
// driver.
//
// The blank import below registers the sqlite3 driver with database/sql.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aanand-mishra/student-register/internal/storage"

	// Blank import: side-effect only (registers the "sqlite3" driver).
	_ "github.com/mattn/go-sqlite3"
)

var _ storage.Storage = (*SQLite)(nil)

// SQLite is the concrete implementation of storage.Storage.
// Each key is one row of the kv table.
type SQLite struct {
	Db *sql.DB
}

// New opens the SQLite database at path, creates the kv table if it does
// not already exist, and returns a ready-to-use *SQLite.
func New(path string) (*SQLite, error) {
	// sql.Open does NOT open a real connection yet; it only validates
	// the driver name and data source name (DSN).
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}

	s, err := NewWithDB(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewWithDB wraps an already opened *sql.DB and prepares the schema.
//
// Schema:
//
//	key        — the storage key, e.g. "studentsData"
//	value      — the serialized value (BLOB = raw bytes)
//	updated_at — last write time, maintained by SQLite
func NewWithDB(db *sql.DB) (*SQLite, error) {
	// CREATE TABLE IF NOT EXISTS is idempotent, so it runs on every startup.
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS kv (
			key        TEXT PRIMARY KEY,
			value      BLOB NOT NULL,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: create table: %w", err)
	}

	return &SQLite{Db: db}, nil
}

// Get fetches the value stored under key.
// sql.ErrNoRows is translated to storage.ErrNotFound.
func (s *SQLite) Get(ctx context.Context, key string) ([]byte, error) {
	stmt, err := s.Db.PrepareContext(ctx, "SELECT value FROM kv WHERE key = ? LIMIT 1")
	if err != nil {
		return nil, fmt.Errorf("Get: prepare: %w", err)
	}
	defer stmt.Close()

	var value []byte
	err = stmt.QueryRowContext(ctx, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("Get: scan: %w", err)
	}

	return value, nil
}

// Put writes value under key. An existing row is overwritten in place
// (UPSERT), so there is never more than one row per key.
func (s *SQLite) Put(ctx context.Context, key string, value []byte) error {
	stmt, err := s.Db.PrepareContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("Put: prepare: %w", err)
	}
	defer stmt.Close()

	if _, err := stmt.ExecContext(ctx, key, value); err != nil {
		return fmt.Errorf("Put: exec: %w", err)
	}

	return nil
}

// Close closes the underlying connection pool.
func (s *SQLite) Close() error {
	return s.Db.Close()
}
