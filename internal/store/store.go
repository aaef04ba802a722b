// Package store is forg's repository layer: a single embedded-database
// connection (modernc.org/sqlite) shared by the file, duplicate, and
// operation sub-repositories described in spec.md §4.2.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver

	"github.com/forgcli/forg/internal/forgerr"
)

// Store owns the single sqlite connection shared by every sub-repository.
// Writes are serialized through mu; modernc.org/sqlite already serializes
// at the driver level, but the mutex keeps multi-statement transactions
// (upsert, replace-all, undo) atomic with respect to
// other callers in the same process.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// DefaultPath is the db file name used when the caller doesn't specify one.
const DefaultPath = "fo.db"

// Open opens (creating if needed) the sqlite database at path and applies
// the schema migrations.
func Open(path string) (*Store, error) {
	if path == "" {
		path = DefaultPath
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, forgerr.New(forgerr.IoError, "store.Open", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, forgerr.New(forgerr.IoError, "store.Open", err)
	}
	db.SetMaxOpenConns(1) // one physical connection; mu serializes writers above it
	ctx := context.Background()
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA synchronous=NORMAL;",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, forgerr.New(forgerr.IoError, "store.Open", fmt.Errorf("apply pragma %s: %w", pragma, err))
		}
	}
	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the raw connection for callers (e.g. export) that need a
// read-only query the typed sub-repositories don't cover.
func (s *Store) DB() *sql.DB { return s.db }

var schemaMigrations = []string{
	`CREATE TABLE IF NOT EXISTS files (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		path TEXT NOT NULL UNIQUE,
		size INTEGER NOT NULL,
		mtime TEXT NOT NULL,
		is_dir INTEGER NOT NULL DEFAULT 0
	);`,
	`CREATE TABLE IF NOT EXISTS hashes (
		file_id INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
		algorithm TEXT NOT NULL,
		value TEXT NOT NULL,
		PRIMARY KEY (file_id, algorithm)
	);`,
	`CREATE INDEX IF NOT EXISTS idx_hashes_value ON hashes(algorithm, value);`,
	`CREATE TABLE IF NOT EXISTS phash (
		file_id INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
		algorithm TEXT NOT NULL,
		value_u64 INTEGER NOT NULL,
		PRIMARY KEY (file_id, algorithm)
	);`,
	`CREATE TABLE IF NOT EXISTS tags (
		file_id INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
		label TEXT NOT NULL,
		source TEXT NOT NULL,
		confidence REAL NOT NULL,
		PRIMARY KEY (file_id, label, source)
	);`,
	`CREATE TABLE IF NOT EXISTS duplicate_groups (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		content_hash TEXT NOT NULL,
		size INTEGER NOT NULL,
		primary_file_id INTEGER NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS duplicate_members (
		group_id INTEGER NOT NULL REFERENCES duplicate_groups(id) ON DELETE CASCADE,
		file_id INTEGER NOT NULL,
		PRIMARY KEY (group_id, file_id)
	);`,
	`CREATE TABLE IF NOT EXISTS operations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp TEXT NOT NULL,
		type TEXT NOT NULL,
		source_path TEXT NOT NULL,
		dest_path TEXT NOT NULL DEFAULT '',
		file_size INTEGER NOT NULL,
		undone INTEGER NOT NULL DEFAULT 0
	);`,
	`CREATE INDEX IF NOT EXISTS idx_operations_undone ON operations(undone, id DESC);`,
}

// ensureSchema applies every migration inside one transaction; additive
// only, so re-running it against an up-to-date database is a no-op.
func ensureSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return forgerr.New(forgerr.IoError, "store.ensureSchema", err)
	}
	for _, stmt := range schemaMigrations {
		if _, err := tx.Exec(stmt); err != nil {
			_ = tx.Rollback()
			return forgerr.New(forgerr.IoError, "store.ensureSchema", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return forgerr.New(forgerr.IoError, "store.ensureSchema", err)
	}
	return nil
}
