// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// SchemaVersion is the current on-disk schema version.
const SchemaVersion = "1"

const driverName = "sqlite"

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS variables (
		name TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		version INTEGER NOT NULL DEFAULT 1,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS variable_versions (
		name TEXT NOT NULL,
		version INTEGER NOT NULL,
		value TEXT NOT NULL,
		ts TEXT NOT NULL,
		PRIMARY KEY (name, version)
	)`,
	`CREATE TABLE IF NOT EXISTS metadata (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,
}

// SQLite is a SQLite-backed variable store.
type SQLite struct {
	mu     sync.Mutex
	db     *sqlx.DB
	path   string
	closed bool
}

// NewSQLite opens (creating if needed) the store at path. ":memory:" gives a
// private in-memory database.
func NewSQLite(path string) (*SQLite, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("sqlite path required")
	}
	db, err := sqlx.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	s := &SQLite{db: db, path: path}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLite) migrate(ctx context.Context) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	defer tx.Rollback()

	for i, stmt := range schemaStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("execute schema statement %d: %w", i+1, err)
		}
	}

	version, err := getMetadata(tx, "schema_version")
	if err != nil {
		return err
	}
	switch version {
	case "":
		if err := setMetadata(tx, "schema_version", SchemaVersion); err != nil {
			return err
		}
	case SchemaVersion:
	default:
		return fmt.Errorf("unsupported schema version: %s (expected %s)", version, SchemaVersion)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration: %w", err)
	}
	return nil
}

// Path returns the path the store was opened with.
func (s *SQLite) Path() string {
	return s.path
}

// Get retrieves a variable by name.
func (s *SQLite) Get(name string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", false, ErrClosed
	}

	var value string
	err := s.db.Get(&value, "SELECT value FROM variables WHERE name = ?", name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %q: %w", name, err)
	}
	return value, true, nil
}

// Put stores a variable and records a new version. Writing the current
// value again is a no-op.
func (s *SQLite) Put(name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("put %q: %w", name, err)
	}
	defer tx.Rollback()

	var cur struct {
		Value   string `db:"value"`
		Version int    `db:"version"`
	}
	err = tx.Get(&cur, "SELECT value, version FROM variables WHERE name = ?", name)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return fmt.Errorf("put %q: %w", name, err)
	case cur.Value == value:
		return nil
	}

	next := cur.Version + 1
	ts := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := tx.Exec(`
		INSERT INTO variables (name, value, version, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			value = excluded.value,
			version = excluded.version,
			updated_at = excluded.updated_at
	`, name, value, next, ts); err != nil {
		return fmt.Errorf("put %q: %w", name, err)
	}
	if _, err := tx.Exec(
		"INSERT INTO variable_versions (name, version, value, ts) VALUES (?, ?, ?, ?)",
		name, next, value, ts,
	); err != nil {
		return fmt.Errorf("put %q: record version: %w", name, err)
	}
	return tx.Commit()
}

// Delete removes a variable and its history.
func (s *SQLite) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("delete %q: %w", name, err)
	}
	defer tx.Rollback()
	if _, err := tx.Exec("DELETE FROM variables WHERE name = ?", name); err != nil {
		return fmt.Errorf("delete %q: %w", name, err)
	}
	if _, err := tx.Exec("DELETE FROM variable_versions WHERE name = ?", name); err != nil {
		return fmt.Errorf("delete %q: %w", name, err)
	}
	return tx.Commit()
}

// List returns every variable.
func (s *SQLite) List() (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	var rows []struct {
		Name  string `db:"name"`
		Value string `db:"value"`
	}
	if err := s.db.Select(&rows, "SELECT name, value FROM variables ORDER BY name"); err != nil {
		return nil, fmt.Errorf("list variables: %w", err)
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.Name] = r.Value
	}
	return out, nil
}

// Versions returns the history of name, newest first.
func (s *SQLite) Versions(name string, limit int) ([]Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	query := "SELECT version, value, ts FROM variable_versions WHERE name = ? ORDER BY version DESC"
	args := []any{name}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	var out []Version
	if err := s.db.Select(&out, query, args...); err != nil {
		return nil, fmt.Errorf("versions %q: %w", name, err)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

// GetMetadata retrieves a metadata value by key.
func (s *SQLite) GetMetadata(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", ErrClosed
	}
	return getMetadata(s.db, key)
}

// SetMetadata stores a metadata value by key.
func (s *SQLite) SetMetadata(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return setMetadata(s.db, key, value)
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func getMetadata(q sqlx.Queryer, key string) (string, error) {
	var value string
	err := sqlx.Get(q, &value, "SELECT value FROM metadata WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get metadata %q: %w", key, err)
	}
	return value, nil
}

func setMetadata(e sqlx.Execer, key, value string) error {
	_, err := e.Exec(`
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("set metadata %q: %w", key, err)
	}
	return nil
}
