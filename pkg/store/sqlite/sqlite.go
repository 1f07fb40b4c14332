// Package sqlite implements a store on top of a SQLite database using the
// pure-Go modernc.org/sqlite driver, so no cgo toolchain is needed.
package sqlite

import (
	"context"
	"database/sql"

	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite" // register the "sqlite" driver

	"github.com/sidkik/sitesync/pkg/errors"
)

const schema = `CREATE TABLE IF NOT EXISTS kv (
	key   TEXT PRIMARY KEY,
	value BLOB NOT NULL
)`

// Store keeps every key in a single table.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the database at `dsn` and makes sure
// the schema exists.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.WithContext(err, "open database")
	}

	// SQLite serializes writers anyway, and a single connection keeps
	// in-memory databases from being split across connections.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			log.WithError(closeErr).Warn("Failed to close database")
		}
		return nil, errors.WithContext(err, "create schema")
	}
	return &Store{db: db}, nil
}

// Get returns the value stored under `key`.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	switch {
	case err == sql.ErrNoRows:
		return nil, false, nil
	case err != nil:
		return nil, false, errors.WithContext(err, "select")
	}
	return value, true, nil
}

// Set stores `value` under `key`.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value)
	if err != nil {
		return errors.WithContext(err, "upsert")
	}
	return nil
}

// Keys returns the stored keys in sorted order.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key FROM kv ORDER BY key`)
	if err != nil {
		return nil, errors.WithContext(err, "select keys")
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, errors.WithContext(err, "scan key")
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WithContext(err, "iterate keys")
	}
	return keys, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
