// Package sqlite persists dataset snapshots to a single SQLite table of JSON
// buckets, using the pure Go modernc driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/JonMunkholm/harris/internal/core"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

var _ core.SnapshotStore = (*Store)(nil)

// DefaultPath is used when no path is configured.
const DefaultPath = "harris.db"

// Store writes every snapshot bucket in one transaction.
type Store struct {
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// NewStore opens (creating if needed) the database at path.
func NewStore(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		path = DefaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection serializes writers and keeps :memory: databases
	// shared across calls.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create state table: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Load reads every bucket. It reports false when the table is empty.
func (s *Store) Load(ctx context.Context) (core.Snapshot, bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT bucket, payload FROM state`)
	if err != nil {
		return core.Snapshot{}, false, fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()

	raw := make(map[string][]byte)
	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			return core.Snapshot{}, false, fmt.Errorf("scan: %w", err)
		}
		raw[bucket] = payload
	}
	if err := rows.Err(); err != nil {
		return core.Snapshot{}, false, fmt.Errorf("iterate state: %w", err)
	}
	if len(raw) == 0 {
		return core.Snapshot{}, false, nil
	}
	snap, err := core.DecodeBuckets(raw)
	if err != nil {
		return core.Snapshot{}, false, err
	}
	return snap, true, nil
}

// Save upserts every bucket in one transaction.
func (s *Store) Save(ctx context.Context, snap core.Snapshot) (retErr error) {
	buckets, err := core.EncodeBuckets(snap)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	for _, bucket := range core.Buckets {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO state(bucket,payload) VALUES(?,?) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`,
			bucket, buckets[bucket]); err != nil {
			return fmt.Errorf("upsert %s: %w", bucket, err)
		}
	}
	return tx.Commit()
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }
