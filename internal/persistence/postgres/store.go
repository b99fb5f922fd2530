// Package postgres persists dataset snapshots to a Postgres table of JSONB
// buckets through a pgx connection pool.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/harris/internal/core"
)

var _ core.SnapshotStore = (*Store)(nil)

// PoolConfig tunes the connection pool. Zero values keep pgx defaults.
type PoolConfig struct {
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Store writes every snapshot bucket in one transaction.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to url, verifies the connection and ensures the state table.
func Open(ctx context.Context, url string, cfg PoolConfig) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = int32(cfg.MinConns)
	}
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	s := &Store{pool: pool}
	if err := s.ensureStateTable(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureStateTable(ctx context.Context) error {
	const ddl = `CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload JSONB NOT NULL
	)`
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("ensure state table: %w", err)
	}
	return nil
}

// Load reads every bucket. It reports false when the table is empty.
func (s *Store) Load(ctx context.Context) (core.Snapshot, bool, error) {
	rows, err := s.pool.Query(ctx, `SELECT bucket, payload FROM state`)
	if err != nil {
		return core.Snapshot{}, false, fmt.Errorf("select state: %w", err)
	}
	defer rows.Close()

	raw := make(map[string][]byte)
	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			return core.Snapshot{}, false, fmt.Errorf("scan state: %w", err)
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
func (s *Store) Save(ctx context.Context, snap core.Snapshot) error {
	buckets, err := core.EncodeBuckets(snap)
	if err != nil {
		return err
	}
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, bucket := range core.Buckets {
			batch.Queue(`INSERT INTO state(bucket, payload) VALUES($1, $2::jsonb)
				ON CONFLICT(bucket) DO UPDATE SET payload = excluded.payload`,
				bucket, string(buckets[bucket]))
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("upsert state: %w", err)
		}
		return nil
	})
}

// Close releases the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
