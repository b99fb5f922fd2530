package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/JonMunkholm/harris/internal/config"
	"github.com/JonMunkholm/harris/internal/core"
	"github.com/JonMunkholm/harris/internal/persistence/memory"
	"github.com/JonMunkholm/harris/internal/persistence/postgres"
	"github.com/JonMunkholm/harris/internal/persistence/sqlite"
)

// openStore returns the snapshot store selected by STORAGE_DRIVER.
func openStore(ctx context.Context, cfg config.StorageConfig) (core.SnapshotStore, error) {
	switch strings.ToLower(cfg.Driver) {
	case config.DriverMemory:
		return memory.NewStore(), nil
	case config.DriverSQLite:
		return sqlite.NewStore(ctx, cfg.SQLitePath)
	case config.DriverPostgres:
		return postgres.Open(ctx, cfg.URL, postgres.PoolConfig{
			MaxConns:        cfg.MaxConns,
			MinConns:        cfg.MinConns,
			MaxConnLifetime: cfg.MaxConnLifetime,
			MaxConnIdleTime: cfg.MaxConnIdleTime,
		})
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
