package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/JonMunkholm/harris/internal/config"
	"github.com/JonMunkholm/harris/internal/persistence/memory"
	"github.com/JonMunkholm/harris/internal/persistence/sqlite"
)

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	s, err := openStore(ctx, config.StorageConfig{Driver: "memory"})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*memory.Store); !ok {
		t.Errorf("memory driver returned %T", s)
	}

	path := filepath.Join(t.TempDir(), "h.db")
	s, err = openStore(ctx, config.StorageConfig{Driver: "SQLite", SQLitePath: path})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if st, ok := s.(*sqlite.Store); !ok || st.Path() != path {
		t.Errorf("sqlite driver returned %T", s)
	}

	if _, err := openStore(ctx, config.StorageConfig{Driver: "mongo"}); err == nil {
		t.Error("unknown driver should fail")
	}
}
