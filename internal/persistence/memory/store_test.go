package memory

import (
	"context"
	"testing"
	"time"

	"github.com/JonMunkholm/harris/internal/core"
	"github.com/JonMunkholm/harris/internal/matrix"
)

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	if _, ok, err := s.Load(ctx); ok || err != nil {
		t.Fatalf("empty Load = %v, %v", ok, err)
	}

	units := []*matrix.Unit{
		{Code: "A", Name: "A", Kind: matrix.KindPositive, Children: []string{"B"}, Phase: "Roman"},
		{Code: "B", Name: "B", Kind: matrix.KindNegative},
	}
	snap := core.Snapshot{
		Revision:  7,
		SavedAt:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Units:     units,
		Phases:    map[string]string{"Roman": "#FF0000"},
		OpenFacts: []string{},
	}
	if err := s.Save(ctx, snap); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Mutating the caller's copy must not leak into the store.
	units[0].Children[0] = "Z"

	got, ok, err := s.Load(ctx)
	if err != nil || !ok {
		t.Fatalf("Load = %v, %v", ok, err)
	}
	if got.Revision != 7 || !got.SavedAt.Equal(snap.SavedAt) {
		t.Errorf("meta = %d %v", got.Revision, got.SavedAt)
	}
	if len(got.Units) != 2 || got.Units[0].Children[0] != "B" || got.Units[1].Kind != matrix.KindNegative {
		t.Errorf("units = %+v", got.Units)
	}
	if got.Phases["Roman"] != "#FF0000" {
		t.Errorf("phases = %v", got.Phases)
	}
}
