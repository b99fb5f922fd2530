package core

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/JonMunkholm/harris/internal/matrix"
)

// Snapshot is the persisted form of a dataset. Undo and redo stacks are not
// part of it.
type Snapshot struct {
	Revision  uint64            `json:"revision"`
	SavedAt   time.Time         `json:"saved_at"`
	Units     []*matrix.Unit    `json:"units"`
	Phases    map[string]string `json:"phases"`
	OpenFacts []string          `json:"open_facts"`
}

// SnapshotStore persists the latest snapshot. Load reports false when
// nothing was saved yet.
type SnapshotStore interface {
	Load(ctx context.Context) (Snapshot, bool, error)
	Save(ctx context.Context, snap Snapshot) error
	Close() error
}

// Snapshot buckets shared by the table-backed stores.
const (
	BucketMeta      = "meta"
	BucketUnits     = "units"
	BucketPhases    = "phases"
	BucketOpenFacts = "open_facts"
)

// Buckets lists the buckets in write order.
var Buckets = []string{BucketMeta, BucketUnits, BucketPhases, BucketOpenFacts}

// SnapshotMeta is the payload of the meta bucket.
type SnapshotMeta struct {
	Revision uint64    `json:"revision"`
	SavedAt  time.Time `json:"saved_at"`
}

// EncodeBuckets splits snap into JSON payloads keyed by bucket.
func EncodeBuckets(snap Snapshot) (map[string][]byte, error) {
	parts := map[string]any{
		BucketMeta:      SnapshotMeta{Revision: snap.Revision, SavedAt: snap.SavedAt},
		BucketUnits:     snap.Units,
		BucketPhases:    snap.Phases,
		BucketOpenFacts: snap.OpenFacts,
	}
	out := make(map[string][]byte, len(parts))
	for bucket, v := range parts {
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", bucket, err)
		}
		out[bucket] = data
	}
	return out, nil
}

// DecodeBuckets rebuilds a snapshot from bucket payloads. Unknown buckets
// are ignored.
func DecodeBuckets(raw map[string][]byte) (Snapshot, error) {
	var snap Snapshot
	for bucket, payload := range raw {
		var err error
		switch bucket {
		case BucketMeta:
			var meta SnapshotMeta
			if err = json.Unmarshal(payload, &meta); err == nil {
				snap.Revision, snap.SavedAt = meta.Revision, meta.SavedAt
			}
		case BucketUnits:
			err = json.Unmarshal(payload, &snap.Units)
		case BucketPhases:
			err = json.Unmarshal(payload, &snap.Phases)
		case BucketOpenFacts:
			err = json.Unmarshal(payload, &snap.OpenFacts)
		}
		if err != nil {
			return Snapshot{}, fmt.Errorf("decode %s: %w", bucket, err)
		}
	}
	return snap, nil
}
