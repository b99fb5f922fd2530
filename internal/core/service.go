package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/JonMunkholm/harris/internal/logging"
	"github.com/JonMunkholm/harris/internal/matrix"
)

// DefaultMaxImportSize caps import bodies when no limit is configured.
const DefaultMaxImportSize int64 = 10 << 20

// Config wires a Service.
type Config struct {
	Engine        matrix.Options
	MaxImportSize int64
	Limiter       *ImportLimiter
	// Store persists snapshots; nil keeps the dataset in memory only.
	Store         SnapshotStore
	AuditCapacity int
}

// Service serializes every command against one Engine: mutations take the
// write lock, derived views the read lock. It adds logging, metrics and an
// audit trail around the engine, and owns snapshot persistence.
type Service struct {
	mu     sync.RWMutex
	engine *matrix.Engine

	store         SnapshotStore
	limiter       *ImportLimiter
	audit         *AuditLog
	maxImportSize int64

	saveMu        sync.Mutex
	savedRevision uint64
}

// NewService returns a service holding the default dataset. Call Load to
// restore a persisted snapshot.
func NewService(cfg Config) *Service {
	if cfg.MaxImportSize <= 0 {
		cfg.MaxImportSize = DefaultMaxImportSize
	}
	if cfg.Limiter == nil {
		cfg.Limiter = NewImportLimiter(DefaultMaxConcurrentImports, DefaultMaxWaitTime)
	}
	s := &Service{
		engine:        matrix.New(cfg.Engine),
		store:         cfg.Store,
		limiter:       cfg.Limiter,
		audit:         NewAuditLog(cfg.AuditCapacity),
		maxImportSize: cfg.MaxImportSize,
	}
	datasetUnits.Set(float64(s.engine.Store().Len()))
	return s
}

// Limiter exposes the import limiter for health reporting and shutdown.
func (s *Service) Limiter() *ImportLimiter { return s.limiter }

// Audit exposes the audit trail.
func (s *Service) Audit() *AuditLog { return s.audit }

// command runs fn under the write lock and records the outcome.
func (s *Service) command(ctx context.Context, action AuditAction, units []string, fn func(e *matrix.Engine) error) error {
	start := time.Now()
	log := logging.WithFields(ctx, "command", string(action), "units", units)

	s.mu.Lock()
	err := fn(s.engine)
	rev := s.engine.Revision()
	n := s.engine.Store().Len()
	s.mu.Unlock()

	commandDuration.WithLabelValues(string(action)).Observe(time.Since(start).Seconds())
	if err != nil {
		commandsTotal.WithLabelValues(string(action), "rejected").Inc()
		log.Warn("command rejected", "code", MapError(err).Code, "error", err)
		return err
	}
	commandsTotal.WithLabelValues(string(action), "accepted").Inc()
	datasetUnits.Set(float64(n))
	log.Info("command accepted", "dataset_version", rev)

	client := ClientFromContext(ctx)
	s.audit.Record(AuditEntry{
		Action:    action,
		Units:     units,
		Revision:  rev,
		IPAddress: client.IPAddress,
		UserAgent: client.UserAgent,
		RequestID: client.RequestID,
	})
	return nil
}

// read runs fn under the read lock.
func (s *Service) read(fn func(e *matrix.Engine) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.engine)
}

// Status summarizes the dataset for the health endpoint.
type Status struct {
	Units     int                 `json:"units"`
	Revision  uint64              `json:"revision"`
	Dirty     bool                `json:"dirty"`
	UndoDepth int                 `json:"undo_depth"`
	RedoDepth int                 `json:"redo_depth"`
	Imports   ImportLimiterStatus `json:"imports"`
}

// Status reports the current dataset state.
func (s *Service) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	undo, redo := s.engine.History().Depth()
	return Status{
		Units:     s.engine.Store().Len(),
		Revision:  s.engine.Revision(),
		Dirty:     s.engine.Dirty(),
		UndoDepth: undo,
		RedoDepth: redo,
		Imports:   s.limiter.Status(),
	}
}

// Load restores the persisted snapshot, if any. It reports whether a
// snapshot was found.
func (s *Service) Load(ctx context.Context) (bool, error) {
	if s.store == nil {
		return false, nil
	}
	snap, ok, err := s.store.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("load snapshot: %w", err)
	}
	if !ok {
		return false, nil
	}

	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	s.mu.Lock()
	err = s.engine.Restore(snap.Units, matrix.Palette(snap.Phases), snap.OpenFacts)
	rev, n := s.engine.Revision(), s.engine.Store().Len()
	s.mu.Unlock()
	if err != nil {
		return false, err
	}
	s.savedRevision = rev
	datasetUnits.Set(float64(n))
	logging.FromContext(ctx).Info("snapshot restored",
		"units", len(snap.Units),
		"saved_at", snap.SavedAt,
	)
	return true, nil
}

// ErrNoStore is returned by Save when the service has no snapshot store.
var ErrNoStore = errors.New("no snapshot store configured")

// Save persists the current dataset. It is a no-op when nothing changed
// since the last save.
func (s *Service) Save(ctx context.Context) error {
	if s.store == nil {
		return ErrNoStore
	}
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.RLock()
	rev := s.engine.Revision()
	if rev == s.savedRevision {
		s.mu.RUnlock()
		return nil
	}
	snap := Snapshot{
		Revision:  rev,
		SavedAt:   time.Now().UTC(),
		Units:     s.engine.Units(),
		Phases:    s.engine.Palette(),
		OpenFacts: s.engine.OpenFacts(),
	}
	s.mu.RUnlock()

	if err := s.store.Save(ctx, snap); err != nil {
		snapshotsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("save snapshot: %w", err)
	}
	snapshotsTotal.WithLabelValues("ok").Inc()
	s.savedRevision = rev

	s.mu.Lock()
	if s.engine.Revision() == rev {
		s.engine.MarkSaved()
	}
	s.mu.Unlock()
	logging.FromContext(ctx).Debug("snapshot saved", "revision", rev, "units", len(snap.Units))
	return nil
}
