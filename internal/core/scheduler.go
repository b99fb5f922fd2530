package core

// scheduler.go runs the background autosave loop.
//
// Every interval the loop persists the dataset if its revision moved since
// the last save. When the context is cancelled it performs one final save
// with a fresh deadline, so a graceful shutdown never loses accepted edits.
// A failed save is logged and retried on the next tick; it never stops the
// service.

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// AutosaveConfig holds configuration for the autosave scheduler.
type AutosaveConfig struct {
	Interval     time.Duration // How often to check for changes (default: 30s)
	FinalTimeout time.Duration // Budget for the shutdown save (default: 10s)
}

func (c AutosaveConfig) withDefaults() AutosaveConfig {
	if c.Interval <= 0 {
		c.Interval = 30 * time.Second
	}
	if c.FinalTimeout <= 0 {
		c.FinalTimeout = 10 * time.Second
	}
	return c
}

// StartAutosave blocks, saving periodically until ctx is cancelled. Run it
// in its own goroutine.
func (s *Service) StartAutosave(ctx context.Context, cfg AutosaveConfig) {
	if s.store == nil {
		slog.Warn("autosave disabled: no snapshot store")
		return
	}
	cfg = cfg.withDefaults()
	slog.Info("autosave scheduler started", "interval", cfg.Interval)

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			finalCtx, cancel := context.WithTimeout(context.Background(), cfg.FinalTimeout)
			s.runAutosave(finalCtx)
			cancel()
			slog.Info("autosave scheduler stopped")
			return
		case <-ticker.C:
			s.runAutosave(ctx)
		}
	}
}

// runAutosave performs one save attempt.
func (s *Service) runAutosave(ctx context.Context) {
	start := time.Now()
	if err := s.Save(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		slog.Error("autosave failed", "error", err)
		return
	}
	slog.Debug("autosave completed", "duration_ms", time.Since(start).Milliseconds())
}
