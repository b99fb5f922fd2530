package core

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/JonMunkholm/harris/internal/logging"
	"github.com/JonMunkholm/harris/internal/matrix"
)

// ImportResult summarizes an accepted import.
type ImportResult struct {
	Units    int    `json:"units"`
	Bytes    int64  `json:"bytes"`
	Revision uint64 `json:"revision"`
}

// Import decodes a CSV dataset and replaces the current one with it. Decoding
// runs outside the service lock, bounded by the import limiter. A rejected
// dataset leaves the current one untouched.
func (s *Service) Import(ctx context.Context, r io.Reader) (*ImportResult, error) {
	log := logging.WithFields(ctx, "command", string(ActionImport))
	if r == nil {
		return nil, ErrNoFile
	}
	if err := s.limiter.Acquire(ctx); err != nil {
		log.Warn("import slot unavailable", "error", err)
		return nil, err
	}
	defer s.limiter.Release()

	start := time.Now()
	counter := NewCountingReader(r, s.maxImportSize)
	t, err := DecodeCSV(counter, 0)
	if err != nil {
		log.Warn("import decode failed", "code", MapError(err).Code, "error", err)
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res, err := s.ImportTable(ctx, t)
	if err != nil {
		return nil, err
	}
	res.Bytes = counter.BytesRead
	importBytes.Observe(float64(counter.BytesRead))
	log.Info("import completed",
		"units", res.Units,
		"bytes", counter.BytesRead,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

// ImportTable validates and loads an already decoded table.
func (s *Service) ImportTable(ctx context.Context, t matrix.Table) (*ImportResult, error) {
	res := &ImportResult{}
	err := s.command(ctx, ActionImport, nil, func(e *matrix.Engine) error {
		if err := e.Import(t); err != nil {
			return err
		}
		res.Units = e.Store().Len()
		res.Revision = e.Revision()
		return nil
	})
	var verr *matrix.ValidationError
	if errors.As(err, &verr) {
		validationFailures.WithLabelValues(string(verr.Rule), string(verr.Class())).Inc()
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Export writes the whole dataset as CSV.
func (s *Service) Export(w io.Writer) error {
	var t matrix.Table
	_ = s.read(func(e *matrix.Engine) error {
		t = e.Export()
		return nil
	})
	return EncodeCSV(w, t)
}

// FilteredExport writes only the units visible under opts as CSV.
func (s *Service) FilteredExport(ctx context.Context, w io.Writer, opts matrix.ViewOptions) error {
	var t matrix.Table
	err := s.read(func(e *matrix.Engine) error {
		v, err := e.DisplayGraph(opts)
		if err != nil {
			return err
		}
		t = e.FilteredExport(v)
		return nil
	})
	if err != nil {
		logging.FromContext(ctx).Warn("filtered export rejected", "error", err)
		return err
	}
	return EncodeCSV(w, t)
}
