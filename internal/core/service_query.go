package core

import (
	"context"
	"strconv"
	"time"

	"github.com/JonMunkholm/harris/internal/logging"
	"github.com/JonMunkholm/harris/internal/matrix"
)

// Units returns copies of every unit in dataset order.
func (s *Service) Units() []*matrix.Unit {
	var out []*matrix.Unit
	_ = s.read(func(e *matrix.Engine) error {
		out = e.Units()
		return nil
	})
	return out
}

// Unit returns a copy of one unit.
func (s *Service) Unit(code string) (*matrix.Unit, error) {
	var u *matrix.Unit
	err := s.read(func(e *matrix.Engine) error {
		var err error
		u, err = e.Unit(code)
		return err
	})
	return u, err
}

// PhaseColor pairs a phase label with its display color.
type PhaseColor struct {
	Phase string `json:"phase"`
	Color string `json:"color"`
}

// Phases lists every phase used by a unit, in lexical order, with its color.
func (s *Service) Phases() []PhaseColor {
	var out []PhaseColor
	_ = s.read(func(e *matrix.Engine) error {
		out = phasesOf(e)
		return nil
	})
	return out
}

func phasesOf(e *matrix.Engine) []PhaseColor {
	out := []PhaseColor{}
	palette := e.Palette()
	for _, p := range e.Store().Phases() {
		out = append(out, PhaseColor{Phase: p, Color: palette.Color(p)})
	}
	return out
}

// OpenFacts returns the default set of expanded facts.
func (s *Service) OpenFacts() []string {
	var out []string
	_ = s.read(func(e *matrix.Engine) error {
		out = e.OpenFacts()
		return nil
	})
	return out
}

// HistoryInfo describes the undo/redo state.
type HistoryInfo struct {
	CanUndo   bool   `json:"can_undo"`
	CanRedo   bool   `json:"can_redo"`
	UndoDepth int    `json:"undo_depth"`
	RedoDepth int    `json:"redo_depth"`
	Dirty     bool   `json:"dirty"`
	Revision  uint64 `json:"revision"`
}

// History reports the undo/redo state.
func (s *Service) History() HistoryInfo {
	var info HistoryInfo
	_ = s.read(func(e *matrix.Engine) error {
		info = historyOf(e)
		return nil
	})
	return info
}

func historyOf(e *matrix.Engine) HistoryInfo {
	var info HistoryInfo
	h := e.History()
	info.UndoDepth, info.RedoDepth = h.Depth()
	info.CanUndo, info.CanRedo = h.CanUndo(), h.CanRedo()
	info.Dirty = e.Dirty()
	info.Revision = e.Revision()
	return info
}

// DisplayGraph derives the layered display graph.
func (s *Service) DisplayGraph(ctx context.Context, opts matrix.ViewOptions) (*matrix.View, error) {
	start := time.Now()
	var v *matrix.View
	err := s.read(func(e *matrix.Engine) error {
		var err error
		v, err = e.DisplayGraph(opts)
		return err
	})
	viewDuration.WithLabelValues(strconv.FormatBool(opts.Redundancy)).Observe(time.Since(start).Seconds())
	if err != nil {
		logging.FromContext(ctx).Warn("view rejected", "code", MapError(err).Code, "error", err)
		return nil, err
	}
	return v, nil
}

// Matrix derives the Harris matrix for the same options as DisplayGraph.
func (s *Service) Matrix(ctx context.Context, opts matrix.ViewOptions) (matrix.Matrix, error) {
	v, err := s.DisplayGraph(ctx, opts)
	if err != nil {
		return matrix.Matrix{}, err
	}
	return v.Matrix(), nil
}

// Frame is one consistent rendering of the dataset: every field is derived
// from the same revision.
type Frame struct {
	Graph   *matrix.View  `json:"graph"`
	Matrix  matrix.Matrix `json:"matrix"`
	Phases  []PhaseColor  `json:"phases"`
	History HistoryInfo   `json:"history"`
}

// Frame derives the display graph once and builds the matrix, the phase
// legend and the history state from it under a single read lock.
func (s *Service) Frame(ctx context.Context, opts matrix.ViewOptions) (Frame, error) {
	start := time.Now()
	var f Frame
	err := s.read(func(e *matrix.Engine) error {
		v, err := e.DisplayGraph(opts)
		if err != nil {
			return err
		}
		f = Frame{
			Graph:   v,
			Matrix:  v.Matrix(),
			Phases:  phasesOf(e),
			History: historyOf(e),
		}
		return nil
	})
	viewDuration.WithLabelValues(strconv.FormatBool(opts.Redundancy)).Observe(time.Since(start).Seconds())
	if err != nil {
		logging.FromContext(ctx).Warn("view rejected", "code", MapError(err).Code, "error", err)
		return Frame{}, err
	}
	return f, nil
}

// ResolveVisibleCode maps code to the node drawn for it. A nil open set uses
// the default open facts.
func (s *Service) ResolveVisibleCode(open []string, code string) (string, error) {
	var out string
	err := s.read(func(e *matrix.Engine) error {
		var err error
		out, err = e.ResolveVisibleCode(open, code)
		return err
	})
	return out, err
}
