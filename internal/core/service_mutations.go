package core

import (
	"context"
	"errors"

	"github.com/JonMunkholm/harris/internal/logging"
	"github.com/JonMunkholm/harris/internal/matrix"
)

// NewDataset replaces the dataset with the default sequence.
func (s *Service) NewDataset(ctx context.Context) error {
	return s.command(ctx, ActionNewDataset, nil, func(e *matrix.Engine) error {
		e.NewDataset()
		return nil
	})
}

// AddUnit creates a unit.
func (s *Service) AddUnit(ctx context.Context, in matrix.UnitInput) error {
	return s.command(ctx, ActionUnitAdd, []string{in.Name}, func(e *matrix.Engine) error {
		return e.AddUnit(in)
	})
}

// EditUnit changes a unit's scalar fields; a new name is propagated to
// every reference.
func (s *Service) EditUnit(ctx context.Context, code string, in matrix.UnitInput) error {
	return s.command(ctx, ActionUnitEdit, []string{code, in.Name}, func(e *matrix.Engine) error {
		return e.EditUnit(code, in)
	})
}

// DeleteUnits removes units and every reference to them in one undo step.
func (s *Service) DeleteUnits(ctx context.Context, codes ...string) error {
	return s.command(ctx, ActionUnitDelete, codes, func(e *matrix.Engine) error {
		return e.DeleteUnits(codes...)
	})
}

// AddRelation makes destination a child of origin.
func (s *Service) AddRelation(ctx context.Context, origin, destination string) error {
	return s.command(ctx, ActionRelationAdd, []string{origin, destination}, func(e *matrix.Engine) error {
		return e.AddRelation(origin, destination)
	})
}

// RemoveRelation drops the superposition edge origin -> destination.
func (s *Service) RemoveRelation(ctx context.Context, origin, destination string) error {
	return s.command(ctx, ActionRelationRemove, []string{origin, destination}, func(e *matrix.Engine) error {
		return e.RemoveRelation(origin, destination)
	})
}

// AddEquivalence declares a and b contemporaneous.
func (s *Service) AddEquivalence(ctx context.Context, a, b string) error {
	return s.command(ctx, ActionEquivalenceAdd, []string{a, b}, func(e *matrix.Engine) error {
		return e.AddEquivalence(a, b)
	})
}

// RemoveEquivalence drops the equivalence between a and b.
func (s *Service) RemoveEquivalence(ctx context.Context, a, b string) error {
	return s.command(ctx, ActionEquivalenceRemove, []string{a, b}, func(e *matrix.Engine) error {
		return e.RemoveEquivalence(a, b)
	})
}

// AddFactMember puts member into fact.
func (s *Service) AddFactMember(ctx context.Context, fact, member string) error {
	return s.command(ctx, ActionMemberAdd, []string{fact, member}, func(e *matrix.Engine) error {
		return e.AddFactMember(fact, member)
	})
}

// RemoveFactMember takes member out of fact.
func (s *Service) RemoveFactMember(ctx context.Context, fact, member string) error {
	return s.command(ctx, ActionMemberRemove, []string{fact, member}, func(e *matrix.Engine) error {
		return e.RemoveFactMember(fact, member)
	})
}

// SetPhaseColor assigns a display color to a phase.
func (s *Service) SetPhaseColor(ctx context.Context, phase, color string) error {
	return s.command(ctx, ActionPhaseColor, nil, func(e *matrix.Engine) error {
		return e.SetPhaseColor(phase, color)
	})
}

// ErrNothingToUndo and ErrNothingToRedo report an empty history stack.
var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// Undo restores the dataset before the last change.
func (s *Service) Undo(ctx context.Context) error {
	return s.command(ctx, ActionUndo, nil, func(e *matrix.Engine) error {
		if !e.Undo() {
			return ErrNothingToUndo
		}
		return nil
	})
}

// Redo re-applies the last undone change.
func (s *Service) Redo(ctx context.Context) error {
	return s.command(ctx, ActionRedo, nil, func(e *matrix.Engine) error {
		if !e.Redo() {
			return ErrNothingToRedo
		}
		return nil
	})
}

// SetOpenFacts replaces the default set of expanded facts. It is view state:
// it is neither undoable nor audited.
func (s *Service) SetOpenFacts(ctx context.Context, codes []string) error {
	s.mu.Lock()
	err := s.engine.SetOpenFacts(codes)
	s.mu.Unlock()
	if err != nil {
		logging.FromContext(ctx).Warn("open facts rejected", "code", MapError(err).Code, "error", err)
	}
	return err
}
