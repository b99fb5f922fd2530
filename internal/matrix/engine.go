package matrix

import (
	"fmt"
	"strings"
)

// Options tunes an Engine.
type Options struct {
	// HistoryLimit caps the undo stack; 0 keeps every snapshot.
	HistoryLimit int
	// LevelStrategy selects the display layering.
	LevelStrategy LevelStrategy
	// MaxCyclesReported bounds the cycles listed by a failed import.
	MaxCyclesReported int
}

// UnitInput carries the editable scalar fields of a unit.
type UnitInput struct {
	Name        string `json:"name"`
	Kind        Kind   `json:"kind"`
	Phase       string `json:"phase,omitempty"`
	Description string `json:"description,omitempty"`
}

// Engine owns the dataset and applies commands to it. Every mutating command
// checks its preconditions against a copy of the current state and only then
// swaps the copy in, recording the previous state for undo.
//
// Engine is not safe for concurrent use.
type Engine struct {
	cur      state
	history  *History
	open     []string
	opts     Options
	revision uint64
	dirty    bool
}

// New returns an engine holding the default dataset.
func New(opts Options) *Engine {
	if opts.LevelStrategy == "" {
		opts.LevelStrategy = LevelsBFS
	}
	if opts.MaxCyclesReported == 0 {
		opts.MaxCyclesReported = DefaultMaxCycles
	}
	return &Engine{
		cur:     state{store: DefaultStore(), palette: make(Palette)},
		history: NewHistory(opts.HistoryLimit),
		opts:    opts,
	}
}

// DefaultStore returns the starting sequence T -> Unexcavated -> G.
func DefaultStore() *Store {
	s := NewStore()
	s.Upsert(&Unit{Code: "T", Name: "T", Kind: KindPositive, Children: []string{"Unexcavated"}})
	s.Upsert(&Unit{Code: "Unexcavated", Name: "Unexcavated", Kind: KindPositive, Children: []string{"G"}})
	s.Upsert(&Unit{Code: "G", Name: "G", Kind: KindPositive})
	return s
}

// Store returns the current store. Callers must treat it as read-only.
func (e *Engine) Store() *Store { return e.cur.store }

// Palette returns a copy of the phase palette.
func (e *Engine) Palette() Palette { return e.cur.palette.Clone() }

// Options returns the engine options.
func (e *Engine) Options() Options { return e.opts }

// Revision increases on every accepted change, including open-set and
// palette changes.
func (e *Engine) Revision() uint64 { return e.revision }

// Dirty reports whether the dataset changed since the last import, new
// dataset or MarkSaved.
func (e *Engine) Dirty() bool { return e.dirty }

// MarkSaved clears the unsaved-changes flag.
func (e *Engine) MarkSaved() { e.dirty = false }

// History exposes the undo/redo stacks for inspection.
func (e *Engine) History() *History { return e.history }

// Unit returns a copy of the unit with the given code.
func (e *Engine) Unit(code string) (*Unit, error) {
	u, ok := e.cur.store.Get(code)
	if !ok {
		return nil, reject("get unit", ErrNotFound, code)
	}
	return u.Clone(), nil
}

// Units returns copies of every unit in store order.
func (e *Engine) Units() []*Unit {
	units := e.cur.store.Units()
	out := make([]*Unit, len(units))
	for i, u := range units {
		out[i] = u.Clone()
	}
	return out
}

func (e *Engine) touch(data bool) {
	e.revision++
	if data {
		e.dirty = true
	}
}

// mutate runs apply against a copy of the current state and commits it.
func (e *Engine) mutate(apply func(next state) error) error {
	next := e.cur.clone()
	if err := apply(next); err != nil {
		return err
	}
	e.history.record(e.cur)
	e.cur = next
	e.touch(true)
	return nil
}

// Import validates a full tabular dataset and replaces the store with it.
// The open set is cleared and every phase gets the default color. A rejected
// import returns a *ValidationError and changes nothing.
func (e *Engine) Import(t Table) error {
	s, err := Validate(t, e.opts.MaxCyclesReported)
	if err != nil {
		return err
	}
	e.history.record(e.cur)
	e.cur = state{store: s, palette: paletteFor(s)}
	e.open = nil
	e.touch(false)
	e.dirty = false
	return nil
}

// NewDataset replaces the store with the default dataset.
func (e *Engine) NewDataset() {
	e.history.record(e.cur)
	e.cur = state{store: DefaultStore(), palette: make(Palette)}
	e.open = nil
	e.touch(false)
	e.dirty = false
}

// Restore loads persisted state, bypassing history. The store is checked
// against the import rules first.
func (e *Engine) Restore(units []*Unit, palette Palette, open []string) error {
	s := NewStore()
	for _, u := range units {
		if s.Has(u.Code) {
			return fmt.Errorf("restore: %w: %s", ErrDuplicateName, u.Code)
		}
		s.Upsert(u.Clone())
	}
	if err := CheckStore(s); err != nil {
		return fmt.Errorf("restore: %w", err)
	}
	p := paletteFor(s)
	for phase, color := range palette {
		p[phase] = color
	}
	e.cur = state{store: s, palette: p}
	e.history.Reset()
	e.open = nil
	for _, code := range open {
		if u, ok := s.Get(code); ok && u.Kind == KindFact {
			e.open = appendUnique(e.open, code)
		}
	}
	e.touch(false)
	e.dirty = false
	return nil
}

func checkInput(s *Store, in *UnitInput, currentCode string) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Phase = strings.TrimSpace(in.Phase)
	if err := CheckName(in.Name); err != nil {
		return err
	}
	if in.Name != currentCode && s.Has(in.Name) {
		return ErrDuplicateName
	}
	switch in.Kind {
	case KindPositive, KindNegative, KindFact:
		return nil
	default:
		return ErrInvalidKind
	}
}

// AddUnit creates a unit without relations.
func (e *Engine) AddUnit(in UnitInput) error {
	const op = "add unit"
	return e.mutate(func(next state) error {
		if err := checkInput(next.store, &in, ""); err != nil {
			return reject(op, err, in.Name)
		}
		next.store.Upsert(&Unit{
			Code:        in.Name,
			Name:        in.Name,
			Kind:        in.Kind,
			Phase:       in.Phase,
			Description: in.Description,
		})
		next.palette.ensure(in.Phase, NewPhaseColor)
		return nil
	})
}

// EditUnit updates the scalar fields of a unit. A new name renames the unit
// everywhere it is referenced. Moving between a structural kind and Fact
// clears the unit's relations and removes it from every other unit.
func (e *Engine) EditUnit(code string, in UnitInput) error {
	const op = "edit unit"
	err := e.mutate(func(next state) error {
		u, ok := next.store.Get(code)
		if !ok {
			return reject(op, ErrNotFound, code)
		}
		if err := checkInput(next.store, &in, code); err != nil {
			return reject(op, err, code)
		}
		if u.Kind.Structural() != in.Kind.Structural() {
			u.Children, u.Equivalences, u.Members = nil, nil, nil
			next.store.stripReferences(code)
		}
		u.Kind = in.Kind
		u.Phase = in.Phase
		u.Description = in.Description
		if err := next.store.Rename(code, in.Name); err != nil {
			return reject(op, err, code)
		}
		next.palette.ensure(in.Phase, NewPhaseColor)
		return nil
	})
	if err != nil {
		return err
	}
	e.open = substitute(e.open, code, in.Name)
	e.pruneOpen()
	return nil
}

// DeleteUnit removes a unit and every reference to it.
func (e *Engine) DeleteUnit(code string) error {
	return e.DeleteUnits(code)
}

// DeleteUnits removes several units under a single undo step. Repeated
// codes are deleted once.
func (e *Engine) DeleteUnits(codes ...string) error {
	const op = "delete unit"
	if len(codes) == 0 {
		return nil
	}
	var unique []string
	for _, code := range codes {
		unique = appendUnique(unique, code)
	}
	codes = unique
	err := e.mutate(func(next state) error {
		for _, code := range codes {
			if !next.store.Has(code) {
				return reject(op, ErrNotFound, code)
			}
		}
		for _, code := range codes {
			if err := next.store.Remove(code); err != nil {
				return reject(op, err, code)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	e.pruneOpen()
	return nil
}

func structuralPair(s *Store, op, a, b string) (*Unit, *Unit, error) {
	ua, ok := s.Get(a)
	if !ok {
		return nil, nil, reject(op, ErrNotFound, a)
	}
	ub, ok := s.Get(b)
	if !ok {
		return nil, nil, reject(op, ErrNotFound, b)
	}
	if a == b {
		return nil, nil, reject(op, ErrSelfReference, a)
	}
	if !ua.Kind.Structural() || !ub.Kind.Structural() {
		return nil, nil, reject(op, ErrKindMismatch, a, b)
	}
	return ua, ub, nil
}

// equivalenceClass returns code and every unit connected to it through
// equivalences, in discovery order.
func equivalenceClass(s *Store, code string) []string {
	class := []string{code}
	for i := 0; i < len(class); i++ {
		u, ok := s.Get(class[i])
		if !ok {
			continue
		}
		for _, eq := range u.Equivalences {
			class = appendUnique(class, eq)
		}
	}
	return class
}

// AddRelation records that origin lies above destination. The edge is
// applied between the whole equivalence classes of both units so equivalent
// units keep identical parents and children. A relation into or out of an
// equivalence class is therefore never rejected for a parent or child
// mismatch; adding it to one member adds it to all of them.
func (e *Engine) AddRelation(origin, destination string) error {
	const op = "add relation"
	return e.mutate(func(next state) error {
		s := next.store
		o, d, err := structuralPair(s, op, origin, destination)
		if err != nil {
			return err
		}
		if o.HasEquivalent(destination) {
			return reject(op, ErrDuplicate, origin, destination)
		}
		if WouldCreateCycle(s, origin, destination) {
			return reject(op, ErrCycle, origin, destination)
		}
		if o.HasChild(destination) || d.HasChild(origin) {
			return reject(op, ErrDuplicate, origin, destination)
		}
		targets := equivalenceClass(s, destination)
		for _, x := range equivalenceClass(s, origin) {
			u, _ := s.Get(x)
			for _, y := range targets {
				u.Children = appendUnique(u.Children, y)
			}
		}
		return nil
	})
}

// RemoveRelation deletes the relation origin -> destination, again across
// both equivalence classes.
func (e *Engine) RemoveRelation(origin, destination string) error {
	const op = "remove relation"
	return e.mutate(func(next state) error {
		s := next.store
		o, _, err := structuralPair(s, op, origin, destination)
		if err != nil {
			return err
		}
		if !o.HasChild(destination) {
			return reject(op, ErrNoRelation, origin, destination)
		}
		targets := equivalenceClass(s, destination)
		for _, x := range equivalenceClass(s, origin) {
			u, _ := s.Get(x)
			for _, y := range targets {
				u.Children = without(u.Children, y)
			}
		}
		return nil
	})
}

// AddEquivalence declares a and b contemporary. Both must already have the
// same parents and the same children.
func (e *Engine) AddEquivalence(a, b string) error {
	const op = "add equivalence"
	return e.mutate(func(next state) error {
		s := next.store
		ua, ub, err := structuralPair(s, op, a, b)
		if err != nil {
			return err
		}
		if ua.HasEquivalent(b) {
			return reject(op, ErrDuplicate, a, b)
		}
		if WouldCreateCycle(s, a, b) || WouldCreateCycle(s, b, a) {
			return reject(op, ErrCycle, a, b)
		}
		if !sameSet(s.Parents(a), s.Parents(b)) {
			return reject(op, ErrParentMismatch, a, b)
		}
		if !sameSet(ua.Children, ub.Children) {
			return reject(op, ErrChildMismatch, a, b)
		}
		if ua.HasChild(b) || ub.HasChild(a) {
			return reject(op, ErrDuplicate, a, b)
		}
		ua.Equivalences = appendUnique(ua.Equivalences, b)
		ub.Equivalences = appendUnique(ub.Equivalences, a)
		return nil
	})
}

// RemoveEquivalence deletes the equivalence from both units.
func (e *Engine) RemoveEquivalence(a, b string) error {
	const op = "remove equivalence"
	return e.mutate(func(next state) error {
		ua, ub, err := structuralPair(next.store, op, a, b)
		if err != nil {
			return err
		}
		if !ua.HasEquivalent(b) && !ub.HasEquivalent(a) {
			return reject(op, ErrNoRelation, a, b)
		}
		ua.Equivalences = without(ua.Equivalences, b)
		ub.Equivalences = without(ub.Equivalences, a)
		return nil
	})
}

// AddFactMember groups member under fact. A unit belongs to one fact at most.
func (e *Engine) AddFactMember(fact, member string) error {
	const op = "add fact member"
	return e.mutate(func(next state) error {
		s := next.store
		f, ok := s.Get(fact)
		if !ok {
			return reject(op, ErrNotFound, fact)
		}
		if !s.Has(member) {
			return reject(op, ErrNotFound, member)
		}
		if f.Kind != KindFact {
			return reject(op, ErrKindMismatch, fact)
		}
		if fact == member {
			return reject(op, ErrSelfReference, fact)
		}
		if f.HasMember(member) {
			return reject(op, ErrDuplicate, fact, member)
		}
		if WouldCreateCycle(s, fact, member) {
			return reject(op, ErrCycle, fact, member)
		}
		if owner, ok := s.FactOf(member); ok {
			return reject(op, ErrAlreadyMember, member, owner)
		}
		f.Members = append(f.Members, member)
		return nil
	})
}

// RemoveFactMember ungroups member from fact.
func (e *Engine) RemoveFactMember(fact, member string) error {
	const op = "remove fact member"
	return e.mutate(func(next state) error {
		f, ok := next.store.Get(fact)
		if !ok {
			return reject(op, ErrNotFound, fact)
		}
		if !f.HasMember(member) {
			return reject(op, ErrNoRelation, fact, member)
		}
		f.Members = without(f.Members, member)
		return nil
	})
}

// SetPhaseColor assigns a #RRGGBB color to a phase.
func (e *Engine) SetPhaseColor(phase, color string) error {
	const op = "set phase color"
	c, err := NormalizeColor(color)
	if err != nil {
		return reject(op, err, phase)
	}
	phase = strings.TrimSpace(phase)
	if phase == "" {
		return reject(op, fmt.Errorf("%w: phase is empty", ErrInvalidName))
	}
	return e.mutate(func(next state) error {
		next.palette[phase] = c
		return nil
	})
}

// Undo restores the state before the last command. It reports false when
// there is nothing to undo.
func (e *Engine) Undo() bool {
	prev, ok := e.history.stepBack(e.cur)
	if !ok {
		return false
	}
	e.cur = prev
	e.pruneOpen()
	e.touch(true)
	return true
}

// Redo re-applies the last undone command.
func (e *Engine) Redo() bool {
	next, ok := e.history.stepForward(e.cur)
	if !ok {
		return false
	}
	e.cur = next
	e.pruneOpen()
	e.touch(true)
	return true
}

// SetOpenFacts replaces the default open set used by views that do not pass
// their own. Every code must name a fact.
func (e *Engine) SetOpenFacts(codes []string) error {
	const op = "set open facts"
	var open []string
	for _, code := range codes {
		u, ok := e.cur.store.Get(code)
		if !ok {
			return reject(op, ErrNotFound, code)
		}
		if u.Kind != KindFact {
			return reject(op, ErrKindMismatch, code)
		}
		open = appendUnique(open, code)
	}
	e.open = open
	e.touch(false)
	return nil
}

// OpenFacts returns the default open set.
func (e *Engine) OpenFacts() []string { return cloneList(e.open) }

// ResolveVisibleCode maps code to the node shown for it under open. A nil
// open set means the engine's default set.
func (e *Engine) ResolveVisibleCode(open []string, code string) (string, error) {
	if !e.cur.store.Has(code) {
		return "", reject("resolve", ErrNotFound, code)
	}
	if open == nil {
		open = e.open
	}
	return ResolveVisibleCode(e.cur.store, open, code), nil
}

// pruneOpen drops open facts that no longer exist or are no longer facts.
func (e *Engine) pruneOpen() {
	var kept []string
	for _, code := range e.open {
		if u, ok := e.cur.store.Get(code); ok && u.Kind == KindFact {
			kept = append(kept, code)
		}
	}
	e.open = kept
}
