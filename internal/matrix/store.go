package matrix

import (
	"fmt"
	"sort"
)

// Store is the authoritative in-memory dataset: a flat arena of units keyed
// by code. Iteration follows insertion order so exports are stable.
//
// Store is not safe for concurrent use; the core service serializes access.
type Store struct {
	units map[string]*Unit
	order []string
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{units: make(map[string]*Unit)}
}

// Len returns the number of units.
func (s *Store) Len() int { return len(s.order) }

// Get returns the unit with the given code.
func (s *Store) Get(code string) (*Unit, bool) {
	u, ok := s.units[code]
	return u, ok
}

// Has reports whether a unit with the given code exists.
func (s *Store) Has(code string) bool {
	_, ok := s.units[code]
	return ok
}

// Codes returns all codes in insertion order.
func (s *Store) Codes() []string {
	return cloneList(s.order)
}

// Units returns all units in insertion order. The returned units are owned by
// the store and must not be modified.
func (s *Store) Units() []*Unit {
	out := make([]*Unit, 0, len(s.order))
	for _, code := range s.order {
		out = append(out, s.units[code])
	}
	return out
}

// Upsert inserts the unit or replaces the unit with the same code, keeping its
// position.
func (s *Store) Upsert(u *Unit) {
	if _, ok := s.units[u.Code]; !ok {
		s.order = append(s.order, u.Code)
	}
	s.units[u.Code] = u
}

// Remove deletes a unit and strips its code from every relation field of
// every other unit.
func (s *Store) Remove(code string) error {
	if _, ok := s.units[code]; !ok {
		return fmt.Errorf("remove %q: %w", code, ErrNotFound)
	}
	delete(s.units, code)
	s.order = without(s.order, code)
	s.stripReferences(code)
	return nil
}

// Rename changes a unit's code (and name) and substitutes the new code for
// the old one in every relation field of every unit.
func (s *Store) Rename(oldCode, newCode string) error {
	u, ok := s.units[oldCode]
	if !ok {
		return fmt.Errorf("rename %q: %w", oldCode, ErrNotFound)
	}
	if oldCode == newCode {
		u.Name = newCode
		return nil
	}
	if _, taken := s.units[newCode]; taken {
		return fmt.Errorf("rename %q to %q: %w", oldCode, newCode, ErrDuplicateName)
	}
	delete(s.units, oldCode)
	u.Code = newCode
	u.Name = newCode
	s.units[newCode] = u
	substitute(s.order, oldCode, newCode)
	for _, other := range s.units {
		other.Children = substitute(other.Children, oldCode, newCode)
		other.Equivalences = substitute(other.Equivalences, oldCode, newCode)
		other.Members = substitute(other.Members, oldCode, newCode)
	}
	return nil
}

// stripReferences removes code from every unit's relation fields.
func (s *Store) stripReferences(code string) {
	for _, u := range s.units {
		u.Children = without(u.Children, code)
		u.Equivalences = without(u.Equivalences, code)
		u.Members = without(u.Members, code)
	}
}

// Clone returns a deep copy of the store.
func (s *Store) Clone() *Store {
	c := &Store{
		units: make(map[string]*Unit, len(s.units)),
		order: cloneList(s.order),
	}
	for code, u := range s.units {
		c.units[code] = u.Clone()
	}
	return c
}

// Equal reports whether two stores hold identical units in identical order.
func (s *Store) Equal(o *Store) bool {
	if s.Len() != o.Len() {
		return false
	}
	for i, code := range s.order {
		if o.order[i] != code {
			return false
		}
		a, b := s.units[code], o.units[code]
		if a.Name != b.Name || a.Kind != b.Kind || a.Phase != b.Phase || a.Description != b.Description {
			return false
		}
		if !sameOrdered(a.Children, b.Children) || !sameOrdered(a.Equivalences, b.Equivalences) || !sameOrdered(a.Members, b.Members) {
			return false
		}
	}
	return true
}

// Parents returns the codes of the units listing code as a child, in store
// order.
func (s *Store) Parents(code string) []string {
	var out []string
	for _, c := range s.order {
		if s.units[c].HasChild(code) {
			out = append(out, c)
		}
	}
	return out
}

// FactOf returns the fact that lists code as a member, if any.
func (s *Store) FactOf(code string) (string, bool) {
	for _, c := range s.order {
		u := s.units[c]
		if u.Kind == KindFact && u.HasMember(code) {
			return c, true
		}
	}
	return "", false
}

// Facts returns the codes of all fact units in store order.
func (s *Store) Facts() []string {
	var out []string
	for _, c := range s.order {
		if s.units[c].Kind == KindFact {
			out = append(out, c)
		}
	}
	return out
}

// Phases returns the distinct non-empty phase labels, sorted.
func (s *Store) Phases() []string {
	seen := make(map[string]struct{})
	for _, u := range s.units {
		if u.Phase != "" {
			seen[u.Phase] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func sameOrdered(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
