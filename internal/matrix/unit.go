// Package matrix implements the stratigraphic relation engine behind a Harris
// matrix dataset.
//
// The package is pure: it performs no I/O and does no logging. Callers (the
// core service, the CLI) feed it tabular records and commands, and read back
// the derived views.
//
// # Model
//
// A dataset is a [Store] of [Unit] values keyed by code. Structural units
// (Positive, Negative) are linked by superposition ("children") and by a
// symmetric equivalence relation. Fact units group other units as members and
// never take part in superposition or equivalence themselves.
//
// # Derived views
//
// [Engine.DisplayGraph] produces the layered relation graph shown to users.
// When redundancy is hidden the graph is transitively reduced (a Hasse
// diagram). Open facts collapse their members into a single node; the
// [Resolver] maps every raw unit to the outermost open fact containing it.
//
// # Edits
//
// Every mutating [Engine] command validates first and commits second. A
// rejected command leaves both the store and the undo/redo stacks untouched.
package matrix

import (
	"fmt"
	"strings"
)

// Kind is the closed set of unit kinds.
type Kind int

const (
	KindUnknown Kind = iota
	KindPositive
	KindNegative
	KindFact
)

// ParseKind converts the tabular kind code (P, N, H) into a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.TrimSpace(s) {
	case "P":
		return KindPositive, nil
	case "N":
		return KindNegative, nil
	case "H":
		return KindFact, nil
	case "":
		return KindUnknown, fmt.Errorf("kind is empty")
	default:
		return KindUnknown, fmt.Errorf("kind %q must be one of P, N, H", s)
	}
}

// Code returns the tabular kind code.
func (k Kind) Code() string {
	switch k {
	case KindPositive:
		return "P"
	case KindNegative:
		return "N"
	case KindFact:
		return "H"
	default:
		return ""
	}
}

func (k Kind) String() string {
	switch k {
	case KindPositive:
		return "positive"
	case KindNegative:
		return "negative"
	case KindFact:
		return "fact"
	default:
		return "unknown"
	}
}

// Structural reports whether units of this kind take part in superposition
// and equivalence.
func (k Kind) Structural() bool {
	switch k {
	case KindPositive, KindNegative:
		return true
	case KindFact, KindUnknown:
		return false
	default:
		return false
	}
}

// MarshalText encodes the kind as its tabular code.
func (k Kind) MarshalText() ([]byte, error) {
	if k == KindUnknown {
		return nil, fmt.Errorf("cannot encode unknown kind")
	}
	return []byte(k.Code()), nil
}

// UnmarshalText decodes a tabular kind code.
func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Unit is a single stratigraphic record.
//
// Relation fields hold codes, never pointers, so a Store can be copied by
// value without chasing references.
type Unit struct {
	Code         string   `json:"code"`
	Name         string   `json:"name"`
	Kind         Kind     `json:"kind"`
	Children     []string `json:"children,omitempty"`
	Equivalences []string `json:"equivalences,omitempty"`
	Members      []string `json:"members,omitempty"`
	Phase        string   `json:"phase,omitempty"`
	Description  string   `json:"description,omitempty"`
}

// Clone returns a deep copy of the unit.
func (u *Unit) Clone() *Unit {
	c := *u
	c.Children = cloneList(u.Children)
	c.Equivalences = cloneList(u.Equivalences)
	c.Members = cloneList(u.Members)
	return &c
}

// HasChild reports whether code is a direct superposition successor.
func (u *Unit) HasChild(code string) bool { return contains(u.Children, code) }

// HasEquivalent reports whether code is listed as equivalent.
func (u *Unit) HasEquivalent(code string) bool { return contains(u.Equivalences, code) }

// HasMember reports whether code is a direct member of this fact.
func (u *Unit) HasMember(code string) bool { return contains(u.Members, code) }

// NameSeparators are the characters a unit name may not contain: the list
// separator and the field separator of the tabular format.
const NameSeparators = ",;"

// CheckName validates a display name in isolation (uniqueness is the store's
// concern).
func CheckName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidName)
	}
	if strings.ContainsAny(name, NameSeparators) {
		return fmt.Errorf("%w: name %q contains ',' or ';'", ErrInvalidName, name)
	}
	return nil
}

func cloneList(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func contains(list []string, code string) bool {
	for _, c := range list {
		if c == code {
			return true
		}
	}
	return false
}

// appendUnique adds code to list unless it is already present.
func appendUnique(list []string, code string) []string {
	if contains(list, code) {
		return list
	}
	return append(list, code)
}

// without returns list with every occurrence of code removed. The result is
// nil when nothing remains.
func without(list []string, code string) []string {
	var out []string
	for _, c := range list {
		if c != code {
			out = append(out, c)
		}
	}
	return out
}

// substitute replaces every occurrence of oldCode with newCode.
func substitute(list []string, oldCode, newCode string) []string {
	for i, c := range list {
		if c == oldCode {
			list[i] = newCode
		}
	}
	return list
}

// sameSet compares two code lists as sets.
func sameSet(a, b []string) bool {
	as := toSet(a)
	bs := toSet(b)
	if len(as) != len(bs) {
		return false
	}
	for c := range as {
		if _, ok := bs[c]; !ok {
			return false
		}
	}
	return true
}

func toSet(list []string) map[string]struct{} {
	set := make(map[string]struct{}, len(list))
	for _, c := range list {
		set[c] = struct{}{}
	}
	return set
}
