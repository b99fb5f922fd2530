package matrix

import (
	"fmt"
	"strings"
)

// DefaultMaxCycles bounds the number of cycles reported by an import that
// fails the acyclicity rule.
const DefaultMaxCycles = 50

// Validate checks a candidate dataset against every import rule, in order,
// and returns the store it describes. The first violated rule is returned as a
// *ValidationError and no store is built.
func Validate(t Table, maxCycles int) (*Store, error) {
	if err := checkHeader(t.Header); err != nil {
		return nil, err
	}
	recs := t.records()
	checks := []func([]Record) *ValidationError{
		checkNameSeparators,
		checkEmptyNames,
		checkDuplicateNames,
		checkReferences,
		checkRepeatedInRecord,
		func(recs []Record) *ValidationError { return checkCycles(recs, maxCycles) },
		checkEquivalenceSymmetry,
		checkEquivalenceNeighbourhoods,
		checkMemberExclusivity,
		checkMissingKind,
		checkIllegalKind,
		checkStructuralMembers,
		checkFactRelations,
		checkFactInRelations,
	}
	for _, check := range checks {
		if v := check(recs); v != nil {
			return nil, v
		}
	}
	return buildStore(recs), nil
}

func checkHeader(header []string) *ValidationError {
	present := make(map[string]int, len(header))
	for _, h := range header {
		present[strings.TrimSpace(h)]++
	}

	var missing []string
	for _, col := range Columns {
		if present[col] == 0 {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return violation(RuleMissingColumns,
			fmt.Sprintf("required columns are %s", strings.Join(Columns, ", ")), missing...)
	}

	if present[ColCode] > 0 {
		return violation(RuleReservedColumn, fmt.Sprintf("column %q is reserved", ColCode), ColCode)
	}

	var dups []string
	for _, h := range header {
		name := strings.TrimSpace(h)
		if present[name] > 1 && !contains(dups, name) {
			dups = append(dups, name)
		}
	}
	if len(dups) > 0 {
		return violation(RuleDuplicateColumns, "columns appear more than once", dups...)
	}
	return nil
}

func checkNameSeparators(recs []Record) *ValidationError {
	var bad []string
	for _, r := range recs {
		if strings.ContainsAny(r.Name, NameSeparators) {
			bad = append(bad, r.Name)
		}
	}
	if len(bad) > 0 {
		return violation(RuleNameSeparator, "names may not contain ',' or ';'", bad...)
	}
	return nil
}

func checkEmptyNames(recs []Record) *ValidationError {
	var rows []int
	for i, r := range recs {
		if r.Name == "" {
			rows = append(rows, i)
		}
	}
	if len(rows) > 0 {
		v := violation(RuleEmptyName, fmt.Sprintf("rows without a name: %v", rows))
		v.Rows = rows
		return v
	}
	return nil
}

func checkDuplicateNames(recs []Record) *ValidationError {
	seen := make(map[string]bool, len(recs))
	var dups []string
	var rows []int
	for i, r := range recs {
		if seen[r.Name] {
			dups = appendUnique(dups, r.Name)
			rows = append(rows, i)
		}
		seen[r.Name] = true
	}
	if len(dups) > 0 {
		v := violation(RuleDuplicateName, "names must be unique", dups...)
		v.Rows = rows
		return v
	}
	return nil
}

func checkReferences(recs []Record) *ValidationError {
	names := make(map[string]bool, len(recs))
	for _, r := range recs {
		names[r.Name] = true
	}
	for i, r := range recs {
		fields := []struct {
			col  string
			list []string
		}{
			{ColChildren, r.Children},
			{ColEquivalences, r.Equivalences},
			{ColFact, r.Members},
		}
		for _, f := range fields {
			for _, ref := range f.list {
				if !names[ref] {
					v := violation(RuleUnknownReference,
						fmt.Sprintf("value %q in %s of %q is not a known name", ref, f.col, r.Name), ref)
					v.Rows = []int{i}
					return v
				}
			}
		}
	}
	return nil
}

func checkRepeatedInRecord(recs []Record) *ValidationError {
	var bad []string
	for _, r := range recs {
		all := make([]string, 0, 1+len(r.Children)+len(r.Equivalences)+len(r.Members))
		all = append(all, r.Name)
		all = append(all, r.Children...)
		all = append(all, r.Equivalences...)
		all = append(all, r.Members...)
		if len(toSet(all)) != len(all) {
			bad = append(bad, r.Name)
		}
	}
	if len(bad) > 0 {
		return violation(RuleRepeatedInRecord,
			"a value may appear only once across Name, Children, Equivalences and Fact", bad...)
	}
	return nil
}

func checkCycles(recs []Record, maxCycles int) *ValidationError {
	g := NewDigraph()
	for _, r := range recs {
		g.AddNode(r.Name)
	}
	for _, r := range recs {
		for _, c := range r.Children {
			g.AddEdge(r.Name, c)
		}
		for _, m := range r.Members {
			g.AddEdge(r.Name, m)
		}
	}
	cycles := g.SimpleCycles(maxCycles)
	if len(cycles) == 0 {
		return nil
	}
	var units []string
	for _, c := range cycles {
		for _, code := range c {
			units = appendUnique(units, code)
		}
	}
	v := violation(RuleCycle, fmt.Sprintf("found %d cycle(s)", len(cycles)), units...)
	v.Cycles = cycles
	return v
}

func indexByName(recs []Record) map[string]*Record {
	idx := make(map[string]*Record, len(recs))
	for i := range recs {
		idx[recs[i].Name] = &recs[i]
	}
	return idx
}

func checkEquivalenceSymmetry(recs []Record) *ValidationError {
	idx := indexByName(recs)
	for _, r := range recs {
		for _, eq := range r.Equivalences {
			if !contains(idx[eq].Equivalences, r.Name) {
				return violation(RuleAsymmetricEquiv,
					fmt.Sprintf("equivalence between %q and %q is not listed on both units", r.Name, eq), r.Name, eq)
			}
		}
	}
	return nil
}

func checkEquivalenceNeighbourhoods(recs []Record) *ValidationError {
	idx := indexByName(recs)
	for _, r := range recs {
		for _, eq := range r.Equivalences {
			for _, other := range recs {
				if contains(other.Children, r.Name) != contains(other.Children, eq) {
					return violation(RuleEquivParents,
						fmt.Sprintf("equivalent units %q and %q do not have the same parents", r.Name, eq), r.Name, eq)
				}
			}
			if !sameSet(r.Children, idx[eq].Children) {
				return violation(RuleEquivChildren,
					fmt.Sprintf("equivalent units %q and %q do not have the same children", r.Name, eq), r.Name, eq)
			}
		}
	}
	return nil
}

// checkMemberExclusivity reports the first unit listed under more than one
// fact, followed by every fact that lists it.
func checkMemberExclusivity(recs []Record) *ValidationError {
	owners := make(map[string][]string)
	var order []string
	for _, r := range recs {
		for _, m := range r.Members {
			if _, ok := owners[m]; !ok {
				order = append(order, m)
			}
			owners[m] = appendUnique(owners[m], r.Name)
		}
	}
	for _, m := range order {
		if facts := owners[m]; len(facts) > 1 {
			return violation(RuleMemberExclusivity,
				fmt.Sprintf("unit %q belongs to facts %s; a unit may belong to one fact only", m, strings.Join(facts, ", ")),
				append([]string{m}, facts...)...)
		}
	}
	return nil
}

func checkMissingKind(recs []Record) *ValidationError {
	var bad []string
	for _, r := range recs {
		if r.Kind == "" {
			bad = append(bad, r.Name)
		}
	}
	if len(bad) > 0 {
		return violation(RuleMissingKind, "every unit needs a kind", bad...)
	}
	return nil
}

func checkIllegalKind(recs []Record) *ValidationError {
	var bad []string
	for _, r := range recs {
		if _, err := ParseKind(r.Kind); err != nil {
			bad = append(bad, r.Name)
		}
	}
	if len(bad) > 0 {
		return violation(RuleIllegalKind, "kind must be one of P, N, H", bad...)
	}
	return nil
}

func checkStructuralMembers(recs []Record) *ValidationError {
	var bad []string
	for _, r := range recs {
		if r.Kind != "H" && len(r.Members) > 0 {
			bad = append(bad, r.Name)
		}
	}
	if len(bad) > 0 {
		return violation(RuleStructuralMembers, "P and N units may not have values in Fact", bad...)
	}
	return nil
}

func checkFactRelations(recs []Record) *ValidationError {
	var bad []string
	for _, r := range recs {
		if r.Kind == "H" && (len(r.Children) > 0 || len(r.Equivalences) > 0) {
			bad = append(bad, r.Name)
		}
	}
	if len(bad) > 0 {
		return violation(RuleFactRelations, "H units may not have Children or Equivalences", bad...)
	}
	return nil
}

func checkFactInRelations(recs []Record) *ValidationError {
	facts := make(map[string]bool)
	for _, r := range recs {
		if r.Kind == "H" {
			facts[r.Name] = true
		}
	}
	var bad []string
	for _, r := range recs {
		if r.Kind == "H" {
			continue
		}
		for _, c := range append(cloneList(r.Children), r.Equivalences...) {
			if facts[c] {
				bad = appendUnique(bad, r.Name)
			}
		}
	}
	if len(bad) > 0 {
		return violation(RuleFactInRelations, "H units may not appear in Children or Equivalences", bad...)
	}
	return nil
}

// buildStore converts validated records into a store. Codes are the names.
func buildStore(recs []Record) *Store {
	s := NewStore()
	for _, r := range recs {
		kind, _ := ParseKind(r.Kind)
		s.Upsert(&Unit{
			Code:         r.Name,
			Name:         r.Name,
			Kind:         kind,
			Children:     cloneList(r.Children),
			Equivalences: cloneList(r.Equivalences),
			Members:      cloneList(r.Members),
			Phase:        r.Phase,
			Description:  r.Description,
		})
	}
	return s
}

// CheckStore verifies the committed-state invariants of a store. It is used
// when restoring persisted snapshots, which bypass the import path.
func CheckStore(s *Store) error {
	t := TableFromStore(s)
	_, err := Validate(t, 1)
	return err
}
