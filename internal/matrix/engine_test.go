package matrix

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEngineHoldsDefaultDataset(t *testing.T) {
	e := New(Options{})
	assert.Equal(t, []string{"T", "Unexcavated", "G"}, e.Store().Codes())
	assert.Equal(t, []string{"Unexcavated"}, children(t, e, "T"))
	assert.False(t, e.Dirty())
	assert.False(t, e.History().CanUndo())
}

func TestAddRelationRejectsCycle(t *testing.T) {
	e := load(t, rec("A", "B", "", "", "P"), rec("B", "", "", "", "N"))
	before := e.Store().Clone()
	undo, _ := e.History().Depth()

	err := e.AddRelation("B", "A")
	require.ErrorIs(t, err, ErrCycle)

	var cmd *CommandError
	require.ErrorAs(t, err, &cmd)
	assert.Equal(t, "add relation", cmd.Op)
	assert.True(t, before.Equal(e.Store()), "store must be unchanged")
	after, _ := e.History().Depth()
	assert.Equal(t, undo, after, "history must be unchanged")
}

func TestAddRelationChecks(t *testing.T) {
	rows := [][]string{
		rec("A", "B", "", "", "P"),
		rec("B", "", "", "", "N"),
		rec("C", "", "", "", "P"),
		rec("F", "", "", "", "H"),
	}
	tests := []struct {
		name     string
		from, to string
		want     error
	}{
		{"unknown origin", "X", "A", ErrNotFound},
		{"unknown destination", "A", "X", ErrNotFound},
		{"self", "A", "A", ErrSelfReference},
		{"fact endpoint", "A", "F", ErrKindMismatch},
		{"existing relation", "A", "B", ErrDuplicate},
		{"transitive cycle", "B", "A", ErrCycle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := load(t, rows...)
			assert.ErrorIs(t, e.AddRelation(tt.from, tt.to), tt.want)
		})
	}
}

func TestAddRelationAppliesToEquivalenceClasses(t *testing.T) {
	e := load(t,
		rec("A", "", "B", "", "P"),
		rec("B", "", "A", "", "P"),
		rec("X", "", "Y", "", "P"),
		rec("Y", "", "X", "", "N"),
	)
	require.NoError(t, e.AddRelation("A", "X"))

	for _, code := range []string{"A", "B"} {
		assert.ElementsMatch(t, []string{"X", "Y"}, children(t, e, code), code)
	}
	assert.Equal(t, []string{"A", "B"}, e.Store().Parents("Y"))

	require.NoError(t, e.RemoveRelation("B", "Y"))
	assert.Empty(t, children(t, e, "A"))
	assert.Empty(t, children(t, e, "B"))

	assert.ErrorIs(t, e.RemoveRelation("A", "X"), ErrNoRelation)
}

func TestAddRelationToEquivalentDestination(t *testing.T) {
	e := load(t,
		rec("A", "", "", "", "P"),
		rec("D", "", "E", "", "P"),
		rec("E", "", "D", "", "P"),
	)
	require.NoError(t, e.AddRelation("A", "D"))

	assert.Equal(t, []string{"D", "E"}, children(t, e, "A"))
	assert.Equal(t, []string{"A"}, e.Store().Parents("D"))
	assert.Equal(t, []string{"A"}, e.Store().Parents("E"))
	require.NoError(t, CheckStore(e.Store()))

	// The class already has the relation, whichever member is named.
	assert.ErrorIs(t, e.AddRelation("A", "E"), ErrDuplicate)
}

func TestAddEquivalence(t *testing.T) {
	e := load(t,
		rec("A", "B", "", "", "P"),
		rec("B", "", "", "", "N"),
		rec("C", "", "", "", "P"),
		rec("D", "B", "", "", "P"),
	)

	// A has children, C does not.
	assert.ErrorIs(t, e.AddEquivalence("A", "C"), ErrChildMismatch)
	// A and B are related.
	assert.ErrorIs(t, e.AddEquivalence("A", "B"), ErrCycle)
	// B has parents A and D, C has none.
	assert.ErrorIs(t, e.AddEquivalence("C", "B"), ErrParentMismatch)

	require.NoError(t, e.AddEquivalence("A", "D"))
	assert.Equal(t, []string{"D"}, equivalences(t, e, "A"))
	assert.Equal(t, []string{"A"}, equivalences(t, e, "D"))
	assert.ErrorIs(t, e.AddEquivalence("D", "A"), ErrDuplicate)

	require.NoError(t, e.RemoveEquivalence("D", "A"))
	assert.Empty(t, equivalences(t, e, "A"))
	assert.Empty(t, equivalences(t, e, "D"))
	assert.ErrorIs(t, e.RemoveEquivalence("A", "D"), ErrNoRelation)
}

func TestEquivalentUnitsKeepSameNeighbourhood(t *testing.T) {
	e := load(t,
		rec("P", "A,B", "", "", "P"),
		rec("A", "", "", "", "P"),
		rec("B", "", "", "", "P"),
		rec("C", "", "", "", "P"),
	)
	require.NoError(t, e.AddEquivalence("A", "B"))
	require.NoError(t, e.AddRelation("A", "C"))

	s := e.Store()
	for _, u := range s.Units() {
		for _, eq := range u.Equivalences {
			other, _ := s.Get(eq)
			assert.ElementsMatch(t, u.Children, other.Children)
			assert.ElementsMatch(t, s.Parents(u.Code), s.Parents(eq))
		}
	}
	require.NoError(t, CheckStore(s))
}

func TestFactMembers(t *testing.T) {
	e := load(t,
		rec("A", "", "", "", "P"),
		rec("B", "", "", "", "P"),
		rec("F1", "", "", "A", "H"),
		rec("F2", "", "", "F1", "H"),
	)

	assert.ErrorIs(t, e.AddFactMember("A", "B"), ErrKindMismatch)
	assert.ErrorIs(t, e.AddFactMember("F1", "F1"), ErrSelfReference)
	assert.ErrorIs(t, e.AddFactMember("F1", "A"), ErrDuplicate)
	assert.ErrorIs(t, e.AddFactMember("F2", "A"), ErrAlreadyMember)
	assert.ErrorIs(t, e.AddFactMember("F1", "F2"), ErrCycle)
	assert.ErrorIs(t, e.AddFactMember("F1", "Z"), ErrNotFound)

	require.NoError(t, e.AddFactMember("F1", "B"))
	u, _ := e.Unit("F1")
	assert.Equal(t, []string{"A", "B"}, u.Members)

	require.NoError(t, e.RemoveFactMember("F1", "A"))
	assert.ErrorIs(t, e.RemoveFactMember("F1", "A"), ErrNoRelation)
}

func TestAddUnit(t *testing.T) {
	e := New(Options{})

	require.NoError(t, e.AddUnit(UnitInput{Name: " U1 ", Kind: KindNegative, Phase: "Roman"}))
	u, err := e.Unit("U1")
	require.NoError(t, err)
	assert.Equal(t, KindNegative, u.Kind)
	assert.Equal(t, NewPhaseColor, e.Palette().Color("Roman"))

	assert.ErrorIs(t, e.AddUnit(UnitInput{Name: "U1", Kind: KindPositive}), ErrDuplicateName)
	assert.ErrorIs(t, e.AddUnit(UnitInput{Name: "a,b", Kind: KindPositive}), ErrInvalidName)
	assert.ErrorIs(t, e.AddUnit(UnitInput{Name: "  ", Kind: KindPositive}), ErrInvalidName)
	assert.ErrorIs(t, e.AddUnit(UnitInput{Name: "U2"}), ErrInvalidKind)
}

func TestEditUnitRenameCascades(t *testing.T) {
	e := load(t,
		rec("A", "X,Y", "", "", "P"),
		rec("B", "X,Y", "", "", "P"),
		rec("X", "", "Y", "", "P"),
		rec("Y", "", "X", "", "P"),
		rec("F", "", "", "X", "H"),
	)
	require.NoError(t, e.SetOpenFacts([]string{"F"}))
	require.NoError(t, e.EditUnit("X", UnitInput{Name: "Z", Kind: KindPositive, Description: "renamed"}))

	_, err := e.Unit("X")
	assert.ErrorIs(t, err, ErrNotFound)
	z, err := e.Unit("Z")
	require.NoError(t, err)
	assert.Equal(t, "Z", z.Name)
	assert.Equal(t, "renamed", z.Description)

	for _, u := range e.Units() {
		for _, list := range [][]string{u.Children, u.Equivalences, u.Members} {
			assert.NotContains(t, list, "X", "dangling reference in %s", u.Code)
		}
	}
	assert.Equal(t, []string{"Z", "Y"}, children(t, e, "A"))
	assert.Equal(t, []string{"Z"}, equivalences(t, e, "Y"))
	assert.Equal(t, []string{"A", "B", "Z", "Y", "F"}, e.Store().Codes(), "position is kept")

	require.NoError(t, e.EditUnit("F", UnitInput{Name: "Fact", Kind: KindFact}))
	assert.Equal(t, []string{"Fact"}, e.OpenFacts(), "open set follows renames")
}

func TestEditUnitKindChangeClearsRelations(t *testing.T) {
	e := load(t,
		rec("A", "B", "", "", "P"),
		rec("B", "", "", "", "P"),
		rec("F", "", "", "B", "H"),
	)
	require.NoError(t, e.SetOpenFacts([]string{"F"}))

	// Positive to negative keeps relations.
	require.NoError(t, e.EditUnit("A", UnitInput{Name: "A", Kind: KindNegative}))
	assert.Equal(t, []string{"B"}, children(t, e, "A"))

	// Structural to fact strips B everywhere.
	require.NoError(t, e.EditUnit("B", UnitInput{Name: "B", Kind: KindFact}))
	assert.Empty(t, children(t, e, "A"))
	f, _ := e.Unit("F")
	assert.Empty(t, f.Members)

	// Fact to structural clears members and closes it.
	require.NoError(t, e.AddFactMember("F", "A"))
	require.NoError(t, e.EditUnit("F", UnitInput{Name: "F", Kind: KindPositive}))
	f, _ = e.Unit("F")
	assert.Empty(t, f.Members)
	assert.Empty(t, e.OpenFacts())
	require.NoError(t, CheckStore(e.Store()))
}

func TestDeleteUnitStripsReferences(t *testing.T) {
	e := load(t,
		rec("A", "B", "", "", "P"),
		rec("B", "", "", "", "N"),
		rec("F", "", "", "B", "H"),
	)
	require.NoError(t, e.DeleteUnit("B"))

	assert.Empty(t, children(t, e, "A"))
	f, _ := e.Unit("F")
	assert.Empty(t, f.Members)
	assert.ErrorIs(t, e.DeleteUnit("B"), ErrNotFound)
}

func TestDeleteUnitsIsOneUndoStep(t *testing.T) {
	e := load(t, rec("A", "B", "", "", "P"), rec("B", "C", "", "", "P"), rec("C", "", "", "", "P"))
	before := e.Store().Clone()

	// An unknown code rejects the whole batch.
	assert.ErrorIs(t, e.DeleteUnits("A", "nope"), ErrNotFound)
	assert.True(t, before.Equal(e.Store()))

	require.NoError(t, e.DeleteUnits("A", "C"))
	assert.Equal(t, []string{"B"}, e.Store().Codes())
	assert.Empty(t, children(t, e, "B"))

	require.True(t, e.Undo())
	assert.True(t, before.Equal(e.Store()))
}

func TestDeleteUnitsIgnoresRepeatedCodes(t *testing.T) {
	e := load(t, rec("A", "B", "", "", "P"), rec("B", "", "", "", "P"))

	require.NoError(t, e.DeleteUnits("B", "B"))
	assert.Equal(t, []string{"A"}, e.Store().Codes())
	assert.Empty(t, children(t, e, "A"))
}

func TestUndoRedoRoundTrip(t *testing.T) {
	e := load(t,
		rec("A", "", "", "", "P"),
		rec("B", "", "", "", "P"),
		rec("C", "", "", "", "P"),
		rec("F", "", "", "", "H"),
	)
	steps := []func() error{
		func() error { return e.AddRelation("A", "B") },
		func() error { return e.AddRelation("A", "C") },
		func() error { return e.AddEquivalence("B", "C") },
		func() error { return e.AddFactMember("F", "B") },
		func() error { return e.EditUnit("C", UnitInput{Name: "C2", Kind: KindNegative}) },
		func() error { return e.AddUnit(UnitInput{Name: "D", Kind: KindPositive}) },
		func() error { return e.DeleteUnit("A") },
	}

	states := []*Store{e.Store().Clone()}
	for i, step := range steps {
		require.NoError(t, step(), "step %d", i)
		states = append(states, e.Store().Clone())
	}

	for i := len(steps) - 1; i >= 0; i-- {
		require.True(t, e.Undo())
		assert.True(t, states[i].Equal(e.Store()), "after undo to %d", i)
	}
	for i := 1; i <= len(steps); i++ {
		require.True(t, e.Redo())
		assert.True(t, states[i].Equal(e.Store()), "after redo to %d", i)
	}
	assert.False(t, e.Redo())
}

func TestUndoRedoOnEmptyStacks(t *testing.T) {
	e := New(Options{})
	rev := e.Revision()
	assert.False(t, e.Undo())
	assert.False(t, e.Redo())
	assert.Equal(t, rev, e.Revision())
}

func TestNewCommandClearsRedo(t *testing.T) {
	e := New(Options{})
	require.NoError(t, e.AddUnit(UnitInput{Name: "A", Kind: KindPositive}))
	require.True(t, e.Undo())
	require.True(t, e.History().CanRedo())

	require.NoError(t, e.AddUnit(UnitInput{Name: "B", Kind: KindPositive}))
	assert.False(t, e.History().CanRedo())
}

func TestHistoryLimit(t *testing.T) {
	e := New(Options{HistoryLimit: 2})
	for _, name := range []string{"A", "B", "C"} {
		require.NoError(t, e.AddUnit(UnitInput{Name: name, Kind: KindPositive}))
	}
	undo, _ := e.History().Depth()
	assert.Equal(t, 2, undo)

	require.True(t, e.Undo())
	require.True(t, e.Undo())
	assert.False(t, e.Undo())
	assert.True(t, e.Store().Has("A"), "oldest snapshot was dropped")
}

func TestImportFailureLeavesStoreUnchanged(t *testing.T) {
	e := load(t, rec("A", "", "", "", "P"))
	before := e.Store().Clone()
	rev := e.Revision()

	err := e.Import(tableOf(rec("A", "B", "", "", "P"), rec("B", "A", "", "", "P")))
	var v *ValidationError
	require.True(t, errors.As(err, &v))
	assert.Equal(t, RuleCycle, v.Rule)

	assert.True(t, before.Equal(e.Store()))
	assert.Equal(t, rev, e.Revision())
}

func TestImportResetsOpenFactsAndIsUndoable(t *testing.T) {
	e := load(t, rec("A", "", "", "", "P"), rec("F", "", "", "A", "H"))
	require.NoError(t, e.SetOpenFacts([]string{"F"}))

	require.NoError(t, e.Import(tableOf(rec("B", "", "", "", "P"))))
	assert.Empty(t, e.OpenFacts())
	assert.Equal(t, []string{"B"}, e.Store().Codes())

	require.True(t, e.Undo())
	assert.Equal(t, []string{"A", "F"}, e.Store().Codes())
}

func TestDirtyTracking(t *testing.T) {
	e := load(t, rec("A", "", "", "", "P"))
	assert.False(t, e.Dirty())

	require.NoError(t, e.AddUnit(UnitInput{Name: "B", Kind: KindPositive}))
	assert.True(t, e.Dirty())

	e.MarkSaved()
	assert.False(t, e.Dirty())

	require.NoError(t, e.SetOpenFacts(nil))
	assert.False(t, e.Dirty(), "view state is not data")

	e.NewDataset()
	assert.False(t, e.Dirty())
	assert.Equal(t, []string{"T", "Unexcavated", "G"}, e.Store().Codes())
}

func TestSetOpenFacts(t *testing.T) {
	e := load(t, rec("A", "", "", "", "P"), rec("F", "", "", "A", "H"))

	assert.ErrorIs(t, e.SetOpenFacts([]string{"A"}), ErrKindMismatch)
	assert.ErrorIs(t, e.SetOpenFacts([]string{"Z"}), ErrNotFound)

	require.NoError(t, e.SetOpenFacts([]string{"F", "F"}))
	assert.Equal(t, []string{"F"}, e.OpenFacts())

	require.NoError(t, e.DeleteUnit("F"))
	assert.Empty(t, e.OpenFacts())
}

func TestSetPhaseColor(t *testing.T) {
	e := load(t, []string{"A", "", "", "", "P", "Roman", ""})
	assert.Equal(t, DefaultPhaseColor, e.Palette().Color("Roman"))

	require.NoError(t, e.SetPhaseColor("Roman", "#ff0000"))
	assert.Equal(t, "#FF0000", e.Palette().Color("Roman"))
	assert.Error(t, e.SetPhaseColor("Roman", "red"))

	require.True(t, e.Undo())
	assert.Equal(t, DefaultPhaseColor, e.Palette().Color("Roman"))
}

func TestRestore(t *testing.T) {
	e := New(Options{})
	units := []*Unit{
		{Code: "A", Name: "A", Kind: KindPositive, Children: []string{"B"}},
		{Code: "B", Name: "B", Kind: KindNegative},
		{Code: "F", Name: "F", Kind: KindFact, Members: []string{"A"}},
	}
	require.NoError(t, e.Restore(units, Palette{"I": "#112233"}, []string{"F", "A"}))
	assert.Equal(t, []string{"A", "B", "F"}, e.Store().Codes())
	assert.Equal(t, []string{"F"}, e.OpenFacts())
	assert.False(t, e.History().CanUndo())

	bad := []*Unit{{Code: "A", Name: "A", Kind: KindPositive, Children: []string{"A"}}}
	assert.Error(t, e.Restore(bad, nil, nil))
	assert.Equal(t, []string{"A", "B", "F"}, e.Store().Codes())
}
