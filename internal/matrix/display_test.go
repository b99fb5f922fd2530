package matrix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisplayGraphDefaultDataset(t *testing.T) {
	e := New(Options{})
	v, err := e.DisplayGraph(ViewOptions{})
	require.NoError(t, err)

	assert.Equal(t, []Edge{{"T", "Unexcavated"}, {"Unexcavated", "G"}}, v.Edges)
	assert.Equal(t, map[string]int{"T": 0, "Unexcavated": 1, "G": 2}, v.Levels)
	require.Len(t, v.Nodes, 3)
	assert.Equal(t, DefaultPhaseColor, v.Nodes[0].Color)
	assert.Empty(t, v.NotDrawn)
}

func TestDisplayGraphRedundancy(t *testing.T) {
	e := load(t,
		rec("A", "B,C", "", "", "P"),
		rec("B", "C", "", "", "P"),
		rec("C", "", "", "", "P"),
		rec("Lonely", "", "", "", "N"),
	)

	reduced, err := e.DisplayGraph(ViewOptions{})
	require.NoError(t, err)
	assert.Equal(t, []Edge{{"A", "B"}, {"B", "C"}}, reduced.Edges)
	assert.Equal(t, []string{"Lonely"}, reduced.NotDrawn)
	assert.Empty(t, reduced.FilteredOut)

	full, err := e.DisplayGraph(ViewOptions{Redundancy: true})
	require.NoError(t, err)
	assert.Equal(t, []Edge{{"A", "B"}, {"A", "C"}, {"B", "C"}}, full.Edges)
	assert.True(t, full.Redundancy)
}

func TestDisplayGraphLevelStrategies(t *testing.T) {
	rows := [][]string{
		rec("A", "B,C", "", "", "P"),
		rec("B", "", "", "", "P"),
		rec("C", "B", "", "", "P"),
	}

	bfs := load(t, rows...)
	v, err := bfs.DisplayGraph(ViewOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, v.Levels["B"])
	assert.Equal(t, LevelsBFS, v.Strategy)

	longest := New(Options{LevelStrategy: LevelsLongest})
	require.NoError(t, longest.Import(tableOf(rows...)))
	v, err = longest.DisplayGraph(ViewOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, v.Levels["B"])
}

func TestDisplayGraphCollapsesOpenFacts(t *testing.T) {
	e := load(t,
		rec("A", "B", "", "", "P"),
		rec("B", "C", "", "", "P"),
		rec("C", "D,E", "", "", "P"),
		rec("D", "", "E", "", "P"),
		rec("E", "", "D", "", "P"),
		rec("F", "", "", "B,C", "H"),
	)

	closed, err := e.DisplayGraph(ViewOptions{})
	require.NoError(t, err)
	assert.Equal(t, []Edge{{"A", "B"}, {"B", "C"}, {"C", "D"}, {"C", "E"}}, closed.Edges)
	assert.Equal(t, []Edge{{"D", "E"}}, closed.Equivalences)
	assert.Equal(t, []Edge{{"F", "B"}, {"F", "C"}}, closed.Members)

	open, err := e.DisplayGraph(ViewOptions{Open: []string{"F"}})
	require.NoError(t, err)
	assert.Equal(t, []Edge{{"A", "F"}, {"F", "D"}, {"F", "E"}}, open.Edges)
	assert.Equal(t, []string{"F"}, open.Open)

	var codes []string
	for _, n := range open.Nodes {
		codes = append(codes, n.Code)
	}
	assert.Equal(t, []string{"A", "D", "E", "F"}, codes)
	assert.Empty(t, open.NotDrawn, "collapsed units are not reported")

	// The engine's open set is used when the view does not pass one.
	require.NoError(t, e.SetOpenFacts([]string{"F"}))
	dflt, err := e.DisplayGraph(ViewOptions{})
	require.NoError(t, err)
	assert.Equal(t, open.Edges, dflt.Edges)

	// An explicit empty set overrides it.
	none, err := e.DisplayGraph(ViewOptions{Open: []string{}})
	require.NoError(t, err)
	assert.Equal(t, closed.Edges, none.Edges)
}

func TestDisplayGraphFilterKeepsEdgesWithOneMatchingEnd(t *testing.T) {
	e := load(t,
		[]string{"A", "B", "", "", "P", "Roman", ""},
		[]string{"B", "C", "", "", "P", "Medieval", ""},
		[]string{"C", "", "", "", "P", "Modern", ""},
	)

	v, err := e.DisplayGraph(ViewOptions{Filter: Filter{Terms: "roman", Columns: []string{ColPhase}}})
	require.NoError(t, err)
	assert.Equal(t, []Edge{{"A", "B"}}, v.Edges)
	assert.Empty(t, v.NotDrawn, "C has a relation, so it is filtered out rather than undrawn")
	assert.Equal(t, []string{"C"}, v.FilteredOut)

	_, err = e.DisplayGraph(ViewOptions{Filter: Filter{Terms: "x", Columns: []string{"Colour"}}})
	assert.Error(t, err)
}

func TestMatrix(t *testing.T) {
	e := load(t,
		rec("A", "B,C", "", "", "P"),
		rec("B", "", "C", "", "P"),
		rec("C", "", "B", "", "P"),
	)
	v, err := e.DisplayGraph(ViewOptions{})
	require.NoError(t, err)

	m := v.Matrix()
	assert.Equal(t, []string{"A", "B", "C"}, m.Codes)
	assert.Equal(t, [][]int{
		{CellNone, CellRelation, CellRelation},
		{CellNone, CellNone, CellEquivalence},
		{CellNone, CellEquivalence, CellNone},
	}, m.Cells)
}

func TestFilteredExport(t *testing.T) {
	e := load(t,
		rec("A", "B", "", "", "P"),
		rec("B", "C", "", "", "P"),
		rec("C", "", "", "", "P"),
		rec("Lonely", "", "", "", "P"),
		rec("F", "", "", "B,C", "H"),
	)
	v, err := e.DisplayGraph(ViewOptions{Open: []string{"F"}})
	require.NoError(t, err)

	tbl := e.FilteredExport(v)
	assert.Equal(t, Columns, tbl.Header)

	got := map[string][]string{}
	for _, r := range tbl.Rows {
		got[r[0]] = r
	}
	assert.Len(t, got, 4, "Lonely is not visible")
	assert.Equal(t, "B", got["A"][1])
	// B -> C is hidden inside F, so it is not exported as a relation.
	assert.Equal(t, "", got["B"][1])
	assert.Equal(t, "B,C", got["F"][3])

	// The filtered table is itself importable.
	_, err = Validate(tbl, 10)
	require.NoError(t, err)
}

func TestExportMirrorsImport(t *testing.T) {
	rows := [][]string{
		{"A", "B", "", "", "P", "I", "top"},
		{"B", "", "", "", "N", "", ""},
		{"F", "", "", "A", "H", "", "group"},
	}
	e := load(t, rows...)
	tbl := e.Export()
	assert.Equal(t, Columns, tbl.Header)
	assert.Equal(t, rows, tbl.Rows)
}
