package matrix

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// rec builds a data row with empty phase and description.
func rec(name, children, equivalences, fact, kind string) []string {
	return []string{name, children, equivalences, fact, kind, "", ""}
}

func tableOf(rows ...[]string) Table {
	return Table{Header: cloneList(Columns), Rows: rows}
}

// load returns an engine holding the given rows.
func load(t *testing.T, rows ...[]string) *Engine {
	t.Helper()
	e := New(Options{})
	require.NoError(t, e.Import(tableOf(rows...)))
	return e
}

func children(t *testing.T, e *Engine, code string) []string {
	t.Helper()
	u, err := e.Unit(code)
	require.NoError(t, err)
	return u.Children
}

func equivalences(t *testing.T, e *Engine, code string) []string {
	t.Helper()
	u, err := e.Unit(code)
	require.NoError(t, err)
	return u.Equivalences
}
