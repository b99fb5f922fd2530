package matrix

import (
	"strings"
)

// Column names of the tabular schema.
const (
	ColName         = "Name"
	ColChildren     = "Children"
	ColEquivalences = "Equivalences"
	ColFact         = "Fact"
	ColKind         = "Kind"
	ColPhase        = "Phase"
	ColDescription  = "Description"

	// ColCode is derived internally and must not appear in input.
	ColCode = "Code"
)

// Columns is the required schema in export order.
var Columns = []string{ColName, ColChildren, ColEquivalences, ColFact, ColKind, ColPhase, ColDescription}

// ListSeparator separates codes inside a list cell.
const ListSeparator = ","

// Table is a raw tabular dataset: a header row and data rows of trimmed
// cells. Rows shorter than the header are padded with empty cells when read.
type Table struct {
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

// Record is one data row mapped onto the schema columns.
type Record struct {
	Name         string
	Children     []string
	Equivalences []string
	Members      []string
	Kind         string
	Phase        string
	Description  string
}

// SplitList splits a list cell into trimmed, non-empty items.
func SplitList(cell string) []string {
	var out []string
	for _, part := range strings.Split(cell, ListSeparator) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// JoinList is the inverse of SplitList.
func JoinList(items []string) string {
	return strings.Join(items, ListSeparator)
}

// columnIndex maps header names to positions. It assumes the header has
// already been checked for duplicates.
func columnIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}
	return idx
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// records maps every row onto the schema columns.
func (t Table) records() []Record {
	idx := columnIndex(t.Header)
	get := func(row []string, col string) string {
		i, ok := idx[col]
		if !ok {
			return ""
		}
		return cell(row, i)
	}
	out := make([]Record, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = Record{
			Name:         get(row, ColName),
			Children:     SplitList(get(row, ColChildren)),
			Equivalences: SplitList(get(row, ColEquivalences)),
			Members:      SplitList(get(row, ColFact)),
			Kind:         get(row, ColKind),
			Phase:        get(row, ColPhase),
			Description:  get(row, ColDescription),
		}
	}
	return out
}

// row renders a unit in schema column order. Codes equal names, so relation
// fields are written as is.
func row(u *Unit) []string {
	return []string{
		u.Name,
		JoinList(u.Children),
		JoinList(u.Equivalences),
		JoinList(u.Members),
		u.Kind.Code(),
		u.Phase,
		u.Description,
	}
}

// TableFromStore renders the whole store in schema form.
func TableFromStore(s *Store) Table {
	t := Table{Header: cloneList(Columns)}
	for _, u := range s.Units() {
		t.Rows = append(t.Rows, row(u))
	}
	return t
}
