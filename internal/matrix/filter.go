package matrix

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Filter selects units by matching search terms against column values.
// The zero Filter matches every unit.
type Filter struct {
	// Terms is a comma separated list; a unit passes if any term matches.
	Terms string `json:"terms"`
	// Columns restricts matching to these schema columns (or Code). Empty
	// means all of them.
	Columns []string `json:"columns,omitempty"`
	// CaseSensitive disables case folding.
	CaseSensitive bool `json:"case_sensitive,omitempty"`
	// DiacriticSensitive disables diacritic stripping.
	DiacriticSensitive bool `json:"diacritic_sensitive,omitempty"`
	// FullWords requires a term to equal a whole column value instead of
	// being a substring of it.
	FullWords bool `json:"full_words,omitempty"`
}

var filterColumns = append([]string{ColCode}, Columns...)

// Empty reports whether the filter has no terms.
func (f Filter) Empty() bool {
	return strings.TrimSpace(f.Terms) == ""
}

// Validate rejects unknown column names.
func (f Filter) Validate() error {
	for _, c := range f.Columns {
		if !contains(filterColumns, c) {
			return fmt.Errorf("%w: unknown column %q", ErrInvalidFilter, c)
		}
	}
	return nil
}

// Matcher is a compiled Filter.
type Matcher struct {
	f     Filter
	terms []string
	cols  []string
	fold  cases.Caser
}

// Compile prepares the filter for repeated matching.
func (f Filter) Compile() (*Matcher, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	m := &Matcher{f: f, cols: f.Columns, fold: cases.Fold()}
	if len(m.cols) == 0 {
		m.cols = filterColumns
	}
	for _, t := range strings.Split(f.Terms, ListSeparator) {
		if t = strings.TrimSpace(t); t != "" {
			m.terms = append(m.terms, m.normalize(t))
		}
	}
	return m, nil
}

func (m *Matcher) normalize(s string) string {
	if !m.f.CaseSensitive {
		s = m.fold.String(s)
	}
	if !m.f.DiacriticSensitive {
		s = stripDiacritics(s)
	}
	return s
}

// Match reports whether u passes the filter.
func (m *Matcher) Match(u *Unit) bool {
	if m == nil || len(m.terms) == 0 {
		return true
	}
	for _, col := range m.cols {
		value := m.normalize(strings.TrimSpace(columnValue(u, col)))
		for _, t := range m.terms {
			if m.f.FullWords {
				if value == t {
					return true
				}
			} else if strings.Contains(value, t) {
				return true
			}
		}
	}
	return false
}

func columnValue(u *Unit, col string) string {
	switch col {
	case ColCode:
		return u.Code
	case ColName:
		return u.Name
	case ColChildren:
		return JoinList(u.Children)
	case ColEquivalences:
		return JoinList(u.Equivalences)
	case ColFact:
		return JoinList(u.Members)
	case ColKind:
		return u.Kind.Code()
	case ColPhase:
		return u.Phase
	case ColDescription:
		return u.Description
	default:
		return ""
	}
}

// stripDiacritics decomposes s and drops combining marks.
func stripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
