package matrix

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

const (
	// NewPhaseColor is given to phases first seen through an edit.
	NewPhaseColor = "#0000FF"

	// DefaultPhaseColor is given to phases loaded by an import and returned
	// for phases without an entry.
	DefaultPhaseColor = "#0080FF"
)

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Palette maps phase labels to display colors.
type Palette map[string]string

// Clone returns a copy.
func (p Palette) Clone() Palette {
	c := make(Palette, len(p))
	for k, v := range p {
		c[k] = v
	}
	return c
}

// Color returns the color of phase, or DefaultPhaseColor.
func (p Palette) Color(phase string) string {
	if c, ok := p[phase]; ok {
		return c
	}
	return DefaultPhaseColor
}

// Phases lists the labels in lexical order.
func (p Palette) Phases() []string {
	out := make([]string, 0, len(p))
	for k := range p {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ensure adds phase with color when it has no entry yet.
func (p Palette) ensure(phase, color string) {
	if phase == "" {
		return
	}
	if _, ok := p[phase]; !ok {
		p[phase] = color
	}
}

// NormalizeColor validates a #RRGGBB color and returns it upper-cased.
func NormalizeColor(color string) (string, error) {
	color = strings.TrimSpace(color)
	if !hexColor.MatchString(color) {
		return "", fmt.Errorf("%w: %q must have the form #RRGGBB", ErrInvalidColor, color)
	}
	return strings.ToUpper(color), nil
}

// paletteFor builds the palette an import starts from.
func paletteFor(s *Store) Palette {
	p := make(Palette)
	for _, phase := range s.Phases() {
		p[phase] = DefaultPhaseColor
	}
	return p
}
