package matrix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterMatch(t *testing.T) {
	u := &Unit{Code: "US 12", Name: "US 12", Kind: KindPositive, Phase: "Époque romaine", Description: "Sol de béton"}

	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"empty filter", Filter{}, true},
		{"substring ignores case and accents", Filter{Terms: "ROMAINE"}, true},
		{"accent folding", Filter{Terms: "epoque"}, true},
		{"diacritic sensitive", Filter{Terms: "epoque", DiacriticSensitive: true}, false},
		{"case sensitive", Filter{Terms: "époque", CaseSensitive: true}, false},
		{"case sensitive exact", Filter{Terms: "Époque", CaseSensitive: true, DiacriticSensitive: true}, true},
		{"full words rejects substring", Filter{Terms: "romaine", FullWords: true}, false},
		{"full words accepts whole value", Filter{Terms: "epoque romaine", FullWords: true}, true},
		{"any term", Filter{Terms: "modern, beton"}, true},
		{"restricted columns", Filter{Terms: "beton", Columns: []string{ColPhase}}, false},
		{"code column", Filter{Terms: "us 1", Columns: []string{ColCode}}, true},
		{"kind column", Filter{Terms: "P", Columns: []string{ColKind}, FullWords: true}, true},
		{"blank terms", Filter{Terms: " , "}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := tt.filter.Compile()
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.Match(u))
		})
	}
}

func TestFilterUnknownColumn(t *testing.T) {
	_, err := Filter{Terms: "x", Columns: []string{"Colour"}}.Compile()
	assert.ErrorIs(t, err, ErrInvalidFilter)
	assert.True(t, Filter{Terms: "  "}.Empty())
}

func TestStripDiacritics(t *testing.T) {
	assert.Equal(t, "Ecole creee", stripDiacritics("École créée"))
	assert.Equal(t, "plain", stripDiacritics("plain"))
}
