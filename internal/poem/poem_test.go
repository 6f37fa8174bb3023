package poem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormula(t *testing.T) {
	f := ParseFormula("AbхB")

	assert.Equal(t, 4, f.Len())
	assert.Equal(t, NoRhyme, f[2])
	assert.Equal(t, "AbхB", f.String())
}

func TestStanzaEndings(t *testing.T) {
	tests := []struct {
		name     string
		stanza   Stanza
		expected []string
	}{
		{"empty stanza", Stanza{}, []string{}},
		{"single word lines", Stanza{{"кошка"}, {"стол"}}, []string{"кошка", "стол"}},
		{"last token wins", Stanza{{"в", "тиши"}, {"на", "столе", "стоит"}}, []string{"тиши", "стоит"}},
		{"empty lines skipped", Stanza{{"раз"}, {}, {"два"}}, []string{"раз", "два"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.stanza.Endings())
		})
	}
}

func lines(n int) Stanza {
	s := make(Stanza, n)
	for i := range s {
		s[i] = Line{"слово"}
	}
	return s
}

func groupSizes(groups []Stanza) []int {
	sizes := make([]int, len(groups))
	for i, g := range groups {
		sizes[i] = len(g)
	}
	return sizes
}

func TestCompose(t *testing.T) {
	tests := []struct {
		name     string
		visual   []int
		formula  string
		expected []int
	}{
		{"aligned quatrains", []int{4, 4, 4}, "ABAB", []int{4, 4, 4}},
		{"split by pagination", []int{2, 2, 4}, "ABAB", []int{4, 4}},
		{"short final stanza", []int{4, 4, 2}, "ABAB", []int{4, 4, 2}},
		{"misaligned fragments merge whole", []int{3, 3, 2}, "ABAB", []int{6, 2}},
		{"oversized visual stanza kept whole", []int{6, 2}, "ABAB", []int{6, 2}},
		{"short group absorbs an overshooting stanza", []int{2, 5, 4}, "ABAB", []int{7, 4}},
		{"couplets", []int{1, 1, 1, 1, 1}, "AA", []int{2, 2, 1}},
		{"no stanzas", nil, "ABAB", []int{0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var visual []Stanza
			for _, n := range tt.visual {
				visual = append(visual, lines(n))
			}

			groups := Compose(visual, ParseFormula(tt.formula))
			assert.Equal(t, tt.expected, groupSizes(groups))
		})
	}
}

// Visual stanzas are merged but never split, so a non-final group can be
// longer than the formula when a visual stanza overshoots the target. Every
// group still starts on a visual stanza boundary.
func TestCompose_GroupsStartOnVisualBoundaries(t *testing.T) {
	formula := ParseFormula("AABBC")
	visual := []Stanza{lines(1), lines(7), lines(2), lines(5), lines(3), lines(11), lines(1)}

	groups := Compose(visual, formula)
	require.NotEmpty(t, groups)
	assert.Equal(t, []int{8, 7, 14, 1}, groupSizes(groups))

	total := 0
	for _, g := range groups {
		total += len(g)
	}
	assert.Equal(t, 30, total, "no lines lost or duplicated")
}

func TestCompose_DoesNotAliasInput(t *testing.T) {
	first := Stanza{{"а"}, {"б"}}
	second := Stanza{{"в"}, {"г"}}

	groups := Compose([]Stanza{first, second}, ParseFormula("AB"))
	require.Len(t, groups, 2)

	groups[0][0] = Line{"изменено"}
	groups[1][0] = Line{"изменено"}
	assert.Equal(t, Line{"а"}, first[0])
	assert.Equal(t, Line{"в"}, second[0])
}
