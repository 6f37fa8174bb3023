package rhyme

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chriscorrea/rusrime/internal/counter"
	"github.com/chriscorrea/rusrime/internal/poem"
)

func newPoem(formula string, composite bool, stanzas ...poem.Stanza) *poem.Poem {
	return &poem.Poem{
		Metadata: poem.Metadata{
			Author:         "test",
			Formula:        poem.ParseFormula(formula),
			CompositeRhyme: composite,
		},
		Stanzas: stanzas,
	}
}

func TestExtract(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		poem     *poem.Poem
		expected []string
	}{
		{
			name:     "cross rhyme",
			query:    "кошка",
			poem:     newPoem("ABAB", false, poem.Stanza{{"кошка"}, {"стол"}, {"мошка"}, {"пол"}}),
			expected: []string{"мошка"},
		},
		{
			name:     "occurrence on the second line of its pair",
			query:    "пол",
			poem:     newPoem("ABAB", false, poem.Stanza{{"кошка"}, {"стол"}, {"мошка"}, {"пол"}}),
			expected: []string{"стол"},
		},
		{
			name:     "no-rhyme line contributes nothing",
			query:    "кошка",
			poem:     newPoem("AAхB", false, poem.Stanza{{"рука"}, {"река"}, {"кошка"}, {"дом"}}),
			expected: nil,
		},
		{
			name:     "three-line rhyme group",
			query:    "рука",
			poem:     newPoem("AAbA", false, poem.Stanza{{"рука"}, {"река"}, {"дом"}, {"строка"}}),
			expected: []string{"река", "строка"},
		},
		{
			name:     "query matched case-insensitively, candidate lower-cased",
			query:    "Кошка",
			poem:     newPoem("AA", false, poem.Stanza{{"кошка"}, {"Мошка"}}),
			expected: []string{"мошка"},
		},
		{
			name:     "self match skipped",
			query:    "кошка",
			poem:     newPoem("AA", false, poem.Stanza{{"кошка"}, {"КОШКА"}}),
			expected: nil,
		},
		{
			name:     "short final stanza fails closed",
			query:    "кошка",
			poem:     newPoem("ABAB", false, poem.Stanza{{"кошка"}, {"стол"}}),
			expected: nil,
		},
		{
			name:  "duplicates across stanzas collapse in first-found order",
			query: "кошка",
			poem: newPoem("AABB", false,
				poem.Stanza{{"кошка"}, {"мошка"}, {"дом"}, {"ком"}},
				poem.Stanza{{"ложка"}, {"кошка"}, {"сад"}, {"рад"}},
				poem.Stanza{{"кошка"}, {"мошка"}, {"лес"}, {"вес"}},
			),
			expected: []string{"мошка", "ложка"},
		},
		{
			name:     "longer stanza treated as consecutive formula periods",
			query:    "кошка",
			poem:     newPoem("AA", false, poem.Stanza{{"дом"}, {"ком"}, {"кошка"}, {"ложка"}}),
			expected: []string{"ложка"},
		},
		{
			name:     "query absent",
			query:    "кошка",
			poem:     newPoem("ABAB", false, poem.Stanza{{"рука"}, {"стол"}, {"река"}, {"пол"}}),
			expected: nil,
		},
		{
			name:     "query inside a line is not an ending",
			query:    "кошка",
			poem:     newPoem("AA", false, poem.Stanza{{"кошка", "спит"}, {"кит"}}),
			expected: nil,
		},
		{
			name:     "composite rhyme expanded",
			query:    "перепелка",
			poem:     newPoem("AA", true, poem.Stanza{{"перепелка"}, {"в", "тиши"}}),
			expected: []string{"в тиши"},
		},
		{
			name:     "expansion stops once syllables suffice",
			query:    "переправа",
			poem:     newPoem("AA", true, poem.Stanza{{"переправа"}, {"там", "на", "берегу", "за", "ней", "слава"}}),
			expected: []string{"за ней слава"},
		},
		{
			name:     "large gap without composite flag keeps the single word",
			query:    "перепелка",
			poem:     newPoem("AA", false, poem.Stanza{{"перепелка"}, {"в", "тиши"}}),
			expected: []string{"тиши"},
		},
		{
			name:     "single letter always expanded",
			query:    "змея",
			poem:     newPoem("AA", false, poem.Stanza{{"змея"}, {"и", "ты", "и", "я"}}),
			expected: []string{"и я"},
		},
		{
			name:     "vowelless partner always expanded",
			query:    "бор",
			poem:     newPoem("AA", false, poem.Stanza{{"бор"}, {"ой", "брр"}}),
			expected: []string{"ой брр"},
		},
		{
			name:     "expansion of a one-word line leaves the partner alone",
			query:    "перепелка",
			poem:     newPoem("AA", true, poem.Stanza{{"перепелка"}, {"тиши"}}),
			expected: []string{"тиши"},
		},
		{
			name:     "nil poem",
			query:    "кошка",
			poem:     nil,
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Extract(tt.query, tt.poem))
		})
	}
}

func TestExtract_NoRhymeSymbolNeverYieldsCandidates(t *testing.T) {
	formulas := []string{"хх", "AхAх", "хAхA", "AAхBBх"}

	for _, f := range formulas {
		formula := poem.ParseFormula(f)
		stanza := make(poem.Stanza, formula.Len())
		for i := range stanza {
			stanza[i] = poem.Line{"слово" + strings.Repeat("а", i)}
		}

		for i, symbol := range formula {
			if symbol != poem.NoRhyme {
				continue
			}
			// put the query on the no-rhyme line only
			s := make(poem.Stanza, len(stanza))
			copy(s, stanza)
			s[i] = poem.Line{"кошка"}

			assert.Empty(t, Extract("кошка", newPoem(f, true, s)), "formula %s, line %d", f, i)
		}
	}
}

func TestExtract_NeverReturnsQuery(t *testing.T) {
	p := newPoem("ABAB", true,
		poem.Stanza{{"кошка"}, {"КОШКА"}, {"Кошка"}, {"мошка"}},
		poem.Stanza{{"кошка"}, {"стол"}, {"кошКа"}, {"пол"}},
	)

	for _, r := range Extract("кошка", p) {
		assert.False(t, strings.EqualFold(r, "кошка"), "got %q", r)
	}
}

func TestExtract_Deterministic(t *testing.T) {
	p := newPoem("AABB", true,
		poem.Stanza{{"кошка"}, {"в", "мошка"}, {"дом"}, {"ком"}},
		poem.Stanza{{"ложка"}, {"кошка"}, {"сад"}, {"рад"}},
	)

	first := Extract("кошка", p)
	for range 5 {
		assert.Equal(t, first, Extract("кошка", p))
	}
}

// Empty lines produce no ending, so later endings shift relative to the
// formula. This is the long-standing matching behavior and is kept as is.
func TestExtract_BlankLineShiftsIndices(t *testing.T) {
	// formula lines: 0 A кошка, 1 B (blank in the source), 2 A мошка, 3 B пол
	p := newPoem("ABAB", false, poem.Stanza{{"кошка"}, {}, {"мошка"}, {"пол"}})

	assert.Equal(t, []string{"пол"}, Extract("кошка", p))
}

func TestFindBoundWord(t *testing.T) {
	endings := []string{"кошка", "стол", "мошка", "пол"}

	bw, ok := findBoundWord(endings, 0, 0, 2)
	assert.True(t, ok)
	assert.Equal(t, BoundWord{Word: "мошка", LineIndex: 2}, bw)

	_, ok = findBoundWord(endings, 2, 2, 4)
	assert.False(t, ok, "index past the endings")

	_, ok = findBoundWord([]string{"кошка", "Кошка"}, 0, 0, 1)
	assert.False(t, ok, "self match")
}

type fixedCounter int

func (c fixedCounter) Count(string) int { return int(c) }
func (fixedCounter) Name() string { return "fixed" }

func TestShouldCompose(t *testing.T) {
	syllables := counter.NewSyllableCounter()
	chars := counter.NewCharCounter()

	tests := []struct {
		name      string
		query     string
		bound     string
		composite bool
		expected  bool
	}{
		{"equal length", "кошка", "мошка", true, false},
		{"gap of two with composite", "перепелка", "тиши", true, true},
		{"gap of two without composite", "перепелка", "тиши", false, false},
		{"gap of one with composite", "кошка", "кот", true, false},
		{"single letter", "змея", "я", false, true},
		{"no vowels", "бор", "брр", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, shouldCompose(tt.query, tt.bound, tt.composite, syllables, chars))
		})
	}

	t.Run("length comes from the given counter", func(t *testing.T) {
		assert.True(t, shouldCompose("кошка", "мошка", false, syllables, fixedCounter(1)))
		assert.False(t, shouldCompose("змея", "я", false, syllables, fixedCounter(2)))
	})
}
