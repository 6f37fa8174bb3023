// Package poem defines the structured form of a scraped poem: its metadata,
// its stanzas of lines, and the regrouping of visual stanzas into logical ones.
//
// A Poem is built once per document and is read-only afterward; nothing in this
// package mutates its inputs, so poems can be processed concurrently.
package poem

// NoRhyme is the reserved formula symbol (Cyrillic "х") marking a line
// that has no rhyme partner.
const NoRhyme = 'х'

// Formula is a rhyme scheme, one symbol per stanza line.
// Equal symbols (other than NoRhyme) mark lines meant to rhyme.
type Formula []rune

// ParseFormula converts a compact scheme such as "AbAb" into a Formula.
func ParseFormula(s string) Formula {
	return Formula([]rune(s))
}

// Len returns the number of lines in a logical stanza.
func (f Formula) Len() int {
	return len(f)
}

// String returns the scheme in its compact form.
func (f Formula) String() string {
	return string(f)
}

// Metadata describes a poem as annotated by the corpus.
type Metadata struct {
	Author         string
	CreationDate   string
	Formula        Formula
	CompositeRhyme bool // rhymes may be realized by multi-word phrases
	StanzaLen      int  // nominal stanza length; 0 when unknown
}

// Line is the sequence of word tokens on one visual source line. It may be empty.
type Line []string

// Ending returns the last token of the line, if any.
func (l Line) Ending() (string, bool) {
	if len(l) == 0 {
		return "", false
	}
	return l[len(l)-1], true
}

// Stanza is an ordered group of lines.
type Stanza []Line

// Endings returns the last token of every non-empty line, in order.
// Empty lines contribute nothing, so the result can be shorter than the stanza.
func (s Stanza) Endings() []string {
	endings := make([]string, 0, len(s))
	for _, line := range s {
		if word, ok := line.Ending(); ok {
			endings = append(endings, word)
		}
	}
	return endings
}

// Poem is a parsed document: metadata plus logical stanzas.
type Poem struct {
	Metadata Metadata
	Stanzas  []Stanza
}
