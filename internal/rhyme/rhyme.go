// Package rhyme finds the rhyme partners of a word inside a parsed poem.
//
// Partners are located purely by position: every line ending equal to the
// query word is mapped onto the poem's rhyme formula, and the lines sharing
// its formula symbol within the same stanza are its partners. Short partners
// may be grown into multi-word composite rhymes by prepending the words that
// precede them on their line.
//
// Extract is pure and deterministic; it never fails, it only finds less.
package rhyme

import (
	"log/slog"
	"strings"

	"github.com/chriscorrea/rusrime/internal/counter"
	"github.com/chriscorrea/rusrime/internal/poem"
)

// BoundWord is a rhyme-partner candidate within a stanza.
type BoundWord struct {
	Word      string
	LineIndex int // position in the stanza's ending sequence
}

// Extract returns the distinct rhymes of query found in p, in the order they
// were first found.
func Extract(query string, p *poem.Poem) []string {
	if p == nil || p.Metadata.Formula.Len() == 0 {
		return nil
	}

	syllables := counter.NewCounter(counter.Syllables)
	chars := counter.NewCounter(counter.Characters)
	seen := make(map[string]struct{})
	var rhymes []string

	for _, stanza := range p.Stanzas {
		for _, candidate := range stanzaRhymes(query, stanza, p.Metadata, syllables, chars) {
			if _, dup := seen[candidate]; dup {
				continue
			}
			seen[candidate] = struct{}{}
			rhymes = append(rhymes, candidate)
		}
	}

	slog.Debug("Rhymes extracted", "query", query, "author", p.Metadata.Author, "count", len(rhymes))
	return rhymes
}

// stanzaRhymes resolves the partners of every occurrence of query among the
// stanza's line endings.
func stanzaRhymes(query string, stanza poem.Stanza, md poem.Metadata, syllables, chars counter.Counter) []string {
	formula := md.Formula
	endings := stanza.Endings()

	var found []string
	for i, ending := range endings {
		if !strings.EqualFold(ending, query) {
			continue
		}

		m := i % formula.Len()
		symbol := formula[m]
		if symbol == poem.NoRhyme {
			continue
		}

		for j, s := range formula {
			if s != symbol || j == m {
				continue
			}

			bw, ok := findBoundWord(endings, i, m, j)
			if !ok {
				continue
			}

			word := bw.Word
			if shouldCompose(query, word, md.CompositeRhyme, syllables, chars) {
				word = composeRhyme(query, word, stanza[bw.LineIndex], syllables)
			}
			found = append(found, word)
		}
	}

	return found
}

// findBoundWord locates the ending at formula position j of the logical stanza
// holding occurrence i (whose formula position is m). It fails when the index
// falls outside the endings, as it does on a short final stanza, or when the
// partner is the occurrence's own word.
func findBoundWord(endings []string, i, m, j int) (BoundWord, bool) {
	target := i - m + j
	if target < 0 || target >= len(endings) {
		return BoundWord{}, false
	}

	bound := endings[target]
	if strings.EqualFold(bound, endings[i]) {
		return BoundWord{}, false
	}

	return BoundWord{Word: strings.ToLower(bound), LineIndex: target}, true
}

// shouldCompose reports whether a partner is too short to stand alone: it has
// no vowels, is a single letter, or (for poems flagged with composite rhymes)
// is at least two syllables shorter than the query.
func shouldCompose(query, bound string, composite bool, syllables, chars counter.Counter) bool {
	boundSyllables := syllables.Count(bound)

	return boundSyllables == 0 ||
		chars.Count(bound) == 1 ||
		(composite && syllables.Count(query)-boundSyllables >= 2)
}

// composeRhyme prepends the words preceding the line's last token, nearest
// first, until the phrase has as many syllables as the query or the line runs out.
func composeRhyme(query, bound string, line poem.Line, syllables counter.Counter) string {
	target := syllables.Count(query)
	phrase := bound

	for k := len(line) - 2; k >= 0; k-- {
		phrase = line[k] + " " + phrase
		if syllables.Count(phrase) >= target {
			break
		}
	}

	return phrase
}
