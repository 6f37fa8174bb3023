package extract

import (
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/chriscorrea/rusrime/internal/config"
	"github.com/chriscorrea/rusrime/internal/poem"
)

// sourceLine is one visual line of poem markup.
type sourceLine struct {
	tokens    poem.Line
	separator bool
}

// numeric reports whether every token is a number. A line without tokens is
// vacuously numeric.
func (l sourceLine) numeric() bool {
	for _, token := range l.tokens {
		if !isNumber(token) {
			return false
		}
	}
	return true
}

// ParseLines splits poem markup into visual stanzas.
//
// Lines carrying the separator class close the stanza in progress, except on
// the first line of the document, where the separator opens the first stanza.
// Separator lines made only of numbers are pagination artifacts and are
// dropped. Every emitted stanza has its stanza-number header removed.
// stanzaLen is the nominal stanza length, 0 when unknown.
func ParseLines(markup string, stanzaLen int, sel config.Selectors) []poem.Stanza {
	var (
		stanzas []poem.Stanza
		buf     poem.Stanza
	)

	for i, line := range sourceLines(markup, sel) {
		switch {
		case line.separator && line.numeric():
			continue
		case line.separator && i > 0 && len(buf) > 0:
			buf = append(buf, line.tokens)
			stanzas = append(stanzas, removeHeader(buf, stanzaLen))
			buf = nil
		default:
			buf = append(buf, line.tokens)
		}
	}

	if len(buf) > 0 {
		stanzas = append(stanzas, removeHeader(buf, stanzaLen))
	}

	slog.Debug("Lines parsed", "stanzas", len(stanzas), "stanzaLen", stanzaLen)
	return stanzas
}

// sourceLines reads the visual lines and their word tokens from markup.
func sourceLines(markup string, sel config.Selectors) []sourceLine {
	doc, err := parseFragment(markup)
	if err != nil {
		return nil
	}
	wordSelector := classSelector(sel.Word)

	var lines []sourceLine
	doc.Find(sel.Line).Each(func(_ int, s *goquery.Selection) {
		tokens := poem.Line{}
		s.Find(wordSelector).Each(func(_ int, w *goquery.Selection) {
			if token := strings.TrimSpace(w.Text()); token != "" {
				tokens = append(tokens, token)
			}
		})

		lines = append(lines, sourceLine{
			tokens:    tokens,
			separator: s.HasClass(strings.TrimPrefix(sel.Separator, ".")),
		})
	})

	return lines
}

// removeHeader drops an injected stanza header from the front of a stanza:
// a single-token first line that is a number, or, when the nominal stanza
// length is known, that makes the stanza one line too long.
func removeHeader(stanza poem.Stanza, stanzaLen int) poem.Stanza {
	if len(stanza) == 0 || len(stanza[0]) != 1 {
		return stanza
	}

	first := stanza[0][0]
	if isNumber(first) || (stanzaLen > 0 && len(stanza) == stanzaLen+1) {
		slog.Debug("Stanza header removed", "header", first)
		return stanza[1:]
	}
	return stanza
}
