// Package extract turns corpus markup into structured poems.
//
// Two fragments are read for every document: the label/value metadata table
// (ParseMetadata) and the poem text, whose visual lines carry word spans and an
// optional stanza separator class (ParseLines). ParsePoem ties both together
// and regroups the visual stanzas into logical ones.
//
// Disqualified input is reported as absence (a false second return value),
// never as an error: the caller simply skips the poem.
package extract

import (
	"log/slog"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"

	"github.com/chriscorrea/rusrime/internal/config"
	"github.com/chriscorrea/rusrime/internal/poem"
)

// ParsePoem parses both fragments of a document into a Poem.
// It returns false when the metadata disqualifies the poem.
func ParsePoem(explainTable, text string, sel config.Selectors) (*poem.Poem, bool) {
	md, ok := ParseMetadata(explainTable, sel)
	if !ok {
		return nil, false
	}

	visual := ParseLines(text, md.StanzaLen, sel)

	return &poem.Poem{
		Metadata: md,
		Stanzas:  poem.Compose(visual, md.Formula),
	}, true
}

// parseFragment parses an HTML fragment. The html parser is lenient and only
// fails on reader errors, so callers treat a failure as empty markup.
func parseFragment(fragment string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		slog.Debug("Failed to parse HTML fragment", "error", err)
		return nil, err
	}
	return doc, nil
}

// classSelector turns a class name into a CSS selector.
func classSelector(class string) string {
	return "." + strings.TrimPrefix(class, ".")
}

// isNumber reports whether s is a non-empty run of decimal digits in any
// script.
func isNumber(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
