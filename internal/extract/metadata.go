package extract

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/chriscorrea/rusrime/internal/config"
	"github.com/chriscorrea/rusrime/internal/poem"
)

// Row labels of the metadata table.
const (
	labelAuthor        = "Автор"
	labelCreationDate  = "Дата создания"
	labelRhyme         = "Рифма"
	labelExtra         = "Дополнительные параметры"
	labelGraphicStanza = "Графическая строфика"
	labelStanza        = "Строфика"
)

// Markers found inside metadata values.
const (
	schemeSeparator      = ":"
	multiSchemeMarker    = "#"
	irregularStanzaMark  = "нарушения строфики"
	compositeRhymeMarker = "составная рифма"
)

var (
	errAmbiguousScheme     = errors.New("ambiguous rhyme scheme")
	errIrregularStanzation = errors.New("irregular stanzation")
	errMissingFormula      = errors.New("missing rhyme formula")
)

// fields holds the raw metadata values, "" for absent rows.
type fields struct {
	author        string
	creationDate  string
	rhyme         string
	extra         string
	graphicStanza string
	stanza        string
}

// ParseMetadata reads the label/value table into poem metadata.
// It returns false for poems with several or irregular rhyme schemes, or with
// no formula at all.
func ParseMetadata(table string, sel config.Selectors) (poem.Metadata, bool) {
	doc, err := parseFragment(table)
	if err != nil {
		return poem.Metadata{}, false
	}

	f := fields{
		author:        lookup(doc, labelAuthor, sel),
		creationDate:  lookup(doc, labelCreationDate, sel),
		rhyme:         lookup(doc, labelRhyme, sel),
		extra:         lookup(doc, labelExtra, sel),
		graphicStanza: lookup(doc, labelGraphicStanza, sel),
		stanza:        lookup(doc, labelStanza, sel),
	}

	md, err := f.metadata()
	if err != nil {
		slog.Debug("Poem skipped", "reason", err, "author", f.author, "rhyme", f.rhyme)
		return poem.Metadata{}, false
	}
	return md, true
}

// metadata validates the raw values and derives the structured form.
func (f fields) metadata() (poem.Metadata, error) {
	if strings.Contains(f.rhyme, multiSchemeMarker) || strings.Count(f.rhyme, schemeSeparator) > 1 {
		return poem.Metadata{}, errAmbiguousScheme
	}

	extra := strings.ToLower(f.extra)
	if strings.Contains(extra, irregularStanzaMark) {
		return poem.Metadata{}, errIrregularStanzation
	}

	_, scheme, _ := strings.Cut(f.rhyme, schemeSeparator)
	formula := strings.Join(strings.Fields(scheme), "")
	if formula == "" {
		return poem.Metadata{}, errMissingFormula
	}

	return poem.Metadata{
		Author:         f.author,
		CreationDate:   f.creationDate,
		Formula:        poem.ParseFormula(formula),
		CompositeRhyme: strings.Contains(extra, compositeRhymeMarker),
		StanzaLen:      stanzaLen(f.graphicStanza, f.stanza),
	}, nil
}

// stanzaLen reads the leading number of the graphic stanza field, or of the
// stanza field when the former is empty. 0 means unknown.
func stanzaLen(graphic, stanza string) int {
	data := graphic
	if data == "" {
		data = stanza
	}

	head, _, _ := strings.Cut(data, schemeSeparator)
	head = strings.TrimSpace(head)
	if !isNumber(head) {
		return 0
	}

	n, err := strconv.Atoi(head)
	if err != nil {
		return 0
	}
	return n
}

// lookup returns the value cell of the first row whose text contains label.
func lookup(doc *goquery.Document, label string, sel config.Selectors) string {
	var value string
	doc.Find(sel.TableRow).EachWithBreak(func(_ int, row *goquery.Selection) bool {
		if !strings.Contains(row.Text(), label) {
			return true
		}
		value = strings.TrimSpace(row.Find(classSelector(sel.TableValue)).First().Text())
		return false
	})
	return value
}
