package fetch

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/PuerkitoBio/goquery"

	"github.com/chriscorrea/rusrime/internal/config"
)

// SplitDocument extracts the poem text and metadata table from a full page.
// The text container is required; a missing metadata table yields an empty
// ExplainTable, which later disqualifies the poem instead of failing the page.
func SplitDocument(content io.Reader, url string, sel config.Selectors) (Document, error) {
	doc, err := goquery.NewDocumentFromReader(content)
	if err != nil {
		return Document{}, fmt.Errorf("failed to parse HTML: %w", err)
	}

	text := doc.Find(sel.TextContainer).First()
	if text.Length() == 0 {
		return Document{}, fmt.Errorf("no elements found matching selector: %s", sel.TextContainer)
	}

	textHTML, err := text.Html()
	if err != nil {
		return Document{}, fmt.Errorf("failed to extract HTML from selection: %w", err)
	}

	var explainHTML string
	if explain := doc.Find(sel.ExplainContainer).First(); explain.Length() > 0 {
		explainHTML, err = explain.Html()
		if err != nil {
			return Document{}, fmt.Errorf("failed to extract HTML from selection: %w", err)
		}
	} else {
		slog.Debug("No metadata table in page", "url", url, "selector", sel.ExplainContainer)
	}

	return Document{
		URL:          url,
		ExplainTable: explainHTML,
		Text:         textHTML,
	}, nil
}
