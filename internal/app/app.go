// Package app contains the core application logic for the rusrime CLI tool.
// It joins document sources to the poem parser and the rhyme matcher and
// keeps that flow separate from CLI concerns.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/chriscorrea/rusrime/internal/config"
	"github.com/chriscorrea/rusrime/internal/extract"
	"github.com/chriscorrea/rusrime/internal/fetch"
	"github.com/chriscorrea/rusrime/internal/rhyme"
)

var wordPattern = regexp.MustCompile(`^[а-яёА-ЯЁ]+$`)

// ErrInvalidWord is returned for queries that are not a single Cyrillic word.
var ErrInvalidWord = errors.New("word must consist of Russian letters only")

// Source yields poem documents that may contain rhymes for a word.
type Source interface {
	Documents(ctx context.Context, word string, yield func(fetch.Document) error) error
}

// Result is one rhyme found in one poem.
type Result struct {
	URL          string `yaml:"url"`
	Author       string `yaml:"author"`
	CreationDate string `yaml:"creation_date"`
	Rhyme        string `yaml:"rhyme"`
}

// Progress reports how far a search has got.
type Progress struct {
	Poems   int // documents received
	Skipped int // documents without usable metadata
	Rhymes  int // results collected so far
}

// Config holds all options for a search run.
type Config struct {
	Word      string
	Selectors config.Selectors
	Workers   int  // concurrent documents for batch matching
	Quiet     bool // suppress warnings
	Progress  func(Progress)
}

// ValidateWord trims word and checks that it is a single Russian word.
func ValidateWord(word string) (string, error) {
	word = strings.TrimSpace(word)
	if !wordPattern.MatchString(word) {
		return "", fmt.Errorf("%w: %q", ErrInvalidWord, word)
	}
	return word, nil
}

// Analyze parses one document and returns a row for every rhyme it holds for
// word. It reports false when the document has no usable metadata.
func Analyze(word string, doc fetch.Document, sel config.Selectors) ([]Result, bool) {
	p, ok := extract.ParsePoem(doc.ExplainTable, doc.Text, sel)
	if !ok {
		return nil, false
	}

	rhymes := rhyme.Extract(word, p)
	results := make([]Result, 0, len(rhymes))
	for _, r := range rhymes {
		results = append(results, Result{
			URL:          doc.URL,
			Author:       p.Metadata.Author,
			CreationDate: p.Metadata.CreationDate,
			Rhyme:        r,
		})
	}
	return results, true
}

// Run streams documents from src and collects the rhymes for cfg.Word in the
// order the documents arrive.
//
// Documents without usable metadata are skipped. Sources that partially fail
// to load produce a warning on stderr and the rhymes found so far.
func Run(ctx context.Context, cfg Config, src Source) ([]Result, error) {
	word, err := ValidateWord(cfg.Word)
	if err != nil {
		return nil, err
	}

	var (
		results  []Result
		progress Progress
	)
	err = src.Documents(ctx, word, func(doc fetch.Document) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		found, ok := Analyze(word, doc, cfg.Selectors)
		progress.Poems++
		if !ok {
			progress.Skipped++
		}
		results = append(results, found...)
		progress.Rhymes = len(results)

		if cfg.Progress != nil {
			cfg.Progress(progress)
		}
		return nil
	})
	if err = downgradeLoadError(err, cfg.Quiet); err != nil {
		return results, fmt.Errorf("failed to search for %q: %w", word, err)
	}

	return results, nil
}

// Match loads every document from src first and then analyzes them
// concurrently with ProcessDocuments.
func Match(ctx context.Context, cfg Config, src Source) ([]Result, error) {
	word, err := ValidateWord(cfg.Word)
	if err != nil {
		return nil, err
	}

	var docs []fetch.Document
	err = src.Documents(ctx, word, func(doc fetch.Document) error {
		docs = append(docs, doc)
		return nil
	})
	if err = downgradeLoadError(err, cfg.Quiet); err != nil {
		return nil, fmt.Errorf("failed to load documents: %w", err)
	}

	results, err := ProcessDocuments(ctx, word, docs, cfg.Selectors, cfg.Workers)
	if err != nil {
		return nil, err
	}

	if cfg.Progress != nil {
		cfg.Progress(Progress{Poems: len(docs), Rhymes: len(results)})
	}
	return results, nil
}

// ProcessDocuments analyzes docs with at most workers goroutines. Results keep
// the order of docs regardless of completion order.
func ProcessDocuments(ctx context.Context, word string, docs []fetch.Document, sel config.Selectors, workers int) ([]Result, error) {
	if workers <= 0 {
		workers = 1
	}

	perDoc := make([][]Result, len(docs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, doc := range docs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			perDoc[i], _ = Analyze(word, doc, sel)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var results []Result
	for _, found := range perDoc {
		results = append(results, found...)
	}
	return results, nil
}

// downgradeLoadError turns a partial load failure into a warning.
func downgradeLoadError(err error, quiet bool) error {
	var loadErr *fetch.LoadError
	if !errors.As(err, &loadErr) {
		return err
	}
	if !quiet {
		for _, failed := range loadErr.Failed {
			fmt.Fprintf(os.Stderr, "Warning: failed to load source %s\n", failed)
		}
	}
	return nil
}
