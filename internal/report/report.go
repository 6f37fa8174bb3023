// Package report renders search results as a terminal table or exports them
// to CSV and YAML files.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"golang.org/x/term"
	"go.yaml.in/yaml/v3"

	"github.com/chriscorrea/rusrime/internal/app"
	"github.com/chriscorrea/rusrime/internal/classify"
)

// NoRhymes is printed in place of a table when nothing was found.
const NoRhymes = "no rhymes found"

const (
	title = "Search Results"
	width = 80
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Width(width).Align(lipgloss.Center)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#2a3850"))
)

// Options control table rendering.
type Options struct {
	Group bool // list inflected forms of the same rhyme together
	Links bool // wrap rhymes in terminal hyperlinks to their poems
}

// OptionsFor returns Options with Links enabled when w is a terminal.
func OptionsFor(w io.Writer, group bool) Options {
	return Options{Group: group, Links: IsTerminal(w)}
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Order returns results, regrouped by rhyme stem when group is set.
func Order(results []app.Result, group bool) []app.Result {
	if !group || len(results) < 2 {
		return results
	}

	rhymes := make([]string, len(results))
	for i, r := range results {
		rhymes[i] = r.Rhyme
	}

	ordered := make([]app.Result, 0, len(results))
	for _, idx := range classify.NewClassifier().Order(rhymes) {
		ordered = append(ordered, results[idx])
	}
	return ordered
}

// Table writes results to w as a bordered table.
func Table(w io.Writer, results []app.Result, opts Options) error {
	if len(results) == 0 {
		_, err := fmt.Fprintln(w, NoRhymes)
		return err
	}

	rows := make([][]string, 0, len(results))
	for _, r := range Order(results, opts.Group) {
		rhyme := r.Rhyme
		if opts.Links && r.URL != "" {
			rhyme = hyperlink(r.URL, rhyme)
		}
		rows = append(rows, []string{r.Author, r.CreationDate, rhyme})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Width(width).
		Headers("Author", "Creation Date", "Rhyme").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	_, err := fmt.Fprintf(w, "%s\n%s\n", titleStyle.Render(title), t.Render())
	return err
}

// hyperlink wraps text in an OSC 8 terminal hyperlink.
func hyperlink(url, text string) string {
	return "\x1b]8;;" + url + "\x1b\\" + text + "\x1b]8;;\x1b\\"
}

// WriteCSV writes results with a url,author,creation_date,rhyme header.
func WriteCSV(w io.Writer, results []app.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"url", "author", "creation_date", "rhyme"}); err != nil {
		return err
	}
	for _, r := range results {
		if err := cw.Write([]string{r.URL, r.Author, r.CreationDate, r.Rhyme}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteYAML writes results as a YAML sequence.
func WriteYAML(w io.Writer, results []app.Result) error {
	if results == nil {
		results = []app.Result{}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(results); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return enc.Close()
}

// Save writes results to path, choosing YAML for .yaml and .yml files and
// CSV otherwise.
func Save(path string, results []app.Result) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("failed to close output file: %w", cerr)
		}
	}()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return WriteYAML(f, results)
	default:
		if err := WriteCSV(f, results); err != nil {
			return fmt.Errorf("failed to write CSV: %w", err)
		}
		return nil
	}
}
