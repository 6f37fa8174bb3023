package main

import (
	"fmt"
	"io"

	"github.com/chriscorrea/rusrime/internal/report"
	"github.com/chriscorrea/rusrime/internal/store"
)

// printHistory writes one table per stored search, newest first.
func printHistory(w io.Writer, searches []store.Search, group bool) error {
	if len(searches) == 0 {
		_, err := fmt.Fprintln(w, "no searches recorded")
		return err
	}

	opts := report.OptionsFor(w, group)
	for i, s := range searches {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s  %s  (%d rhymes)\n", s.StartedAt.Local().Format("2006-01-02 15:04"), s.Word, len(s.Results))
		if err := report.Table(w, s.Results, opts); err != nil {
			return err
		}
	}
	return nil
}
