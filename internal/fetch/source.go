package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/chriscorrea/rusrime/internal/config"
)

// FileSource yields documents from saved pages and URLs.
// It supports three types of sources:
//   - "-" reads a page from standard input
//   - URLs starting with "http://" or "https://" are fetched via HTTP
//   - everything else is treated as a local file path
type FileSource struct {
	Sources   []string
	Fetcher   *HTTPFetcher
	Selectors config.Selectors
}

// NewFileSource creates a FileSource over sources using cfg for HTTP sources.
func NewFileSource(sources []string, cfg config.Config) *FileSource {
	return &FileSource{
		Sources:   sources,
		Fetcher:   NewHTTPFetcher(cfg.HTTP, cfg.Selectors),
		Selectors: cfg.Selectors,
	}
}

// Documents loads every source in order and passes it to yield. The word is
// not needed to locate saved pages. Sources that fail to load are reported by
// the returned error only after every source has been attempted; an error from
// yield stops iteration immediately.
func (s *FileSource) Documents(ctx context.Context, _ string, yield func(Document) error) error {
	var failed []string

	for _, source := range s.Sources {
		if err := ctx.Err(); err != nil {
			return err
		}

		doc, err := s.Load(ctx, source)
		if err != nil {
			slog.Debug("Failed to load source", "source", source, "error", err)
			failed = append(failed, fmt.Sprintf("%s: %v", source, err))
			continue
		}

		if err := yield(doc); err != nil {
			return err
		}
	}

	if len(failed) > 0 {
		return &LoadError{Failed: failed}
	}
	return nil
}

// Load reads one source into a Document.
func (s *FileSource) Load(ctx context.Context, source string) (Document, error) {
	if isURL(source) {
		return s.Fetcher.Fetch(ctx, source)
	}

	reader, err := s.open(source)
	if err != nil {
		return Document{}, err
	}
	defer reader.Close()

	return SplitDocument(reader, source, s.Selectors)
}

// open returns a size-limited reader for stdin or a local file.
func (s *FileSource) open(source string) (io.ReadCloser, error) {
	if source == "-" {
		return &limitedReadCloser{
			ReadCloser: io.NopCloser(os.Stdin),
			N:          MaxFileSizeBytes,
			source:     "stdin",
		}, nil
	}
	return openFile(source)
}

// LoadError lists the sources that could not be loaded.
type LoadError struct {
	Failed []string
}

func (e *LoadError) Error() string {
	if len(e.Failed) == 1 {
		return "failed to load source " + e.Failed[0]
	}
	return fmt.Sprintf("failed to load %d sources; first: %s", len(e.Failed), e.Failed[0])
}
