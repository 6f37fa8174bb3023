// Package fetch retrieves poem documents: the poem text fragment and the
// metadata table fragment of one corpus page.
//
// Pages can come from standard input, local files (saved corpus pages), or
// HTTP(S) URLs. The browser-driven corpus search lives in package corpus and
// satisfies the same PageFetcher interface.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/chriscorrea/rusrime/internal/config"
)

// File size limits to prevent memory overload
const (
	MaxFileSizeBytes = 20 * 1024 * 1024 // 20MB limit for saved pages
	MaxHTTPSizeBytes = 20 * 1024 * 1024 // 20MB limit for HTTP content (may not have Content-Length)
)

// ErrNotFound is returned when a page does not exist.
var ErrNotFound = errors.New("page not found")

// Document holds the two markup fragments describing one poem.
type Document struct {
	URL          string // where the poem was found; file path for local pages
	ExplainTable string // inner HTML of the metadata table
	Text         string // inner HTML of the poem text
}

// PageFetcher retrieves the document at a URL, retrying transient failures.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (Document, error)
}

// limitedReadCloser wraps an io.ReadCloser to enforce size limits
type limitedReadCloser struct {
	io.ReadCloser
	N      int64  // max bytes remaining
	source string // for error messages
}

func (l *limitedReadCloser) Read(p []byte) (n int, err error) {
	if l.N <= 0 {
		return 0, fmt.Errorf("content from %q exceeds size limit", l.source)
	}
	if int64(len(p)) > l.N {
		p = p[0:l.N]
	}
	n, err = l.ReadCloser.Read(p)
	l.N -= int64(n)
	return
}

// newHTTPClient builds a client whose phase timeouts are fractions of the
// overall request timeout. It is safe for concurrent use.
func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout: timeout / 6, // ~17%, max time to wait for network connection
			}).DialContext,
			TLSHandshakeTimeout:   timeout / 6,
			ResponseHeaderTimeout: timeout / 2, // usually the longest phase
			DisableKeepAlives:     true,
		},
	}
}

// HTTPFetcher fetches corpus pages over plain HTTP.
type HTTPFetcher struct {
	client     *http.Client
	userAgent  string
	maxRetries int
	selectors  config.Selectors
}

// NewHTTPFetcher creates an HTTPFetcher from the HTTP settings; sel locates
// the document fragments inside fetched pages.
func NewHTTPFetcher(cfg config.HTTPConfig, sel config.Selectors) *HTTPFetcher {
	return &HTTPFetcher{
		client:     newHTTPClient(cfg.Timeout),
		userAgent:  cfg.UserAgent,
		maxRetries: cfg.MaxRetries,
		selectors:  sel,
	}
}

// Fetch downloads the page at url and splits it into a Document.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (Document, error) {
	body, err := f.Open(ctx, url)
	if err != nil {
		return Document{}, err
	}
	defer body.Close()

	return SplitDocument(body, url, f.selectors)
}

// Open retrieves the raw page at url. 429 and 5xx responses are retried with
// exponential backoff; the caller must close the returned reader.
func (f *HTTPFetcher) Open(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for URL %q: %w", url, err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := DoWithRetry(ctx, f.client, req, f.maxRetries)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL %q: %w", url, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, fmt.Errorf("failed to fetch URL %q: %w", url, ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP request failed for URL %q: status %d %s", url, resp.StatusCode, resp.Status)
	}

	// check content-length header if present to prevent memory overload
	if contentLength := resp.Header.Get("Content-Length"); contentLength != "" {
		if size, err := strconv.ParseInt(contentLength, 10, 64); err == nil && size > MaxHTTPSizeBytes {
			resp.Body.Close()
			return nil, fmt.Errorf("HTTP content too large (%d bytes > %d bytes limit)", size, MaxHTTPSizeBytes)
		}
	}

	return &limitedReadCloser{
		ReadCloser: resp.Body,
		N:          MaxHTTPSizeBytes,
		source:     url,
	}, nil
}

// isURL reports whether source should be fetched over HTTP.
func isURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// openFile opens a saved page for reading with better error messages
func openFile(path string) (io.ReadCloser, error) {
	fileInfo, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("file %q does not exist: %w", path, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to access file %q: %w", path, err)
	}

	// check file size before opening to prevent memory overload
	if fileInfo.Size() > MaxFileSizeBytes {
		return nil, fmt.Errorf("file %q is too large (%d bytes > %d bytes limit)",
			path, fileInfo.Size(), MaxFileSizeBytes)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %q: %w", path, err)
	}

	return file, nil
}
