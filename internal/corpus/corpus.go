// Package corpus drives the poetic corpus search interface through a real
// browser and yields one document per poem found for a word.
package corpus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/chriscorrea/rusrime/internal/config"
	"github.com/chriscorrea/rusrime/internal/fetch"
)

// ErrNoResults is reported when the corpus has no poems for a word.
var ErrNoResults = errors.New("no results")

// settle is how long the result list must stay unchanged after a page turn.
const settle = 500 * time.Millisecond

var _ fetch.PageFetcher = (*Driver)(nil)

// Driver owns a browser session against the corpus search interface.
type Driver struct {
	cfg config.CorpusConfig
	sel config.Selectors

	mu       sync.Mutex
	browser  *rod.Browser
	launcher *launcher.Launcher
}

// New returns a driver for cfg. The browser is started lazily.
func New(cfg config.Config) *Driver {
	return &Driver{cfg: cfg.Corpus, sel: cfg.Selectors}
}

// Start launches a browser, or attaches to cfg.DebuggerURL when one is set.
func (d *Driver) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.browser != nil {
		return nil
	}

	controlURL := d.cfg.DebuggerURL
	if controlURL == "" {
		l := launcher.New().Headless(d.cfg.Headless).Context(ctx)
		if d.cfg.BrowserBin != "" {
			l = l.Bin(d.cfg.BrowserBin)
		}
		u, err := l.Launch()
		if err != nil {
			return fmt.Errorf("launch browser: %w", err)
		}
		d.launcher = l
		controlURL = u
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		d.cleanupLauncher()
		return fmt.Errorf("connect to browser: %w", err)
	}

	d.browser = browser
	slog.Debug("Browser connected", "control_url", controlURL, "headless", d.cfg.Headless)
	return nil
}

// Close shuts the browser down. It is safe to call on a driver that never started.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var err error
	if d.browser != nil {
		err = d.browser.Close()
		d.browser = nil
	}
	d.cleanupLauncher()
	return err
}

func (d *Driver) cleanupLauncher() {
	if d.launcher != nil {
		d.launcher.Kill()
		d.launcher.Cleanup()
		d.launcher = nil
	}
}

func (d *Driver) session(ctx context.Context) (*rod.Browser, error) {
	if err := d.Start(ctx); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.browser.Context(ctx), nil
}

// newPage opens url in a fresh tab sized to the configured viewport.
func (d *Driver) newPage(ctx context.Context, url string) (*rod.Page, error) {
	browser, err := d.session(ctx)
	if err != nil {
		return nil, err
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}

	if err := (proto.EmulationSetDeviceMetricsOverride{
		Width:             d.cfg.ViewportWidth,
		Height:            d.cfg.ViewportHeight,
		DeviceScaleFactor: 1.0,
	}).Call(page); err != nil {
		slog.Debug("Failed to set viewport", "error", err)
	}

	wait, release := d.bounded(page)
	defer release()
	if err := wait.WaitLoad(); err != nil {
		_ = page.Close()
		return nil, fmt.Errorf("load %s: %w", url, err)
	}
	return page, nil
}

// Documents searches the corpus for word restricted to the rhyme zone and
// passes every opened poem to yield. A word with no results yields nothing
// and returns nil. An error from yield stops the search and is returned.
func (d *Driver) Documents(ctx context.Context, word string, yield func(fetch.Document) error) error {
	page, err := d.newPage(ctx, d.cfg.SearchURL)
	if err != nil {
		return err
	}
	defer page.Close()

	if err := d.search(page, word); err != nil {
		if errors.Is(err, ErrNoResults) {
			slog.Info("Corpus has no results", "word", word)
			return nil
		}
		return err
	}

	pages := newPager(d.cfg.MaxPages)
	for {
		if err := d.collect(ctx, page, yield); err != nil {
			return err
		}
		if !pages.advance() {
			slog.Debug("Page limit reached", "pages", pages.seen)
			return nil
		}

		more, err := d.nextPage(page)
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
}

// search fills the query form and waits for either the result list or the
// empty-result notice.
func (d *Driver) search(page *rod.Page, word string) error {
	ui := d.cfg.UI
	wait, release := d.bounded(page)
	defer release()

	if has, el, _ := page.Has(ui.CloseOnboarding); has {
		if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
			slog.Debug("Failed to close onboarding", "error", err)
		}
	}

	if err := d.enableRhymeZone(wait); err != nil {
		return err
	}

	input, err := wait.Element(ui.WordformInput)
	if err != nil {
		return fmt.Errorf("wordform input not found: %w", err)
	}
	if err := input.Input(word); err != nil {
		return fmt.Errorf("type word: %w", err)
	}

	if err := click(wait, ui.SearchButton); err != nil {
		return err
	}

	el, err := wait.Race().Element(ui.ResultFail).Element(ui.ResultList).Do()
	if err != nil {
		return fmt.Errorf("wait for results: %w", err)
	}
	if failed, _ := el.Matches(ui.ResultFail); failed {
		return ErrNoResults
	}
	return nil
}

// enableRhymeZone restricts the search to words at line ends.
func (d *Driver) enableRhymeZone(page *rod.Page) error {
	ui := d.cfg.UI
	for _, selector := range []string{ui.AdditionalFeatures, ui.RhymeZone, ui.ApplyFeatures} {
		if err := click(page, selector); err != nil {
			return fmt.Errorf("enable rhyme zone: %w", err)
		}
	}
	return nil
}

// collect opens every poem listed on the current result page. Consecutive
// results from the same poem open the same address and are yielded once.
func (d *Driver) collect(ctx context.Context, page *rod.Page, yield func(fetch.Document) error) error {
	buttons, err := page.Elements(d.cfg.UI.ContextButton)
	if err != nil {
		return fmt.Errorf("list results: %w", err)
	}

	slog.Debug("Result page", "results", len(buttons))

	var seen visitTracker
	for _, button := range buttons {
		if err := ctx.Err(); err != nil {
			return err
		}

		doc, err := d.openResult(page, button, &seen)
		if err != nil {
			slog.Warn("Failed to open result", "error", err)
			continue
		}
		if doc == nil {
			continue
		}
		if err := yield(*doc); err != nil {
			return err
		}
	}
	return nil
}

// openResult clicks button, reads the poem from the tab it opens and closes
// the tab. A nil document means the tab repeated the previous address.
func (d *Driver) openResult(page *rod.Page, button *rod.Element, seen *visitTracker) (*fetch.Document, error) {
	wait := page.WaitOpen()
	if err := button.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return nil, fmt.Errorf("click result: %w", err)
	}
	tab, err := wait()
	if err != nil {
		return nil, fmt.Errorf("wait for tab: %w", err)
	}
	defer tab.Close()

	loading, release := d.bounded(tab)
	defer release()
	if err := loading.WaitLoad(); err != nil {
		return nil, fmt.Errorf("load tab: %w", err)
	}
	info, err := tab.Info()
	if err != nil {
		return nil, fmt.Errorf("tab info: %w", err)
	}
	if !seen.fresh(info.URL) {
		slog.Debug("Skipping repeated poem", "url", info.URL)
		return nil, nil
	}

	doc, err := d.read(tab, info.URL)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// read pulls the poem text and its explain table from a loaded poem page.
func (d *Driver) read(page *rod.Page, url string) (fetch.Document, error) {
	wait, release := d.bounded(page)
	defer release()

	text, err := innerHTML(wait, d.sel.TextContainer)
	if err != nil {
		return fetch.Document{}, fmt.Errorf("poem text in %s: %w", url, err)
	}

	if err := click(wait, d.cfg.UI.ExplainButton); err != nil {
		return fetch.Document{}, fmt.Errorf("explain table in %s: %w", url, err)
	}
	explain, err := innerHTML(wait, d.sel.ExplainContainer)
	if err != nil {
		return fetch.Document{}, fmt.Errorf("explain table in %s: %w", url, err)
	}

	return fetch.Document{URL: url, ExplainTable: explain, Text: text}, nil
}

// nextPage moves to the following result page. It reports false when there
// is none. A page that fails to settle is reloaded and the move is retried once.
func (d *Driver) nextPage(page *rod.Page) (bool, error) {
	var lastErr error
	for attempt := range 2 {
		if attempt > 0 {
			slog.Debug("Reloading result page", "error", lastErr)
			if err := page.Reload(); err != nil {
				return false, fmt.Errorf("reload results: %w", err)
			}
		}

		has, next, err := page.Has(d.cfg.UI.NextPage)
		if err != nil {
			return false, fmt.Errorf("find next page: %w", err)
		}
		if !has || disabled(next) {
			return false, nil
		}

		if err := next.Click(proto.InputMouseButtonLeft, 1); err != nil {
			// an intercepted click means the button is inert on the last page
			slog.Debug("Next page not clickable", "error", err)
			return false, nil
		}

		if lastErr = d.waitResults(page); lastErr == nil {
			return true, nil
		}
	}
	return false, fmt.Errorf("result page did not load: %w", lastErr)
}

func (d *Driver) waitResults(page *rod.Page) error {
	wait, release := d.bounded(page)
	defer release()
	if err := wait.WaitStable(settle); err != nil {
		return err
	}
	if has, _, _ := page.Has(d.cfg.UI.PageLoader); has {
		return errors.New("page loader still visible")
	}
	_, err := wait.Element(d.cfg.UI.ResultList)
	return err
}

// Fetch reads a single poem page by address.
func (d *Driver) Fetch(ctx context.Context, url string) (fetch.Document, error) {
	page, err := d.newPage(ctx, url)
	if err != nil {
		return fetch.Document{}, err
	}
	defer page.Close()

	return d.read(page, url)
}

// bounded returns a clone of page whose operations share the configured wait
// timeout. The release func stops the timer and must be called once the clone
// is no longer used.
func (d *Driver) bounded(page *rod.Page) (*rod.Page, func()) {
	wait := page.Timeout(d.cfg.WaitTimeout)
	return wait, func() { wait.CancelTimeout() }
}

func click(page *rod.Page, selector string) error {
	el, err := page.Element(selector)
	if err != nil {
		return fmt.Errorf("element %q not found: %w", selector, err)
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click %q: %w", selector, err)
	}
	return nil
}

func innerHTML(page *rod.Page, selector string) (string, error) {
	el, err := page.Element(selector)
	if err != nil {
		return "", fmt.Errorf("element %q not found: %w", selector, err)
	}
	v, err := el.Property("innerHTML")
	if err != nil {
		return "", err
	}
	return v.Str(), nil
}

func disabled(el *rod.Element) bool {
	for _, name := range []string{"disabled", "aria-disabled"} {
		v, err := el.Attribute(name)
		if err == nil && v != nil && *v != "false" {
			return true
		}
	}
	return false
}
