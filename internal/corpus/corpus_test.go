package corpus

import (
	"context"
	"testing"
	"time"

	"github.com/go-rod/rod"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chriscorrea/rusrime/internal/config"
)

func TestVisitTracker(t *testing.T) {
	var v visitTracker

	assert.True(t, v.fresh("https://example.com/a"))
	assert.False(t, v.fresh("https://example.com/a"), "consecutive repeat")
	assert.True(t, v.fresh("https://example.com/b"))
	assert.True(t, v.fresh("https://example.com/a"), "only the previous address is remembered")
}

func TestPager(t *testing.T) {
	tests := []struct {
		name     string
		max      int
		expected []bool
	}{
		{"unlimited", 0, []bool{true, true, true, true}},
		{"single page", 1, []bool{false}},
		{"three pages", 3, []bool{true, true, false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPager(tt.max)
			for i, want := range tt.expected {
				assert.Equal(t, want, p.advance(), "page %d", i+1)
			}
		})
	}
}

func TestNewCopiesConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Corpus.MaxPages = 2
	cfg.Selectors.TextContainer = ".poem"

	d := New(cfg)
	cfg.Corpus.MaxPages = 9

	assert.Equal(t, 2, d.cfg.MaxPages)
	assert.Equal(t, ".poem", d.sel.TextContainer)
}

func TestCloseWithoutStart(t *testing.T) {
	d := New(config.Default())
	require.NoError(t, d.Close())
	require.NoError(t, d.Close())
}

func TestBoundedReleasesTimer(t *testing.T) {
	cfg := config.Default()
	cfg.Corpus.WaitTimeout = time.Hour
	d := New(cfg)

	parent := (&rod.Page{}).Context(context.Background())
	wait, release := d.bounded(parent)

	deadline, ok := wait.GetContext().Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Hour), deadline, time.Minute)
	require.NoError(t, wait.GetContext().Err())

	release()
	assert.ErrorIs(t, wait.GetContext().Err(), context.Canceled)
	assert.NoError(t, parent.GetContext().Err())
}
