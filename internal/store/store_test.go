package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chriscorrea/rusrime/internal/app"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveSearchAndHistory(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	results := []app.Result{
		{URL: "https://example.com/1", Author: "А. А. Фет", CreationDate: "1850", Rhyme: "мошка"},
		{URL: "https://example.com/2", Author: "Ф. И. Тютчев", CreationDate: "1836", Rhyme: "в тиши"},
	}
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	id, err := s.SaveSearch(ctx, "кошка", started, results)
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	require.NoError(t, err, "search IDs are UUIDs")

	history, err := s.History(ctx, "кошка")
	require.NoError(t, err)
	require.Len(t, history, 1)

	assert.Equal(t, id, history[0].ID)
	assert.Equal(t, "кошка", history[0].Word)
	assert.True(t, started.Equal(history[0].StartedAt))
	assert.Equal(t, results, history[0].Results)
}

func TestHistory_NewestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	older, err := s.SaveSearch(ctx, "дом", base, nil)
	require.NoError(t, err)
	newer, err := s.SaveSearch(ctx, "дом", base.Add(time.Hour), []app.Result{{Rhyme: "ком"}})
	require.NoError(t, err)
	_, err = s.SaveSearch(ctx, "кот", base.Add(2*time.Hour), nil)
	require.NoError(t, err)

	history, err := s.History(ctx, "дом")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, newer, history[0].ID)
	assert.Equal(t, older, history[1].ID)
	assert.Empty(t, history[1].Results)
}

func TestHistory_UnknownWord(t *testing.T) {
	s := openTestStore(t)

	history, err := s.History(context.Background(), "слон")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestOpen_ReopensExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.SaveSearch(ctx, "дом", time.Now(), []app.Result{{Rhyme: "ком"}})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	history, err := s.History(ctx, "дом")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "ком", history[0].Results[0].Rhyme)
}

func TestSaveSearch_CancelledContext(t *testing.T) {
	s := openTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.SaveSearch(ctx, "дом", time.Now(), nil)
	require.Error(t, err)
}
