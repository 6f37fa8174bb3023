// Package store keeps a history of rhyme searches in SQLite.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/chriscorrea/rusrime/internal/app"
)

// Search is one stored search run with its results.
type Search struct {
	ID        string
	Word      string
	StartedAt time.Time
	Results   []app.Result
}

// Store manages the history database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the history database at path, creating parent
// directories and the schema as needed.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS searches (
			id TEXT PRIMARY KEY,
			word TEXT NOT NULL,
			started_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_searches_word ON searches(word)`,
		`CREATE TABLE IF NOT EXISTS rhymes (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			search_id TEXT NOT NULL REFERENCES searches(id) ON DELETE CASCADE,
			url TEXT,
			author TEXT,
			creation_date TEXT,
			rhyme TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_rhymes_search_id ON rhymes(search_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// SaveSearch stores one search run and its results in a single transaction
// and returns the new search ID.
func (s *Store) SaveSearch(ctx context.Context, word string, startedAt time.Time, results []app.Result) (string, error) {
	id := uuid.NewString()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO searches (id, word, started_at) VALUES (?, ?, ?)`,
		id, word, startedAt.UTC().Format(time.RFC3339Nano),
	); err != nil {
		return "", fmt.Errorf("inserting search: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO rhymes (search_id, url, author, creation_date, rhyme) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("preparing rhyme insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range results {
		if _, err := stmt.ExecContext(ctx, id, r.URL, r.Author, r.CreationDate, r.Rhyme); err != nil {
			return "", fmt.Errorf("inserting rhyme: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing search: %w", err)
	}
	return id, nil
}

// History returns the stored searches for word, newest first, each with its
// results in the order they were found.
func (s *Store) History(ctx context.Context, word string) ([]Search, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, word, started_at FROM searches WHERE word = ? ORDER BY started_at DESC, rowid DESC`, word)
	if err != nil {
		return nil, fmt.Errorf("querying searches: %w", err)
	}

	var searches []Search
	for rows.Next() {
		var (
			sr      Search
			started string
		)
		if err := rows.Scan(&sr.ID, &sr.Word, &started); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning search: %w", err)
		}
		sr.StartedAt, err = time.Parse(time.RFC3339Nano, started)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("parsing search time: %w", err)
		}
		searches = append(searches, sr)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range searches {
		results, err := s.results(ctx, searches[i].ID)
		if err != nil {
			return nil, err
		}
		searches[i].Results = results
	}
	return searches, nil
}

func (s *Store) results(ctx context.Context, searchID string) ([]app.Result, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT url, author, creation_date, rhyme FROM rhymes WHERE search_id = ? ORDER BY rowid`, searchID)
	if err != nil {
		return nil, fmt.Errorf("querying rhymes: %w", err)
	}
	defer rows.Close()

	var results []app.Result
	for rows.Next() {
		var r app.Result
		if err := rows.Scan(&r.URL, &r.Author, &r.CreationDate, &r.Rhyme); err != nil {
			return nil, fmt.Errorf("scanning rhyme: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
