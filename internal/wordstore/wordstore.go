// Package wordstore is the word/dictionary collaborator backed by a local
// SQLite database. The game core never touches it; the question bot uses it
// to produce round questions.
package wordstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/Androix777/kanjilab-server/pkg/protocol"
)

// ErrNoWords signals that no word satisfies the filter.
var ErrNoWords = errors.New("no words match the filter")

// Filter narrows the word pick, mirroring the game settings fields.
type Filter struct {
	MinFrequency uint64
	MaxFrequency uint64
	UseMax       bool
	WordPart     string // empty means any
}

// FilterFromSettings maps game settings onto a word filter.
func FilterFromSettings(s protocol.GameSettings) Filter {
	f := Filter{
		MinFrequency: s.MinFrequency,
		MaxFrequency: s.MaxFrequency,
		UseMax:       s.UsingMaxFrequency,
	}
	if s.WordPart != nil {
		f.WordPart = *s.WordPart
	}
	return f
}

// Store wraps the words database.
type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open word db: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

const schema = `
CREATE TABLE IF NOT EXISTS word (
	id        INTEGER PRIMARY KEY,
	word      TEXT NOT NULL UNIQUE,
	frequency INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS word_reading (
	id      INTEGER PRIMARY KEY,
	word_id INTEGER NOT NULL REFERENCES word(id),
	reading TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS word_meaning (
	id      INTEGER PRIMARY KEY,
	word_id INTEGER NOT NULL REFERENCES word(id),
	meaning TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_word_frequency ON word(frequency);
CREATE INDEX IF NOT EXISTS idx_word_reading_word ON word_reading(word_id);
`

// Init creates the schema when missing.
func (s *Store) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// AddWord inserts one word with its readings and meanings; used by loaders
// and tests.
func (s *Store) AddWord(ctx context.Context, word string, frequency uint64, readings, meanings []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO word (word, frequency) VALUES (?, ?)`, word, frequency)
	if err != nil {
		return fmt.Errorf("insert word %q: %w", word, err)
	}
	wordID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("word id: %w", err)
	}
	for _, r := range readings {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO word_reading (word_id, reading) VALUES (?, ?)`, wordID, r); err != nil {
			return fmt.Errorf("insert reading %q: %w", r, err)
		}
	}
	for _, m := range meanings {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO word_meaning (word_id, meaning) VALUES (?, ?)`, wordID, m); err != nil {
			return fmt.Errorf("insert meaning %q: %w", m, err)
		}
	}
	return tx.Commit()
}

// RandomWord picks one word uniformly among those matching the filter and
// assembles the wire WordInfo with all its accepted readings.
func (s *Store) RandomWord(ctx context.Context, f Filter) (protocol.WordInfo, error) {
	query := `SELECT id, word FROM word WHERE frequency >= ?`
	args := []any{f.MinFrequency}
	if f.UseMax {
		query += ` AND frequency <= ?`
		args = append(args, f.MaxFrequency)
	}
	if f.WordPart != "" {
		query += ` AND word LIKE ?`
		args = append(args, "%"+f.WordPart+"%")
	}
	query += ` ORDER BY RANDOM() LIMIT 1`

	var (
		wordID int64
		info   protocol.WordInfo
	)
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&wordID, &info.Word)
	if errors.Is(err, sql.ErrNoRows) {
		return protocol.WordInfo{}, ErrNoWords
	}
	if err != nil {
		return protocol.WordInfo{}, fmt.Errorf("pick word: %w", err)
	}

	readings, err := s.readings(ctx, wordID)
	if err != nil {
		return protocol.WordInfo{}, err
	}
	for _, r := range readings {
		info.Readings = append(info.Readings, protocol.ReadingWithParts{Reading: r})
	}

	meanings, err := s.meanings(ctx, wordID)
	if err != nil {
		return protocol.WordInfo{}, err
	}
	if len(meanings) > 0 {
		// single keb, one gloss per sense
		senses := make([][]string, 0, len(meanings))
		for _, m := range meanings {
			senses = append(senses, []string{m})
		}
		info.Meanings = [][][]string{senses}
	}
	return info, nil
}

func (s *Store) readings(ctx context.Context, wordID int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT reading FROM word_reading WHERE word_id = ? ORDER BY id`, wordID)
	if err != nil {
		return nil, fmt.Errorf("readings: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var r string
		if err := rows.Scan(&r); err != nil {
			return nil, fmt.Errorf("scan reading: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) meanings(ctx context.Context, wordID int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT meaning FROM word_meaning WHERE word_id = ? ORDER BY id`, wordID)
	if err != nil {
		return nil, fmt.Errorf("meanings: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, fmt.Errorf("scan meaning: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Count reports how many words satisfy the filter.
func (s *Store) Count(ctx context.Context, f Filter) (int64, error) {
	query := `SELECT COUNT(*) FROM word WHERE frequency >= ?`
	args := []any{f.MinFrequency}
	if f.UseMax {
		query += ` AND frequency <= ?`
		args = append(args, f.MaxFrequency)
	}
	if f.WordPart != "" {
		query += ` AND word LIKE ?`
		args = append(args, "%"+f.WordPart+"%")
	}
	var n int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count words: %w", err)
	}
	return n, nil
}
