package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/japaniel/etymoagent/pkg/etymology"
)

// maxRowsPerInsert keeps multi-row inserts under SQLite's bound-variable limit.
const maxRowsPerInsert = 150

// ErrInvalidEntry is returned when an entry lacks a word or a language.
// Words are stored normalized, so a word that normalizes to nothing is invalid.
var ErrInvalidEntry = errors.New("invalid entry")

// DBExecutor is an interface that allows methods to accept either *sql.DB or *sql.Tx
type DBExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func validateEntry(e etymology.Entry) error {
	if etymology.NormalizeWord(e.Word) == "" {
		return fmt.Errorf("%w: word %q is empty after normalization", ErrInvalidEntry, e.Word)
	}
	if e.Language == "" {
		return fmt.Errorf("%w: origin language must be set for %q", ErrInvalidEntry, e.Word)
	}
	return nil
}

func entryValues(e etymology.Entry) []interface{} {
	return []interface{}{
		etymology.NormalizeWord(e.Word),
		string(e.Language),
		nullable(e.Meanings, etymology.Noun),
		nullable(e.Meanings, etymology.Adjective),
		nullable(e.Meanings, etymology.Verb),
	}
}

// Insert stores a single entry and returns its id.
func (s *Store) Insert(ctx context.Context, e etymology.Entry) (int64, error) {
	if err := validateEntry(e); err != nil {
		return 0, err
	}
	query, args, err := s.sb.Insert(wordsTable).
		Columns(insertColumns...).
		Values(entryValues(e)...).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert: %w", err)
	}
	res, err := s.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("insert word: %w", err)
	}
	return res.LastInsertId()
}

// BatchInsert stores entries atomically in input order. Either all rows are
// committed or none are.
func (s *Store) BatchInsert(ctx context.Context, entries []etymology.Entry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}
	for _, e := range entries {
		if err := validateEntry(e); err != nil {
			return 0, err
		}
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := s.insertChunks(ctx, tx, entries); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit batch: %w", err)
	}
	return len(entries), nil
}

func (s *Store) insertChunks(ctx context.Context, exec DBExecutor, entries []etymology.Entry) error {
	for start := 0; start < len(entries); start += maxRowsPerInsert {
		end := start + maxRowsPerInsert
		if end > len(entries) {
			end = len(entries)
		}
		b := s.sb.Insert(wordsTable).Columns(insertColumns...)
		for _, e := range entries[start:end] {
			b = b.Values(entryValues(e)...)
		}
		query, args, err := b.ToSql()
		if err != nil {
			return fmt.Errorf("build batch insert: %w", err)
		}
		if _, err := exec.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("batch insert rows %d-%d: %w", start, end-1, err)
		}
	}
	return nil
}

// QueryAll returns every entry ordered by id.
func (s *Store) QueryAll(ctx context.Context) ([]etymology.Entry, error) {
	return s.selectEntries(ctx, s.sb.Select(entryColumns...).From(wordsTable).OrderBy("id"))
}

// FindByWord returns the entries stored for a normalized word, ordered by id.
func (s *Store) FindByWord(ctx context.Context, word string) ([]etymology.Entry, error) {
	return s.selectEntries(ctx, s.sb.Select(entryColumns...).
		From(wordsTable).
		Where(sq.Eq{"word": etymology.NormalizeWord(word)}).
		OrderBy("id"))
}

// Count returns the number of stored rows.
func (s *Store) Count(ctx context.Context) (int64, error) {
	query, args, err := s.sb.Select("COUNT(*)").From(wordsTable).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count: %w", err)
	}
	var n int64
	if err := s.conn.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count words: %w", err)
	}
	return n, nil
}

func (s *Store) selectEntries(ctx context.Context, b sq.SelectBuilder) ([]etymology.Entry, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query words: %w", err)
	}
	defer rows.Close()

	var out []etymology.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan word: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// CountByLanguage returns the number of stored rows per origin language.
func (s *Store) CountByLanguage(ctx context.Context) (map[etymology.Language]int64, error) {
	query, args, err := s.sb.Select("origin_language", "COUNT(*)").
		From(wordsTable).
		GroupBy("origin_language").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build count by language: %w", err)
	}
	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("count by language: %w", err)
	}
	defer rows.Close()

	out := make(map[etymology.Language]int64)
	for rows.Next() {
		var lang string
		var n int64
		if err := rows.Scan(&lang, &n); err != nil {
			return nil, fmt.Errorf("scan language count: %w", err)
		}
		out[etymology.Language(lang)] = n
	}
	return out, rows.Err()
}
