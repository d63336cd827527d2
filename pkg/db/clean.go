package db

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/japaniel/etymoagent/pkg/etymology"
)

// DefaultMaxMeaningLength is the longest meaning kept by CleanAndDedup.
const DefaultMaxMeaningLength = 200

// CleanAndDedup removes duplicate words (the smallest id survives), nulls
// meanings that are empty or longer than maxLen characters, and deletes rows
// left with no meaning. It runs in one transaction and is idempotent.
func (s *Store) CleanAndDedup(ctx context.Context, maxLen int) (CleanReport, error) {
	var report CleanReport
	if maxLen <= 0 {
		maxLen = DefaultMaxMeaningLength
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return report, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	dedup := s.sb.Delete(wordsTable).
		Where("id NOT IN (SELECT MIN(id) FROM " + wordsTable + " GROUP BY word)")
	if report.DuplicatesRemoved, err = execAffected(ctx, tx, dedup); err != nil {
		return report, fmt.Errorf("remove duplicates: %w", err)
	}

	for _, p := range etymology.PartsOfSpeech {
		col := meaningColumns[p]
		nullify := s.sb.Update(wordsTable).
			Set(col, nil).
			Where(sq.Or{
				sq.Expr("LENGTH("+col+") > ?", maxLen),
				sq.Eq{col: ""},
			})
		n, err := execAffected(ctx, tx, nullify)
		if err != nil {
			return report, fmt.Errorf("null %s meanings: %w", col, err)
		}
		report.MeaningsNulled += n
	}

	empty := s.sb.Delete(wordsTable).Where(sq.Eq{"noun": nil, "adj": nil, "verb": nil})
	if report.EmptyRemoved, err = execAffected(ctx, tx, empty); err != nil {
		return report, fmt.Errorf("remove empty rows: %w", err)
	}

	query, args, err := s.sb.Select("COUNT(*)").From(wordsTable).ToSql()
	if err != nil {
		return report, fmt.Errorf("build count: %w", err)
	}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&report.Remaining); err != nil {
		return report, fmt.Errorf("count words: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return report, fmt.Errorf("commit clean: %w", err)
	}
	return report, nil
}

func execAffected(ctx context.Context, exec DBExecutor, b sq.Sqlizer) (int64, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return 0, err
	}
	res, err := exec.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
