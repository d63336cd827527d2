package db

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/japaniel/etymoagent/pkg/etymology"
)

// fieldBreaks replaces characters that would split a field or a row.
var fieldBreaks = strings.NewReplacer("\r\n", " ", "\t", " ", "\n", " ", "\r", " ")

// Export writes one tab-separated line per stored row, ordered by id.
// Unknown meanings are written as NULL.
func (s *Store) Export(ctx context.Context, w io.Writer) (int, error) {
	entries, err := s.QueryAll(ctx)
	if err != nil {
		return 0, err
	}
	bw := bufio.NewWriter(w)
	for _, e := range entries {
		fields := []string{fmt.Sprint(e.ID), e.Word, string(e.Language)}
		for _, p := range etymology.PartsOfSpeech {
			v, ok := e.Meanings[p]
			if !ok {
				v = "NULL"
			}
			fields = append(fields, fieldBreaks.Replace(v))
		}
		if _, err := fmt.Fprintln(bw, strings.Join(fields, "\t")); err != nil {
			return 0, fmt.Errorf("write export: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return 0, fmt.Errorf("flush export: %w", err)
	}
	return len(entries), nil
}
