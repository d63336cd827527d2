package db

import (
	"database/sql"

	"github.com/japaniel/etymoagent/pkg/etymology"
)

const wordsTable = "words"

var (
	entryColumns  = []string{"id", "word", "origin_language", "noun", "adj", "verb"}
	insertColumns = []string{"word", "origin_language", "noun", "adj", "verb"}
)

// meaningColumns maps a part of speech to its column.
var meaningColumns = map[etymology.PartOfSpeech]string{
	etymology.Noun:      "noun",
	etymology.Adjective: "adj",
	etymology.Verb:      "verb",
}

// CleanReport describes what a cleaning pass changed.
type CleanReport struct {
	DuplicatesRemoved int64
	MeaningsNulled    int64
	EmptyRemoved      int64
	Remaining         int64
}

// nullable returns nil for an unknown meaning so it is stored as NULL.
func nullable(m map[etymology.PartOfSpeech]string, p etymology.PartOfSpeech) interface{} {
	v, ok := m[p]
	if !ok {
		return nil
	}
	return v
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(r rowScanner) (etymology.Entry, error) {
	var e etymology.Entry
	var lang string
	var noun, adj, verb sql.NullString
	if err := r.Scan(&e.ID, &e.Word, &lang, &noun, &adj, &verb); err != nil {
		return e, err
	}
	e.Language = etymology.Language(lang)
	e.Meanings = make(map[etymology.PartOfSpeech]string, 3)
	if noun.Valid {
		e.Meanings[etymology.Noun] = noun.String
	}
	if adj.Valid {
		e.Meanings[etymology.Adjective] = adj.String
	}
	if verb.Valid {
		e.Meanings[etymology.Verb] = verb.String
	}
	return e, nil
}
