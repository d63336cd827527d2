package etymology

import (
	"fmt"
	"strings"
)

// Language is a recognized origin language.
type Language string

const (
	French  Language = "French"
	German  Language = "German"
	Latin   Language = "Latin"
	Greek   Language = "Greek"
	Turkish Language = "Turkish"
)

// DefaultLanguages is the closed set of recognized origin languages, in the
// order the pair extractor searches them.
var DefaultLanguages = []Language{French, German, Latin, Greek, Turkish}

// ParseLanguage resolves a language name case-insensitively against the closed set.
func ParseLanguage(s string) (Language, error) {
	s = strings.TrimSpace(s)
	for _, l := range DefaultLanguages {
		if strings.EqualFold(string(l), s) {
			return l, nil
		}
	}
	return "", fmt.Errorf("unrecognized origin language %q", s)
}

// ParseLanguages resolves a list of names, preserving order and dropping duplicates.
func ParseLanguages(names []string) ([]Language, error) {
	seen := make(map[Language]bool, len(names))
	out := make([]Language, 0, len(names))
	for _, n := range names {
		if strings.TrimSpace(n) == "" {
			continue
		}
		l, err := ParseLanguage(n)
		if err != nil {
			return nil, err
		}
		if seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	return out, nil
}

// PartOfSpeech tags a meaning field.
type PartOfSpeech string

const (
	Noun      PartOfSpeech = "noun"
	Adjective PartOfSpeech = "adj"
	Verb      PartOfSpeech = "verb"
)

// PartsOfSpeech lists the tags persisted for every entry.
var PartsOfSpeech = []PartOfSpeech{Noun, Adjective, Verb}

// Label returns the section heading used for the tag on entry pages.
func (p PartOfSpeech) Label() string {
	switch p {
	case Noun:
		return "Noun"
	case Adjective:
		return "Adjective"
	case Verb:
		return "Verb"
	}
	return string(p)
}
