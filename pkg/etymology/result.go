package etymology

// Entry is one corpus row: a source word, its origin language and the
// meanings recovered from the page it was found on. A part of speech missing
// from Meanings is unknown.
type Entry struct {
	ID       int64
	Word     string
	Language Language
	Meanings map[PartOfSpeech]string
}

// Meaning returns the meaning for p and whether it is known.
func (e Entry) Meaning(p PartOfSpeech) (string, bool) {
	m, ok := e.Meanings[p]
	return m, ok
}

// HasMeaning reports whether at least one meaning is known and non-empty.
func (e Entry) HasMeaning() bool {
	for _, m := range e.Meanings {
		if m != "" {
			return true
		}
	}
	return false
}

// ExtractionResult is what a single entry page yields.
type ExtractionResult struct {
	URL      string
	Headword string
	Pairs    []Pair
	Meanings map[PartOfSpeech]string
}

// Entries builds one corpus entry per extracted pair. Pairs whose word
// normalizes to nothing are skipped.
func (r *ExtractionResult) Entries() []Entry {
	if r == nil {
		return nil
	}
	out := make([]Entry, 0, len(r.Pairs))
	for _, p := range r.Pairs {
		w := NormalizeWord(p.Word)
		if w == "" {
			continue
		}
		meanings := make(map[PartOfSpeech]string, len(r.Meanings))
		for k, v := range r.Meanings {
			meanings[k] = v
		}
		out = append(out, Entry{Word: w, Language: p.Language, Meanings: meanings})
	}
	return out
}
