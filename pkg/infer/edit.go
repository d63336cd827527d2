package infer

import (
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/japaniel/etymoagent/pkg/etymology"
)

// EditDistance selects the corpus word with the smallest Levenshtein distance
// to the query. Ties keep the earliest entry of the snapshot.
type EditDistance struct {
	// Floor is the minimum similarity for a match.
	Floor float64
}

// Name implements Strategy.
func (EditDistance) Name() string { return NameEdit }

// Predict implements Strategy.
func (s EditDistance) Predict(query string, corpus []etymology.Entry) Result {
	return s.predict(NameEdit, etymology.NormalizeWord(query), corpus)
}

func (s EditDistance) predict(name, q string, corpus []etymology.Entry) Result {
	idx, d := closestByEdit(q, corpus)
	if idx < 0 {
		return noMatch(name)
	}
	sim := Similarity(q, corpus[idx].Word, d)
	if sim < s.Floor {
		return noMatch(name)
	}
	return matched(name, corpus[idx], sim)
}

// closestByEdit returns the index and distance of the closest word, or -1.
func closestByEdit(q string, corpus []etymology.Entry) (int, int) {
	if q == "" {
		return -1, 0
	}
	best, bestD := -1, 0
	for i, e := range corpus {
		if e.Word == "" {
			continue
		}
		d := levenshtein.ComputeDistance(q, e.Word)
		if best < 0 || d < bestD {
			best, bestD = i, d
			if d == 0 {
				break
			}
		}
	}
	return best, bestD
}

// Similarity is 1 - distance / max(len(a), len(b)) over runes, clamped to [0,1].
func Similarity(a, b string, distance int) float64 {
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	longest := la
	if lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 1
	}
	return clamp01(1 - float64(distance)/float64(longest))
}
