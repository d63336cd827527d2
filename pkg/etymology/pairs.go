package etymology

import (
	"fmt"
	"regexp"
)

// Pair is one (origin language, source word) association found in etymology prose.
type Pair struct {
	Language Language
	Word     string
}

// PairExtractor finds the first mention of each recognized language in
// etymology prose together with the token that follows it.
type PairExtractor struct {
	langs    []Language
	patterns []*regexp.Regexp
}

// NewPairExtractor compiles one pattern per language. The order of langs is
// the order pairs are reported in. Unicode space separators (NBSP and the
// like) count as whitespace.
func NewPairExtractor(langs []Language) *PairExtractor {
	pe := &PairExtractor{langs: langs, patterns: make([]*regexp.Regexp, len(langs))}
	for i, l := range langs {
		pe.patterns[i] = regexp.MustCompile(fmt.Sprintf(`(?i)(?:from[\s\p{Z}]+)?(?:\w+[\s\p{Z}]+)?(%s)[\s\p{Z}]+([^\s\p{Z},]+)`, regexp.QuoteMeta(string(l))))
	}
	return pe
}

// Extract returns at most one pair per language, taken from the first
// occurrence. A nil result means nothing was recognized.
func (pe *PairExtractor) Extract(prose string) []Pair {
	var out []Pair
	for i, re := range pe.patterns {
		m := re.FindStringSubmatch(prose)
		if m == nil {
			continue
		}
		out = append(out, Pair{Language: pe.langs[i], Word: m[2]})
	}
	return out
}

var defaultPairExtractor = NewPairExtractor(DefaultLanguages)

// ExtractPairs runs the pair extractor for DefaultLanguages.
func ExtractPairs(prose string) []Pair {
	return defaultPairExtractor.Extract(prose)
}
