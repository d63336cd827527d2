// Package infer ranks corpus words against a query word and infers its
// likely origin language.
package infer

import (
	"github.com/japaniel/etymoagent/pkg/etymology"
)

// Strategy names.
const (
	NameEdit     = "edit"
	NameEnhanced = "enhanced"
)

// Result is the outcome of one prediction. Matched is false when no corpus
// word qualified.
type Result struct {
	Matched    bool
	Word       string
	Similarity float64
	Language   etymology.Language
	Meanings   map[etymology.PartOfSpeech]string
	Strategy   string
}

// Strategy predicts the closest corpus word and origin language for a query.
// Implementations must not fail: an unusable query or corpus yields an
// unmatched Result.
type Strategy interface {
	Name() string
	Predict(query string, corpus []etymology.Entry) Result
}

func noMatch(strategy string) Result {
	return Result{Strategy: strategy}
}

func matched(strategy string, e etymology.Entry, similarity float64) Result {
	meanings := make(map[etymology.PartOfSpeech]string, len(e.Meanings))
	for k, v := range e.Meanings {
		meanings[k] = v
	}
	return Result{
		Matched:    true,
		Word:       e.Word,
		Similarity: similarity,
		Language:   e.Language,
		Meanings:   meanings,
		Strategy:   strategy,
	}
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
