package infer

import (
	"github.com/japaniel/etymoagent/pkg/config"
	"github.com/japaniel/etymoagent/pkg/embedding"
	"github.com/japaniel/etymoagent/pkg/etymology"
)

// Enhanced predicts the origin language with a trained Model and selects the
// closest word by edit distance or by cosine over the model's features.
type Enhanced struct {
	model *Model
	match string
	floor float64
}

// NewEnhanced binds model to vectors (which may be nil). match is
// config.MatchEdit or config.MatchCosine.
func NewEnhanced(model *Model, vectors *embedding.Table, match string, floor float64) *Enhanced {
	if model != nil {
		model.Bind(vectors)
	}
	return &Enhanced{model: model, match: match, floor: floor}
}

// Name implements Strategy.
func (*Enhanced) Name() string { return NameEnhanced }

// Predict implements Strategy. The matched entry's meanings are returned with
// the classifier's language. Without a model it behaves as EditDistance.
func (s *Enhanced) Predict(query string, corpus []etymology.Entry) Result {
	q := etymology.NormalizeWord(query)
	if s.model == nil {
		return EditDistance{Floor: s.floor}.predict(NameEnhanced, q, corpus)
	}
	if q == "" || len(corpus) == 0 {
		return noMatch(NameEnhanced)
	}

	var r Result
	if s.match == config.MatchCosine && s.model.featurizer().hasVector(q) {
		r = s.closestByCosine(q, corpus)
	} else {
		r = EditDistance{Floor: s.floor}.predict(NameEnhanced, q, corpus)
	}
	if !r.Matched {
		return r
	}
	r.Language = s.model.Classify(q)
	return r
}

func (s *Enhanced) closestByCosine(q string, corpus []etymology.Entry) Result {
	f := s.model.featurizer()
	qf := f.features(q)
	best, bestSim := -1, 0.0
	for i, e := range corpus {
		if e.Word == "" {
			continue
		}
		sim := cosine(qf, f.features(e.Word))
		if best < 0 || sim > bestSim {
			best, bestSim = i, sim
		}
	}
	if best < 0 {
		return noMatch(NameEnhanced)
	}
	sim := clamp01(bestSim)
	if sim < s.floor {
		return noMatch(NameEnhanced)
	}
	return matched(NameEnhanced, corpus[best], sim)
}
