package infer

import (
	"math"
	"sort"

	"github.com/japaniel/etymoagent/pkg/embedding"
)

// feature is one non-zero component of a sparse feature vector.
type feature struct {
	index int
	value float64
}

// charNGrams counts the contiguous rune n-grams of word for n in [minN, maxN].
func charNGrams(word string, minN, maxN int) map[string]int {
	runes := []rune(word)
	counts := make(map[string]int)
	for n := minN; n <= maxN; n++ {
		for i := 0; i+n <= len(runes); i++ {
			counts[string(runes[i:i+n])]++
		}
	}
	return counts
}

// fitVocabulary collects the n-grams of words in sorted order.
func fitVocabulary(words []string, minN, maxN int) []string {
	seen := make(map[string]bool)
	for _, w := range words {
		for g := range charNGrams(w, minN, maxN) {
			seen[g] = true
		}
	}
	vocab := make([]string, 0, len(seen))
	for g := range seen {
		vocab = append(vocab, g)
	}
	sort.Strings(vocab)
	return vocab
}

// featurizer maps words to [embedding ++ n-gram counts] sparse vectors.
type featurizer struct {
	minN, maxN int
	dim        int
	vocab      map[string]int
	vectors    *embedding.Table
}

func newFeaturizer(vocab []string, minN, maxN, dim int, vectors *embedding.Table) *featurizer {
	idx := make(map[string]int, len(vocab))
	for i, g := range vocab {
		idx[g] = i
	}
	// A table of another dimension cannot feed this model.
	if vectors.Dim() != dim {
		vectors = nil
	}
	return &featurizer{minN: minN, maxN: maxN, dim: dim, vocab: idx, vectors: vectors}
}

// size is the dense length of a feature vector.
func (f *featurizer) size() int { return f.dim + len(f.vocab) }

// hasVector reports whether word has an embedding.
func (f *featurizer) hasVector(word string) bool {
	_, ok := f.vectors.Lookup(word)
	return ok
}

// features returns the sparse vector of word, sorted by index. Unknown words
// get a zero embedding part; n-grams outside the vocabulary are dropped.
func (f *featurizer) features(word string) []feature {
	var out []feature
	for i, x := range f.vectors.Vector(word) {
		if x != 0 {
			out = append(out, feature{index: i, value: float64(x)})
		}
	}
	var grams []feature
	for g, c := range charNGrams(word, f.minN, f.maxN) {
		if j, ok := f.vocab[g]; ok {
			grams = append(grams, feature{index: f.dim + j, value: float64(c)})
		}
	}
	sort.Slice(grams, func(a, b int) bool { return grams[a].index < grams[b].index })
	return append(out, grams...)
}

// cosine is the cosine similarity of two index-sorted sparse vectors.
func cosine(a, b []feature) float64 {
	var dot, na, nb float64
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i].index == b[j].index:
			dot += a[i].value * b[j].value
			i++
			j++
		case a[i].index < b[j].index:
			i++
		default:
			j++
		}
	}
	for _, x := range a {
		na += x.value * x.value
	}
	for _, x := range b {
		nb += x.value * x.value
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
