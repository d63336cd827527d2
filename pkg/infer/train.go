package infer

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/japaniel/etymoagent/pkg/embedding"
	"github.com/japaniel/etymoagent/pkg/etymology"
)

// ErrInsufficientData is returned when a corpus is too small to split.
var ErrInsufficientData = errors.New("corpus too small to train and evaluate")

// TrainOptions parameterizes Train. Zero values take the defaults.
type TrainOptions struct {
	MinN         int
	MaxN         int
	Epochs       int
	LearningRate float64
	L2           float64
	TestFraction float64
	Seed         int64
}

func (o TrainOptions) withDefaults() TrainOptions {
	if o.MinN <= 0 {
		o.MinN = 1
	}
	if o.MaxN < o.MinN {
		o.MaxN = 3
	}
	if o.Epochs <= 0 {
		o.Epochs = 300
	}
	if o.LearningRate <= 0 {
		o.LearningRate = 0.5
	}
	if o.L2 < 0 {
		o.L2 = 0
	}
	return o
}

// Evaluation is held-out accuracy.
type Evaluation struct {
	TrainSize int
	TestSize  int
	Correct   int
	Accuracy  float64
}

func (e Evaluation) String() string {
	return fmt.Sprintf("accuracy %.3f (%d/%d held out, %d trained)", e.Accuracy, e.Correct, e.TestSize, e.TrainSize)
}

// Split shuffles indices [0,n) with seed and holds out round(n*testFraction)
// of them, keeping at least one training example.
func Split(n int, testFraction float64, seed int64) (train, test []int) {
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	k := int(math.Round(float64(n) * testFraction))
	if k >= n {
		k = n - 1
	}
	if k < 0 {
		k = 0
	}
	return perm[k:], perm[:k]
}

// Train fits an origin classifier on corpus: embedding vectors (zero when a
// word has none) concatenated with character n-gram counts, fed to a
// multinomial logistic regression. The n-gram vocabulary is fitted on the
// training split only. vectors may be nil.
func Train(corpus []etymology.Entry, vectors *embedding.Table, opts TrainOptions) (*Model, Evaluation, error) {
	opts = opts.withDefaults()

	var usable []etymology.Entry
	for _, e := range corpus {
		if e.Word != "" && e.Language != "" {
			usable = append(usable, e)
		}
	}
	if len(usable) < 2 {
		return nil, Evaluation{}, ErrInsufficientData
	}

	trainIdx, testIdx := Split(len(usable), opts.TestFraction, opts.Seed)

	words := make([]string, len(trainIdx))
	for i, j := range trainIdx {
		words[i] = usable[j].Word
	}

	m := &Model{
		Version:      ModelVersion,
		ID:           uuid.NewString(),
		TrainedAt:    time.Now().UTC(),
		Labels:       labelsOf(usable, trainIdx),
		MinN:         opts.MinN,
		MaxN:         opts.MaxN,
		Vocabulary:   fitVocabulary(words, opts.MinN, opts.MaxN),
		EmbeddingDim: vectors.Dim(),
		TrainSize:    len(trainIdx),
		TestSize:     len(testIdx),
	}
	m.Bind(vectors)

	labelIndex := make(map[etymology.Language]int, len(m.Labels))
	for i, l := range m.Labels {
		labelIndex[l] = i
	}

	xs := make([][]feature, len(trainIdx))
	ys := make([]int, len(trainIdx))
	for i, j := range trainIdx {
		xs[i] = m.feat.features(usable[j].Word)
		ys[i] = labelIndex[usable[j].Language]
	}

	clf := newSoftmax(len(m.Labels), m.feat.size())
	clf.fit(xs, ys, opts.Epochs, opts.LearningRate, opts.L2)
	m.clf = clf
	m.Weights = clf.weights
	m.Bias = clf.bias

	eval := Evaluation{TrainSize: len(trainIdx), TestSize: len(testIdx)}
	for _, j := range testIdx {
		if m.Classify(usable[j].Word) == usable[j].Language {
			eval.Correct++
		}
	}
	if eval.TestSize > 0 {
		eval.Accuracy = float64(eval.Correct) / float64(eval.TestSize)
	}
	m.Accuracy = eval.Accuracy
	return m, eval, nil
}

// labelsOf lists the languages present in the training split, in
// DefaultLanguages order followed by any others in first-seen order.
func labelsOf(entries []etymology.Entry, idx []int) []etymology.Language {
	present := make(map[etymology.Language]bool)
	var extra []etymology.Language
	known := make(map[etymology.Language]bool, len(etymology.DefaultLanguages))
	for _, l := range etymology.DefaultLanguages {
		known[l] = true
	}
	for _, j := range idx {
		l := entries[j].Language
		if !present[l] && !known[l] {
			extra = append(extra, l)
		}
		present[l] = true
	}
	var out []etymology.Language
	for _, l := range etymology.DefaultLanguages {
		if present[l] {
			out = append(out, l)
		}
	}
	return append(out, extra...)
}

// Evaluate measures how often strategy predicts the origin language of
// held-out corpus entries when given only the training split.
func Evaluate(s Strategy, corpus []etymology.Entry, testFraction float64, seed int64) (Evaluation, error) {
	if len(corpus) < 2 {
		return Evaluation{}, ErrInsufficientData
	}
	trainIdx, testIdx := Split(len(corpus), testFraction, seed)
	if len(testIdx) == 0 {
		return Evaluation{}, fmt.Errorf("test fraction %v holds out no entries: %w", testFraction, ErrInsufficientData)
	}

	// Keep the training split in snapshot order so tie-breaking matches a
	// live query against the same rows.
	inTrain := make([]bool, len(corpus))
	for _, j := range trainIdx {
		inTrain[j] = true
	}
	train := make([]etymology.Entry, 0, len(trainIdx))
	for j, e := range corpus {
		if inTrain[j] {
			train = append(train, e)
		}
	}

	eval := Evaluation{TrainSize: len(trainIdx), TestSize: len(testIdx)}
	for _, j := range testIdx {
		if r := s.Predict(corpus[j].Word, train); r.Matched && r.Language == corpus[j].Language {
			eval.Correct++
		}
	}
	eval.Accuracy = float64(eval.Correct) / float64(eval.TestSize)
	return eval, nil
}
