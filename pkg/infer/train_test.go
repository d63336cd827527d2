package infer

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japaniel/etymoagent/pkg/config"
	"github.com/japaniel/etymoagent/pkg/embedding"
	"github.com/japaniel/etymoagent/pkg/etymology"
)

func scriptCorpus() []etymology.Entry {
	return []etymology.Entry{
		entry("λόγος", etymology.Greek, "word"),
		entry("lupus", etymology.Latin, "wolf"),
		entry("φίλος", etymology.Greek, "friend"),
		entry("campus", etymology.Latin, "field"),
		entry("κόσμος", etymology.Greek, "order"),
		entry("focus", etymology.Latin, "hearth"),
		entry("θεός", etymology.Greek, "god"),
		entry("virus", etymology.Latin, "poison"),
	}
}

func TestSplit(t *testing.T) {
	train, test := Split(10, 0.2, 42)
	assert.Len(t, train, 8)
	assert.Len(t, test, 2)

	seen := make(map[int]bool)
	for _, i := range append(append([]int{}, train...), test...) {
		assert.False(t, seen[i])
		seen[i] = true
	}
	assert.Len(t, seen, 10)

	train2, test2 := Split(10, 0.2, 42)
	assert.Equal(t, train, train2)
	assert.Equal(t, test, test2)

	train, test = Split(2, 0.9, 1)
	assert.Len(t, train, 1, "at least one training example")
	assert.Len(t, test, 1)
}

func TestTrainSeparatesScripts(t *testing.T) {
	m, eval, err := Train(scriptCorpus(), nil, TrainOptions{TestFraction: 0, Seed: 42})
	require.NoError(t, err)
	assert.Equal(t, []etymology.Language{etymology.Latin, etymology.Greek}, m.Labels)
	assert.Equal(t, 8, eval.TrainSize)
	assert.Equal(t, 0, eval.TestSize)
	assert.NotEmpty(t, m.ID)

	for _, e := range scriptCorpus() {
		assert.Equal(t, e.Language, m.Classify(e.Word), e.Word)
	}
	assert.Equal(t, etymology.Greek, m.Classify("λύκος"))
	assert.Equal(t, etymology.Latin, m.Classify("cactus"))

	p := m.clf.probabilities(m.feat.features("cactus"))
	require.Len(t, p, 2)
	assert.InDelta(t, 1.0, p[0]+p[1], 1e-9)
}

func TestTrainIsDeterministic(t *testing.T) {
	a, evalA, err := Train(scriptCorpus(), nil, TrainOptions{TestFraction: 0.25, Seed: 7, Epochs: 50})
	require.NoError(t, err)
	b, evalB, err := Train(scriptCorpus(), nil, TrainOptions{TestFraction: 0.25, Seed: 7, Epochs: 50})
	require.NoError(t, err)

	assert.Equal(t, a.Weights, b.Weights)
	assert.Equal(t, a.Vocabulary, b.Vocabulary)
	assert.Equal(t, evalA, evalB)
	assert.Equal(t, 2, evalA.TestSize)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestTrainInsufficientData(t *testing.T) {
	_, _, err := Train([]etymology.Entry{entry("lupus", etymology.Latin, "")}, nil, TrainOptions{})
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestModelSaveLoad(t *testing.T) {
	vectors, err := embedding.FromMap(map[string][]float32{
		"λόγος": {1, 0},
		"lupus": {0, 1},
	})
	require.NoError(t, err)

	m, _, err := Train(scriptCorpus(), vectors, TrainOptions{Seed: 42})
	require.NoError(t, err)
	assert.Equal(t, 2, m.EmbeddingDim)

	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, m.Save(path))

	loaded, err := LoadModel(path)
	require.NoError(t, err)
	loaded.Bind(vectors)

	assert.Equal(t, m.ID, loaded.ID)
	assert.Equal(t, m.Labels, loaded.Labels)
	for _, w := range []string{"λόγος", "lupus", "cactus", "zzz"} {
		assert.Equal(t, m.Classify(w), loaded.Classify(w), w)
	}
}

func TestLoadModelRejectsBadArtifacts(t *testing.T) {
	_, err := LoadModel(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	m, _, err := Train(scriptCorpus(), nil, TrainOptions{Epochs: 1})
	require.NoError(t, err)
	m.Weights = m.Weights[:1]
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, m.Save(path))
	_, err = LoadModel(path)
	assert.Error(t, err)
}

func TestEvaluate(t *testing.T) {
	corpus := scriptCorpus()
	eval, err := Evaluate(EditDistance{}, corpus, 0.25, 42)
	require.NoError(t, err)
	assert.Equal(t, 6, eval.TrainSize)
	assert.Equal(t, 2, eval.TestSize)
	assert.GreaterOrEqual(t, eval.Accuracy, 0.0)
	assert.LessOrEqual(t, eval.Accuracy, 1.0)

	again, err := Evaluate(EditDistance{}, corpus, 0.25, 42)
	require.NoError(t, err)
	assert.Equal(t, eval, again)

	_, err = Evaluate(EditDistance{}, corpus[:1], 0.2, 42)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestEnhancedUsesClassifierLanguage(t *testing.T) {
	m, _, err := Train(scriptCorpus(), nil, TrainOptions{Seed: 42, TestFraction: 0})
	require.NoError(t, err)
	s := NewEnhanced(m, nil, config.MatchEdit, 0)

	corpus := []etymology.Entry{
		entry("λόγος", etymology.Greek, "word"),
		entry("lupus", etymology.German, "mislabelled"),
	}
	r := s.Predict("lupos", corpus)
	require.True(t, r.Matched)
	assert.Equal(t, "lupus", r.Word)
	assert.Equal(t, etymology.Latin, r.Language)
	assert.Equal(t, "mislabelled", r.Meanings[etymology.Noun])
	assert.InDelta(t, 0.8, r.Similarity, 1e-9)
	assert.Equal(t, NameEnhanced, r.Strategy)
}

func TestEnhancedOOVFallsBackToEdit(t *testing.T) {
	m, _, err := Train(scriptCorpus(), nil, TrainOptions{Seed: 42, TestFraction: 0})
	require.NoError(t, err)
	s := NewEnhanced(m, nil, config.MatchCosine, 0)

	corpus := []etymology.Entry{entry("mitten", etymology.French, "a glove")}
	r := s.Predict("kitten", corpus)
	require.True(t, r.Matched)
	assert.Equal(t, "mitten", r.Word)
	assert.InDelta(t, 1-1.0/6, r.Similarity, 1e-9)
	assert.NotEmpty(t, r.Language)

	assert.False(t, s.Predict("kitten", nil).Matched)
	assert.False(t, s.Predict("   ", corpus).Matched)
}

func TestEnhancedWithoutModelIsEditDistance(t *testing.T) {
	s := NewEnhanced(nil, nil, config.MatchEdit, 0)
	corpus := []etymology.Entry{entry("mitten", etymology.French, "a glove")}
	r := s.Predict("kitten", corpus)
	require.True(t, r.Matched)
	assert.Equal(t, etymology.French, r.Language)
}

func TestEnhancedCosineMatch(t *testing.T) {
	vectors, err := embedding.FromMap(map[string][]float32{
		"chair": {1, 0},
		"dog":   {0, 1},
		"seat":  {0.9, 0.1},
	})
	require.NoError(t, err)
	corpus := []etymology.Entry{
		entry("chair", etymology.French, "a seat"),
		entry("chaise", etymology.French, "a lounge"),
		entry("dog", etymology.German, "an animal"),
		entry("hund", etymology.German, "an animal"),
	}
	m, _, err := Train(corpus, vectors, TrainOptions{Seed: 42, TestFraction: 0})
	require.NoError(t, err)
	s := NewEnhanced(m, vectors, config.MatchCosine, 0)

	r := s.Predict("seat", []etymology.Entry{corpus[0], corpus[2]})
	require.True(t, r.Matched)
	assert.Equal(t, "chair", r.Word)
	assert.Greater(t, r.Similarity, 0.0)
	assert.Less(t, r.Similarity, 1.0)
}

func TestNewStrategy(t *testing.T) {
	ctx := context.Background()

	s := NewStrategy(ctx, config.InferenceConfig{Strategy: config.StrategyEdit, SimilarityFloor: 0.3}, nil)
	assert.Equal(t, EditDistance{Floor: 0.3}, s)

	missing := config.InferenceConfig{Strategy: config.StrategyEnhanced, ModelPath: filepath.Join(t.TempDir(), "none.json")}
	assert.Equal(t, NameEdit, NewStrategy(ctx, missing, nil).Name())

	m, _, err := Train(scriptCorpus(), nil, TrainOptions{Epochs: 10})
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, m.Save(path))

	cfg := config.InferenceConfig{
		Strategy:       config.StrategyEnhanced,
		ModelPath:      path,
		Match:          config.MatchEdit,
		EmbeddingsPath: filepath.Join(t.TempDir(), "absent.txt"),
	}
	s = NewStrategy(ctx, cfg, nil)
	assert.Equal(t, NameEnhanced, s.Name())
	assert.True(t, s.Predict("lupus", scriptCorpus()).Matched)
}
