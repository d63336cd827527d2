package infer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/japaniel/etymoagent/pkg/embedding"
	"github.com/japaniel/etymoagent/pkg/etymology"
)

// ModelVersion is the artifact format written by Save.
const ModelVersion = 1

// Model is a trained origin classifier. It is built offline by Train and
// loaded at query time; it is never retrained per query.
type Model struct {
	Version      int                  `json:"version"`
	ID           string               `json:"id"`
	TrainedAt    time.Time            `json:"trained_at"`
	Labels       []etymology.Language `json:"labels"`
	MinN         int                  `json:"min_n"`
	MaxN         int                  `json:"max_n"`
	Vocabulary   []string             `json:"vocabulary"`
	EmbeddingDim int                  `json:"embedding_dim"`
	Weights      [][]float64          `json:"weights"`
	Bias         []float64            `json:"bias"`
	TrainSize    int                  `json:"train_size"`
	TestSize     int                  `json:"test_size"`
	Accuracy     float64              `json:"accuracy"`

	once sync.Once
	feat *featurizer
	clf  *softmax
}

// Bind fixes the embedding table used for featurization. It must be called
// before the first Classify; later calls have no effect.
func (m *Model) Bind(vectors *embedding.Table) {
	m.once.Do(func() { m.init(vectors) })
}

func (m *Model) init(vectors *embedding.Table) {
	m.feat = newFeaturizer(m.Vocabulary, m.MinN, m.MaxN, m.EmbeddingDim, vectors)
	m.clf = &softmax{weights: m.Weights, bias: m.Bias}
}

func (m *Model) featurizer() *featurizer {
	m.Bind(nil)
	return m.feat
}

// Classify returns the most probable origin language of word.
func (m *Model) Classify(word string) etymology.Language {
	if len(m.Labels) == 0 {
		return ""
	}
	m.Bind(nil)
	return m.Labels[m.clf.predict(m.feat.features(word))]
}

func (m *Model) validate() error {
	if m.Version != ModelVersion {
		return fmt.Errorf("unsupported model version %d", m.Version)
	}
	if len(m.Labels) == 0 || len(m.Weights) != len(m.Labels) || len(m.Bias) != len(m.Labels) {
		return fmt.Errorf("model has %d labels, %d weight rows and %d biases", len(m.Labels), len(m.Weights), len(m.Bias))
	}
	size := m.EmbeddingDim + len(m.Vocabulary)
	for k, row := range m.Weights {
		if len(row) != size {
			return fmt.Errorf("weight row %d has %d columns, want %d", k, len(row), size)
		}
	}
	if m.MinN <= 0 || m.MaxN < m.MinN {
		return fmt.Errorf("invalid n-gram range [%d,%d]", m.MinN, m.MaxN)
	}
	return nil
}

// Save writes the model as JSON, replacing path atomically.
func (m *Model) Save(path string) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode model: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("save model: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("save model: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save model: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

// LoadModel reads a model saved by Save.
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode model %s: %w", path, err)
	}
	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("model %s: %w", path, err)
	}
	return &m, nil
}
