package infer

import (
	"context"
	"log/slog"

	"github.com/japaniel/etymoagent/pkg/config"
	"github.com/japaniel/etymoagent/pkg/embedding"
)

// LoadVectors makes sure the configured embedding table is present and loads
// it. No configured path yields (nil, nil).
func LoadVectors(ctx context.Context, cfg config.InferenceConfig) (*embedding.Table, error) {
	if cfg.EmbeddingsPath == "" {
		return nil, nil
	}
	if err := embedding.EnsureVectors(ctx, cfg.EmbeddingsPath, cfg.EmbeddingsURL); err != nil {
		return nil, err
	}
	return embedding.Load(cfg.EmbeddingsPath)
}

// NewStrategy builds the configured strategy. The enhanced strategy falls
// back to EditDistance when its model cannot be loaded, and to zero
// embedding features when the table cannot be loaded.
func NewStrategy(ctx context.Context, cfg config.InferenceConfig, log *slog.Logger) Strategy {
	if log == nil {
		log = slog.Default()
	}
	base := EditDistance{Floor: cfg.SimilarityFloor}
	if cfg.Strategy != config.StrategyEnhanced {
		return base
	}

	model, err := LoadModel(cfg.ModelPath)
	if err != nil {
		log.Warn("model unavailable, using edit distance", "path", cfg.ModelPath, "error", err)
		return base
	}

	vectors, err := LoadVectors(ctx, cfg)
	if err != nil {
		log.Warn("embedding table unavailable, using zero vectors", "path", cfg.EmbeddingsPath, "error", err)
		vectors = nil
	}
	if vectors.Dim() != model.EmbeddingDim {
		log.Warn("embedding dimension does not match model, using zero vectors",
			"model_dim", model.EmbeddingDim, "table_dim", vectors.Dim())
	}

	log.Info("enhanced strategy ready", "model_id", model.ID, "labels", len(model.Labels),
		"accuracy", model.Accuracy, "match", cfg.Match)
	return NewEnhanced(model, vectors, cfg.Match, cfg.SimilarityFloor)
}
