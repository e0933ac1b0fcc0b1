// Package embedding provides text embedding via OpenAI or a local ONNX model.
package embedding

import (
	"context"

	"github.com/hyperjump/banglaqa/internal/models"
)

// Embedder produces vector embeddings for text. EmbedBatch returns one vector per input,
// in input order, and Embed(t) equals EmbedBatch([t])[0].
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Space() models.EmbeddingSpace
	Close() error
}
