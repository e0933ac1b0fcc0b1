//go:build cgo
// +build cgo

package embedding

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/hyperjump/banglaqa/internal/models"
	"github.com/hyperjump/banglaqa/pkg/utils"
	ort "github.com/yalue/onnxruntime_go"
)

// ONNX graph names of a sentence-transformers MPNet export. MPNet has no segment
// embeddings, so there is no token_type_ids input.
var (
	onnxInputNames  = []string{"input_ids", "attention_mask"}
	onnxOutputNames = []string{"last_hidden_state"}
)

// ONNXEmbedder runs a local MPNet encoder through ONNX Runtime and mean-pools the
// token states into a sentence vector. It requires CGO and the onnxruntime shared library.
type ONNXEmbedder struct {
	session    *ort.AdvancedSession
	model      string
	dimensions int
	maxTokens  int
	cache      *EmbeddingCache
	tokenizer  Tokenizer
	// Bound to the session; each Run reads the inputs and overwrites hidden.
	inputIDs      *ort.Tensor[int64]
	attentionMask *ort.Tensor[int64]
	hidden        *ort.Tensor[float32]
	mu            sync.Mutex
}

// NewONNXEmbedder loads the model at cfg.ModelPath, initializing the runtime on first use.
func NewONNXEmbedder(cfg LocalConfig) (*ONNXEmbedder, error) {
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, fmt.Errorf("local embedding model %s: %w", cfg.ModelPath, err)
	}
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("failed to initialize ONNX runtime: %w", err)
		}
	}
	maxTokens, dimensions := cfg.MaxTokens, cfg.Dimensions
	if maxTokens < 2 {
		maxTokens = defaultMaxTokens
	}
	tokenizer := HashTokenizer{}
	ids, mask := tokenizer.Tokenize("", maxTokens)

	e := &ONNXEmbedder{
		model:      localModelName(cfg.ModelPath),
		dimensions: dimensions,
		maxTokens:  maxTokens,
		cache:      NewEmbeddingCache(cfg.CacheSize),
		tokenizer:  tokenizer,
	}
	var err error
	if e.inputIDs, err = ort.NewTensor(ort.NewShape(1, int64(maxTokens)), ids); err != nil {
		return nil, fmt.Errorf("failed to create input_ids tensor: %w", err)
	}
	if e.attentionMask, err = ort.NewTensor(ort.NewShape(1, int64(maxTokens)), mask); err != nil {
		_ = e.Close()
		return nil, fmt.Errorf("failed to create attention_mask tensor: %w", err)
	}
	e.hidden, err = ort.NewEmptyTensor[float32](ort.NewShape(1, int64(maxTokens), int64(dimensions)))
	if err != nil {
		_ = e.Close()
		return nil, fmt.Errorf("failed to create last_hidden_state tensor: %w", err)
	}

	e.session, err = ort.NewAdvancedSession(cfg.ModelPath, onnxInputNames, onnxOutputNames,
		[]ort.ArbitraryTensor{e.inputIDs, e.attentionMask},
		[]ort.ArbitraryTensor{e.hidden},
		nil,
	)
	if err != nil {
		_ = e.Close()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}
	return e, nil
}

// Embed returns the mean-pooled, L2-normalized embedding for text, using the cache when possible.
func (e *ONNXEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if cached, ok := e.cache.Get(text); ok {
		return cached, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	ids, mask := e.tokenizer.Tokenize(text, e.maxTokens)
	copy(e.inputIDs.GetData(), ids)
	copy(e.attentionMask.GetData(), mask)

	if err := e.session.Run(); err != nil {
		return nil, models.Wrap(models.ErrEmbeddingProvider, err, "local inference failed")
	}

	embedding := meanPool(e.hidden.GetData(), mask, e.dimensions)
	utils.NormalizeL2(embedding)
	e.cache.Set(text, embedding)
	return embedding, nil
}

// EmbedBatch calls Embed for each text.
func (e *ONNXEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		embeddings[i] = emb
	}
	return embeddings, nil
}

// Space returns the local model identity.
func (e *ONNXEmbedder) Space() models.EmbeddingSpace {
	return models.EmbeddingSpace{Provider: ProviderLocal, Model: e.model, Dimensions: e.dimensions}
}

// Close destroys the session and tensors.
func (e *ONNXEmbedder) Close() error {
	var err error
	if e.session != nil {
		err = e.session.Destroy()
		e.session = nil
	}
	if e.inputIDs != nil {
		_ = e.inputIDs.Destroy()
		e.inputIDs = nil
	}
	if e.attentionMask != nil {
		_ = e.attentionMask.Destroy()
		e.attentionMask = nil
	}
	if e.hidden != nil {
		_ = e.hidden.Destroy()
		e.hidden = nil
	}
	return err
}
