package embedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hyperjump/banglaqa/internal/models"
	"github.com/hyperjump/banglaqa/pkg/utils"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// ProviderOpenAI is the provider name recorded in the embedding space.
const ProviderOpenAI = "openai"

// nativeDimensions lists output sizes for known OpenAI embedding models.
var nativeDimensions = map[string]int{
	string(openai.SmallEmbedding3): 1536,
	string(openai.LargeEmbedding3): 3072,
	string(openai.AdaEmbeddingV2):  1536,
}

// EmbeddingAPI is the subset of the OpenAI client used for embeddings. *openai.Client implements it.
type EmbeddingAPI interface {
	CreateEmbeddings(ctx context.Context, conv openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error)
}

// OpenAIConfig configures an OpenAIEmbedder.
type OpenAIConfig struct {
	APIKey        string
	BaseURL       string
	Model         string
	Dimensions    int // 0 uses the model's native size
	BatchSize     int
	MaxRetries    int
	RetryInterval time.Duration
	Timeout       time.Duration
}

// OpenAIEmbedder calls the OpenAI embeddings endpoint in batches with bounded retries.
type OpenAIEmbedder struct {
	api           EmbeddingAPI
	model         string
	dimensions    int
	requestDims   int
	batchSize     int
	maxRetries    int
	retryInterval time.Duration
	logger        *zap.Logger
}

// Option configures an embedder.
type Option func(*OpenAIEmbedder)

// WithLogger sets the logger used for retry and batch diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(e *OpenAIEmbedder) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewOpenAIEmbedder creates an embedder backed by the OpenAI API.
func NewOpenAIEmbedder(cfg OpenAIConfig, opts ...Option) (*OpenAIEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, models.Wrap(models.ErrConfiguration, nil, "OPENAI_API_KEY is not set")
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	clientCfg.HTTPClient = &http.Client{Timeout: timeout}
	return newOpenAIEmbedder(openai.NewClientWithConfig(clientCfg), cfg, opts...)
}

func newOpenAIEmbedder(api EmbeddingAPI, cfg OpenAIConfig, opts ...Option) (*OpenAIEmbedder, error) {
	if cfg.Model == "" {
		cfg.Model = string(openai.SmallEmbedding3)
	}
	dims := cfg.Dimensions
	if dims <= 0 {
		dims = nativeDimensions[cfg.Model]
	}
	if dims <= 0 {
		return nil, models.Wrap(models.ErrConfiguration, nil,
			"embedding.dimensions must be set for unknown model %q", cfg.Model)
	}
	e := &OpenAIEmbedder{
		api:           api,
		model:         cfg.Model,
		dimensions:    dims,
		requestDims:   cfg.Dimensions,
		batchSize:     cfg.BatchSize,
		maxRetries:    cfg.MaxRetries,
		retryInterval: cfg.RetryInterval,
		logger:        zap.NewNop(),
	}
	if e.batchSize <= 0 {
		e.batchSize = 100
	}
	if e.maxRetries <= 0 {
		e.maxRetries = 3
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Embed returns the embedding for a single text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds texts in batches of the configured size, preserving input order.
// Each batch is retried on transient failures; the first batch that still fails aborts
// the whole call.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		end := start + e.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		vecs, err := e.embedBatchWithRetry(ctx, texts[start:end])
		if err != nil {
			return nil, models.Wrap(models.ErrEmbeddingProvider, err,
				"embedding texts %d-%d with %s", start, end-1, e.model)
		}
		out = append(out, vecs...)
	}
	return out, nil
}

func (e *OpenAIEmbedder) embedBatchWithRetry(ctx context.Context, batch []string) ([][]float32, error) {
	var result [][]float32
	attempt := 0
	err := utils.Retry(ctx, e.maxRetries, e.retryInterval, func() error {
		attempt++
		vecs, err := e.embedOnce(ctx, batch)
		if err != nil {
			if isPermanent(err) {
				return utils.Permanent(err)
			}
			e.logger.Warn("embedding request failed",
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", e.maxRetries),
				zap.Int("batch_size", len(batch)),
				zap.Error(err))
			return err
		}
		result = vecs
		return nil
	})
	return result, err
}

func (e *OpenAIEmbedder) embedOnce(ctx context.Context, batch []string) ([][]float32, error) {
	req := openai.EmbeddingRequest{
		Input: batch,
		Model: openai.EmbeddingModel(e.model),
	}
	if e.requestDims > 0 {
		req.Dimensions = e.requestDims
	}
	resp, err := e.api.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(resp.Data) != len(batch) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(batch), len(resp.Data))
	}
	vecs := make([][]float32, len(batch))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(batch) || vecs[d.Index] != nil {
			return nil, fmt.Errorf("unexpected embedding index %d", d.Index)
		}
		if len(d.Embedding) != e.dimensions {
			return nil, utils.Permanent(models.Wrap(models.ErrDimensionMismatch, nil,
				"model returned %d dimensions, expected %d", len(d.Embedding), e.dimensions))
		}
		v := make([]float32, len(d.Embedding))
		copy(v, d.Embedding)
		utils.NormalizeL2(v)
		vecs[d.Index] = v
	}
	return vecs, nil
}

// isPermanent reports whether retrying err cannot help.
func isPermanent(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}
	switch status {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return true
	}
	return false
}

// Space returns the OpenAI model and dimensionality.
func (e *OpenAIEmbedder) Space() models.EmbeddingSpace {
	return models.EmbeddingSpace{Provider: ProviderOpenAI, Model: e.model, Dimensions: e.dimensions}
}

// Close is a no-op; the HTTP client holds no resources that need releasing.
func (e *OpenAIEmbedder) Close() error {
	return nil
}
