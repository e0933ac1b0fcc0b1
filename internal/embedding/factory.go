package embedding

import (
	"time"

	"github.com/hyperjump/banglaqa/internal/config"
	"github.com/hyperjump/banglaqa/internal/models"
	"go.uber.org/zap"
)

// New builds the embedder selected by cfg.Provider. "auto" prefers OpenAI when apiKey is set
// and falls back to the local ONNX model otherwise.
func New(cfg config.EmbeddingConfig, apiKey string, logger *zap.Logger) (Embedder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	local := LocalConfig{
		ModelPath:  cfg.Local.ModelPath,
		Dimensions: cfg.Local.Dimensions,
		MaxTokens:  cfg.Local.MaxTokens,
		CacheSize:  cfg.Local.CacheSize,
	}

	var (
		emb Embedder
		err error
	)
	switch cfg.Provider {
	case config.ProviderOpenAI:
		emb, err = newOpenAIFromConfig(cfg, apiKey, logger)
	case config.ProviderLocal:
		emb, err = newLocal(local)
	case config.ProviderMock:
		emb = NewMockEmbedder(cfg.Dimensions)
	case config.ProviderAuto, "":
		if apiKey != "" {
			emb, err = newOpenAIFromConfig(cfg, apiKey, logger)
			break
		}
		logger.Info("OPENAI_API_KEY not set, trying local embedding model", zap.String("model_path", local.ModelPath))
		emb, err = newLocal(local)
		if err != nil {
			err = models.Wrap(models.ErrConfiguration, err,
				"no embedding provider available: set OPENAI_API_KEY or provide a local model")
		}
	default:
		err = models.Wrap(models.ErrConfiguration, nil, "unknown embedding provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	logger.Info("embedding provider ready", zap.Stringer("space", emb.Space()))
	return emb, nil
}

func newOpenAIFromConfig(cfg config.EmbeddingConfig, apiKey string, logger *zap.Logger) (Embedder, error) {
	return NewOpenAIEmbedder(OpenAIConfig{
		APIKey:        apiKey,
		BaseURL:       cfg.BaseURL,
		Model:         cfg.Model,
		Dimensions:    cfg.Dimensions,
		BatchSize:     cfg.BatchSize,
		MaxRetries:    cfg.MaxRetries,
		RetryInterval: time.Duration(cfg.RetryIntervalMs) * time.Millisecond,
		Timeout:       time.Duration(cfg.TimeoutSecs) * time.Second,
	}, WithLogger(logger))
}

func newLocal(cfg LocalConfig) (Embedder, error) {
	emb, err := NewONNXEmbedder(cfg)
	if err != nil {
		return nil, models.Wrap(models.ErrConfiguration, err, "local embedding model unavailable")
	}
	return emb, nil
}
