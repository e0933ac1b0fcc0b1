package embedding

import (
	"path/filepath"
	"testing"

	"github.com/hyperjump/banglaqa/internal/config"
	"github.com/hyperjump/banglaqa/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEmbeddingConfig(t *testing.T, provider string) config.EmbeddingConfig {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Embedding.Provider = provider
	cfg.Embedding.Local.ModelPath = filepath.Join(t.TempDir(), "missing.onnx")
	return cfg.Embedding
}

func TestNew_OpenAI(t *testing.T) {
	emb, err := New(testEmbeddingConfig(t, config.ProviderOpenAI), "sk-test", nil)
	require.NoError(t, err)
	assert.Equal(t, models.EmbeddingSpace{Provider: "openai", Model: "text-embedding-3-small", Dimensions: 1536}, emb.Space())
}

func TestNew_OpenAIWithoutKey(t *testing.T) {
	_, err := New(testEmbeddingConfig(t, config.ProviderOpenAI), "", nil)
	assert.ErrorIs(t, err, models.ErrConfiguration)
}

func TestNew_AutoPrefersOpenAI(t *testing.T) {
	emb, err := New(testEmbeddingConfig(t, config.ProviderAuto), "sk-test", nil)
	require.NoError(t, err)
	assert.Equal(t, "openai", emb.Space().Provider)
}

func TestNew_AutoWithoutKeyOrModel(t *testing.T) {
	_, err := New(testEmbeddingConfig(t, config.ProviderAuto), "", nil)
	assert.ErrorIs(t, err, models.ErrConfiguration)
}

func TestNew_Mock(t *testing.T) {
	cfg := testEmbeddingConfig(t, config.ProviderMock)
	cfg.Dimensions = 16
	emb, err := New(cfg, "", nil)
	require.NoError(t, err)
	assert.Equal(t, 16, emb.Space().Dimensions)
}

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New(testEmbeddingConfig(t, "cohere"), "", nil)
	assert.ErrorIs(t, err, models.ErrConfiguration)
}

func TestLocalModelName(t *testing.T) {
	assert.Equal(t, "all-mpnet-base-v2", localModelName("/models/all-mpnet-base-v2.onnx"))
}
