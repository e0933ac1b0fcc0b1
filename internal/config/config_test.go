package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperjump/banglaqa/internal/models"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
document:
  path: "docs/FAQ.pdf"
chunking:
  chunk_size: 500
  chunk_overlap: 100
llm:
  model: "gpt-4o-mini"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Chunking.ChunkSize != 500 || cfg.Chunking.ChunkOverlap != 100 {
		t.Errorf("unexpected chunking config: %+v", cfg.Chunking)
	}
	if cfg.LLM.Model != "gpt-4o-mini" {
		t.Errorf("llm model = %s", cfg.LLM.Model)
	}
	if want := filepath.Join(dir, "docs", "FAQ.pdf"); cfg.Document.Path != want {
		t.Errorf("document path = %s, want %s", cfg.Document.Path, want)
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestLoad_debugTrue(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("debug: true\n"), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("debug should be true when set in config")
	}
}

func TestLoad_invalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("chunking: [unterminated"), 0600); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path)
	if !errors.Is(err, models.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestLoad_expandPathRelativeToConfigDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
storage:
  index_dir: "./data/faiss_index"
embedding:
  local:
    model_path: "models/mpnet.onnx"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "data", "faiss_index"); cfg.Storage.IndexDir != want {
		t.Errorf("index_dir = %s, want %s", cfg.Storage.IndexDir, want)
	}
	if want := filepath.Join(dir, "models", "mpnet.onnx"); cfg.Embedding.Local.ModelPath != want {
		t.Errorf("model_path = %s, want %s", cfg.Embedding.Local.ModelPath, want)
	}
}

func TestExpandPath(t *testing.T) {
	if got := expandPath("/abs/file.pdf", "/cfg"); got != "/abs/file.pdf" {
		t.Errorf("absolute path changed: %s", got)
	}
	if got := expandPath("", "/cfg"); got != "" {
		t.Errorf("empty path changed: %s", got)
	}
	if got := expandPath("FAQ.pdf", "/cfg"); got != filepath.Join("/cfg", "FAQ.pdf") {
		t.Errorf("relative path: %s", got)
	}
	if home, err := os.UserHomeDir(); err == nil {
		if got := expandPath("~/docs/FAQ.pdf", "/cfg"); got != filepath.Join(home, "docs", "FAQ.pdf") {
			t.Errorf("home path: %s", got)
		}
	}
}

func TestLoadOrDefault_missingFile(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadOrDefault: %v", err)
	}
	if filepath.Base(cfg.Document.Path) != "FAQ.pdf" || !filepath.IsAbs(cfg.Document.Path) {
		t.Errorf("document path = %s", cfg.Document.Path)
	}
	if filepath.Base(cfg.Storage.IndexDir) != "faiss_index" {
		t.Errorf("index dir = %s", cfg.Storage.IndexDir)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Chunking.ChunkSize != 1000 || cfg.Chunking.ChunkOverlap != 200 {
		t.Errorf("chunking defaults: %+v", cfg.Chunking)
	}
	if cfg.Retrieval.TopK != 4 {
		t.Errorf("top_k default: got %d", cfg.Retrieval.TopK)
	}
	if cfg.Embedding.Provider != ProviderAuto || cfg.Embedding.Model != "text-embedding-3-small" {
		t.Errorf("embedding defaults: %+v", cfg.Embedding)
	}
	if cfg.Embedding.BatchSize != 100 || cfg.Embedding.MaxRetries != 3 {
		t.Errorf("embedding batch/retry defaults: %+v", cfg.Embedding)
	}
	if cfg.Embedding.Local.Dimensions != 768 {
		t.Errorf("local dimensions default: got %d", cfg.Embedding.Local.Dimensions)
	}
	if cfg.LLM.Model != "gpt-4-turbo-preview" || cfg.LLM.Temperature != 0.7 || cfg.LLM.MaxRetries != 3 {
		t.Errorf("llm defaults: %+v", cfg.LLM)
	}
	if cfg.Output.Format != OutputText {
		t.Errorf("output default: %s", cfg.Output.Format)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"overlap equals size", func(c *Config) { c.Chunking.ChunkOverlap = c.Chunking.ChunkSize }},
		{"negative overlap", func(c *Config) { c.Chunking.ChunkOverlap = -1 }},
		{"zero top_k", func(c *Config) { c.Retrieval.TopK = -1 }},
		{"top_k above max", func(c *Config) { c.Retrieval.TopK = models.MaxTopK + 1 }},
		{"unknown provider", func(c *Config) { c.Embedding.Provider = "cohere" }},
		{"unknown output", func(c *Config) { c.Output.Format = "xml" }},
		{"temperature out of range", func(c *Config) { c.LLM.Temperature = 3 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			ApplyDefaults(cfg)
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, models.ErrConfiguration) {
				t.Errorf("Validate() = %v, want configuration error", err)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	cfg.ApplyEnv(&Env{
		OpenAIAPIKey: "sk-test",
		Document:     "/data/FAQ.pdf",
		Debug:        true,
		SentryDSN:    "https://key@sentry.example/1",
		Environment:  "production",
	})
	if cfg.OpenAIAPIKey != "sk-test" {
		t.Errorf("api key = %q", cfg.OpenAIAPIKey)
	}
	if cfg.Document.Path != "/data/FAQ.pdf" {
		t.Errorf("document = %s", cfg.Document.Path)
	}
	if !cfg.Debug {
		t.Error("debug should be enabled")
	}
	if cfg.Telemetry.SentryDSN == "" || cfg.Telemetry.Environment != "production" {
		t.Errorf("telemetry = %+v", cfg.Telemetry)
	}

	cfg.ApplyEnv(nil)
	if cfg.OpenAIAPIKey != "sk-test" {
		t.Error("nil env must not change config")
	}
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-plain")
	t.Setenv("BANGLAQA_DOCUMENT", "other.pdf")
	t.Setenv("BANGLAQA_DEBUG", "true")

	env, err := LoadEnv()
	if err != nil {
		t.Fatalf("LoadEnv: %v", err)
	}
	if env.OpenAIAPIKey != "sk-plain" {
		t.Errorf("unprefixed OPENAI_API_KEY not picked up: %q", env.OpenAIAPIKey)
	}
	if env.Document != "other.pdf" || !env.Debug {
		t.Errorf("prefixed values: %+v", env)
	}
	if env.Config != "config.yaml" {
		t.Errorf("config path default = %s", env.Config)
	}
}

func TestLoadEnv_IgnoresUnprefixedAppSettings(t *testing.T) {
	t.Setenv("DEBUG", "express:*")
	t.Setenv("CONFIG", "/etc/unrelated.yaml")
	t.Setenv("DOCUMENT", "unrelated.pdf")
	t.Setenv("ENVIRONMENT", "staging")
	t.Setenv("SENTRY_DSN", "https://key@sentry.example/1")
	t.Setenv("BANGLAQA_OPENAI_API_KEY", "sk-prefixed")
	t.Setenv("OPENAI_API_KEY", "sk-plain")

	env, err := LoadEnv()
	if err != nil {
		t.Fatalf("LoadEnv: %v", err)
	}
	if env.Debug || env.Document != "" || env.Environment != "" {
		t.Errorf("unprefixed app settings leaked in: %+v", env)
	}
	if env.Config != "config.yaml" {
		t.Errorf("config path = %s, want default", env.Config)
	}
	if env.SentryDSN != "https://key@sentry.example/1" {
		t.Errorf("unprefixed SENTRY_DSN not picked up: %q", env.SentryDSN)
	}
	if env.OpenAIAPIKey != "sk-prefixed" {
		t.Errorf("prefixed key should win, got %q", env.OpenAIAPIKey)
	}
}

func TestLoadEnv_RejectsInvalidPrefixedDebug(t *testing.T) {
	t.Setenv("BANGLAQA_DEBUG", "express:*")

	_, err := LoadEnv()
	if !errors.Is(err, models.ErrConfiguration) {
		t.Errorf("expected configuration error, got %v", err)
	}
}
