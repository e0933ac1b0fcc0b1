// Package config provides configuration loading and structs for the banglaqa pipeline.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperjump/banglaqa/internal/models"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	LogFile   string          `yaml:"log_file"`
	Document  DocumentConfig  `yaml:"document"`
	Storage   StorageConfig   `yaml:"storage"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	LLM       LLMConfig       `yaml:"llm"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Output    OutputConfig    `yaml:"output"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// OpenAIAPIKey is only ever read from the environment.
	OpenAIAPIKey string `yaml:"-"`
}

// DocumentConfig names the single source document.
type DocumentConfig struct {
	Path string `yaml:"path"`
}

// StorageConfig holds the persisted index location.
type StorageConfig struct {
	IndexDir string `yaml:"index_dir"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider        string               `yaml:"provider"`
	Model           string               `yaml:"model"`
	Dimensions      int                  `yaml:"dimensions"`
	BatchSize       int                  `yaml:"batch_size"`
	MaxRetries      int                  `yaml:"max_retries"`
	RetryIntervalMs int                  `yaml:"retry_interval_ms"`
	TimeoutSecs     int                  `yaml:"timeout_secs"`
	BaseURL         string               `yaml:"base_url"`
	Local           LocalEmbeddingConfig `yaml:"local"`
}

// LocalEmbeddingConfig holds ONNX embedder settings.
type LocalEmbeddingConfig struct {
	ModelPath  string `yaml:"model_path"`
	Dimensions int    `yaml:"dimensions"`
	MaxTokens  int    `yaml:"max_tokens"`
	CacheSize  int    `yaml:"cache_size"`
}

// LLMConfig holds chat completion settings.
type LLMConfig struct {
	Model           string  `yaml:"model"`
	Temperature     float32 `yaml:"temperature"`
	MaxRetries      int     `yaml:"max_retries"`
	RetryIntervalMs int     `yaml:"retry_interval_ms"`
	TimeoutSecs     int     `yaml:"timeout_secs"`
	BaseURL         string  `yaml:"base_url"`
}

// ChunkingConfig holds segment size and overlap, both in characters.
type ChunkingConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
}

// RetrievalConfig holds retrieval settings.
type RetrievalConfig struct {
	TopK int `yaml:"top_k"`
}

// OutputConfig selects how answers are printed: "text" or "json".
type OutputConfig struct {
	Format string `yaml:"format"`
}

// TelemetryConfig holds error reporting settings.
type TelemetryConfig struct {
	SentryDSN   string `yaml:"sentry_dsn"`
	Environment string `yaml:"environment"`
}

// Env is the set of environment overrides. Application settings are read only
// with the BANGLAQA_ prefix so unrelated variables such as DEBUG or CONFIG are
// ignored. The credentials also accept their conventional unprefixed names.
type Env struct {
	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY"`
	SentryDSN    string `envconfig:"SENTRY_DSN"`

	Config      string `default:"config.yaml"`
	Document    string
	Debug       bool
	Environment string
}

const envPrefix = "BANGLAQA"

// LoadEnv loads a .env file from the working directory when present and reads the environment.
func LoadEnv() (*Env, error) {
	_ = godotenv.Load()

	var env Env
	if err := envconfig.Process(envPrefix, &env); err != nil {
		return nil, models.Wrap(models.ErrConfiguration, err, "failed to process environment")
	}
	return &env, nil
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, models.Wrap(models.ErrConfiguration, err, "failed to parse config %s", path)
	}

	ApplyDefaults(&cfg)
	cfg.expandPaths(filepath.Dir(path))
	return &cfg, nil
}

// LoadOrDefault behaves like Load but falls back to defaults rooted at the working
// directory when no file exists at path.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	cfg = &Config{}
	ApplyDefaults(cfg)
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	cfg.expandPaths(cwd)
	return cfg, nil
}

// ApplyEnv overlays environment values on cfg. A document path from the environment is
// resolved against the working directory.
func (c *Config) ApplyEnv(env *Env) {
	if env == nil {
		return
	}
	c.OpenAIAPIKey = env.OpenAIAPIKey
	if env.Document != "" {
		if abs, err := filepath.Abs(env.Document); err == nil {
			c.Document.Path = abs
		} else {
			c.Document.Path = env.Document
		}
	}
	if env.Debug {
		c.Debug = true
	}
	if env.SentryDSN != "" {
		c.Telemetry.SentryDSN = env.SentryDSN
	}
	if env.Environment != "" {
		c.Telemetry.Environment = env.Environment
	}
}

// Validate checks value ranges that the pipeline relies on.
func (c *Config) Validate() error {
	var problems []string
	if c.Chunking.ChunkSize <= 0 {
		problems = append(problems, "chunking.chunk_size must be positive")
	}
	if c.Chunking.ChunkOverlap < 0 || c.Chunking.ChunkOverlap >= c.Chunking.ChunkSize {
		problems = append(problems, "chunking.chunk_overlap must be >= 0 and smaller than chunk_size")
	}
	if c.Retrieval.TopK <= 0 || c.Retrieval.TopK > models.MaxTopK {
		problems = append(problems, fmt.Sprintf("retrieval.top_k must be between 1 and %d", models.MaxTopK))
	}
	if c.Embedding.BatchSize <= 0 {
		problems = append(problems, "embedding.batch_size must be positive")
	}
	switch c.Embedding.Provider {
	case ProviderAuto, ProviderOpenAI, ProviderLocal, ProviderMock:
	default:
		problems = append(problems, fmt.Sprintf("embedding.provider %q is not one of auto, openai, local, mock", c.Embedding.Provider))
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		problems = append(problems, "llm.temperature must be between 0 and 2")
	}
	switch c.Output.Format {
	case OutputText, OutputJSON:
	default:
		problems = append(problems, fmt.Sprintf("output.format %q is not one of text, json", c.Output.Format))
	}
	if c.Document.Path == "" {
		problems = append(problems, "document.path is required")
	}
	if c.Storage.IndexDir == "" {
		problems = append(problems, "storage.index_dir is required")
	}
	if len(problems) > 0 {
		return models.Wrap(models.ErrConfiguration, errors.New(strings.Join(problems, "; ")), "invalid configuration")
	}
	return nil
}

func (c *Config) expandPaths(configDir string) {
	c.Document.Path = expandPath(c.Document.Path, configDir)
	c.Storage.IndexDir = expandPath(c.Storage.IndexDir, configDir)
	c.Embedding.Local.ModelPath = expandPath(c.Embedding.Local.ModelPath, configDir)
	if c.LogFile != "" {
		c.LogFile = expandPath(c.LogFile, configDir)
	}
}

// expandPath converts a path to absolute. Paths starting with "~/" are relative to the
// home directory; other relative paths are relative to configDir.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
		return path
	}
	return filepath.Join(configDir, path)
}
