package config

// Embedding provider names.
const (
	ProviderAuto   = "auto"
	ProviderOpenAI = "openai"
	ProviderLocal  = "local"
	ProviderMock   = "mock"
)

// Output formats.
const (
	OutputText = "text"
	OutputJSON = "json"
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Document.Path == "" {
		cfg.Document.Path = "FAQ.pdf"
	}
	if cfg.Storage.IndexDir == "" {
		cfg.Storage.IndexDir = "faiss_index"
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = ProviderAuto
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "text-embedding-3-small"
	}
	if cfg.Embedding.BatchSize == 0 {
		cfg.Embedding.BatchSize = 100
	}
	if cfg.Embedding.MaxRetries == 0 {
		cfg.Embedding.MaxRetries = 3
	}
	if cfg.Embedding.RetryIntervalMs == 0 {
		cfg.Embedding.RetryIntervalMs = 1000
	}
	if cfg.Embedding.TimeoutSecs == 0 {
		cfg.Embedding.TimeoutSecs = 60
	}
	if cfg.Embedding.Local.ModelPath == "" {
		cfg.Embedding.Local.ModelPath = "models/all-mpnet-base-v2.onnx"
	}
	if cfg.Embedding.Local.Dimensions == 0 {
		cfg.Embedding.Local.Dimensions = 768
	}
	if cfg.Embedding.Local.MaxTokens == 0 {
		cfg.Embedding.Local.MaxTokens = 256
	}
	if cfg.Embedding.Local.CacheSize == 0 {
		cfg.Embedding.Local.CacheSize = 10000
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gpt-4-turbo-preview"
	}
	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = 0.7
	}
	if cfg.LLM.MaxRetries == 0 {
		cfg.LLM.MaxRetries = 3
	}
	if cfg.LLM.RetryIntervalMs == 0 {
		cfg.LLM.RetryIntervalMs = 1000
	}
	if cfg.LLM.TimeoutSecs == 0 {
		cfg.LLM.TimeoutSecs = 120
	}
	if cfg.Chunking.ChunkSize == 0 {
		cfg.Chunking.ChunkSize = 1000
	}
	if cfg.Chunking.ChunkOverlap == 0 {
		cfg.Chunking.ChunkOverlap = 200
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 4
	}
	if cfg.Output.Format == "" {
		cfg.Output.Format = OutputText
	}
	if cfg.Telemetry.Environment == "" {
		cfg.Telemetry.Environment = "development"
	}
}
