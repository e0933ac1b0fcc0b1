package embedding

import (
	"path/filepath"
	"strings"
)

// ProviderLocal is the provider name recorded for the ONNX embedder.
const ProviderLocal = "local"

// LocalConfig configures the ONNX embedder.
type LocalConfig struct {
	ModelPath  string
	Dimensions int
	MaxTokens  int
	CacheSize  int
}

// localModelName derives the model name recorded in the embedding space from the model file name.
func localModelName(modelPath string) string {
	base := filepath.Base(modelPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
