package utils

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// NewLogger returns the process-wide zap logger. When debug is true, uses development config
// (human-readable, debug level); otherwise uses production config (JSON, info level).
// When logFile is non-empty, output goes to that file instead of stderr so that log lines do
// not interleave with the interactive prompt.
func NewLogger(debug bool, logFile string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg = zap.NewDevelopmentConfig()
	}
	if logFile != "" {
		if err := os.MkdirAll(filepath.Dir(logFile), 0755); err != nil {
			return nil, err
		}
		cfg.OutputPaths = []string{logFile}
		cfg.ErrorOutputPaths = []string{logFile}
	}
	return cfg.Build()
}
