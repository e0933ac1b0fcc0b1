// Package main is the banglaqa CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hyperjump/banglaqa/internal/config"
	"github.com/hyperjump/banglaqa/internal/embedding"
	"github.com/hyperjump/banglaqa/internal/extract"
	"github.com/hyperjump/banglaqa/internal/indexer"
	"github.com/hyperjump/banglaqa/internal/llm"
	"github.com/hyperjump/banglaqa/internal/models"
	"github.com/hyperjump/banglaqa/internal/pipeline"
	"github.com/hyperjump/banglaqa/internal/qa"
	"github.com/hyperjump/banglaqa/internal/telemetry"
	"github.com/hyperjump/banglaqa/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

func main() {
	command := "ask"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}
	switch command {
	case "ask":
		os.Exit(runAsk())
	case "index":
		os.Exit(runIndex())
	case "status":
		os.Exit(runStatus())
	case "version", "--version", "-v":
		fmt.Printf("banglaqa version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// app holds the process-wide configuration, logger and error reporting.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	flush  func()
}

func (a *app) Close() {
	a.flush()
	_ = a.logger.Sync()
}

// report logs err and sends it to Sentry.
func (a *app) report(ctx context.Context, msg string, err error) {
	a.logger.Error(msg, zap.Error(err))
	telemetry.CaptureError(ctx, err)
}

func setup() (*app, error) {
	env, err := config.LoadEnv()
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadOrDefault(env.Config)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(env)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger, err := utils.NewLogger(cfg.Debug, cfg.LogFile)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	flush, err := telemetry.Init(telemetry.Config{
		DSN:         cfg.Telemetry.SentryDSN,
		Environment: cfg.Telemetry.Environment,
		Release:     "banglaqa@" + version,
		Debug:       cfg.Debug,
	}, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("config loaded",
		zap.String("config_path", env.Config),
		zap.String("document", cfg.Document.Path),
		zap.String("index_dir", cfg.Storage.IndexDir),
		zap.String("embedding_provider", cfg.Embedding.Provider),
		zap.Bool("debug", cfg.Debug))
	return &app{cfg: cfg, logger: logger, flush: flush}, nil
}

// Components holds initialized services.
type Components struct {
	Embedder embedding.Embedder
	Chunker  *indexer.Chunker
	Indexer  *indexer.Indexer
	Driver   *pipeline.Driver
}

func (c *Components) Close() {
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
}

func initializeComponents(a *app, progress indexer.ProgressFunc) (*Components, error) {
	cfg := a.cfg
	embedder, err := embedding.New(cfg.Embedding, cfg.OpenAIAPIKey, a.logger)
	if err != nil {
		return nil, err
	}
	chunker := indexer.NewChunker(cfg.Chunking.ChunkSize, cfg.Chunking.ChunkOverlap)
	idxOpts := []indexer.IndexerOption{
		indexer.WithLogger(a.logger),
		indexer.WithBatchSize(cfg.Embedding.BatchSize),
		indexer.WithChunking(chunker),
	}
	if progress != nil {
		idxOpts = append(idxOpts, indexer.WithProgress(progress))
	}
	idx := indexer.NewIndexer(cfg.Storage.IndexDir, embedder, idxOpts...)
	driver := pipeline.New(cfg, extract.NewPDFParser(), chunker, idx, embedder,
		pipeline.WithLogger(a.logger),
		pipeline.WithErrorReporter(func(err error) { telemetry.CaptureError(context.Background(), err) }),
	)
	return &Components{Embedder: embedder, Chunker: chunker, Indexer: idx, Driver: driver}, nil
}

func newGenerator(a *app) (*llm.OpenAIGenerator, error) {
	cfg := a.cfg.LLM
	return llm.NewOpenAIGenerator(llm.Config{
		APIKey:        a.cfg.OpenAIAPIKey,
		BaseURL:       cfg.BaseURL,
		Model:         cfg.Model,
		Temperature:   cfg.Temperature,
		MaxRetries:    cfg.MaxRetries,
		RetryInterval: time.Duration(cfg.RetryIntervalMs) * time.Millisecond,
		Timeout:       time.Duration(cfg.TimeoutSecs) * time.Second,
	}, llm.WithLogger(a.logger))
}

// runAsk ingests the document and answers questions from stdin until the user quits.
func runAsk() int {
	a, err := setup()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start: %v\n", err)
		return 1
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	generator, err := newGenerator(a)
	if err != nil {
		a.report(ctx, "failed to initialize language model", err)
		fmt.Fprintf(os.Stderr, "Failed to start: %v\n", err)
		return 1
	}
	a.logger.Info("language model ready", zap.String("model", generator.Model()))
	components, err := initializeComponents(a, newProgressReporter(os.Stderr))
	if err != nil {
		a.report(ctx, "failed to initialize embedder", err)
		fmt.Fprintf(os.Stderr, "Failed to start: %v\n", err)
		return 1
	}
	defer components.Close()

	ix, err := components.Driver.Ingest(ctx, a.cfg.Document.Path)
	if err != nil {
		return a.exitIngest(ctx, err)
	}
	defer ix.Close()

	answerer := qa.NewAnswerer(components.Embedder, ix, generator,
		qa.WithTopK(a.cfg.Retrieval.TopK),
		qa.WithLogger(a.logger),
		qa.WithErrorReporter(func(err error) { telemetry.CaptureError(ctx, err) }),
	)
	if err := components.Driver.RunInteractiveLoop(ctx, os.Stdin, os.Stdout, answerer); err != nil && !errors.Is(err, context.Canceled) {
		a.report(ctx, "interactive session failed", err)
		return 1
	}
	return 0
}

// runIndex builds or refreshes the persisted index without starting a session.
func runIndex() int {
	a, err := setup()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start: %v\n", err)
		return 1
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	components, err := initializeComponents(a, newProgressReporter(os.Stderr))
	if err != nil {
		a.report(ctx, "failed to initialize embedder", err)
		fmt.Fprintf(os.Stderr, "Failed to start: %v\n", err)
		return 1
	}
	defer components.Close()

	ix, err := components.Driver.Ingest(ctx, a.cfg.Document.Path)
	if err != nil {
		return a.exitIngest(ctx, err)
	}
	defer ix.Close()
	fmt.Printf("Indexed %d segments from %s into %s\n", ix.Size(), a.cfg.Document.Path, a.cfg.Storage.IndexDir)
	return 0
}

func (a *app) exitIngest(ctx context.Context, err error) int {
	if errors.Is(err, context.Canceled) {
		a.logger.Info("ingestion cancelled")
		return 1
	}
	if models.IsFatal(err) {
		a.report(ctx, "ingestion failed", err)
	} else {
		a.report(ctx, "unexpected error during ingestion", err)
	}
	fmt.Fprintln(os.Stderr, ingestFailureMessage(err, a.cfg.Storage.IndexDir))
	return 1
}

// ingestFailureMessage is the user-facing explanation of an ingestion error.
func ingestFailureMessage(err error, indexDir string) string {
	if !models.IsFatal(err) {
		return fmt.Sprintf("Unexpected error while preparing the document: %v", err)
	}
	msg := fmt.Sprintf("Ingestion failed: %v", err)
	if errors.Is(err, models.ErrProviderMismatch) {
		msg += fmt.Sprintf("\nDelete %s or restore the previous embedding settings.", indexDir)
	}
	return msg
}

// statusResponse is the shape of the status command output.
type statusResponse struct {
	Document       string                 `json:"document"`
	IndexDir       string                 `json:"index_dir"`
	Indexed        bool                   `json:"indexed"`
	Segments       int                    `json:"segments"`
	Space          *models.EmbeddingSpace `json:"space,omitempty"`
	BuildID        string                 `json:"build_id,omitempty"`
	CreatedAt      *time.Time             `json:"created_at,omitempty"`
	ChunkSize      int                    `json:"chunk_size,omitempty"`
	ChunkOverlap   int                    `json:"chunk_overlap,omitempty"`
	DiskUsageBytes *int64                 `json:"disk_usage_bytes,omitempty"`
	Problem        string                 `json:"problem,omitempty"`
}

// runStatus reports the persisted index without calling any provider.
func runStatus() int {
	a, err := setup()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start: %v\n", err)
		return 1
	}
	defer a.Close()

	idx := indexer.NewIndexer(a.cfg.Storage.IndexDir, nil, indexer.WithLogger(a.logger))
	status, err := collectStatus(context.Background(), a.cfg, idx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
		return 1
	}
	if err := writeStatus(os.Stdout, status, a.cfg.Output.Format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		return 1
	}
	if status.Problem != "" {
		return 1
	}
	return 0
}

// collectStatus cross-checks the manifest against the stored segment count before
// loading the vectors. A disagreement is reported as a problem rather than an error.
func collectStatus(ctx context.Context, cfg *config.Config, idx *indexer.Indexer) (*statusResponse, error) {
	status := &statusResponse{Document: cfg.Document.Path, IndexDir: idx.Dir()}
	m, stored, err := idx.Inspect(ctx)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return status, nil
	}
	status.Indexed = true
	status.Segments = int(stored)
	status.Space = &m.Space
	status.BuildID = m.BuildID
	status.CreatedAt = &m.CreatedAt
	status.ChunkSize = m.ChunkSize
	status.ChunkOverlap = m.ChunkOverlap
	if usage, err := idx.DiskUsage(); err == nil {
		status.DiskUsageBytes = &usage
	}
	if int64(m.Segments) != stored {
		status.Problem = fmt.Sprintf("manifest lists %d segments but the store holds %d; run banglaqa index", m.Segments, stored)
		return status, nil
	}

	ix, err := idx.Load(ctx)
	if err != nil {
		return nil, err
	}
	if ix != nil {
		_ = ix.Close()
	}
	return status, nil
}

func writeStatus(w io.Writer, status *statusResponse, format string) error {
	if format == config.OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(status)
	}
	fmt.Fprintf(w, "Document:  %s\n", status.Document)
	fmt.Fprintf(w, "Index dir: %s\n", status.IndexDir)
	if !status.Indexed {
		fmt.Fprintln(w, "Index:     not built")
		return nil
	}
	fmt.Fprintf(w, "Segments:  %d\n", status.Segments)
	fmt.Fprintf(w, "Space:     %s\n", status.Space)
	fmt.Fprintf(w, "Chunking:  %d/%d\n", status.ChunkSize, status.ChunkOverlap)
	fmt.Fprintf(w, "Build:     %s (%s)\n", status.BuildID, status.CreatedAt.Format(time.RFC3339))
	if status.DiskUsageBytes != nil {
		fmt.Fprintf(w, "Disk:      %d bytes\n", *status.DiskUsageBytes)
	}
	if status.Problem != "" {
		fmt.Fprintf(w, "Problem:   %s\n", status.Problem)
	}
	return nil
}

func printUsage() {
	fmt.Println(`banglaqa - Bengali question answering over a PDF document

Usage:
  banglaqa                Ingest the document and start an interactive session
  banglaqa ask            Same as above
  banglaqa index          Build or refresh the persisted index and exit
  banglaqa status         Show the persisted index
  banglaqa version        Show version
  banglaqa help           Show this help

Environment:
  OPENAI_API_KEY          OpenAI API key (required for answering)
  BANGLAQA_CONFIG         Config file path (default: config.yaml, optional)
  BANGLAQA_DOCUMENT       Source PDF (default: FAQ.pdf)
  BANGLAQA_DEBUG          Enable debug logging
  SENTRY_DSN              Report failures to Sentry (BANGLAQA_SENTRY_DSN also accepted)
  BANGLAQA_ENVIRONMENT    Sentry environment (default: development)

A .env file in the working directory is loaded first.`)
}
