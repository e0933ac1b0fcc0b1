// Package pipeline wires ingestion and the interactive question loop together.
package pipeline

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/hyperjump/banglaqa/internal/cli"
	"github.com/hyperjump/banglaqa/internal/config"
	"github.com/hyperjump/banglaqa/internal/embedding"
	"github.com/hyperjump/banglaqa/internal/extract"
	"github.com/hyperjump/banglaqa/internal/indexer"
	"github.com/hyperjump/banglaqa/internal/models"
	"github.com/hyperjump/banglaqa/internal/qa"
	"github.com/hyperjump/banglaqa/internal/telemetry"
	"github.com/hyperjump/banglaqa/pkg/utils"
	"go.uber.org/zap"
)

// Session messages.
const (
	WelcomeMessage     = "বাংলা প্রশ্ন-উত্তর সিস্টেমে স্বাগতম!"
	InstructionMessage = "প্রশ্ন করতে টাইপ করুন, বের হতে 'quit' লিখুন।"
	PromptMessage      = "আপনার প্রশ্ন লিখুন: "
	GoodbyeMessage     = "ধন্যবাদ! আবার আসবেন।"
	FailureMessage     = "দুঃখিত, একটি সমস্যা হয়েছে। অনুগ্রহ করে আবার চেষ্টা করুন।"
)

const quitCommand = "quit"

// maxLineBytes bounds a single question read from the terminal.
const maxLineBytes = 1 << 20

// Asker answers one question. *qa.Answerer implements it.
type Asker interface {
	Ask(ctx context.Context, question string) *qa.Result
}

// Driver runs ingestion once and then serves questions until the user quits.
type Driver struct {
	parser   extract.Parser
	chunker  *indexer.Chunker
	indexer  *indexer.Indexer
	embedder embedding.Embedder
	format   cli.OutputFormat
	logger   *zap.Logger
	onError  func(error)
}

// Option configures a Driver.
type Option func(*Driver)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(d *Driver) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithErrorReporter sets a callback for failures recovered inside a question cycle.
func WithErrorReporter(fn func(error)) Option {
	return func(d *Driver) { d.onError = fn }
}

// New creates a Driver. cfg supplies the output format; it may be nil for text output.
func New(cfg *config.Config, parser extract.Parser, chunker *indexer.Chunker, idx *indexer.Indexer, embedder embedding.Embedder, opts ...Option) *Driver {
	d := &Driver{
		parser:   parser,
		chunker:  chunker,
		indexer:  idx,
		embedder: embedder,
		format:   cli.OutputText,
		logger:   zap.NewNop(),
	}
	if cfg != nil {
		d.format = cli.ParseOutputFormat(cfg.Output.Format)
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Ingest makes a queryable index for the document at path. The path is validated before
// any provider call. A persisted index is reused when it was built from the same file with
// the same chunking in the current embedding space; a stale index is rebuilt. An index from
// a different embedding space is an error, so vectors from two spaces are never mixed.
func (d *Driver) Ingest(ctx context.Context, path string) (*indexer.Index, error) {
	ctx, span := telemetry.StartSpan(ctx, "pipeline.ingest", "ingest "+filepath.Base(path))
	defer span.End()

	info, err := extract.CheckSource(path)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	start := time.Now()

	telemetry.AddBreadcrumb(ctx, "ingest", "loading persisted index")
	existing, err := d.indexer.Load(ctx)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		m := existing.Manifest()
		space := d.embedder.Space()
		if m.Space != space {
			_ = existing.Close()
			return nil, models.Wrap(models.ErrProviderMismatch, nil,
				"index in %s was built with %s but the current embedder is %s; delete %s to rebuild",
				d.indexer.Dir(), m.Space, space, d.indexer.Dir())
		}
		if m.MatchesSource(abs, info.Size(), info.ModTime()) &&
			m.ChunkSize == d.chunker.Size() && m.ChunkOverlap == d.chunker.Overlap() {
			d.logStatus("reusing persisted index", existing, start)
			return existing, nil
		}
		d.logger.Info("persisted index is stale, rebuilding",
			zap.String("index_source", m.Source),
			zap.String("source", abs),
			zap.Int("index_chunk_size", m.ChunkSize),
			zap.Int("chunk_size", d.chunker.Size()))
		_ = existing.Close()
	}

	telemetry.AddBreadcrumb(ctx, "ingest", "parsing document")
	doc, err := d.parser.Parse(ctx, abs)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	if doc.IsEmpty() {
		d.logger.Warn("document has no extractable text; answers will have no context",
			zap.String("source", doc.Source))
	}
	segments := d.chunker.Split(doc)
	d.logger.Info("document split",
		zap.String("source", doc.Source),
		zap.Int("pages", len(doc.Pages)),
		zap.Int("segments", len(segments)))

	telemetry.AddBreadcrumb(ctx, "ingest", "building index")
	built, err := d.indexer.Build(ctx, doc, segments)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	d.logStatus("index built", built, start)
	return built, nil
}

func (d *Driver) logStatus(msg string, ix *indexer.Index, start time.Time) {
	fields := []zap.Field{
		zap.Int("segments", ix.Size()),
		zap.Stringer("space", ix.Manifest().Space),
		zap.String("dir", d.indexer.Dir()),
		zap.Duration("took", time.Since(start)),
	}
	if usage, err := d.indexer.DiskUsage(); err == nil {
		fields = append(fields, zap.Int64("disk_usage_bytes", usage))
	}
	d.logger.Info(msg, fields...)
}

// RunInteractiveLoop reads questions from in and writes answers to out until the user types
// quit, in reaches EOF, or ctx is cancelled. A failure in one cycle is reported and the
// session continues. It returns ctx.Err() on cancellation and nil otherwise.
func (d *Driver) RunInteractiveLoop(ctx context.Context, in io.Reader, out io.Writer, asker Asker) error {
	fmt.Fprintln(out, WelcomeMessage)
	fmt.Fprintln(out, InstructionMessage)

	done := make(chan struct{})
	defer close(done)
	lines, readErr := readLines(ctx, in, done)
	for {
		fmt.Fprint(out, PromptMessage)
		var (
			line string
			ok   bool
		)
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return ctx.Err()
		case line, ok = <-lines:
		}
		if !ok {
			if ctx.Err() != nil {
				fmt.Fprintln(out)
				return ctx.Err()
			}
			if err := <-readErr; err != nil {
				d.logger.Warn("reading input failed", zap.Error(err))
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, GoodbyeMessage)
			return nil
		}

		question := strings.TrimSpace(line)
		if strings.EqualFold(question, quitCommand) {
			fmt.Fprintln(out, GoodbyeMessage)
			return nil
		}
		if question == "" {
			continue
		}
		d.answerOne(ctx, out, asker, question)
	}
}

func (d *Driver) answerOne(ctx context.Context, out io.Writer, asker Asker, question string) {
	ctx, span := telemetry.StartSpan(ctx, "pipeline.answer", "answer question")
	defer span.End()
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic while answering: %v", r)
			d.logger.Error("question cycle failed",
				zap.String("question", utils.Truncate(question, 80)),
				zap.Error(err))
			d.report(err)
			fmt.Fprintf(out, "\n%s\n\n", FailureMessage)
		}
	}()

	res := asker.Ask(ctx, question)
	if res == nil {
		panic("answerer returned no result")
	}
	if err := cli.WriteAnswer(out, res, d.format); err != nil {
		d.logger.Warn("writing answer failed", zap.Error(err))
	}
}

func (d *Driver) report(err error) {
	if d.onError != nil && !errors.Is(err, context.Canceled) {
		d.onError(err)
	}
}

// readLines scans in on its own goroutine so a blocked read does not hold up cancellation.
// The lines channel is closed at EOF; the error channel then yields the scan error, if any.
// The goroutine stops sending once done is closed. A read already blocked on in only
// returns when in does.
func readLines(ctx context.Context, in io.Reader, done <-chan struct{}) (<-chan string, <-chan error) {
	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			case <-ctx.Done():
				errc <- ctx.Err()
				return
			}
		}
		errc <- scanner.Err()
	}()
	return lines, errc
}
