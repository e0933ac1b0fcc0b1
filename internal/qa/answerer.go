// Package qa answers questions from retrieved document segments, constrained to Bengali.
package qa

import (
	"context"
	"errors"
	"time"

	"github.com/hyperjump/banglaqa/internal/embedding"
	"github.com/hyperjump/banglaqa/internal/llm"
	"github.com/hyperjump/banglaqa/internal/models"
	"github.com/hyperjump/banglaqa/pkg/utils"
	"go.uber.org/zap"
)

// Fixed user-facing replies.
const (
	// ErrorAnswer is returned in place of an answer when retrieval or generation fails.
	ErrorAnswer = "দুঃখিত, একটি ত্রুটি ঘটেছে। অনুগ্রহ করে আবার চেষ্টা করুন।"
	// EmptyQuestionAnswer is returned for a blank question.
	EmptyQuestionAnswer = "অনুগ্রহ করে একটি প্রশ্ন লিখুন।"
)

// Retriever returns the segments most similar to a query vector. *indexer.Index implements it.
type Retriever interface {
	Query(ctx context.Context, space models.EmbeddingSpace, query []float32, k int) ([]models.ScoredSegment, error)
}

// Result is the outcome of one question. Answer is always set; Err records a failure that
// was replaced by ErrorAnswer or EmptyQuestionAnswer.
type Result struct {
	Question string                 `json:"question"`
	Answer   string                 `json:"answer"`
	Sources  []models.ScoredSegment `json:"sources,omitempty"`
	Repaired bool                   `json:"repaired"`
	Err      error                  `json:"-"`
}

// Answerer runs retrieve, compose, generate, verify and repair for each question.
type Answerer struct {
	embedder  embedding.Embedder
	retriever Retriever
	generator llm.Generator
	topK      int
	logger    *zap.Logger
	onError   func(error)
}

// Option configures an Answerer.
type Option func(*Answerer)

// WithTopK sets how many segments are retrieved per question.
func WithTopK(k int) Option {
	return func(a *Answerer) { a.topK = k }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *Answerer) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithErrorReporter sets a callback for failures that are answered with ErrorAnswer.
func WithErrorReporter(fn func(error)) Option {
	return func(a *Answerer) { a.onError = fn }
}

// NewAnswerer creates an Answerer. The question is embedded with embedder, which must
// share the retriever's embedding space.
func NewAnswerer(embedder embedding.Embedder, retriever Retriever, generator llm.Generator, opts ...Option) *Answerer {
	a := &Answerer{
		embedder:  embedder,
		retriever: retriever,
		generator: generator,
		topK:      models.DefaultTopK,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Answer returns the Bengali answer text for question. It never fails: errors are logged
// and replaced by ErrorAnswer.
func (a *Answerer) Answer(ctx context.Context, question string) string {
	return a.Ask(ctx, question).Answer
}

// Ask answers question and reports the retrieved sources. The returned Result is never nil.
func (a *Answerer) Ask(ctx context.Context, question string) *Result {
	start := time.Now()
	q := models.RetrievalQuery{Question: question, TopK: a.topK}
	if err := q.Validate(); err != nil {
		return &Result{Question: question, Answer: EmptyQuestionAnswer, Err: err}
	}
	res := &Result{Question: q.Question}
	a.logger.Info("processing question", zap.String("question", utils.Truncate(q.Question, 80)))

	hits, err := a.retrieve(ctx, q)
	if err != nil {
		return a.fail(res, err)
	}
	res.Sources = hits

	raw, err := a.generator.Generate(ctx, BuildPrompt(hits, q.Question))
	if err != nil {
		return a.fail(res, err)
	}
	res.Answer = raw
	if !ContainsBengali(raw) {
		a.logger.Warn("answer is not in Bengali, requesting translation",
			zap.String("answer", utils.Truncate(raw, 80)))
		repaired, err := a.generator.Generate(ctx, TranslationPrompt(raw))
		if err != nil {
			return a.fail(res, err)
		}
		res.Answer = repaired
		res.Repaired = true
	}
	a.logger.Debug("question answered",
		zap.Int("sources", len(hits)),
		zap.Bool("repaired", res.Repaired),
		zap.Duration("took", time.Since(start)))
	return res
}

func (a *Answerer) retrieve(ctx context.Context, q models.RetrievalQuery) ([]models.ScoredSegment, error) {
	vec, err := a.embedder.Embed(ctx, q.Question)
	if err != nil {
		return nil, err
	}
	return a.retriever.Query(ctx, a.embedder.Space(), vec, q.TopK)
}

func (a *Answerer) fail(res *Result, err error) *Result {
	a.logger.Error("failed to answer question", zap.Error(err))
	if a.onError != nil && !errors.Is(err, context.Canceled) {
		a.onError(err)
	}
	res.Answer = ErrorAnswer
	res.Repaired = false
	res.Err = err
	return res
}
