package e2e

import (
	"context"
	"os"
	"strings"
	"sync/atomic"

	"github.com/hyperjump/banglaqa/internal/models"
	"github.com/hyperjump/banglaqa/pkg/utils"
)

// KeywordEmbedder maps text to keyword counts, so a question lands next to the page that
// shares its keyword. The last dimension is a constant bias that keeps vectors non-zero.
type KeywordEmbedder struct {
	keywords []string
	calls    atomic.Int64
}

// NewKeywordEmbedder returns an embedder over the given vocabulary.
func NewKeywordEmbedder(keywords []string) *KeywordEmbedder {
	return &KeywordEmbedder{keywords: keywords}
}

// Calls returns how many Embed and EmbedBatch calls were made.
func (e *KeywordEmbedder) Calls() int64 { return e.calls.Load() }

func (e *KeywordEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.vector(text), nil
}

func (e *KeywordEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.vector(t)
	}
	return out, nil
}

func (e *KeywordEmbedder) vector(text string) []float32 {
	v := make([]float32, len(e.keywords)+1)
	for i, kw := range e.keywords {
		v[i] = float32(strings.Count(text, kw))
	}
	v[len(e.keywords)] = 0.1
	utils.NormalizeL2(v)
	return v
}

func (e *KeywordEmbedder) Space() models.EmbeddingSpace {
	return models.EmbeddingSpace{Provider: "fake", Model: "keywords", Dimensions: len(e.keywords) + 1}
}

func (e *KeywordEmbedder) Close() error { return nil }

// EchoGenerator answers with the first context segment of the prompt. Translation requests
// are answered with the text to translate.
type EchoGenerator struct {
	calls atomic.Int64
}

// Calls returns how many prompts were generated.
func (g *EchoGenerator) Calls() int64 { return g.calls.Load() }

func (g *EchoGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if rest, ok := strings.CutPrefix(prompt, "Please translate this answer to Bengali: "); ok {
		return rest, nil
	}
	_, section, ok := strings.Cut(prompt, "প্রসঙ্গ (Context):\n")
	if !ok {
		return "", nil
	}
	section, _, _ = strings.Cut(section, "\n\nপ্রশ্ন (Question):")
	first, _, _ := strings.Cut(section, "\n\n")
	return strings.TrimSpace(first), nil
}

// PageParser returns fixed pages for whichever file it is given.
type PageParser struct {
	Pages []models.Page
	calls atomic.Int64
}

// Calls returns how many documents were parsed.
func (p *PageParser) Calls() int64 { return p.calls.Load() }

func (p *PageParser) Parse(ctx context.Context, path string) (*models.Document, error) {
	p.calls.Add(1)
	info, err := os.Stat(path)
	if err != nil {
		return nil, models.Wrap(models.ErrFileNotFound, err, "stat %s", path)
	}
	return &models.Document{
		ID:      "doc-e2e",
		Source:  path,
		Pages:   p.Pages,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}
