// Package llm provides text generation through a chat completion model.
package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/hyperjump/banglaqa/internal/models"
	"github.com/hyperjump/banglaqa/pkg/utils"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Generator produces a completion for a single prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ChatAPI is the subset of the OpenAI client used for generation. *openai.Client implements it.
type ChatAPI interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Config configures an OpenAIGenerator.
type Config struct {
	APIKey        string
	BaseURL       string
	Model         string
	Temperature   float32
	MaxRetries    int
	RetryInterval time.Duration
	Timeout       time.Duration
}

// OpenAIGenerator sends each prompt as a single user message.
type OpenAIGenerator struct {
	api           ChatAPI
	model         string
	temperature   float32
	maxRetries    int
	retryInterval time.Duration
	logger        *zap.Logger
}

// Option configures an OpenAIGenerator.
type Option func(*OpenAIGenerator)

// WithLogger sets the logger used for retry diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(g *OpenAIGenerator) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// NewOpenAIGenerator creates a generator backed by the OpenAI chat completions API.
func NewOpenAIGenerator(cfg Config, opts ...Option) (*OpenAIGenerator, error) {
	if cfg.APIKey == "" {
		return nil, models.Wrap(models.ErrConfiguration, nil, "OPENAI_API_KEY is not set")
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	clientCfg.HTTPClient = &http.Client{Timeout: timeout}
	return newOpenAIGenerator(openai.NewClientWithConfig(clientCfg), cfg, opts...), nil
}

func newOpenAIGenerator(api ChatAPI, cfg Config, opts ...Option) *OpenAIGenerator {
	g := &OpenAIGenerator{
		api:           api,
		model:         cfg.Model,
		temperature:   cfg.Temperature,
		maxRetries:    cfg.MaxRetries,
		retryInterval: cfg.RetryInterval,
		logger:        zap.NewNop(),
	}
	if g.model == "" {
		g.model = openai.GPT4TurboPreview
	}
	if g.maxRetries <= 0 {
		g.maxRetries = 3
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Model returns the chat model name.
func (g *OpenAIGenerator) Model() string {
	return g.model
}

// Generate returns the model's reply to prompt, retrying transient failures.
func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       g.model,
		Temperature: g.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}
	var reply string
	attempt := 0
	err := utils.Retry(ctx, g.maxRetries, g.retryInterval, func() error {
		attempt++
		resp, err := g.api.CreateChatCompletion(ctx, req)
		if err != nil {
			if isPermanent(err) {
				return utils.Permanent(err)
			}
			g.logger.Warn("chat completion failed",
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", g.maxRetries),
				zap.Error(err))
			return err
		}
		if len(resp.Choices) == 0 {
			return errors.New("no choices returned")
		}
		reply = strings.TrimSpace(resp.Choices[0].Message.Content)
		return nil
	})
	if err != nil {
		return "", models.Wrap(models.ErrGenerationProvider, err, "chat completion with %s", g.model)
	}
	return reply, nil
}

// isPermanent reports whether retrying err cannot help.
func isPermanent(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}
	switch status {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return true
	}
	return false
}
