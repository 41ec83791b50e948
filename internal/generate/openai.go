package generate

import (
	"context"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/config"
)

// OpenAIGenerator calls an OpenAI-compatible chat completion endpoint
// (OpenAI, Ollama, vLLM, llama.cpp server).
type OpenAIGenerator struct {
	client       *openai.Client
	model        string
	maxNewTokens int
	temperature  float32
	logger       *zap.Logger
}

// NewOpenAIGenerator creates a generator for cfg.Model served at cfg.BaseURL.
func NewOpenAIGenerator(cfg config.GenerationConfig, logger *zap.Logger) *OpenAIGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	clientCfg.HTTPClient = &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second}
	return &OpenAIGenerator{
		client:       openai.NewClientWithConfig(clientCfg),
		model:        cfg.Model,
		maxNewTokens: cfg.MaxNewTokens,
		temperature:  cfg.Temperature,
		logger:       logger,
	}
}

// Generate sends prompt as a single user message and returns the first choice.
func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   g.maxNewTokens,
		Temperature: g.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	g.logger.Debug("chat completion complete",
		zap.String("model", g.model),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Duration("took", time.Since(start)))
	return resp.Choices[0].Message.Content, nil
}
