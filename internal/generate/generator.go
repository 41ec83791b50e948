// Package generate provides text generation backends for answering questions.
package generate

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/config"
)

// ErrUnsupportedProvider is returned by New for an unknown generation provider.
var ErrUnsupportedProvider = errors.New("unsupported generation provider")

// Generator produces a completion for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// New returns the Generator for cfg.Provider.
func New(cfg config.GenerationConfig, logger *zap.Logger) (Generator, error) {
	switch cfg.Provider {
	case config.ProviderHuggingFace, "":
		return NewHuggingFaceGenerator(cfg, logger), nil
	case config.ProviderOpenAI:
		return NewOpenAIGenerator(cfg, logger), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, cfg.Provider)
	}
}
