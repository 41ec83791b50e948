// Package answer builds a grounded prompt from retrieved chunks and generates the answer.
package answer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/generate"
	"github.com/hyperjump/kotae/internal/models"
)

// ErrNoContext is returned when retrieval finds nothing to ground an answer on.
var ErrNoContext = errors.New("no relevant context found")

// Retriever returns ranked chunks for a question.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]*models.ScoredChunk, error)
}

// Answerer answers questions from retrieved context.
type Answerer struct {
	retriever Retriever
	generator generate.Generator
	logger    *zap.Logger
}

// Option configures an Answerer.
type Option func(*Answerer)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *Answerer) { a.logger = l }
}

// NewAnswerer creates an Answerer.
func NewAnswerer(r Retriever, g generate.Generator, opts ...Option) *Answerer {
	a := &Answerer{retriever: r, generator: g, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Answer retrieves context for question and generates an answer from it.
// The chunks used are returned on Answer.Sources.
func (a *Answerer) Answer(ctx context.Context, question string) (*models.Answer, error) {
	q := models.Question{Text: question}
	if err := q.Validate(); err != nil {
		return nil, err
	}

	chunks, err := a.retriever.Retrieve(ctx, q.Text)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve context: %w", err)
	}
	if len(chunks) == 0 {
		return nil, ErrNoContext
	}

	prompt := BuildPrompt(BuildContext(chunks), q.Text)
	start := time.Now()
	text, err := a.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate answer: %w", err)
	}
	a.logger.Debug("answer generated",
		zap.Int("chunks", len(chunks)),
		zap.Int("prompt_chars", len(prompt)),
		zap.Duration("took", time.Since(start)))

	return &models.Answer{
		Question: q.Text,
		Text:     text,
		Sources:  chunks,
	}, nil
}
