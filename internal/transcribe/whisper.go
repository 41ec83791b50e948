package transcribe

import (
	"context"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/config"
)

// WhisperTranscriber calls an OpenAI-compatible /audio/transcriptions endpoint
// (OpenAI, faster-whisper-server, LocalAI, ...).
type WhisperTranscriber struct {
	client   *openai.Client
	model    string
	language string
	logger   *zap.Logger
}

var _ Transcriber = (*WhisperTranscriber)(nil)

// WhisperOption configures a WhisperTranscriber.
type WhisperOption func(*WhisperTranscriber)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) WhisperOption {
	return func(w *WhisperTranscriber) {
		w.logger = logger
	}
}

// NewWhisperTranscriber builds a transcriber from cfg.
func NewWhisperTranscriber(cfg config.TranscriptionConfig, opts ...WhisperOption) *WhisperTranscriber {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = cfg.BaseURL
	clientConfig.HTTPClient = &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second}

	w := &WhisperTranscriber{
		client:   openai.NewClientWithConfig(clientConfig),
		model:    cfg.Model,
		language: cfg.Language,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Transcribe uploads the file at path and returns the transcript.
func (w *WhisperTranscriber) Transcribe(ctx context.Context, path string) (*Transcript, error) {
	start := time.Now()
	resp, err := w.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    w.model,
		FilePath: path,
		Language: w.language,
		Format:   openai.AudioResponseFormatVerboseJSON,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to transcribe %s: %w", path, err)
	}
	if w.logger != nil {
		w.logger.Debug("transcribed audio",
			zap.String("path", path),
			zap.String("model", w.model),
			zap.Float64("duration_s", resp.Duration),
			zap.Duration("took", time.Since(start)))
	}
	return &Transcript{
		Text:     resp.Text,
		Language: resp.Language,
		Duration: resp.Duration,
	}, nil
}
