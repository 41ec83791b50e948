package generate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/config"
)

// Retry settings for model cold starts (HTTP 503 while the model loads).
const (
	hfRetryCount   = 3
	hfRetryWait    = 2 * time.Second
	hfRetryMaxWait = 20 * time.Second
)

// HuggingFaceGenerator calls a text2text model through the Hugging Face inference API.
type HuggingFaceGenerator struct {
	client       *resty.Client
	model        string
	maxNewTokens int
	temperature  float32
	logger       *zap.Logger
}

type hfRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
	Options    hfOptions    `json:"options"`
}

type hfParameters struct {
	MaxNewTokens   int     `json:"max_new_tokens,omitempty"`
	Temperature    float32 `json:"temperature,omitempty"`
	ReturnFullText bool    `json:"return_full_text"`
}

type hfOptions struct {
	UseCache     bool `json:"use_cache"`
	WaitForModel bool `json:"wait_for_model"`
}

type hfResponse struct {
	GeneratedText string `json:"generated_text"`
}

type hfError struct {
	Error         string  `json:"error"`
	EstimatedTime float64 `json:"estimated_time,omitempty"`
}

// NewHuggingFaceGenerator creates a generator for cfg.Model served at cfg.BaseURL.
func NewHuggingFaceGenerator(cfg config.GenerationConfig, logger *zap.Logger) *HuggingFaceGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(time.Duration(cfg.TimeoutSeconds)*time.Second).
		SetHeader("Content-Type", "application/json").
		SetRetryCount(hfRetryCount).
		SetRetryWaitTime(hfRetryWait).
		SetRetryMaxWaitTime(hfRetryMaxWait).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return r != nil && r.StatusCode() == http.StatusServiceUnavailable
		})
	if cfg.APIKey != "" {
		client.SetAuthToken(cfg.APIKey)
	}
	return &HuggingFaceGenerator{
		client:       client,
		model:        cfg.Model,
		maxNewTokens: cfg.MaxNewTokens,
		temperature:  cfg.Temperature,
		logger:       logger,
	}
}

// Generate sends prompt to the model and returns the generated text.
func (g *HuggingFaceGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	req := hfRequest{
		Inputs: prompt,
		Parameters: hfParameters{
			MaxNewTokens:   g.maxNewTokens,
			Temperature:    g.temperature,
			ReturnFullText: false,
		},
		Options: hfOptions{WaitForModel: true},
	}

	start := time.Now()
	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(req).
		Post("/models/" + g.model)
	if err != nil {
		return "", fmt.Errorf("huggingface request failed: %w", err)
	}
	if !resp.IsSuccess() {
		return "", g.httpError(resp)
	}

	text, err := decodeHFResponse(resp.Body())
	if err != nil {
		return "", err
	}
	g.logger.Debug("huggingface generation complete",
		zap.String("model", g.model),
		zap.Int("chars", len(text)),
		zap.Duration("took", time.Since(start)))
	return text, nil
}

// decodeHFResponse accepts both the list form and the single-object form.
func decodeHFResponse(body []byte) (string, error) {
	var list []hfResponse
	if err := json.Unmarshal(body, &list); err == nil {
		if len(list) == 0 {
			return "", fmt.Errorf("huggingface returned an empty response")
		}
		return list[0].GeneratedText, nil
	}
	var single hfResponse
	if err := json.Unmarshal(body, &single); err != nil {
		return "", fmt.Errorf("failed to decode huggingface response: %w", err)
	}
	return single.GeneratedText, nil
}

func (g *HuggingFaceGenerator) httpError(resp *resty.Response) error {
	var errResp hfError
	if err := json.Unmarshal(resp.Body(), &errResp); err == nil && errResp.Error != "" {
		if resp.StatusCode() == http.StatusServiceUnavailable && errResp.EstimatedTime > 0 {
			return fmt.Errorf("huggingface model %s loading (estimated %.0fs): %s", g.model, errResp.EstimatedTime, errResp.Error)
		}
		return fmt.Errorf("huggingface status %d: %s", resp.StatusCode(), errResp.Error)
	}
	return fmt.Errorf("huggingface status %d", resp.StatusCode())
}
