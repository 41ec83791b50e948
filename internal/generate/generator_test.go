package generate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/kotae/internal/config"
)

func testGenerationConfig(provider, baseURL string) config.GenerationConfig {
	return config.GenerationConfig{
		Provider:       provider,
		BaseURL:        baseURL,
		APIKey:         "test-key",
		Model:          "google/flan-t5-large",
		MaxNewTokens:   512,
		TimeoutSeconds: 5,
	}
}

func TestNew(t *testing.T) {
	g, err := New(testGenerationConfig(config.ProviderHuggingFace, "http://x"), nil)
	require.NoError(t, err)
	assert.IsType(t, &HuggingFaceGenerator{}, g)

	g, err = New(testGenerationConfig(config.ProviderOpenAI, "http://x/v1"), nil)
	require.NoError(t, err)
	assert.IsType(t, &OpenAIGenerator{}, g)

	_, err = New(testGenerationConfig("bard", "http://x"), nil)
	assert.True(t, errors.Is(err, ErrUnsupportedProvider))
}

func TestHuggingFaceGenerator_Generate(t *testing.T) {
	var got hfRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/google/flan-t5-large", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]map[string]string{{"generated_text": "Revenue grew 15%."}})
	}))
	defer srv.Close()

	g := NewHuggingFaceGenerator(testGenerationConfig(config.ProviderHuggingFace, srv.URL), nil)
	text, err := g.Generate(context.Background(), "Context: ...\nQuestion: ...")
	require.NoError(t, err)

	assert.Equal(t, "Revenue grew 15%.", text)
	assert.Equal(t, "Context: ...\nQuestion: ...", got.Inputs)
	assert.Equal(t, 512, got.Parameters.MaxNewTokens)
	assert.False(t, got.Parameters.ReturnFullText)
	assert.True(t, got.Options.WaitForModel)
}

func TestHuggingFaceGenerator_objectResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"generated_text":"single"}`))
	}))
	defer srv.Close()

	text, err := NewHuggingFaceGenerator(testGenerationConfig(config.ProviderHuggingFace, srv.URL), nil).
		Generate(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "single", text)
}

func TestHuggingFaceGenerator_httpError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"Input is too long"}`))
	}))
	defer srv.Close()

	_, err := NewHuggingFaceGenerator(testGenerationConfig(config.ProviderHuggingFace, srv.URL), nil).
		Generate(context.Background(), "p")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Input is too long")
	assert.Contains(t, err.Error(), "400")
}

func TestHuggingFaceGenerator_emptyList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	_, err := NewHuggingFaceGenerator(testGenerationConfig(config.ProviderHuggingFace, srv.URL), nil).
		Generate(context.Background(), "p")
	assert.Error(t, err)
}

func TestOpenAIGenerator_Generate(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "cmpl-1",
			"object":  "chat.completion",
			"model":   "llama3",
			"choices": []map[string]any{{"index": 0, "message": map[string]string{"role": "assistant", "content": "Margin improved."}, "finish_reason": "stop"}},
			"usage":   map[string]int{"prompt_tokens": 10, "completion_tokens": 3, "total_tokens": 13},
		})
	}))
	defer srv.Close()

	cfg := testGenerationConfig(config.ProviderOpenAI, srv.URL+"/v1")
	cfg.Model = "llama3"
	text, err := NewOpenAIGenerator(cfg, nil).Generate(context.Background(), "How did the margin change?")
	require.NoError(t, err)

	assert.Equal(t, "Margin improved.", text)
	assert.Equal(t, "llama3", got["model"])
	msgs, ok := got["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 1)
	assert.Equal(t, "How did the margin change?", msgs[0].(map[string]any)["content"])
}

func TestOpenAIGenerator_noChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","choices":[]}`))
	}))
	defer srv.Close()

	_, err := NewOpenAIGenerator(testGenerationConfig(config.ProviderOpenAI, srv.URL+"/v1"), nil).
		Generate(context.Background(), "p")
	assert.Error(t, err)
}

func TestMockGenerator(t *testing.T) {
	m := NewMockGenerator("ok")
	out, err := m.Generate(context.Background(), "prompt one")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, []string{"prompt one"}, m.Prompts())

	m.Err = errors.New("down")
	_, err = m.Generate(context.Background(), "prompt two")
	assert.EqualError(t, err, "down")
}
