// Package config provides configuration loading and structs for kotae.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug         bool                `yaml:"debug"`
	Server        ServerConfig        `yaml:"server"`
	Extract       ExtractConfig       `yaml:"extract"`
	Chunking      ChunkingConfig      `yaml:"chunking"`
	Embedding     EmbeddingConfig     `yaml:"embedding"`
	Retrieval     RetrievalConfig     `yaml:"retrieval"`
	Generation    GenerationConfig    `yaml:"generation"`
	Transcription TranscriptionConfig `yaml:"transcription"`
	Watch         WatchConfig         `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// ExtractConfig holds extraction settings.
type ExtractConfig struct {
	// TablePageNumbers tags table units with the page they were found on.
	TablePageNumbers bool `yaml:"table_page_numbers"`
	// TableTolerance is the horizontal distance (PDF points) under which two
	// text runs are treated as the same column.
	TableTolerance float64 `yaml:"table_tolerance"`
}

// ChunkingConfig holds splitter settings. Sizes are counted in characters.
type ChunkingConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
}

// EmbeddingConfig holds ONNX embedder settings.
type EmbeddingConfig struct {
	Model         string `yaml:"model"`
	ModelPath     string `yaml:"model_path"`
	VocabPath     string `yaml:"vocab_path"`
	Dimensions    int    `yaml:"dimensions"`
	MaxTokens     int    `yaml:"max_tokens"`
	CacheSize     int    `yaml:"cache_size"`
	AllowFallback *bool  `yaml:"allow_fallback"`
}

// AllowFallbackOrDefault returns whether a failed model load may fall back to
// the hash embedder; defaults to true when unset.
func (e *EmbeddingConfig) AllowFallbackOrDefault() bool {
	if e.AllowFallback != nil {
		return *e.AllowFallback
	}
	return true
}

// Fusion modes.
const (
	FusionScore = "score"
	FusionRRF   = "rrf"
)

// RetrievalConfig holds retriever and fusion settings.
type RetrievalConfig struct {
	LexicalK      int     `yaml:"lexical_k"`
	DenseK        int     `yaml:"dense_k"`
	LexicalWeight float64 `yaml:"lexical_weight"`
	DenseWeight   float64 `yaml:"dense_weight"`
	Fusion        string  `yaml:"fusion"`
	RRFConstant   int     `yaml:"rrf_c"`
}

// Generation providers.
const (
	ProviderHuggingFace = "huggingface"
	ProviderOpenAI      = "openai"
)

// GenerationConfig holds text-generation settings.
type GenerationConfig struct {
	Provider       string  `yaml:"provider"`
	BaseURL        string  `yaml:"base_url"`
	APIKey         string  `yaml:"api_key"`
	Model          string  `yaml:"model"`
	MaxNewTokens   int     `yaml:"max_new_tokens"`
	Temperature    float32 `yaml:"temperature"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
}

// TranscriptionConfig holds Whisper settings.
type TranscriptionConfig struct {
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`
	Model          string `yaml:"model"`
	Language       string `yaml:"language"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// WatchConfig holds directory watch settings.
type WatchConfig struct {
	Directories    []string `yaml:"directories"`
	Recursive      *bool    `yaml:"recursive"`
	DebounceMillis int      `yaml:"debounce_ms"`
}

// RecursiveOrDefault returns whether to watch recursively; defaults to true when unset.
func (w *WatchConfig) RecursiveOrDefault() bool {
	if w.Recursive != nil {
		return *w.Recursive
	}
	return true
}

// Default returns a config with every default applied.
func Default() *Config {
	var cfg Config
	ApplyDefaults(&cfg)
	return &cfg
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read, parsed, or fails validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	vocabSet := cfg.Embedding.VocabPath != ""
	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)
	if vocabSet {
		cfg.Embedding.VocabPath = expandPath(cfg.Embedding.VocabPath, configDir)
	} else {
		cfg.Embedding.VocabPath = DefaultVocabPath(cfg.Embedding.ModelPath)
	}
	for i := range cfg.Watch.Directories {
		cfg.Watch.Directories[i] = expandPath(cfg.Watch.Directories[i], configDir)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Chunking.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("chunking.chunk_size must be positive, got %d", c.Chunking.ChunkSize))
	}
	if c.Chunking.ChunkOverlap < 0 || c.Chunking.ChunkOverlap >= c.Chunking.ChunkSize {
		errs = append(errs, fmt.Errorf("chunking.chunk_overlap must be in [0, chunk_size), got %d", c.Chunking.ChunkOverlap))
	}
	if c.Retrieval.LexicalK < 0 || c.Retrieval.DenseK < 0 || c.Retrieval.LexicalK+c.Retrieval.DenseK == 0 {
		errs = append(errs, errors.New("retrieval.lexical_k and retrieval.dense_k must be non-negative and not both zero"))
	}
	if c.Retrieval.LexicalWeight < 0 || c.Retrieval.DenseWeight < 0 {
		errs = append(errs, errors.New("retrieval weights must be non-negative"))
	}
	switch c.Retrieval.Fusion {
	case FusionScore, FusionRRF:
	default:
		errs = append(errs, fmt.Errorf("retrieval.fusion must be %q or %q, got %q", FusionScore, FusionRRF, c.Retrieval.Fusion))
	}
	switch c.Generation.Provider {
	case ProviderHuggingFace, ProviderOpenAI:
	default:
		errs = append(errs, fmt.Errorf("generation.provider must be %q or %q, got %q", ProviderHuggingFace, ProviderOpenAI, c.Generation.Provider))
	}
	if c.Generation.MaxNewTokens <= 0 {
		errs = append(errs, fmt.Errorf("generation.max_new_tokens must be positive, got %d", c.Generation.MaxNewTokens))
	}
	return errors.Join(errs...)
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
