package config

import "path/filepath"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Extract.TableTolerance == 0 {
		cfg.Extract.TableTolerance = 3.0
	}
	if cfg.Chunking.ChunkSize == 0 {
		cfg.Chunking.ChunkSize = 500
	}
	if cfg.Chunking.ChunkOverlap == 0 {
		cfg.Chunking.ChunkOverlap = 50
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "all-MiniLM-L6-v2"
	}
	if cfg.Embedding.ModelPath == "" {
		cfg.Embedding.ModelPath = "/usr/local/var/kotae/models/all-MiniLM-L6-v2.onnx"
	}
	if cfg.Embedding.VocabPath == "" {
		cfg.Embedding.VocabPath = DefaultVocabPath(cfg.Embedding.ModelPath)
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 384
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Retrieval.LexicalK == 0 && cfg.Retrieval.DenseK == 0 {
		cfg.Retrieval.LexicalK = 3
		cfg.Retrieval.DenseK = 3
	}
	if cfg.Retrieval.LexicalWeight == 0 && cfg.Retrieval.DenseWeight == 0 {
		cfg.Retrieval.LexicalWeight = 0.5
		cfg.Retrieval.DenseWeight = 0.5
	}
	if cfg.Retrieval.Fusion == "" {
		cfg.Retrieval.Fusion = FusionScore
	}
	if cfg.Retrieval.RRFConstant == 0 {
		cfg.Retrieval.RRFConstant = 60
	}
	if cfg.Generation.Provider == "" {
		cfg.Generation.Provider = ProviderHuggingFace
	}
	if cfg.Generation.BaseURL == "" {
		switch cfg.Generation.Provider {
		case ProviderOpenAI:
			cfg.Generation.BaseURL = "http://localhost:11434/v1"
		default:
			cfg.Generation.BaseURL = "https://api-inference.huggingface.co"
		}
	}
	if cfg.Generation.Model == "" {
		cfg.Generation.Model = "google/flan-t5-large"
	}
	if cfg.Generation.MaxNewTokens == 0 {
		cfg.Generation.MaxNewTokens = 512
	}
	if cfg.Generation.TimeoutSeconds == 0 {
		cfg.Generation.TimeoutSeconds = 120
	}
	if cfg.Transcription.BaseURL == "" {
		cfg.Transcription.BaseURL = "http://localhost:8000/v1"
	}
	if cfg.Transcription.Model == "" {
		cfg.Transcription.Model = "base"
	}
	if cfg.Transcription.TimeoutSeconds == 0 {
		cfg.Transcription.TimeoutSeconds = 600
	}
	if cfg.Watch.DebounceMillis == 0 {
		cfg.Watch.DebounceMillis = 1000
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Watch.Directories) > 0 && cfg.Watch.Recursive == nil {
		t := true
		cfg.Watch.Recursive = &t
	}
}

// DefaultVocabPath returns the vocab.txt that sits next to modelPath, which is
// how sentence-transformers exports ship it.
func DefaultVocabPath(modelPath string) string {
	return filepath.Join(filepath.Dir(modelPath), "vocab.txt")
}
