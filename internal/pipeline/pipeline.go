// Package pipeline wires extraction, chunking, indexing, and answering into
// ingest-then-ask sessions.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/extract"
	"github.com/hyperjump/kotae/internal/generate"
	"github.com/hyperjump/kotae/internal/indexer"
	"github.com/hyperjump/kotae/internal/metrics"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/transcribe"
)

// Pipeline holds the models shared by every session. Models are loaded once
// by New and released by Close.
type Pipeline struct {
	cfg         *config.Config
	logger      *zap.Logger
	embedder    embedding.Embedder
	generator   generate.Generator
	transcriber transcribe.Transcriber
	extractor   *extract.Extractor
	chunker     *indexer.Chunker
	indexer     *indexer.Indexer
	metrics     *metrics.Metrics
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithEmbedder overrides the embedder loaded from config.
func WithEmbedder(e embedding.Embedder) Option {
	return func(p *Pipeline) { p.embedder = e }
}

// WithGenerator overrides the generator built from config.
func WithGenerator(g generate.Generator) Option {
	return func(p *Pipeline) { p.generator = g }
}

// WithTranscriber overrides the transcriber built from config.
func WithTranscriber(t transcribe.Transcriber) Option {
	return func(p *Pipeline) { p.transcriber = t }
}

// WithMetrics records ingestion and question metrics on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// New loads the models named in cfg and returns a ready pipeline.
func New(cfg *config.Config, logger *zap.Logger, opts ...Option) (*Pipeline, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Pipeline{cfg: cfg, logger: logger}
	for _, opt := range opts {
		opt(p)
	}

	if p.embedder == nil {
		e, err := loadEmbedder(cfg.Embedding, logger)
		if err != nil {
			return nil, err
		}
		p.embedder = e
	}
	if cfg.Embedding.CacheSize > 0 {
		p.embedder = embedding.NewCachedEmbedder(p.embedder, cfg.Embedding.CacheSize)
	}
	if p.generator == nil {
		g, err := generate.New(cfg.Generation, logger)
		if err != nil {
			_ = embedding.Close(p.embedder)
			return nil, err
		}
		p.generator = g
	}
	if p.transcriber == nil {
		p.transcriber = transcribe.NewWhisperTranscriber(cfg.Transcription, transcribe.WithLogger(logger))
	}

	p.extractor = extract.NewExtractor(
		extract.WithLogger(logger),
		extract.WithTranscriber(p.transcriber),
		extract.WithTablePageNumbers(cfg.Extract.TablePageNumbers),
		extract.WithTableTolerance(cfg.Extract.TableTolerance),
	)
	p.chunker = indexer.NewChunker(cfg.Chunking.ChunkSize, cfg.Chunking.ChunkOverlap)
	p.indexer = indexer.NewIndexer(p.embedder, indexer.WithLogger(logger))
	return p, nil
}

// loadEmbedder opens the ONNX model, falling back to the hash embedder when
// allowed and the model cannot be loaded.
// modelFiles checks that the ONNX model and its vocabulary are both on disk.
func modelFiles(cfg config.EmbeddingConfig) error {
	for _, path := range []string{cfg.ModelPath, cfg.VocabPath} {
		if path == "" {
			return fmt.Errorf("embedding model requires model_path and vocab_path")
		}
		if _, err := os.Stat(path); err != nil {
			return err
		}
	}
	return nil
}

func loadEmbedder(cfg config.EmbeddingConfig, logger *zap.Logger) (embedding.Embedder, error) {
	err := modelFiles(cfg)
	if err == nil {
		var e *embedding.ONNXEmbedder
		e, err = embedding.NewONNXEmbedder(embedding.ONNXConfig{
			ModelPath:  cfg.ModelPath,
			VocabPath:  cfg.VocabPath,
			Dimensions: cfg.Dimensions,
			MaxTokens:  cfg.MaxTokens,
		})
		if err == nil {
			logger.Info("loaded embedding model", zap.String("model", cfg.Model), zap.String("path", cfg.ModelPath))
			return e, nil
		}
	}
	if !cfg.AllowFallbackOrDefault() {
		return nil, fmt.Errorf("failed to load embedding model: %w", err)
	}
	logger.Warn("embedding model unavailable, using hash embedder",
		zap.String("model", cfg.Model),
		zap.String("path", cfg.ModelPath),
		zap.String("vocab", cfg.VocabPath),
		zap.Error(err))
	return embedding.NewHashEmbedder(cfg.Dimensions), nil
}

// Extract runs extraction only.
func (p *Pipeline) Extract(ctx context.Context, files []models.SourceFile) ([]*models.ExtractionResult, error) {
	start := time.Now()
	results, err := p.extractor.ExtractAll(ctx, files)
	p.metrics.ObserveStage(metrics.StageExtract, start)
	p.metrics.ObserveExtraction(results)
	return results, err
}

// Ingest extracts, chunks, and indexes files into a new Session. The
// extraction results are returned even when indexing fails. A batch that
// yields no content returns indexer.ErrEmptyIndex.
func (p *Pipeline) Ingest(ctx context.Context, files []models.SourceFile) (*Session, []*models.ExtractionResult, error) {
	results, err := p.Extract(ctx, files)
	if err != nil {
		return nil, results, err
	}
	units := extract.Units(results)

	start := time.Now()
	chunks := p.chunker.Chunk(units)
	p.metrics.ObserveStage(metrics.StageChunk, start)
	p.logger.Info("chunked units", zap.Int("units", len(units)), zap.Int("chunks", len(chunks)))

	start = time.Now()
	ri, err := p.indexer.Build(ctx, chunks)
	if err != nil {
		return nil, results, err
	}
	p.metrics.ObserveStage(metrics.StageIndex, start)
	p.metrics.ObserveIndex(ri.Size())

	if err := ri.RecordSources(ctx, results); err != nil {
		_ = ri.Close()
		return nil, results, fmt.Errorf("failed to record sources: %w", err)
	}
	return newSession(ri, p.cfg.Retrieval, p.generator, p.metrics, p.logger), results, nil
}

// Close releases the models held by the pipeline.
func (p *Pipeline) Close() error {
	errs := []error{embedding.Close(p.embedder)}
	if c, ok := p.generator.(io.Closer); ok {
		errs = append(errs, c.Close())
	}
	if c, ok := p.transcriber.(io.Closer); ok {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
