// Package indexer turns text units into chunks and builds the retrieval index over them.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/fileid"
	"github.com/hyperjump/kotae/internal/keyword"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/storage"
	"github.com/hyperjump/kotae/internal/vector"
)

// ErrEmptyIndex is returned when a batch produces no chunks to index.
var ErrEmptyIndex = errors.New("no content to index")

// RetrievalIndex is the lexical and dense index over one batch of chunks,
// plus the store used to hydrate hits. It is immutable once built.
type RetrievalIndex struct {
	Store    storage.Storage
	Keyword  keyword.KeywordIndex
	Vector   vector.VectorIndex
	Embedder embedding.Embedder

	size    int
	builtAt time.Time
}

// Size returns the number of chunks in the index.
func (r *RetrievalIndex) Size() int {
	return r.size
}

// BuiltAt returns when the index finished building.
func (r *RetrievalIndex) BuiltAt() time.Time {
	return r.builtAt
}

// RecordSources stores one source record per extraction result.
func (r *RetrievalIndex) RecordSources(ctx context.Context, results []*models.ExtractionResult) error {
	for _, res := range results {
		rec := &storage.SourceRecord{
			ID:        fileid.SourceID(res.Source.Label, res.Source.Path),
			Label:     res.Source.Label,
			Path:      res.Source.Path,
			Kind:      string(res.Source.Kind),
			Status:    res.Status(),
			UnitCount: len(res.Units),
		}
		if len(res.Failures) > 0 {
			rec.Error = strings.Join(res.FailureMessages(), "; ")
		}
		if err := r.Store.CreateSource(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the store and both indices. The embedder is owned by the caller.
func (r *RetrievalIndex) Close() error {
	var errs []error
	if r.Keyword != nil {
		errs = append(errs, r.Keyword.Close())
	}
	if r.Vector != nil {
		errs = append(errs, r.Vector.Close())
	}
	if r.Store != nil {
		errs = append(errs, r.Store.Close())
	}
	return errors.Join(errs...)
}

// Indexer builds RetrievalIndex values from chunks.
type Indexer struct {
	embedder embedding.Embedder
	logger   *zap.Logger // optional; when set, logs build events
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets a logger for build output.
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) { idx.logger = l }
}

// NewIndexer creates an indexer that embeds chunks with embedder.
func NewIndexer(embedder embedding.Embedder, opts ...IndexerOption) *Indexer {
	idx := &Indexer{embedder: embedder}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// Build embeds every chunk and indexes it lexically, densely, and in a fresh
// in-memory store. Zero chunks returns ErrEmptyIndex.
func (idx *Indexer) Build(ctx context.Context, chunks []*models.Chunk) (_ *RetrievalIndex, err error) {
	if len(chunks) == 0 {
		return nil, ErrEmptyIndex
	}
	start := time.Now()

	texts := make([]string, len(chunks))
	ids := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Content
		ids[i] = ch.ID
	}
	embeddings, err := embedding.EmbedAll(ctx, idx.embedder, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embeddings: %w", err)
	}
	if len(embeddings) != len(chunks) || len(embeddings[0]) == 0 {
		return nil, fmt.Errorf("failed to generate embeddings: got %d for %d chunks", len(embeddings), len(chunks))
	}

	ri := &RetrievalIndex{Embedder: idx.embedder}
	defer func() {
		if err != nil {
			_ = ri.Close()
		}
	}()

	vecIndex, err := vector.NewMemoryIndex(len(embeddings[0]))
	if err != nil {
		return nil, fmt.Errorf("failed to create vector index: %w", err)
	}
	ri.Vector = vecIndex
	if err = ri.Vector.Add(ctx, ids, embeddings); err != nil {
		return nil, fmt.Errorf("failed to index vectors: %w", err)
	}

	kwIndex, err := keyword.NewBleveIndex()
	if err != nil {
		return nil, err
	}
	ri.Keyword = kwIndex
	if err = ri.Keyword.IndexBatch(ctx, chunks); err != nil {
		return nil, fmt.Errorf("failed to index keywords: %w", err)
	}

	store, err := storage.NewSQLiteStorage(storage.MemoryDSN)
	if err != nil {
		return nil, err
	}
	ri.Store = store
	if err = ri.Store.BatchCreateChunks(ctx, chunks); err != nil {
		return nil, fmt.Errorf("failed to store chunks: %w", err)
	}

	ri.size = len(chunks)
	ri.builtAt = time.Now()
	if idx.logger != nil {
		idx.logger.Info("retrieval index built",
			zap.Int("chunks", len(chunks)),
			zap.Int("dimensions", len(embeddings[0])),
			zap.Duration("took", time.Since(start)))
	}
	return ri, nil
}
