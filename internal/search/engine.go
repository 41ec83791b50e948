package search

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/indexer"
	"github.com/hyperjump/kotae/internal/keyword"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/vector"
)

// Retriever runs lexical and dense retrieval over a RetrievalIndex and fuses the results.
type Retriever struct {
	index  *indexer.RetrievalIndex
	config config.RetrievalConfig
	logger *zap.Logger
}

// RetrieverOption configures a Retriever.
type RetrieverOption func(*Retriever)

// WithLogger sets a logger for retrieval debug output.
func WithLogger(l *zap.Logger) RetrieverOption {
	return func(r *Retriever) { r.logger = l }
}

// NewRetriever creates a retriever over index.
func NewRetriever(index *indexer.RetrievalIndex, cfg config.RetrievalConfig, opts ...RetrieverOption) *Retriever {
	r := &Retriever{index: index, config: cfg, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Retrieve returns the fused, deduplicated chunks for query, best first.
// The result holds at most lexical_k + dense_k chunks, and no two share the
// same content: a file ingested under two labels contributes its text once.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]*models.ScoredChunk, error) {
	startTime := time.Now()
	query = ProcessQuery(query)

	var (
		keywordResults []*keyword.KeywordResult
		denseResults   []*vector.VectorResult
		errChan        = make(chan error, 2)
		wg             sync.WaitGroup
	)

	if r.config.LexicalK > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results, err := r.index.Keyword.Search(ctx, query, r.config.LexicalK)
			if err != nil {
				errChan <- fmt.Errorf("keyword search failed: %w", err)
				return
			}
			keywordResults = results
		}()
	}

	if r.config.DenseK > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			queryEmbedding, err := r.index.Embedder.Embed(ctx, query)
			if err != nil {
				errChan <- fmt.Errorf("embedding failed: %w", err)
				return
			}
			results, err := r.index.Vector.Search(ctx, queryEmbedding, r.config.DenseK)
			if err != nil {
				errChan <- fmt.Errorf("vector search failed: %w", err)
				return
			}
			denseResults = results
		}()
	}

	wg.Wait()
	close(errChan)
	for err := range errChan {
		if err != nil {
			return nil, err
		}
	}

	var fused []*FusedResult
	if r.config.Fusion == config.FusionRRF {
		fused = FuseRRF(keywordResults, denseResults, r.config.LexicalWeight, r.config.DenseWeight, r.config.RRFConstant)
	} else {
		fused = Fuse(keywordResults, denseResults, r.config.LexicalWeight, r.config.DenseWeight)
	}

	ids := make([]string, len(fused))
	for i, f := range fused {
		ids[i] = f.ChunkID
	}
	chunks, err := r.index.Store.GetChunks(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load chunks: %w", err)
	}
	byID := make(map[string]*models.Chunk, len(chunks))
	for _, ch := range chunks {
		byID[ch.ID] = ch
	}

	out := make([]*models.ScoredChunk, 0, len(fused))
	seen := make(map[string]struct{}, len(fused))
	for _, f := range fused {
		ch, ok := byID[f.ChunkID]
		if !ok {
			continue
		}
		if _, dup := seen[ch.Content]; dup {
			continue
		}
		seen[ch.Content] = struct{}{}
		out = append(out, &models.ScoredChunk{
			Chunk:        ch,
			Score:        f.Score,
			LexicalScore: f.LexicalScore,
			DenseScore:   f.DenseScore,
			Rank:         len(out) + 1,
		})
	}

	r.logger.Debug("retrieved chunks",
		zap.String("query", query),
		zap.Int("lexical", len(keywordResults)),
		zap.Int("dense", len(denseResults)),
		zap.Int("fused", len(out)),
		zap.Duration("took", time.Since(startTime)))
	return out, nil
}
