// Package keyword provides the lexical (term-frequency) index over chunks.
package keyword

import (
	"context"

	"github.com/hyperjump/kotae/internal/models"
)

// KeywordIndex defines lexical indexing and search over chunks.
type KeywordIndex interface {
	IndexBatch(ctx context.Context, chunks []*models.Chunk) error
	Search(ctx context.Context, query string, limit int) ([]*KeywordResult, error)
	// DocCount returns the total number of chunks in the index.
	DocCount() (uint64, error)
	Close() error
}

// KeywordResult is a single keyword search hit (ID is the chunk ID).
type KeywordResult struct {
	ID    string
	Score float64
}
