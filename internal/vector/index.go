// Package vector provides the dense (embedding) index used for semantic retrieval.
package vector

import "context"

// VectorIndex stores vectors by ID and returns nearest neighbours by inner product.
// Indices are built once per ingestion batch; there is no removal or persistence.
type VectorIndex interface {
	Add(ctx context.Context, ids []string, vectors [][]float32) error
	Search(ctx context.Context, query []float32, k int) ([]*VectorResult, error)
	Size() int
	Close() error
}

// VectorResult is a single vector search hit (ID is the chunk ID).
type VectorResult struct {
	ID    string
	Score float64 // Inner product; cosine similarity for normalized vectors
}
