// Package storage defines the batch-local persistence interface for sources and chunks.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/kotae/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// SourceRecord records how one input file fared during ingestion.
type SourceRecord struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	Path      string `json:"path"`
	Kind      string `json:"kind"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	UnitCount int    `json:"unit_count"`
}

// Storage defines source and chunk persistence operations.
type Storage interface {
	// Source operations
	CreateSource(ctx context.Context, src *SourceRecord) error
	ListSources(ctx context.Context) ([]*SourceRecord, error)

	// Chunk operations
	BatchCreateChunks(ctx context.Context, chunks []*models.Chunk) error
	GetChunk(ctx context.Context, id string) (*models.Chunk, error)
	// GetChunks returns the chunks for ids in the order given; unknown ids are skipped.
	GetChunks(ctx context.Context, ids []string) ([]*models.Chunk, error)

	// Stats
	CountSources(ctx context.Context) (int64, error)
	CountChunks(ctx context.Context) (int64, error)

	Close() error
}
