package indexer

import (
	"context"
	"errors"
	"testing"

	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/models"
)

func testUnits() []models.TextUnit {
	return []models.TextUnit{
		{
			Content: "Revenue grew 15% in Q3, reaching $3.2 billion.",
			Metadata: models.UnitMetadata{
				Source: "report", Type: models.TypeText, Page: models.IntPtr(1), Filename: "q3.pdf",
			},
		},
		{
			Content: "Operating margin improved to 18.5% from 17.2%.",
			Metadata: models.UnitMetadata{
				Source: "report", Type: models.TypeText, Page: models.IntPtr(2), Filename: "q3.pdf",
			},
		},
	}
}

func TestIndexer_Build(t *testing.T) {
	ctx := context.Background()
	chunks := NewChunker(500, 50).Chunk(testUnits())
	idx := NewIndexer(embedding.NewHashEmbedder(64))

	ri, err := idx.Build(ctx, chunks)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer ri.Close()

	if ri.Size() != len(chunks) {
		t.Errorf("Size() = %d, want %d", ri.Size(), len(chunks))
	}
	if ri.Vector.Size() != len(chunks) {
		t.Errorf("vector size = %d, want %d", ri.Vector.Size(), len(chunks))
	}
	n, err := ri.Keyword.DocCount()
	if err != nil || n != uint64(len(chunks)) {
		t.Errorf("keyword DocCount = %d, %v", n, err)
	}
	stored, err := ri.Store.CountChunks(ctx)
	if err != nil || stored != int64(len(chunks)) {
		t.Errorf("stored chunks = %d, %v", stored, err)
	}
	if ri.BuiltAt().IsZero() {
		t.Error("BuiltAt should be set")
	}

	got, err := ri.Store.GetChunk(ctx, chunks[1].ID)
	if err != nil {
		t.Fatal(err)
	}
	if page, ok := got.Page(); !ok || page != 2 {
		t.Errorf("stored chunk page = %d, %v; want 2", page, ok)
	}
}

func TestIndexer_BuildEmpty(t *testing.T) {
	idx := NewIndexer(embedding.NewHashEmbedder(8))
	ri, err := idx.Build(context.Background(), nil)
	if !errors.Is(err, ErrEmptyIndex) {
		t.Fatalf("expected ErrEmptyIndex, got %v", err)
	}
	if ri != nil {
		t.Error("expected nil index on error")
	}
}

type failingEmbedder struct{}

func (failingEmbedder) Embed(context.Context, string) ([]float32, error) {
	return nil, errors.New("model unavailable")
}

func TestIndexer_BuildEmbedError(t *testing.T) {
	chunks := NewChunker(500, 50).Chunk(testUnits())
	_, err := NewIndexer(failingEmbedder{}).Build(context.Background(), chunks)
	if err == nil {
		t.Fatal("expected error from failing embedder")
	}
}

func TestRetrievalIndex_RecordSources(t *testing.T) {
	ctx := context.Background()
	chunks := NewChunker(500, 50).Chunk(testUnits())
	ri, err := NewIndexer(embedding.NewHashEmbedder(16)).Build(ctx, chunks)
	if err != nil {
		t.Fatal(err)
	}
	defer ri.Close()

	results := []*models.ExtractionResult{
		{Source: models.NewSourceFile("/in/q3.pdf", "report"), Units: testUnits()},
		{
			Source:   models.NewSourceFile("/in/call.mp3", "call"),
			Failures: []models.StepFailure{{Step: models.StepAudio, Err: errors.New("timeout")}},
		},
	}
	if err := ri.RecordSources(ctx, results); err != nil {
		t.Fatal(err)
	}
	sources, err := ri.Store.ListSources(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(sources))
	}
	// Ordered by label: "call" before "report".
	if sources[0].Status != "failed" || sources[0].Error == "" {
		t.Errorf("call source = %+v", sources[0])
	}
	if sources[1].Status != "ok" || sources[1].UnitCount != 2 {
		t.Errorf("report source = %+v", sources[1])
	}
}
