package keyword

import (
	"context"
	"testing"

	"github.com/hyperjump/kotae/internal/models"
)

func newTestIndex(t *testing.T) *BleveIndex {
	t.Helper()
	idx, err := NewBleveIndex()
	if err != nil {
		t.Fatalf("NewBleveIndex: %v", err)
	}
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func chunk(id, content string) *models.Chunk {
	return &models.Chunk{
		ID:       id,
		SourceID: "src:test",
		Content:  content,
		Metadata: map[string]any{"source": "report", "type": "text"},
	}
}

func TestBleveIndex_SearchFindsContent(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	chunks := []*models.Chunk{
		chunk("c1", "Revenue grew 15% in Q3, reaching $3.2 billion."),
		chunk("c2", "Operating margin improved to 18.5% from 17.2%."),
		chunk("c3", "The board approved a new dividend policy."),
	}
	if err := idx.IndexBatch(ctx, chunks); err != nil {
		t.Fatalf("IndexBatch: %v", err)
	}

	results, err := idx.Search(ctx, "What was the revenue in Q3?", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected at least one keyword result for revenue question")
	}
	if results[0].ID != "c1" {
		t.Errorf("first result ID = %q, want c1", results[0].ID)
	}

	// Standard analyzer lowercases, so "MARGIN" matches "margin".
	results, err = idx.Search(ctx, "MARGIN", 10)
	if err != nil {
		t.Fatalf("Search margin: %v", err)
	}
	if len(results) != 1 || results[0].ID != "c2" {
		t.Errorf("margin results = %+v, want only c2", results)
	}
}

func TestBleveIndex_SearchRespectsLimit(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	var chunks []*models.Chunk
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		chunks = append(chunks, chunk(id, "quarterly revenue figures "+id))
	}
	if err := idx.IndexBatch(ctx, chunks); err != nil {
		t.Fatalf("IndexBatch: %v", err)
	}

	results, err := idx.Search(ctx, "revenue", 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 3 {
		t.Errorf("len(results) = %d, want 3", len(results))
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Errorf("results not sorted by score: %v > %v", results[i].Score, results[i-1].Score)
		}
	}
}

func TestBleveIndex_EmptyQuery(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()
	if err := idx.IndexBatch(ctx, []*models.Chunk{chunk("c1", "some text")}); err != nil {
		t.Fatalf("IndexBatch: %v", err)
	}

	results, err := idx.Search(ctx, "   ", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results for blank query, got %d", len(results))
	}

	results, err = idx.Search(ctx, "zebra", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results for unmatched query, got %d", len(results))
	}
}

func TestBleveIndex_DocCount(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	n, err := idx.DocCount()
	if err != nil {
		t.Fatalf("DocCount: %v", err)
	}
	if n != 0 {
		t.Errorf("DocCount = %d, want 0", n)
	}

	if err := idx.IndexBatch(ctx, []*models.Chunk{chunk("c1", "one"), chunk("c2", "two")}); err != nil {
		t.Fatalf("IndexBatch: %v", err)
	}
	n, err = idx.DocCount()
	if err != nil {
		t.Fatalf("DocCount: %v", err)
	}
	if n != 2 {
		t.Errorf("DocCount = %d, want 2", n)
	}
}
