package vector

import (
	"context"
	"math"
	"testing"
)

func TestMemoryIndex_AddSearch(t *testing.T) {
	idx, err := NewMemoryIndex(3)
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()
	ctx := context.Background()

	vecs := [][]float32{
		{1, 0, 0},
		{0.9, 0.1, 0},
		{0, 1, 0},
	}
	ids := []string{"a", "b", "c"}
	if err := idx.Add(ctx, ids, vecs); err != nil {
		t.Fatal(err)
	}
	if idx.Size() != 3 {
		t.Errorf("Size=%d", idx.Size())
	}

	results, err := idx.Search(ctx, []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].ID != "a" || results[1].ID != "b" {
		t.Errorf("order = %s, %s; want a, b", results[0].ID, results[1].ID)
	}

	all, _ := idx.Search(ctx, []float32{0, 0, 1}, 10)
	if len(all) != 3 {
		t.Errorf("k larger than size should return everything, got %d", len(all))
	}
	// all scores tie at 0; insertion order is kept
	if all[0].ID != "a" || all[2].ID != "c" {
		t.Errorf("tie order = %s..%s", all[0].ID, all[2].ID)
	}
}

func TestMemoryIndex_errors(t *testing.T) {
	if _, err := NewMemoryIndex(0); err == nil {
		t.Error("zero dimensions should be rejected")
	}
	idx, _ := NewMemoryIndex(2)
	ctx := context.Background()
	if err := idx.Add(ctx, []string{"x"}, [][]float32{{1, 0, 0}}); err == nil {
		t.Error("dimension mismatch should be rejected")
	}
	if err := idx.Add(ctx, []string{"x", "y"}, [][]float32{{1, 0}}); err == nil {
		t.Error("length mismatch should be rejected")
	}
	if err := idx.Add(ctx, []string{"x"}, [][]float32{{1, 0}}); err != nil {
		t.Fatal(err)
	}
	if err := idx.Add(ctx, []string{"x"}, [][]float32{{0, 1}}); err == nil {
		t.Error("duplicate id should be rejected")
	}
	if _, err := idx.Search(ctx, []float32{1}, 1); err == nil {
		t.Error("query dimension mismatch should be rejected")
	}
	if res, _ := idx.Search(ctx, []float32{1, 0}, 0); res != nil {
		t.Error("k=0 should return nothing")
	}
}

func TestMemoryIndex_copiesInput(t *testing.T) {
	idx, _ := NewMemoryIndex(2)
	v := []float32{1, 0}
	_ = idx.Add(context.Background(), []string{"x"}, [][]float32{v})
	v[0] = -1
	res, _ := idx.Search(context.Background(), []float32{1, 0}, 1)
	if res[0].Score != 1 {
		t.Errorf("score = %f; index must not alias caller vectors", res[0].Score)
	}
}

func TestSimilarity(t *testing.T) {
	a := []float32{0.6, 0.8}
	if got := InnerProduct(a, a); math.Abs(got-1) > 1e-6 {
		t.Errorf("InnerProduct = %f", got)
	}
	if got := CosineSimilarity(a, []float32{-0.6, -0.8}); got != 0 {
		t.Errorf("negative similarity should clamp to 0, got %f", got)
	}
	if got := InnerProduct(a, []float32{1}); got != 0 {
		t.Errorf("length mismatch should give 0, got %f", got)
	}
	if got := L2Norm([]float32{3, 4}); got != 5 {
		t.Errorf("L2Norm = %f", got)
	}
}
