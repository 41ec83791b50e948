package embedding

import (
	"context"
	"errors"
	"testing"
)

func TestEmbeddingCache_GetSet(t *testing.T) {
	c := NewEmbeddingCache(2)
	if v, ok := c.Get("a"); ok || v != nil {
		t.Fatal("expected miss")
	}
	c.Set("a", []float32{1, 2, 3})
	v, ok := c.Get("a")
	if !ok || len(v) != 3 || v[0] != 1 {
		t.Errorf("Get: got %v, %v", v, ok)
	}
	c.Set("b", []float32{4, 5})
	c.Set("c", []float32{6}) // evicts a
	if _, ok := c.Get("a"); ok {
		t.Error("expected a to be evicted")
	}
	if _, ok := c.Get("b"); !ok {
		t.Error("expected b to remain")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("expected c to be present")
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d", c.Len())
	}
}

type countingEmbedder struct {
	calls int
	err   error
}

func (e *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	return []float32{float32(len(text))}, nil
}

func TestCachedEmbedder(t *testing.T) {
	inner := &countingEmbedder{}
	c := NewCachedEmbedder(inner, 10)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		v, err := c.Embed(ctx, "revenue")
		if err != nil {
			t.Fatal(err)
		}
		if v[0] != 7 {
			t.Errorf("v = %v", v)
		}
	}
	if inner.calls != 1 {
		t.Errorf("inner called %d times, want 1", inner.calls)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
}

func TestCachedEmbedder_errorsNotCached(t *testing.T) {
	inner := &countingEmbedder{err: errors.New("model offline")}
	c := NewCachedEmbedder(inner, 10)
	for i := 0; i < 2; i++ {
		if _, err := c.Embed(context.Background(), "x"); err == nil {
			t.Fatal("expected error")
		}
	}
	if inner.calls != 2 {
		t.Errorf("inner called %d times, want 2", inner.calls)
	}
}

func TestEmbedAll(t *testing.T) {
	ctx := context.Background()
	// no batch support: falls back to Embed per text
	inner := &countingEmbedder{}
	got, err := EmbedAll(ctx, inner, []string{"a", "bb", "ccc"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 || got[2][0] != 3 || inner.calls != 3 {
		t.Errorf("got %v, calls %d", got, inner.calls)
	}

	// batch support
	h := NewHashEmbedder(16)
	got, err = EmbedAll(ctx, h, []string{"a", "b"})
	if err != nil || len(got) != 2 || len(got[0]) != 16 {
		t.Errorf("batch: got %v, %v", got, err)
	}

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := EmbedAll(canceled, &countingEmbedder{}, []string{"a"}); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
