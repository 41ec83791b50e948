package embedding

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestPack(t *testing.T) {
	ids, attn, types := pack([]int64{7, 8}, 101, 102, 10)
	if len(ids) != 10 || len(attn) != 10 || len(types) != 10 {
		t.Fatalf("lengths = %d/%d/%d", len(ids), len(attn), len(types))
	}
	if !reflect.DeepEqual(ids[:4], []int64{101, 7, 8, 102}) {
		t.Errorf("ids = %v, want CLS, pieces, SEP", ids)
	}
	if !reflect.DeepEqual(attn, []int64{1, 1, 1, 1, 0, 0, 0, 0, 0, 0}) {
		t.Errorf("attention = %v", attn)
	}
}

func TestPack_truncates(t *testing.T) {
	pieces := make([]int64, 50)
	for i := range pieces {
		pieces[i] = 5
	}
	ids, attn, _ := pack(pieces, 101, 102, 8)
	if len(ids) != 8 || ids[7] != 102 {
		t.Errorf("ids = %v, want SEP in last slot", ids)
	}
	for i, a := range attn {
		if a != 1 {
			t.Errorf("attention[%d] = %d, want 1 when truncated", i, a)
		}
	}
}

func TestTerms(t *testing.T) {
	got := Terms("  Revenue grew 15% in Q3, ($3.2bn)  ")
	want := []string{"revenue", "grew", "15", "in", "q3", "3", "2bn"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Terms() = %q, want %q", got, want)
	}
	if len(Terms("")) != 0 {
		t.Error("empty string should have no terms")
	}
}

func TestHashString(t *testing.T) {
	h := HashString("abc")
	if h == 0 {
		t.Error("hash should be non-zero")
	}
	if HashString("abc") != HashString("abc") {
		t.Error("hash should be deterministic")
	}
	if HashString(strings.Repeat("z", 64)) < 0 {
		t.Error("hash should be non-negative")
	}
}

func writeVocab(t *testing.T, toks ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vocab.txt")
	if err := os.WriteFile(path, []byte(strings.Join(toks, "\n")+"\n"), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestWordPieceTokenizer(t *testing.T) {
	path := writeVocab(t, "[PAD]", "[UNK]", "[CLS]", "[SEP]", "revenue", "grew", "in", "q", "##3", ".", "%", "15", "un", "##believ", "##able")
	tok, err := LoadWordPieceTokenizer(path)
	if err != nil {
		t.Fatal(err)
	}
	ids, attn, _, err := tok.Tokenize("Revenue grew 15% in Q3.", 16)
	if err != nil {
		t.Fatal(err)
	}
	want := []int64{2, 4, 5, 11, 10, 6, 7, 8, 9, 3, 0, 0, 0, 0, 0, 0}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("ids = %v, want %v", ids, want)
	}
	if attn[9] != 1 || attn[10] != 0 {
		t.Errorf("attention = %v", attn)
	}

	ids, _, _, err = tok.Tokenize("unbelievable xyz", 8)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(ids[:6], []int64{2, 12, 13, 14, 1, 3}) {
		t.Errorf("ids = %v, want word pieces then UNK", ids)
	}

	ids, _, _, err = tok.Tokenize("", 4)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(ids, []int64{2, 3, 0, 0}) {
		t.Errorf("ids = %v", ids)
	}
}

func TestLoadWordPieceTokenizer_errors(t *testing.T) {
	if _, err := LoadWordPieceTokenizer(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("missing vocab should be rejected")
	}
	if _, err := LoadWordPieceTokenizer(writeVocab(t, "[CLS]", "revenue")); err == nil {
		t.Error("vocab without [SEP]/[UNK] should be rejected")
	}
}
