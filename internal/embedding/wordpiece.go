package embedding

import (
	"fmt"
	"strings"
	"sync"

	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/model/wordpiece"
	"github.com/sugarme/tokenizer/normalizer"
	"github.com/sugarme/tokenizer/pretokenizer"
)

// WordPieceTokenizer implements BERT uncased tokenization from a vocab.txt file
// (one token per line, line number = ID), as shipped with all-MiniLM-L6-v2.
type WordPieceTokenizer struct {
	mu  sync.Mutex
	tk  *tokenizer.Tokenizer
	cls int64
	sep int64
}

// LoadWordPieceTokenizer reads the vocabulary at path.
func LoadWordPieceTokenizer(path string) (*WordPieceTokenizer, error) {
	model, err := wordpiece.NewWordPieceFromFile(path, "[UNK]")
	if err != nil {
		return nil, fmt.Errorf("failed to read vocab: %w", err)
	}
	tk := tokenizer.NewTokenizer(model)
	tk.WithNormalizer(normalizer.NewBertNormalizer(true, true, true, true))
	tk.WithPreTokenizer(pretokenizer.NewBertPreTokenizer())

	ids := make(map[string]int64, 3)
	for _, special := range []string{"[CLS]", "[SEP]", "[UNK]"} {
		id, ok := tk.TokenToId(special)
		if !ok {
			return nil, fmt.Errorf("vocab %s is missing %s", path, special)
		}
		ids[special] = int64(id)
	}
	return &WordPieceTokenizer{tk: tk, cls: ids["[CLS]"], sep: ids["[SEP]"]}, nil
}

// Tokenize lowercases, splits on whitespace and punctuation, and maps each word to
// its longest-prefix word pieces. The result is wrapped in [CLS]/[SEP] and padded
// or truncated to maxTokens.
func (t *WordPieceTokenizer) Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64, err error) {
	var ids []int64
	if strings.TrimSpace(text) != "" {
		t.mu.Lock()
		enc, err := t.tk.EncodeSingle(text, false)
		t.mu.Unlock()
		if err != nil {
			return nil, nil, nil, fmt.Errorf("tokenize: %w", err)
		}
		ids = make([]int64, len(enc.Ids))
		for i, id := range enc.Ids {
			ids[i] = int64(id)
		}
	}
	inputIDs, attentionMask, tokenTypeIDs = pack(ids, t.cls, t.sep, maxTokens)
	return inputIDs, attentionMask, tokenTypeIDs, nil
}
