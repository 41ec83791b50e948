package indexer

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/textsplitter"

	"github.com/hyperjump/kotae/internal/fileid"
	"github.com/hyperjump/kotae/internal/models"
)

// DefaultSeparators are tried in order: paragraphs, lines, words, characters.
var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

// chunkNamespace scopes chunk UUIDs so identical input always yields identical IDs.
var chunkNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("kotae.chunk"))

// Chunker splits text units into overlapping chunks along the coarsest
// boundary that keeps each chunk within size. Sizes count characters (runes).
type Chunker struct {
	chunkSize    int
	chunkOverlap int
	separators   []string
	splitter     textsplitter.RecursiveCharacter
}

// ChunkerOption configures a Chunker.
type ChunkerOption func(*Chunker)

// WithSeparators replaces the separator hierarchy. The last separator should be ""
// so any text can be split down to single characters.
func WithSeparators(seps []string) ChunkerOption {
	return func(c *Chunker) {
		if len(seps) > 0 {
			c.separators = seps
		}
	}
}

// NewChunker creates a chunker with the given size and overlap in characters.
func NewChunker(chunkSize, chunkOverlap int, opts ...ChunkerOption) *Chunker {
	if chunkSize <= 0 {
		chunkSize = 500
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = 0
	}
	c := &Chunker{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		separators:   DefaultSeparators,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.splitter = textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(c.chunkSize),
		textsplitter.WithChunkOverlap(c.chunkOverlap),
		textsplitter.WithSeparators(c.separators),
		textsplitter.WithLenFunc(utf8.RuneCountInString),
		textsplitter.WithKeepSeparator(true),
	)
	return c
}

// Chunk splits every unit independently and concatenates the results in unit order.
// Chunk metadata is the unit's metadata reduced to scalar values.
func (c *Chunker) Chunk(units []models.TextUnit) []*models.Chunk {
	var chunks []*models.Chunk
	for ui, unit := range units {
		sourceID := fileid.SourceID(unit.Metadata.Source, unit.Metadata.Filename)
		meta := FilterScalarMetadata(unit.Metadata.Map())
		for pi, piece := range c.SplitText(Preprocess(unit.Content)) {
			md := make(map[string]any, len(meta))
			for k, v := range meta {
				md[k] = v
			}
			chunks = append(chunks, &models.Chunk{
				ID:       chunkID(sourceID, ui, pi, piece),
				Ordinal:  len(chunks),
				SourceID: sourceID,
				Content:  piece,
				Metadata: md,
			})
		}
	}
	return chunks
}

func chunkID(sourceID string, unit, piece int, content string) string {
	name := fmt.Sprintf("%s|%d|%d|%s", sourceID, unit, piece, content)
	return uuid.NewSHA1(chunkNamespace, []byte(name)).String()
}

// SplitText splits text into whitespace-trimmed, non-empty chunks of at most
// chunkSize characters; consecutive chunks share at most chunkOverlap characters.
// Separators stay attached to the start of the piece that follows them.
func (c *Chunker) SplitText(text string) []string {
	pieces, err := c.splitter.SplitText(text)
	if err != nil {
		return nil
	}
	out := pieces[:0]
	for _, p := range pieces {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
