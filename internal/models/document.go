// Package models defines core data structures for source files, extracted units, chunks, and answers.
package models

import (
	"path/filepath"
	"strings"
)

// SourceKind classifies an input file by extension.
type SourceKind string

const (
	KindPDF         SourceKind = "pdf"
	KindAudio       SourceKind = "audio"
	KindUnsupported SourceKind = "unsupported"
)

// ContentType tags where a TextUnit came from.
type ContentType string

const (
	TypeText  ContentType = "text"
	TypeTable ContentType = "table"
	TypeAudio ContentType = "audio"
)

// KindForPath returns the SourceKind for path based on its extension (case-insensitive).
func KindForPath(path string) SourceKind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return KindPDF
	case ".mp3", ".wav", ".m4a":
		return KindAudio
	default:
		return KindUnsupported
	}
}

// AcceptedExtensions lists the file extensions kotae can ingest.
func AcceptedExtensions() []string {
	return []string{".pdf", ".mp3", ".wav", ".m4a"}
}

// SourceFile is one input of an ingestion batch.
type SourceFile struct {
	Path  string     `json:"path"`
	Label string     `json:"label"`
	Kind  SourceKind `json:"kind"`
}

// NewSourceFile describes the file at path. An empty label defaults to the base filename.
func NewSourceFile(path, label string) SourceFile {
	if label == "" {
		label = filepath.Base(path)
	}
	return SourceFile{Path: path, Label: label, Kind: KindForPath(path)}
}

// UnitMetadata is the provenance carried by a TextUnit.
type UnitMetadata struct {
	Source   string      `json:"source"`
	Type     ContentType `json:"type"`
	Page     *int        `json:"page,omitempty"`
	Filename string      `json:"filename"`
	// Extra holds producer-specific fields; only scalar values survive chunking.
	Extra map[string]any `json:"extra,omitempty"`
}

// Map returns the metadata as a flat map, with Extra merged under the fixed keys.
func (m UnitMetadata) Map() map[string]any {
	out := make(map[string]any, 4+len(m.Extra))
	for k, v := range m.Extra {
		out[k] = v
	}
	out["source"] = m.Source
	out["type"] = string(m.Type)
	out["filename"] = m.Filename
	if m.Page != nil {
		out["page"] = *m.Page
	}
	return out
}

// TextUnit is a page's text, a detected table, or an audio transcript, before chunking.
type TextUnit struct {
	Content  string       `json:"content"`
	Metadata UnitMetadata `json:"metadata"`
}

// Chunk is a bounded-size segment of a TextUnit and the retrieval granule.
type Chunk struct {
	ID       string         `json:"id" db:"id"`
	Ordinal  int            `json:"ordinal" db:"ordinal"`
	SourceID string         `json:"source_id" db:"source_id"`
	Content  string         `json:"content" db:"content"`
	Metadata map[string]any `json:"metadata" db:"metadata"`
}

// Page returns the chunk's page number and whether it has one.
func (c *Chunk) Page() (int, bool) {
	switch v := c.Metadata["page"].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}

// Source returns the chunk's source label.
func (c *Chunk) Source() string {
	s, _ := c.Metadata["source"].(string)
	return s
}

// IntPtr returns a pointer to n.
func IntPtr(n int) *int {
	return &n
}
