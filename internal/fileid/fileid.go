// Package fileid provides deterministic source IDs for ingested files.
package fileid

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
)

const prefix = "src:"

// SourceID returns a stable ID for a source identified by its display label
// and filename. Chunks and source records derive the same ID independently.
func SourceID(label, filename string) string {
	name := filepath.Base(filepath.Clean(filename))
	hash := sha256.Sum256([]byte(label + "\x00" + name))
	return prefix + hex.EncodeToString(hash[:12])
}
