package transcribe

import (
	"context"
	"path/filepath"
)

// MockTranscriber returns canned transcripts keyed by base filename.
type MockTranscriber struct {
	Texts map[string]string
	Err   error
	Calls int
}

// NewMockTranscriber returns a mock that answers with texts[filepath.Base(path)].
func NewMockTranscriber(texts map[string]string) *MockTranscriber {
	return &MockTranscriber{Texts: texts}
}

// Transcribe returns the canned text for path, or Err when set.
func (m *MockTranscriber) Transcribe(ctx context.Context, path string) (*Transcript, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	return &Transcript{Text: m.Texts[filepath.Base(path)]}, nil
}
