// Package transcribe converts audio recordings into text.
package transcribe

import "context"

// Transcript is the result of transcribing one audio file.
type Transcript struct {
	Text     string
	Language string
	Duration float64
}

// Transcriber turns the audio file at path into a whole-file transcript.
type Transcriber interface {
	Transcribe(ctx context.Context, path string) (*Transcript, error)
}
