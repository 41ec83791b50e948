package models

import (
	"fmt"
	"strings"
)

// ScoredChunk is a fused retrieval hit.
type ScoredChunk struct {
	Chunk        *Chunk  `json:"chunk"`
	Score        float64 `json:"score"`
	LexicalScore float64 `json:"lexical_score"`
	DenseScore   float64 `json:"dense_score"`
	Rank         int     `json:"rank"`
}

// Answer is the generated response to one question.
type Answer struct {
	Question string         `json:"question"`
	Text     string         `json:"answer"`
	Sources  []*ScoredChunk `json:"sources,omitempty"`
}

// ExtractionStep names the sub-step of extraction that failed.
type ExtractionStep string

const (
	StepOpen   ExtractionStep = "open"
	StepText   ExtractionStep = "text"
	StepTables ExtractionStep = "tables"
	StepAudio  ExtractionStep = "audio"
)

// StepFailure records one failed extraction sub-step.
type StepFailure struct {
	Step ExtractionStep `json:"step"`
	Err  error          `json:"-"`
}

func (f StepFailure) Error() string {
	return fmt.Sprintf("%s: %v", f.Step, f.Err)
}

func (f StepFailure) Unwrap() error {
	return f.Err
}

// ExtractionResult is the outcome of extracting one SourceFile.
type ExtractionResult struct {
	Source   SourceFile    `json:"source"`
	Units    []TextUnit    `json:"units"`
	Failures []StepFailure `json:"-"`
	Skipped  bool          `json:"skipped"`
}

// OK reports whether every attempted step succeeded.
func (r *ExtractionResult) OK() bool {
	return len(r.Failures) == 0
}

// Status summarizes the result as "skipped", "failed", "partial", or "ok".
func (r *ExtractionResult) Status() string {
	switch {
	case r.Skipped:
		return "skipped"
	case !r.OK() && len(r.Units) == 0:
		return "failed"
	case !r.OK():
		return "partial"
	default:
		return "ok"
	}
}

// FailureMessages returns the failures as strings.
func (r *ExtractionResult) FailureMessages() []string {
	out := make([]string, 0, len(r.Failures))
	for _, f := range r.Failures {
		out = append(out, f.Error())
	}
	return out
}

// Summary is a one-line description used by the CLI and logs.
func (r *ExtractionResult) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s): %s, %d units", r.Source.Label, r.Source.Kind, r.Status(), len(r.Units))
	if msgs := r.FailureMessages(); len(msgs) > 0 {
		fmt.Fprintf(&b, " [%s]", strings.Join(msgs, "; "))
	}
	return b.String()
}
