// Package cli provides output helpers for the kotae CLI.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseFormat validates a --format flag value.
func ParseFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case OutputText, OutputJSON:
		return OutputFormat(s), nil
	case "":
		return OutputText, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text or json", s)
	}
}

// WriteAnswer writes ans to w. Sources are included only when withSources is set.
func WriteAnswer(w io.Writer, ans *models.Answer, withSources bool, format OutputFormat) error {
	out := *ans
	if !withSources {
		out.Sources = nil
	}
	if format == OutputJSON {
		return encodeJSON(w, out)
	}

	fmt.Fprintln(w, out.Text)
	if len(out.Sources) == 0 {
		return nil
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Sources:")
	for _, s := range out.Sources {
		writeSource(w, s)
	}
	return nil
}

func writeSource(w io.Writer, s *models.ScoredChunk) {
	loc := s.Chunk.Source()
	if page, ok := s.Chunk.Page(); ok {
		loc = fmt.Sprintf("%s p.%d", loc, page)
	}
	typ, _ := s.Chunk.Metadata["type"].(string)
	fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
	fmt.Fprintf(w, "[%d] %s (%s) | Score: %.4f (Lexical: %.4f, Dense: %.4f)\n",
		s.Rank, loc, typ, s.Score, s.LexicalScore, s.DenseScore)
	fmt.Fprintf(w, "%s\n", utils.Truncate(strings.TrimSpace(s.Chunk.Content), 200))
}

// extractionView is the JSON shape of one extraction result.
type extractionView struct {
	Source models.SourceFile `json:"source"`
	Status string            `json:"status"`
	Units  []models.TextUnit `json:"units"`
	Errors []string          `json:"errors,omitempty"`
}

// WriteExtraction writes extraction results to w.
func WriteExtraction(w io.Writer, results []*models.ExtractionResult, format OutputFormat) error {
	if format == OutputJSON {
		views := make([]extractionView, 0, len(results))
		for _, r := range results {
			units := r.Units
			if units == nil {
				units = []models.TextUnit{}
			}
			views = append(views, extractionView{
				Source: r.Source,
				Status: r.Status(),
				Units:  units,
				Errors: r.FailureMessages(),
			})
		}
		return encodeJSON(w, views)
	}

	for _, r := range results {
		fmt.Fprintln(w, r.Summary())
		for i, u := range r.Units {
			loc := string(u.Metadata.Type)
			if u.Metadata.Page != nil {
				loc = fmt.Sprintf("%s, page %d", loc, *u.Metadata.Page)
			}
			fmt.Fprintf(w, "  [%d] %s\n", i+1, loc)
			fmt.Fprintf(w, "      %s\n", TruncateWords(u.Content, 30))
		}
	}
	return nil
}

func encodeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// TruncateWords returns up to maxWords from the space-separated string.
func TruncateWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:maxWords], " ") + "..."
}
