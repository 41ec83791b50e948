package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/hyperjump/kotae/internal/models"
)

func sampleAnswer() *models.Answer {
	return &models.Answer{
		Question: "What was the revenue growth in Q3?",
		Text:     "Revenue grew by 15% in Q3.",
		Sources: []*models.ScoredChunk{
			{
				Rank:         1,
				Score:        0.8,
				LexicalScore: 1,
				DenseScore:   0.6,
				Chunk: &models.Chunk{
					ID:      "c1",
					Content: "Revenue grew 15% in Q3.",
					Metadata: map[string]any{
						"source": "financial_report",
						"type":   "text",
						"page":   1,
					},
				},
			},
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"text", OutputText, false},
		{"json", OutputJSON, false},
		{"", OutputText, false},
		{"yaml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWriteAnswer_text(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteAnswer(&buf, sampleAnswer(), false, OutputText); err != nil {
		t.Fatalf("WriteAnswer: %v", err)
	}
	if got := buf.String(); got != "Revenue grew by 15% in Q3.\n" {
		t.Errorf("got %q", got)
	}
}

func TestWriteAnswer_textWithSources(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteAnswer(&buf, sampleAnswer(), true, OutputText); err != nil {
		t.Fatalf("WriteAnswer: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Sources:", "[1] financial_report p.1 (text)", "Revenue grew 15% in Q3."} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteAnswer_JSON(t *testing.T) {
	ans := sampleAnswer()
	var buf bytes.Buffer
	if err := WriteAnswer(&buf, ans, false, OutputJSON); err != nil {
		t.Fatalf("WriteAnswer: %v", err)
	}
	var decoded models.Answer
	if err := json.NewDecoder(&buf).Decode(&decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Text != ans.Text || decoded.Question != ans.Question {
		t.Errorf("decoded %+v", decoded)
	}
	if len(decoded.Sources) != 0 {
		t.Errorf("sources should be omitted, got %d", len(decoded.Sources))
	}
	if len(ans.Sources) != 1 {
		t.Error("WriteAnswer must not modify the answer")
	}
}

func TestWriteExtraction(t *testing.T) {
	results := []*models.ExtractionResult{
		{
			Source: models.NewSourceFile("/tmp/q3.pdf", "financial_report"),
			Units: []models.TextUnit{{
				Content:  "Revenue grew 15% in Q3.",
				Metadata: models.UnitMetadata{Source: "financial_report", Type: models.TypeText, Page: models.IntPtr(1), Filename: "q3.pdf"},
			}},
			Failures: []models.StepFailure{{Step: models.StepTables, Err: errors.New("bad layout")}},
		},
		{Source: models.NewSourceFile("/tmp/notes.txt", ""), Skipped: true},
	}

	var buf bytes.Buffer
	if err := WriteExtraction(&buf, results, OutputText); err != nil {
		t.Fatalf("WriteExtraction: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"financial_report (pdf): partial, 1 units [tables: bad layout]", "[1] text, page 1", "notes.txt (unsupported): skipped"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	if err := WriteExtraction(&buf, results, OutputJSON); err != nil {
		t.Fatalf("WriteExtraction json: %v", err)
	}
	var decoded []extractionView
	if err := json.NewDecoder(&buf).Decode(&decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("got %d results", len(decoded))
	}
	if decoded[0].Status != "partial" || len(decoded[0].Errors) != 1 {
		t.Errorf("first result: %+v", decoded[0])
	}
	if decoded[1].Status != "skipped" || decoded[1].Units == nil {
		t.Errorf("second result: %+v", decoded[1])
	}
}

func TestTruncateWords(t *testing.T) {
	if got := TruncateWords("one two three", 2); got != "one two..." {
		t.Errorf("got %q", got)
	}
	if got := TruncateWords("one\ntwo", 5); got != "one two" {
		t.Errorf("got %q", got)
	}
}
