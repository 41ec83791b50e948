package models

import (
	"errors"
	"testing"
)

func TestQuestion_Validate(t *testing.T) {
	tests := []struct {
		name    string
		q       *Question
		want    string
		wantErr bool
	}{
		{"empty", &Question{Text: ""}, "", true},
		{"whitespace", &Question{Text: " \n\t "}, "", true},
		{"trimmed", &Question{Text: "  What was revenue?  "}, "What was revenue?", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.q.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrEmptyQuestion) {
				t.Errorf("error = %v, want ErrEmptyQuestion", err)
			}
			if !tt.wantErr && tt.q.Text != tt.want {
				t.Errorf("Text = %q, want %q", tt.q.Text, tt.want)
			}
		})
	}
}

func TestKindForPath(t *testing.T) {
	tests := []struct {
		path string
		want SourceKind
	}{
		{"report.pdf", KindPDF},
		{"REPORT.PDF", KindPDF},
		{"call.mp3", KindAudio},
		{"call.WAV", KindAudio},
		{"memo.m4a", KindAudio},
		{"notes.txt", KindUnsupported},
		{"noext", KindUnsupported},
	}
	for _, tt := range tests {
		if got := KindForPath(tt.path); got != tt.want {
			t.Errorf("KindForPath(%q) = %s, want %s", tt.path, got, tt.want)
		}
	}
}

func TestNewSourceFile_defaultLabel(t *testing.T) {
	f := NewSourceFile("/data/q3/report.pdf", "")
	if f.Label != "report.pdf" {
		t.Errorf("Label = %q, want report.pdf", f.Label)
	}
	if f.Kind != KindPDF {
		t.Errorf("Kind = %s, want pdf", f.Kind)
	}
	g := NewSourceFile("/data/q3/report.pdf", "Q3 report")
	if g.Label != "Q3 report" {
		t.Errorf("Label = %q", g.Label)
	}
}

func TestUnitMetadata_Map(t *testing.T) {
	m := UnitMetadata{
		Source:   "Q3",
		Type:     TypeText,
		Page:     IntPtr(2),
		Filename: "q3.pdf",
		Extra:    map[string]any{"language": "en", "type": "overridden"},
	}
	got := m.Map()
	if got["page"] != 2 {
		t.Errorf("page = %v", got["page"])
	}
	if got["type"] != "text" {
		t.Errorf("type = %v, fixed keys must win over Extra", got["type"])
	}
	if got["language"] != "en" {
		t.Errorf("language = %v", got["language"])
	}

	noPage := UnitMetadata{Source: "Q3", Type: TypeTable}.Map()
	if _, ok := noPage["page"]; ok {
		t.Error("table metadata without page should not carry a page key")
	}
}
