// Package pdftest builds small uncompressed PDF files for tests.
package pdftest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Run is a string drawn at (X, Y) in 12pt Helvetica.
type Run struct {
	X, Y float64
	S    string
}

// Build writes a minimal uncompressed PDF with one content stream per page.
// Every glyph is 500/1000 em wide so positions are predictable.
func Build(pages [][]Run) []byte {
	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	widths := strings.TrimSpace(strings.Repeat("500 ", 95))
	objs := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding /FirstChar 32 /LastChar 126 /Widths [" + widths + "] >>",
	}
	for i, runs := range pages {
		var cs strings.Builder
		cs.WriteString("BT\n/F1 12 Tf\n")
		for _, r := range runs {
			fmt.Fprintf(&cs, "1 0 0 1 %g %g Tm\n(%s) Tj\n", r.X, r.Y, escape(r.S))
		}
		cs.WriteString("ET")
		stream := cs.String()
		objs = append(objs,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream),
		)
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, body := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objs)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return buf.Bytes()
}

func escape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(s)
}

// Write builds a PDF from pages and writes it to dir/name, returning the path.
func Write(t testing.TB, dir, name string, pages [][]Run) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, Build(pages), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

// Text returns a single-page layout with each line drawn 14pt below the previous.
func Text(lines ...string) [][]Run {
	runs := make([]Run, len(lines))
	for i, line := range lines {
		runs[i] = Run{X: 72, Y: 720 - 14*float64(i), S: line}
	}
	return [][]Run{runs}
}
