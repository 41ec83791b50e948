package extract

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Glyph is one positioned piece of page text, in PDF user-space points.
type Glyph struct {
	X, Y     float64
	W        float64
	FontSize float64
	S        string
}

// Cell is a horizontally contiguous run of text on one line.
type Cell struct {
	X0, X1 float64
	Text   string
}

// Line is a row of cells sharing a baseline.
type Line struct {
	Y     float64
	Cells []Cell
}

// Table is a run of aligned lines detected from text positions alone.
type Table struct {
	Rows [][]string
}

// lineTolerance is the baseline drift (points) still treated as the same line.
const lineTolerance = 2.0

// wordGap is the horizontal gap, as a fraction of the font size, that separates
// two words drawn without an explicit space glyph.
const wordGap = 0.15

// DetectTables finds tables in the glyphs of one page. A table is two or more
// consecutive lines with the same number (≥2) of cells whose columns overlap
// within tolerance points. Lines are ordered top to bottom.
func DetectTables(glyphs []Glyph, tolerance float64) []Table {
	lines := groupLines(glyphs, tolerance)

	var tables []Table
	var run []Line
	var extents []Cell
	flush := func() {
		if len(run) >= 2 {
			t := Table{Rows: make([][]string, 0, len(run))}
			for _, l := range run {
				row := make([]string, len(l.Cells))
				for i, c := range l.Cells {
					row[i] = c.Text
				}
				t.Rows = append(t.Rows, row)
			}
			tables = append(tables, t)
		}
		run, extents = nil, nil
	}

	for _, l := range lines {
		if len(l.Cells) < 2 {
			flush()
			continue
		}
		if len(run) > 0 && !aligned(extents, l.Cells, tolerance) {
			flush()
		}
		if len(run) == 0 {
			extents = append([]Cell(nil), l.Cells...)
		} else {
			for i, c := range l.Cells {
				extents[i].X0 = min(extents[i].X0, c.X0)
				extents[i].X1 = max(extents[i].X1, c.X1)
			}
		}
		run = append(run, l)
	}
	flush()
	return tables
}

func aligned(extents, cells []Cell, tolerance float64) bool {
	if len(extents) != len(cells) {
		return false
	}
	for i := range cells {
		if cells[i].X1 < extents[i].X0-tolerance || cells[i].X0 > extents[i].X1+tolerance {
			return false
		}
	}
	return true
}

// groupLines buckets glyphs into lines (top to bottom) and splits each line
// into cells wherever the horizontal gap exceeds one em or tolerance. Smaller
// gaps inside a cell become a single space.
func groupLines(glyphs []Glyph, tolerance float64) []Line {
	if len(glyphs) == 0 {
		return nil
	}
	sorted := append([]Glyph(nil), glyphs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Y > sorted[j].Y
	})

	var lines []Line
	var current []Glyph
	lineY := sorted[0].Y
	for _, g := range sorted {
		if len(current) > 0 && lineY-g.Y > lineTolerance {
			lines = appendLine(lines, lineY, current, tolerance)
			current = nil
		}
		if len(current) == 0 {
			lineY = g.Y
		}
		current = append(current, g)
	}
	return appendLine(lines, lineY, current, tolerance)
}

func appendLine(lines []Line, y float64, glyphs []Glyph, tolerance float64) []Line {
	sort.SliceStable(glyphs, func(i, j int) bool {
		return glyphs[i].X < glyphs[j].X
	})

	var cells []Cell
	var b strings.Builder
	var cell Cell
	open := false
	prevEnd := glyphs[0].X
	closeCell := func() {
		if open {
			cell.Text = strings.TrimSpace(b.String())
			cells = append(cells, cell)
		}
		b.Reset()
		open = false
	}
	for i, g := range glyphs {
		blank := strings.TrimFunc(g.S, unicode.IsSpace) == ""
		gap := max(g.FontSize, tolerance)
		if i > 0 && g.X-prevEnd > gap {
			closeCell()
		}
		if !blank {
			if !open {
				cell = Cell{X0: g.X}
				open = true
			}
			cell.X1 = g.X + g.W
		}
		if open {
			if i > 0 && !blank && g.X-prevEnd > wordGap*g.FontSize && !endsInSpace(&b) {
				b.WriteByte(' ')
			}
			b.WriteString(g.S)
		}
		prevEnd = max(prevEnd, g.X+g.W)
	}
	closeCell()
	if len(cells) == 0 {
		return lines
	}
	return append(lines, Line{Y: y, Cells: cells})
}

func endsInSpace(b *strings.Builder) bool {
	s := b.String()
	if s == "" {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s)
	return unicode.IsSpace(r)
}

// LinesText renders lines top to bottom, one per row, with cells joined by a
// single space.
func LinesText(lines []Line) string {
	rows := make([]string, 0, len(lines))
	for _, l := range lines {
		cells := make([]string, len(l.Cells))
		for i, c := range l.Cells {
			cells[i] = c.Text
		}
		rows = append(rows, strings.Join(cells, " "))
	}
	return strings.Join(rows, "\n")
}

// String renders the table as left-justified, space-aligned columns.
func (t Table) String() string {
	var widths []int
	for _, row := range t.Rows {
		for i, cell := range row {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			widths[i] = max(widths[i], utf8.RuneCountInString(cell))
		}
	}
	lines := make([]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		var b strings.Builder
		for i, cell := range row {
			if i > 0 {
				b.WriteString("  ")
			}
			b.WriteString(cell)
			b.WriteString(strings.Repeat(" ", widths[i]-utf8.RuneCountInString(cell)))
		}
		lines = append(lines, strings.TrimRight(b.String(), " "))
	}
	return strings.Join(lines, "\n")
}
