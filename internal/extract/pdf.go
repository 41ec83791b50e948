package extract

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/hyperjump/kotae/internal/models"
)

func (e *Extractor) extractPDF(src models.SourceFile, res *models.ExtractionResult) {
	content, err := os.ReadFile(src.Path)
	if err != nil {
		res.Failures = append(res.Failures, models.StepFailure{Step: models.StepOpen, Err: fmt.Errorf("read file: %w", err)})
		return
	}
	r, err := openPDF(content)
	if err != nil {
		res.Failures = append(res.Failures, models.StepFailure{Step: models.StepOpen, Err: err})
		return
	}

	// Text and tables are independent: either may fail without losing the other.
	textUnits, err := e.pdfTextUnits(r, src)
	if err != nil {
		res.Failures = append(res.Failures, models.StepFailure{Step: models.StepText, Err: err})
	}
	res.Units = append(res.Units, textUnits...)

	tableUnits, err := e.pdfTableUnits(r, src)
	if err != nil {
		res.Failures = append(res.Failures, models.StepFailure{Step: models.StepTables, Err: err})
	}
	res.Units = append(res.Units, tableUnits...)
}

func openPDF(content []byte) (r *pdf.Reader, err error) {
	defer func() {
		if p := recover(); p != nil {
			r, err = nil, fmt.Errorf("open PDF: %v", p)
		}
	}()
	r, err = pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("open PDF: %w", err)
	}
	return r, nil
}

// pdfTextUnits emits one unit per page with non-blank text, tagged page = i+1.
// Each visual line of the page becomes one line of the unit.
// Units from pages read before a failure are kept.
func (e *Extractor) pdfTextUnits(r *pdf.Reader, src models.SourceFile) (units []models.TextUnit, err error) {
	page := 0
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("extract page %d: %v", page, p)
		}
	}()
	numPages := r.NumPage()
	for i := 0; i < numPages; i++ {
		page = i + 1
		p := r.Page(page)
		if p.V.IsNull() {
			continue
		}
		text, err := pageText(p, e.tableTolerance)
		if err != nil {
			return units, fmt.Errorf("extract page %d: %w", page, err)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		units = append(units, newUnit(src, models.TypeText, text, models.IntPtr(page)))
	}
	return units, nil
}

// pageText rebuilds the page from positioned glyphs so lines stay separated.
// The content stream's own text operators are used only when layout fails.
func pageText(p pdf.Page, tolerance float64) (string, error) {
	if text := layoutText(p, tolerance); strings.TrimSpace(text) != "" {
		return text, nil
	}
	return p.GetPlainText(nil)
}

func layoutText(p pdf.Page, tolerance float64) (text string) {
	defer func() {
		if recover() != nil {
			text = ""
		}
	}()
	return LinesText(groupLines(pageGlyphs(p.Content().Text), tolerance))
}

// pdfTableUnits runs stream table detection over every page.
func (e *Extractor) pdfTableUnits(r *pdf.Reader, src models.SourceFile) (units []models.TextUnit, err error) {
	page := 0
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("detect tables on page %d: %v", page, p)
		}
	}()
	numPages := r.NumPage()
	for i := 0; i < numPages; i++ {
		page = i + 1
		p := r.Page(page)
		if p.V.IsNull() {
			continue
		}
		glyphs := pageGlyphs(p.Content().Text)
		for _, table := range DetectTables(glyphs, e.tableTolerance) {
			text := table.String()
			if strings.TrimSpace(text) == "" {
				continue
			}
			var pageNum *int
			if e.tablePageNumbers {
				pageNum = models.IntPtr(page)
			}
			units = append(units, newUnit(src, models.TypeTable, text, pageNum))
		}
	}
	return units, nil
}

func pageGlyphs(texts []pdf.Text) []Glyph {
	glyphs := make([]Glyph, 0, len(texts))
	for _, t := range texts {
		glyphs = append(glyphs, Glyph{X: t.X, Y: t.Y, W: t.W, FontSize: t.FontSize, S: t.S})
	}
	return glyphs
}
