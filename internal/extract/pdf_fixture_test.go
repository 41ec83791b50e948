package extract

import (
	"testing"

	"github.com/hyperjump/kotae/internal/pdftest"
)

type textRun = pdftest.Run

func writePDF(t *testing.T, name string, pages [][]textRun) string {
	t.Helper()
	return pdftest.Write(t, t.TempDir(), name, pages)
}
