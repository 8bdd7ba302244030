// Package export converts in-memory document content to downloadable files.
// Both paths are all-or-nothing: a failure is terminal for that invocation
// and is never retried here.
package export

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
)

// Adapter generates PDF and DOCX files from editor content.
type Adapter struct{}

// NewAdapter creates a new export Adapter.
func NewAdapter() *Adapter {
	return &Adapter{}
}

// ToPDF renders the realized HTML view into a PDF document. The view must
// come from the Realizer; the basic HTML writer understands the inline
// subset (bold, italic, links, line breaks) and writes the rest as text.
func (a *Adapter) ToPDF(renderedView []byte, title string) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.MultiCell(0, 8, title, "", "L", false)
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 11)
	writer := pdf.HTMLBasicNew()
	writer.Write(5.5, string(renderedView))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf generation failed: %w", err)
	}
	return buf.Bytes(), nil
}
