package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/fumiama/go-docx"
)

// ToDOCX builds a DOCX document from plain text, one paragraph per line.
// Structural formatting (bold, headings) is not preserved on this path;
// callers flatten formatted content first.
func (a *Adapter) ToDOCX(plainText, title string) ([]byte, error) {
	doc := docx.New().WithDefaultTheme()

	if title != "" {
		doc.AddParagraph().AddText(title).Size("32")
	}

	for _, line := range strings.Split(plainText, "\n") {
		p := doc.AddParagraph()
		if line != "" {
			p.AddText(line)
		}
	}

	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("docx generation failed: %w", err)
	}
	return buf.Bytes(), nil
}
