// Package render realizes template content (Markdown) into the HTML view
// consumed by the editor preview and the PDF export path.
package render

import (
	"bytes"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// Realizer converts working document content into a realized HTML view.
type Realizer struct {
	md goldmark.Markdown
}

// NewRealizer creates a Realizer with the extensions document templates
// rely on (tables for letter layouts, task lists for request forms).
func NewRealizer() *Realizer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithStyle("github"),
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(true),
				),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			// Hard wraps: line breaks in a letter body are intentional.
			html.WithHardWraps(),
			html.WithXHTML(),
		),
	)

	return &Realizer{
		md: md,
	}
}

// Realize converts Markdown content to HTML.
func (r *Realizer) Realize(source []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.md.Convert(source, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
