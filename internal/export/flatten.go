package export

import (
	"strings"

	"golang.org/x/net/html"
)

// blockBreak lists elements whose end flushes the current paragraph.
var blockBreak = map[string]bool{
	"p": true, "div": true, "li": true, "tr": true, "blockquote": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"ul": true, "ol": true, "table": true, "pre": true,
}

// Flatten reduces formatted HTML content to plain paragraphs: one paragraph
// per visual line, structural formatting dropped. Plain text passes through
// split on newlines. This is the documented lossy path used for DOCX export.
func Flatten(content string) []string {
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return splitParagraphs(content)
	}

	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			b.WriteString(n.Data)
		case n.Type == html.ElementNode && n.Data == "br":
			b.WriteByte('\n')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blockBreak[n.Data] {
			b.WriteByte('\n')
		}
	}
	walk(doc)

	return splitParagraphs(b.String())
}

func splitParagraphs(s string) []string {
	var paragraphs []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			paragraphs = append(paragraphs, line)
		}
	}
	return paragraphs
}
