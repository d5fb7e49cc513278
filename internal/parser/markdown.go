package parser

import (
	"bytes"
	"fmt"
	"io"

	"github.com/accessibleapps/html-to-text/internal/rendition"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// MarkdownParser handles Markdown files. goldmark renders the source to HTML
// and the HTML path takes over, so markdown headings, links and tables come
// out indexed exactly like their HTML equivalents.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string, startPos int) (*rendition.Rendition, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}

	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	var buf bytes.Buffer
	if err := md.Convert(src, &buf); err != nil {
		return nil, fmt.Errorf("convert markdown %s: %w", filename, err)
	}
	return renderMarkup(buf.String(), filename, startPos)
}
