package parser

import (
	"bufio"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/accessibleapps/html-to-text/internal/rendition"
)

// TextParser handles plain text files. Blank-line-separated paragraphs become
// <p> elements, so plain text picks up the same block framing as HTML.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string, startPos int) (*rendition.Rendition, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var markup strings.Builder
	var current strings.Builder

	flush := func() {
		if current.Len() == 0 {
			return
		}
		markup.WriteString("<p>")
		markup.WriteString(html.EscapeString(current.String()))
		markup.WriteString("</p>")
		current.Reset()
	}

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		if current.Len() > 0 {
			current.WriteString("\n")
		}
		current.WriteString(line)
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}
	return renderMarkup(markup.String(), filename, startPos)
}
