package parser

import (
	"fmt"
	"html"
	"io"
	"os"
	"strings"

	"github.com/fumiama/go-docx"

	"github.com/accessibleapps/html-to-text/internal/rendition"
)

// DOCXParser handles .docx files. Heading-styled paragraphs become <hN>
// elements and everything else <p>, so Word heading structure lands in the
// rendition's heading tree.
type DOCXParser struct{}

func (p *DOCXParser) Parse(r io.Reader, filename string, startPos int) (*rendition.Rendition, error) {
	// go-docx needs a ReadSeeker+size, so write to a temp file.
	tmp, err := os.CreateTemp("", "htmltotext-docx-*.docx")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	size, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("seek temp file: %w", err)
	}

	doc, err := docx.Parse(tmp, size)
	tmp.Close()
	if err != nil {
		return nil, fmt.Errorf("parse docx %s: %w", filename, err)
	}

	var markup strings.Builder
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		text := docxParagraphText(para)
		if text == "" {
			continue
		}
		if level := docxHeadingLevel(para); level > 0 {
			fmt.Fprintf(&markup, "<h%d>%s</h%d>", level, html.EscapeString(text), level)
		} else {
			markup.WriteString("<p>")
			markup.WriteString(html.EscapeString(text))
			markup.WriteString("</p>")
		}
	}
	return renderMarkup(markup.String(), filename, startPos)
}

func docxHeadingLevel(para *docx.Paragraph) int {
	if para.Properties == nil || para.Properties.Style == nil {
		return 0
	}
	style := strings.ToLower(strings.ReplaceAll(para.Properties.Style.Val, " ", ""))
	if rest, ok := strings.CutPrefix(style, "heading"); ok && len(rest) == 1 && rest[0] >= '1' && rest[0] <= '6' {
		return int(rest[0] - '0')
	}
	return 0
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
