// Package parser turns raw document bytes of several formats into rendered
// text plus a structural index. Non-HTML formats synthesize HTML and funnel
// through the one transducer, so offsets and index semantics are identical
// across formats.
package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/accessibleapps/html-to-text/internal/htmltext"
	"github.com/accessibleapps/html-to-text/internal/rendition"
)

// Parser converts raw document bytes into a Rendition. startPos is the global
// offset assigned to the first rendered byte, which lets a caller concatenate
// multiple documents into one addressed stream.
type Parser interface {
	Parse(r io.Reader, filename string, startPos int) (*rendition.Rendition, error)
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".html":     true,
	".htm":      true,
	".xhtml":    true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".csv":
		return &CSVParser{}, nil
	case ".html", ".htm", ".xhtml":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// renderMarkup runs markup through the transducer with an index builder
// attached. Every parser ends here.
func renderMarkup(markup, filename string, startPos int) (*rendition.Rendition, error) {
	b := rendition.NewBuilder()
	text, err := htmltext.Render(markup, htmltext.Options{
		Callback:   b.Observe,
		StartPos:   startPos,
		SourceFile: filename,
	})
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", filename, err)
	}
	return &rendition.Rendition{
		File:     filename,
		Text:     text,
		StartPos: startPos,
		Index:    b.Finish(startPos + len(text)),
	}, nil
}
