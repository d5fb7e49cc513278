package parser

import (
	"fmt"
	"io"

	"github.com/accessibleapps/html-to-text/internal/rendition"
)

// HTMLParser handles HTML files. The markup goes to the transducer as-is;
// the filename doubles as the base for relative link resolution.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string, startPos int) (*rendition.Rendition, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}
	return renderMarkup(string(src), filename, startPos)
}
