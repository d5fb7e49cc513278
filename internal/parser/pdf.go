package parser

import (
	"fmt"
	"html"
	"io"
	"os"
	"os/exec"
	"strings"

	pdflib "github.com/ledongthuc/pdf"

	"github.com/accessibleapps/html-to-text/internal/rendition"
)

// PDFParser handles PDF files. It tries the Go library first, then falls back
// to pdftotext if enabled. Page boundaries become pagenum markers, so the
// rendition's page index records where each page starts in the text.
type PDFParser struct {
	FallbackPdftotext bool
}

func (p *PDFParser) Parse(r io.Reader, filename string, startPos int) (*rendition.Rendition, error) {
	// ledongthuc/pdf requires a ReadSeeker+size, so we write to a temp file.
	tmp, err := os.CreateTemp("", "htmltotext-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	pages, err := extractPDFPages(tmpPath)
	if err != nil && p.FallbackPdftotext {
		pages, err = extractPdftotext(tmpPath)
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf text %s: %w", filename, err)
	}
	return renderMarkup(pagesToMarkup(pages), filename, startPos)
}

// pagesToMarkup prefixes each page with a pagenum marker and wraps its
// paragraphs in <p> elements.
func pagesToMarkup(pages []string) string {
	var markup strings.Builder
	for i, page := range pages {
		page = strings.TrimSpace(page)
		if page == "" {
			continue
		}
		fmt.Fprintf(&markup, `<span class="pagenum" id="page%d">%d</span>`, i+1, i+1)
		for _, para := range strings.Split(page, "\n\n") {
			para = strings.TrimSpace(para)
			if para == "" {
				continue
			}
			markup.WriteString("<p>")
			markup.WriteString(html.EscapeString(para))
			markup.WriteString("</p>")
		}
	}
	return markup.String()
}

func extractPDFPages(path string) ([]string, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var pages []string
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			pages = append(pages, "")
			continue
		}
		pages = append(pages, text)
	}
	return pages, nil
}

func extractPdftotext(path string) ([]string, error) {
	cmd := exec.Command("pdftotext", "-layout", path, "-")
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w", err)
	}
	// pdftotext separates pages with form feeds.
	return strings.Split(string(out), "\f"), nil
}
