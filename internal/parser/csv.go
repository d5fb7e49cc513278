package parser

import (
	"encoding/csv"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/accessibleapps/html-to-text/internal/rendition"
)

// CSVParser handles CSV files by synthesizing a table: the first record
// becomes a th header row, the rest td rows. The resulting rendition carries
// the same table/tr/td index nodes an HTML table would.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string, startPos int) (*rendition.Rendition, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv %s: %w", filename, err)
	}
	if len(records) == 0 {
		return renderMarkup("", filename, startPos)
	}

	var markup strings.Builder
	markup.WriteString("<table>")
	for i, record := range records {
		cell := "td"
		if i == 0 {
			cell = "th"
		}
		markup.WriteString("<tr>")
		for _, field := range record {
			markup.WriteString("<" + cell + ">")
			markup.WriteString(html.EscapeString(field))
			markup.WriteString("</" + cell + ">")
		}
		markup.WriteString("</tr>")
	}
	markup.WriteString("</table>")
	return renderMarkup(markup.String(), filename, startPos)
}
