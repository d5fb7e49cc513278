// Package rendition defines the index built over a rendered document and the
// reference callback that builds it from transducer events.
package rendition

import "github.com/accessibleapps/html-to-text/internal/htmltext"

// Node is one indexed structural feature of the rendered text. Start and End
// are absolute byte offsets into the global text stream; End is zero for
// features that mark a point rather than a span. Page nodes span from their
// marker to the next marker or the document end.
type Node struct {
	ID      int                `json:"id"`
	Parent  int                `json:"parent,omitempty"` // 0 means no parent
	Kind    htmltext.EventType `json:"kind"`
	Content string             `json:"content,omitempty"`
	Start   int                `json:"start"`
	End     int                `json:"end,omitempty"`
	Tag     string             `json:"tag,omitempty"`
	Level   int                `json:"level,omitempty"`
	Href    string             `json:"href,omitempty"`
	PageNum string             `json:"pagenum,omitempty"`
	Attrs   map[string]string  `json:"attrs,omitempty"`

	Children []*Node `json:"children,omitempty"`
}

// Index groups the indexed features of one rendered document. Headings and
// Tables hold tree roots; nested entries hang off Children. Links, Anchors
// and Pages are flat, in document order.
type Index struct {
	Headings []*Node `json:"headings,omitempty"`
	Links    []*Node `json:"links,omitempty"`
	Anchors  []*Node `json:"anchors,omitempty"`
	Pages    []*Node `json:"pages,omitempty"`
	Tables   []*Node `json:"tables,omitempty"`
}

// Rendition is one fully rendered document: the flat text plus its index.
// StartPos is the global offset of the first byte of Text, so
// Text[n.Start-StartPos : n.End-StartPos] recovers any node's span.
type Rendition struct {
	File     string `json:"file,omitempty"`
	Text     string `json:"text"`
	StartPos int    `json:"startpos"`
	Index    Index  `json:"index"`
}

// Slice returns the text span of a node, or the empty string for point nodes.
func (r *Rendition) Slice(n *Node) string {
	if n.End <= n.Start {
		return ""
	}
	return r.Text[n.Start-r.StartPos : n.End-r.StartPos]
}

// End returns the global offset just past the last byte of Text.
func (r *Rendition) End() int {
	return r.StartPos + len(r.Text)
}
