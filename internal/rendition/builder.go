package rendition

import "github.com/accessibleapps/html-to-text/internal/htmltext"

// Builder turns transducer events into an Index. Its Observe method is the
// reference htmltext.Callback: it returns the node it allocates, so nested
// events arrive with their parent node already threaded through.
//
// A Builder is single-use and not safe for concurrent renders; the transducer
// fires events synchronously from one goroutine, which is all it needs.
type Builder struct {
	index    Index
	next     int
	lastPage *Node
}

// NewBuilder returns an empty Builder. Node IDs start at 1 so that a zero
// Parent always means "no parent".
func NewBuilder() *Builder {
	return &Builder{next: 1}
}

// Observe is the htmltext.Callback. Parentless heading and table nodes become
// index roots; parented nodes hang off their parent's Children. Links, anchors
// and pages are additionally filed into the flat document-order lists.
func (b *Builder) Observe(parent htmltext.Token, ev htmltext.Event) htmltext.Token {
	n := &Node{
		ID:      b.next,
		Kind:    ev.Type,
		Content: ev.Content,
		Start:   ev.Start,
		End:     ev.End,
		Tag:     ev.Tag,
		Level:   ev.Level,
		Href:    ev.Href,
		PageNum: ev.PageNum,
		Attrs:   ev.Attrs,
	}
	b.next++

	p, _ := parent.(*Node)
	if p != nil {
		n.Parent = p.ID
		p.Children = append(p.Children, n)
	}

	switch ev.Type {
	case htmltext.EventHeading:
		if p == nil {
			b.index.Headings = append(b.index.Headings, n)
		}
	case htmltext.EventTable:
		if p == nil {
			b.index.Tables = append(b.index.Tables, n)
		}
	case htmltext.EventLink:
		b.index.Links = append(b.index.Links, n)
	case htmltext.EventID:
		b.index.Anchors = append(b.index.Anchors, n)
	case htmltext.EventPage:
		// Page events arrive point-only; each new marker closes the span of
		// the previous page. Finish closes the last one.
		if b.lastPage != nil {
			b.lastPage.End = ev.Start
		}
		b.lastPage = n
		b.index.Pages = append(b.index.Pages, n)
	}
	return n
}

// Index returns the index built so far.
func (b *Builder) Index() Index {
	return b.index
}

// Finish closes the trailing page span at the document's end offset and
// returns the completed index.
func (b *Builder) Finish(end int) Index {
	if b.lastPage != nil {
		b.lastPage.End = end
	}
	return b.index
}
