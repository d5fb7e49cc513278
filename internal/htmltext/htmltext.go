// Package htmltext renders a parsed HTML tree to a linear plain-text stream
// while reporting document structure (headings, links, tables, anchors, page
// markers) to an optional caller-supplied callback.
//
// The renderer walks the tree depth-first in a single synchronous pass,
// tracking an absolute byte offset that matches the emitted text exactly:
// every Start/End pair handed to the callback can be used to slice the
// returned string. Callback return values are opaque tokens that are only
// ever threaded back as the parent of nested structural events, which lets a
// caller build a tree-shaped index over the flat text without the renderer
// knowing anything about the caller's node type.
//
// Recursion depth equals HTML nesting depth; pathologically deep trees are
// bounded only by the goroutine stack limit of the runtime.
package htmltext

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/accessibleapps/html-to-text/internal/textutil"
)

// EventType identifies the kind of structural event reported to a Callback.
type EventType string

const (
	EventHeading    EventType = "heading"
	EventLink       EventType = "link"
	EventTable      EventType = "table"
	EventRow        EventType = "tr"
	EventCell       EventType = "td"
	EventHeaderCell EventType = "th"
	EventID         EventType = "id"
	EventPage       EventType = "page"
)

// Event is one structural observation. Start and End are absolute offsets
// into the global text stream (StartPos-relative renders included). Fields
// that do not apply to the event type are zero:
//
//	heading:  Content, Start, End, Tag, Level
//	link:     Content, Start, End, Href
//	table, tr, td, th: Start, Attrs
//	id:       Content, Start
//	page:     Content, Start, PageNum
type Event struct {
	Type    EventType
	Content string
	Start   int
	End     int
	Tag     string
	Level   int
	Href    string
	Attrs   map[string]string
	PageNum string
}

// Token is the opaque value a Callback returns. The renderer never inspects
// it; it is only passed back as the parent of events fired for descendants.
type Token any

// Callback observes structural events in document order. Returning nil means
// descendants of this event see a nil parent. A panicking callback aborts the
// render; the renderer does not recover.
type Callback func(parent Token, ev Event) Token

// Options control a render.
type Options struct {
	// Callback receives structural events. Nil disables event reporting
	// entirely; the text output is identical either way.
	Callback Callback
	// StartPos offsets every reported position, letting a caller concatenate
	// renders of multiple documents into one globally-addressed stream.
	StartPos int
	// SourceFile is the path the document was loaded from, used only to
	// resolve relative link targets before they reach the callback.
	SourceFile string
}

// Render parses markup and renders it. Parse errors surface unwrapped; the
// parser is lenient, so in practice malformed markup is repaired rather than
// rejected.
func Render(markup string, opts Options) (string, error) {
	root, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return "", err
	}
	return RenderNode(root, opts), nil
}

// RenderNode renders an already-parsed tree.
func RenderNode(root *html.Node, opts Options) string {
	r := &renderer{cb: opts.Callback, file: opts.SourceFile}
	r.out.startPos = opts.StartPos
	r.walk(root, nil, false)
	return r.out.buf.String()
}

const ruleText = "--------------------------------------------------------------------------------"

// tagClass is the formatting policy for an element. The switch over it in
// element is exhaustive; anything unlisted falls into classOther, which just
// recurses and concatenates.
type tagClass int

const (
	classOther tagClass = iota
	classSkip           // script, style, title: whole subtree dropped
	classBlock          // p, div, blockquote, center: blank-line framing
	classHeading
	classBreak   // br
	classRule    // hr
	classPre     // pre, code: verbatim text
	classAnchor  // a
	classTable
	classSection // thead, tbody, tfoot: transparent grouping
	classRow
	classCell
)

func classify(tag string) tagClass {
	switch tag {
	case "script", "style", "title":
		return classSkip
	case "p", "div", "blockquote", "center":
		return classBlock
	case "h1", "h2", "h3", "h4", "h5", "h6":
		return classHeading
	case "br":
		return classBreak
	case "hr":
		return classRule
	case "pre", "code":
		return classPre
	case "a":
		return classAnchor
	case "table":
		return classTable
	case "thead", "tbody", "tfoot":
		return classSection
	case "tr":
		return classRow
	case "td", "th":
		return classCell
	}
	return classOther
}

type openHeading struct {
	tok Token
	set bool
}

type renderer struct {
	out  emitter
	cb   Callback
	file string

	// open holds the most recent callback token per heading level 1..6.
	// A new heading closes every deeper level; its parent is the nearest
	// still-open token at a strictly lower level.
	open [7]openHeading
}

func (r *renderer) walk(n *html.Node, parent Token, pre bool) {
	switch n.Type {
	case html.TextNode:
		if pre {
			r.out.raw(n.Data)
		} else {
			r.out.text(textutil.Collapse(n.Data))
		}
	case html.ElementNode:
		r.element(n, parent, pre)
	case html.DocumentNode:
		r.children(n, parent, pre)
	}
}

func (r *renderer) children(n *html.Node, parent Token, pre bool) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		r.walk(c, parent, pre)
	}
}

func (r *renderer) element(n *html.Node, parent Token, pre bool) {
	if attr(n, "class") == "pagenum" {
		r.page(n, parent)
		return
	}
	tag := strings.ToLower(n.Data)
	class := classify(tag)

	if pre {
		// Inside a preformatted context only the skip rules apply; nested
		// elements contribute their text verbatim with no framing or events.
		if class == classSkip {
			return
		}
		r.children(n, parent, true)
		return
	}

	switch class {
	case classSkip:
		return
	case classBlock:
		r.out.raw("\n\n")
		r.anchor(n, parent)
		r.children(n, parent, false)
		r.out.raw("\n\n")
	case classHeading:
		r.heading(n, tag, parent)
	case classBreak:
		r.out.raw("\n")
	case classRule:
		r.out.raw("\n\n")
		r.anchor(n, parent)
		r.out.raw(ruleText)
		r.out.raw("\n\n")
	case classPre:
		r.out.raw("\n")
		r.anchor(n, parent)
		r.children(n, parent, true)
	case classAnchor:
		r.link(n, parent)
	case classTable:
		r.table(n, parent)
	case classSection:
		r.children(n, parent, false)
	case classRow:
		r.row(n, parent)
	case classCell:
		// A stray cell outside a row renders generically.
		r.anchor(n, parent)
		r.children(n, parent, false)
	case classOther:
		r.anchor(n, parent)
		r.children(n, parent, false)
	}
}

func (r *renderer) heading(n *html.Node, tag string, parent Token) {
	level := int(tag[1] - '0')
	r.out.raw("\n\n")
	r.anchor(n, parent)
	start := r.out.pos()
	r.children(n, parent, false)
	end := r.out.pos()
	r.out.raw("\n\n")
	if r.cb == nil {
		return
	}
	tok := r.cb(r.openParent(level), Event{
		Type:    EventHeading,
		Content: r.out.slice(start, end),
		Start:   start,
		End:     end,
		Tag:     tag,
		Level:   level,
	})
	r.open[level] = openHeading{tok: tok, set: true}
	for l := level + 1; l <= 6; l++ {
		r.open[l] = openHeading{}
	}
}

// openParent finds the nearest still-open heading token at a level strictly
// above the given one.
func (r *renderer) openParent(level int) Token {
	for l := level - 1; l >= 1; l-- {
		if r.open[l].set {
			return r.open[l].tok
		}
	}
	return nil
}

func (r *renderer) link(n *html.Node, parent Token) {
	r.anchor(n, parent)
	href, ok := lookupAttr(n, "href")
	if !ok || r.cb == nil {
		r.children(n, parent, false)
		return
	}
	r.out.mark()
	r.children(n, parent, false)
	end := r.out.pos()
	start := r.out.textStart(end)
	r.cb(parent, Event{
		Type:    EventLink,
		Content: r.out.slice(start, end),
		Start:   start,
		End:     end,
		Href:    textutil.ResolveHref(r.file, href),
	})
}

func (r *renderer) table(n *html.Node, parent Token) {
	r.out.raw("\n\n")
	tok := parent
	if r.cb != nil {
		tok = r.cb(parent, Event{Type: EventTable, Start: r.out.pos(), Attrs: attrMap(n)})
	}
	r.children(n, tok, false)
	r.out.raw("\n\n")
}

func (r *renderer) row(n *html.Node, parent Token) {
	if r.out.buf.Len() > 0 && r.out.last != '\n' {
		r.out.raw("\n")
	}
	tok := parent
	if r.cb != nil {
		tok = r.cb(parent, Event{Type: EventRow, Start: r.out.pos(), Attrs: attrMap(n)})
	}
	first := true
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			switch strings.ToLower(c.Data) {
			case "td", "th":
				if !first {
					r.out.raw("\t")
				}
				first = false
				r.cell(c, strings.ToLower(c.Data), tok)
				continue
			}
		}
		r.walk(c, tok, false)
	}
}

func (r *renderer) cell(n *html.Node, tag string, parent Token) {
	tok := parent
	if r.cb != nil {
		typ := EventCell
		if tag == "th" {
			typ = EventHeaderCell
		}
		tok = r.cb(parent, Event{Type: typ, Start: r.out.pos(), Attrs: attrMap(n)})
	}
	r.children(n, tok, false)
}

// page handles an element carrying class="pagenum": its content is dropped
// from the text and a page event fires at the current offset instead.
func (r *renderer) page(n *html.Node, parent Token) {
	if r.cb == nil {
		return
	}
	content := strings.TrimSpace(textutil.Collapse(inlineText(n)))
	ident := attr(n, "id")
	if ident == "" {
		ident = content
	}
	r.cb(parent, Event{
		Type:    EventPage,
		Content: content,
		Start:   r.out.pos(),
		PageNum: textutil.ParsePageNum(ident),
	})
}

// anchor fires an id event for an id-bearing element, before its content.
// The returned token is discarded: anchors do not scope descendants.
func (r *renderer) anchor(n *html.Node, parent Token) {
	if r.cb == nil {
		return
	}
	id := attr(n, "id")
	if id == "" {
		return
	}
	r.cb(parent, Event{Type: EventID, Content: id, Start: r.out.pos() + r.out.pendingLen()})
}

func attr(n *html.Node, key string) string {
	v, _ := lookupAttr(n, key)
	return v
}

func lookupAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func attrMap(n *html.Node) map[string]string {
	if len(n.Attr) == 0 {
		return nil
	}
	m := make(map[string]string, len(n.Attr))
	for _, a := range n.Attr {
		if _, ok := m[a.Key]; !ok {
			m[a.Key] = a.Val
		}
	}
	return m
}

// inlineText concatenates every descendant text node verbatim.
func inlineText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
