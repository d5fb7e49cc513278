package htmltext

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// emitter is the output buffer plus the offset bookkeeping around it. The
// running offset is always startPos + buf.Len(), so every fragment written
// advances the offset by exactly its byte length.
//
// A collapsed boundary space is never written eagerly: it is held in pending
// and materialized only when more text arrives in the same line. This is what
// keeps "<span>a </span><span>b</span>" at "a b" while trailing spaces before
// a block boundary or the end of the document vanish.
type emitter struct {
	buf      strings.Builder
	startPos int
	pending  bool
	last     rune
	marked   bool
	markPos  int
}

func (e *emitter) pos() int { return e.startPos + e.buf.Len() }

// pendingLen reports how many bytes the held space will occupy if the next
// text fragment materializes it. Used to predict content start offsets.
func (e *emitter) pendingLen() int {
	if e.pending && e.buf.Len() > 0 && e.last != '\n' {
		return 1
	}
	return 0
}

// mark arms content-start tracking: the next fragment written records the
// offset where its content actually lands, after any boundary or merge space
// the emitter decides to insert. textStart resolves the mark.
func (e *emitter) mark() {
	e.marked = true
}

// textStart reports where content written since mark began. If nothing was
// written, it returns end, so the caller sees an empty span.
func (e *emitter) textStart(end int) int {
	if e.marked {
		e.marked = false
		return end
	}
	return e.markPos
}

// raw writes a fragment verbatim. Structural fragments (block newlines, rule
// text, preformatted content) go through here; any held space is dropped,
// which is the trailing trim at block boundaries.
func (e *emitter) raw(s string) {
	if s == "" {
		return
	}
	if e.marked {
		e.markPos = e.pos()
		e.marked = false
	}
	e.buf.WriteString(s)
	e.last, _ = utf8.DecodeLastRuneInString(s)
	e.pending = false
}

// text writes a whitespace-collapsed fragment, resolving boundary spaces.
// A fragment that was pure whitespace degrades to a held space. Two
// alphanumeric runs never merge without a separating space.
func (e *emitter) text(s string) {
	if s == "" {
		return
	}
	lead := s[0] == ' '
	trail := s[len(s)-1] == ' '
	s = strings.Trim(s, " ")
	if s == "" {
		if e.buf.Len() > 0 && e.last != '\n' {
			e.pending = true
		}
		return
	}
	if lead {
		e.pending = true
	}
	first, _ := utf8.DecodeRuneInString(s)
	if e.pendingLen() > 0 || (e.buf.Len() > 0 && wordRune(e.last) && wordRune(first)) {
		e.buf.WriteByte(' ')
	}
	e.pending = false
	if e.marked {
		e.markPos = e.pos()
		e.marked = false
	}
	e.buf.WriteString(s)
	e.last, _ = utf8.DecodeLastRuneInString(s)
	if trail {
		e.pending = true
	}
}

// slice returns the emitted text between two absolute offsets.
func (e *emitter) slice(start, end int) string {
	return e.buf.String()[start-e.startPos : end-e.startPos]
}

func wordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
