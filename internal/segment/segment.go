// Package segment slices a rendition into per-heading sections using the
// offsets recorded in its index.
package segment

import "github.com/accessibleapps/html-to-text/internal/rendition"

// Section is one heading-delimited span of a rendition's text.
type Section struct {
	Title      string   `json:"title"`      // Heading text (empty for an untitled document)
	Breadcrumb []string `json:"breadcrumb"` // Enclosing heading titles, outermost first
	Level      int      `json:"level"`      // Heading level (0 for an untitled document)
	Start      int      `json:"start"`      // Global offset of the section's first byte
	End        int      `json:"end"`        // Global offset just past the section's last byte
	Text       string   `json:"text"`
}

// Sections splits a rendition at its headings. Each section runs from its
// heading's start to the start of the next heading at the same or a shallower
// level, or the end of the text. A rendition with no headings yields a single
// untitled section covering everything.
func Sections(r *rendition.Rendition) []Section {
	heads := flatten(r.Index.Headings)
	if len(heads) == 0 {
		return []Section{{
			Start: r.StartPos,
			End:   r.End(),
			Text:  r.Text,
		}}
	}

	var sections []Section
	var breadcrumb []string
	levels := make([]int, 0, len(heads)) // levels matching breadcrumb entries

	for i, h := range heads {
		// Pop breadcrumb entries at this heading's level or deeper.
		for len(levels) > 0 && levels[len(levels)-1] >= h.Level {
			levels = levels[:len(levels)-1]
			breadcrumb = breadcrumb[:len(breadcrumb)-1]
		}

		end := r.End()
		for _, next := range heads[i+1:] {
			if next.Level <= h.Level {
				end = next.Start - framing(r, next)
				break
			}
		}
		if end < h.Start {
			end = h.Start
		}

		sections = append(sections, Section{
			Title:      h.Content,
			Breadcrumb: copyBreadcrumb(breadcrumb),
			Level:      h.Level,
			Start:      h.Start,
			End:        end,
			Text:       r.Text[h.Start-r.StartPos : end-r.StartPos],
		})

		breadcrumb = append(breadcrumb, h.Content)
		levels = append(levels, h.Level)
	}
	return sections
}

// flatten returns the heading tree in document order.
func flatten(roots []*rendition.Node) []*rendition.Node {
	var out []*rendition.Node
	var walk func([]*rendition.Node)
	walk = func(nodes []*rendition.Node) {
		for _, n := range nodes {
			out = append(out, n)
			walk(n.Children)
		}
	}
	walk(roots)
	return out
}

// framing measures the blank-line run immediately before a heading's content
// so a section ends before the next heading's framing, not inside it.
func framing(r *rendition.Rendition, h *rendition.Node) int {
	i := h.Start - r.StartPos
	n := 0
	for i-n > 0 && n < 2 && r.Text[i-n-1] == '\n' {
		n++
	}
	return n
}

func copyBreadcrumb(bc []string) []string {
	if len(bc) == 0 {
		return nil
	}
	out := make([]string, len(bc))
	copy(out, bc)
	return out
}
