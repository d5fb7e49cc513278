package segment

import (
	"reflect"
	"testing"

	"github.com/accessibleapps/html-to-text/internal/htmltext"
	"github.com/accessibleapps/html-to-text/internal/rendition"
)

func renderFixture(t *testing.T, markup string, startPos int) *rendition.Rendition {
	t.Helper()
	b := rendition.NewBuilder()
	text, err := htmltext.Render(markup, htmltext.Options{Callback: b.Observe, StartPos: startPos})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	return &rendition.Rendition{Text: text, StartPos: startPos, Index: b.Index()}
}

func TestSections_NoHeadings(t *testing.T) {
	r := renderFixture(t, "<p>just some text</p>", 0)
	sections := Sections(r)
	if len(sections) != 1 {
		t.Fatalf("expected 1 section, got %d", len(sections))
	}
	s := sections[0]
	if s.Title != "" || s.Level != 0 {
		t.Errorf("untitled section = %+v", s)
	}
	if s.Text != r.Text || s.Start != 0 || s.End != len(r.Text) {
		t.Errorf("section should cover the whole text: %+v", s)
	}
}

func TestSections_SplitAtSameLevel(t *testing.T) {
	r := renderFixture(t, "<h1>A</h1>intro<h2>B</h2>btext<h1>C</h1>ctext", 0)
	sections := Sections(r)
	if len(sections) != 3 {
		t.Fatalf("expected 3 sections, got %d: %+v", len(sections), sections)
	}

	a, b, c := sections[0], sections[1], sections[2]
	if a.Title != "A" || b.Title != "B" || c.Title != "C" {
		t.Fatalf("titles = %q %q %q", a.Title, b.Title, c.Title)
	}
	// A spans through its subsection B and stops before C's framing.
	if a.Text != "A\n\nintro\n\nB\n\nbtext" {
		t.Errorf("section A text = %q", a.Text)
	}
	if b.Text != "B\n\nbtext" {
		t.Errorf("section B text = %q", b.Text)
	}
	if c.Text != "C\n\nctext" {
		t.Errorf("section C text = %q", c.Text)
	}
	if c.End != len(r.Text) {
		t.Errorf("last section should run to end of text, got %d", c.End)
	}
}

func TestSections_Breadcrumbs(t *testing.T) {
	r := renderFixture(t, `
		<h1>Book</h1>
		<h2>Chapter</h2>
		<h3>Scene</h3>
		<h2>Chapter Two</h2>
	`, 0)
	sections := Sections(r)
	if len(sections) != 4 {
		t.Fatalf("expected 4 sections, got %d", len(sections))
	}
	want := [][]string{
		nil,
		{"Book"},
		{"Book", "Chapter"},
		{"Book"},
	}
	for i, s := range sections {
		if !reflect.DeepEqual(s.Breadcrumb, want[i]) {
			t.Errorf("section %q breadcrumb = %v, want %v", s.Title, s.Breadcrumb, want[i])
		}
	}
}

func TestSections_LevelJumpParentsToNearest(t *testing.T) {
	r := renderFixture(t, "<h1>Top</h1><h3>Deep</h3><h1>Next</h1>", 0)
	sections := Sections(r)
	if len(sections) != 3 {
		t.Fatalf("expected 3 sections, got %d", len(sections))
	}
	if got := sections[1].Breadcrumb; !reflect.DeepEqual(got, []string{"Top"}) {
		t.Errorf("Deep breadcrumb = %v", got)
	}
	if sections[2].Breadcrumb != nil {
		t.Errorf("Next breadcrumb = %v", sections[2].Breadcrumb)
	}
}

func TestSections_OffsetsAreGlobal(t *testing.T) {
	r := renderFixture(t, "<h1>T</h1>body", 300)
	sections := Sections(r)
	if len(sections) != 1 {
		t.Fatalf("expected 1 section, got %d", len(sections))
	}
	s := sections[0]
	if s.Start != 302 {
		t.Errorf("start = %d, want 302", s.Start)
	}
	if s.End != 300+len(r.Text) {
		t.Errorf("end = %d", s.End)
	}
	if s.Text != r.Text[s.Start-300:s.End-300] {
		t.Errorf("text does not match offsets")
	}
}
