// Package textutil holds the pure string helpers the renderer delegates to:
// whitespace collapsing, link-target resolution, and page-number parsing.
// None of them perform I/O.
package textutil

import (
	"net/url"
	"path"
	"strings"
	"unicode"
)

// Collapse replaces every run of Unicode whitespace with a single space.
// It does not trim: a leading or trailing run becomes a leading or trailing
// space, which the renderer uses to decide inter-fragment spacing.
func Collapse(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			inSpace = true
			continue
		}
		if inSpace {
			b.WriteByte(' ')
			inSpace = false
		}
		b.WriteRune(r)
	}
	if inSpace {
		b.WriteByte(' ')
	}
	return b.String()
}

// ResolveHref resolves a link target against the file the link appeared in.
// Scheme-qualified targets pass through untouched. Relative targets are
// percent-decoded, joined against the source file's directory, and cleaned
// with POSIX path semantics. A target that cannot be decoded is returned
// as-is rather than failing the render.
func ResolveHref(sourceFile, href string) string {
	if strings.Contains(href, "://") {
		return href
	}
	decoded, err := url.PathUnescape(href)
	if err != nil {
		decoded = href
	}
	if decoded == "" {
		return href
	}
	dir := path.Dir(sourceFile)
	if dir == "." || dir == "/" {
		dir = ""
	}
	if dir == "" {
		return path.Clean(decoded)
	}
	return path.Clean(path.Join(dir, decoded))
}

// ParsePageNum extracts a page number from a page-marker identifier such as
// "page123" or "pxvii". A trailing digit run wins (leading zeros dropped);
// otherwise a "p" prefix is stripped and the remainder lowercased. Anything
// else is returned unchanged so callers never fail on odd markup.
func ParsePageNum(s string) string {
	end := len(s)
	start := end
	for start > 0 && s[start-1] >= '0' && s[start-1] <= '9' {
		start--
	}
	if start < end {
		num := strings.TrimLeft(s[start:end], "0")
		if num == "" {
			num = "0"
		}
		return num
	}
	if strings.HasPrefix(s, "p") && len(s) > 1 {
		return strings.ToLower(s[1:])
	}
	return s
}
