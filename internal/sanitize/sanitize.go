// Package sanitize cleans free-text sweep labels before they are stored.
// Labels come from CLI flags and from MCP clients and are later echoed back
// in tables, HTML reports and tool results.
package sanitize

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxLabelLength is the maximum allowed length of a label, in runes.
const MaxLabelLength = 120

var (
	// reXMLTag matches XML/HTML tags including those with attributes and self-closing tags.
	// It also matches XML processing instructions like <?xml ...?>.
	reXMLTag = regexp.MustCompile(`<[/?!]?[a-zA-Z][a-zA-Z0-9]*(?:\s+[^>]*)?/?>|<\?[^?]*\?>`)

	// reWhitespace matches runs of whitespace, including newlines and tabs.
	reWhitespace = regexp.MustCompile(`\s+`)
)

// Label returns input as a single-line label: control characters and
// markup tags are removed, whitespace runs collapse to one space, and the
// result is trimmed and cut to MaxLabelLength runes.
func Label(input string) string {
	s := stripControlChars(input)
	s = reXMLTag.ReplaceAllString(s, "")
	s = reWhitespace.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)

	if utf8.RuneCountInString(s) > MaxLabelLength {
		s = strings.TrimSpace(string([]rune(s)[:MaxLabelLength]))
	}
	return s
}

// stripControlChars drops ASCII control characters and DEL. Newlines and
// tabs survive so they can collapse into spaces.
func stripControlChars(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r < 0x20 && r != '\n' && r != '\t') || r == 0x7f {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
