// Package narrative assembles the multi-line, player-facing text that every
// game operation returns. Numbers are rendered with locale digit grouping.
package narrative

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.SimplifiedChinese)

// Number formats n with digit grouping, e.g. 12345 -> "12,345".
func Number(n int) string {
	return printer.Sprintf("%d", n)
}

// Sprintf formats like fmt.Sprintf but groups the digits of numeric verbs.
func Sprintf(format string, args ...any) string {
	return printer.Sprintf(format, args...)
}

// Builder collects narrative lines.
type Builder struct {
	lines []string
}

// Line appends a formatted line.
func (b *Builder) Line(format string, args ...any) *Builder {
	b.lines = append(b.lines, printer.Sprintf(format, args...))
	return b
}

// Append appends preformatted lines.
func (b *Builder) Append(lines ...string) *Builder {
	b.lines = append(b.lines, lines...)
	return b
}

// Blank appends an empty separator line.
func (b *Builder) Blank() *Builder {
	b.lines = append(b.lines, "")
	return b
}

// Len returns the number of lines collected so far.
func (b *Builder) Len() int {
	return len(b.lines)
}

// Lines returns a copy of the collected lines.
func (b *Builder) Lines() []string {
	out := make([]string, len(b.lines))
	copy(out, b.lines)
	return out
}

func (b *Builder) String() string {
	return strings.Join(b.lines, "\n")
}
