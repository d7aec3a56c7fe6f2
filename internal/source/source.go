// Package source holds the text of a single compilation unit and answers
// line-indexed lookups for diagnostics.
package source

import "strings"

// Buffer owns a file's path and its line-split text.
//
// A Buffer is immutable once built by [New]; it is shared read-only by
// every stage of the pipeline that needs to print a source excerpt.
type Buffer struct {
	path  string
	lines []string
}

// New splits text into lines (on "\n", with any trailing "\r" trimmed) and
// pairs it with path for later diagnostic rendering.
func New(path, text string) *Buffer {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return &Buffer{path: path, lines: lines}
}

// Path returns the file path the Buffer was constructed with.
func (b *Buffer) Path() string {
	return b.path
}

// LineCount reports the number of lines in the buffer.
func (b *Buffer) LineCount() int {
	return len(b.lines)
}

// Line returns the text of the n'th 1-based line, or "" if n is out of
// range.
func (b *Buffer) Line(n int) string {
	if n < 1 || n > len(b.lines) {
		return ""
	}
	return b.lines[n-1]
}

// Position identifies a span within a single source line.
//
// Line is 1-based. StartCol and EndCol are 0-based byte offsets into the
// line's text, with EndCol exclusive. A Position does not carry the line's
// text directly — it is looked up from the owning Buffer at render time,
// so tokens and AST nodes don't each duplicate a copy of their line.
type Position struct {
	Line     int
	StartCol int
	EndCol   int
}

// IsValid reports whether pos addresses a real line with a non-negative,
// non-decreasing column span.
func (pos Position) IsValid() bool {
	return pos.Line > 0 && pos.StartCol >= 0 && pos.EndCol >= pos.StartCol
}

// Excerpt returns the text of the line pos addresses, from b.
func (pos Position) Excerpt(b *Buffer) string {
	return b.Line(pos.Line)
}
