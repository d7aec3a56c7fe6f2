// Package diag renders positioned compiler diagnostics.
//
// Two severities and caret-span source rendering, adapted to Go's error
// conventions: a [Group] implements the error interface so a caller can
// use errors.As to recover the full, structured diagnostic list from a
// single returned error.
package diag

import (
	"fmt"
	"strings"

	"github.com/wu-lang/wu/internal/source"
)

// Severity is a diagnostic's kind: fatal (Wrong) or advisory (Weird).
type Severity int

const (
	// Wrong is a fatal diagnostic: the file did not compile.
	Wrong Severity = iota
	// Weird is a non-fatal diagnostic: the file compiled, but something is
	// questionable.
	Weird
)

// String returns "wrong" or "weird".
func (s Severity) String() string {
	switch s {
	case Wrong:
		return "wrong"
	case Weird:
		return "weird"
	default:
		return "unknown"
	}
}

// Diagnostic is a single positioned message.
type Diagnostic struct {
	Severity Severity
	// Pos is the zero value if the diagnostic has no useful position.
	Pos     source.Position
	Message string
}

// New builds a Wrong diagnostic at pos.
func New(pos source.Position, format string, args ...any) Diagnostic {
	return Diagnostic{Severity: Wrong, Pos: pos, Message: fmt.Sprintf(format, args...)}
}

// Newf is an alias for [New] kept for call sites that read better with an
// explicit "f" suffix next to a format string.
func Newf(pos source.Position, format string, args ...any) Diagnostic {
	return New(pos, format, args...)
}

// Warn builds a Weird diagnostic at pos.
func Warn(pos source.Position, format string, args ...any) Diagnostic {
	return Diagnostic{Severity: Weird, Pos: pos, Message: fmt.Sprintf(format, args...)}
}

// Error satisfies the error interface so a lone Diagnostic can be returned
// from a function that otherwise returns error.
func (d Diagnostic) Error() string {
	if !d.Pos.IsValid() {
		return fmt.Sprintf("%s: %s", d.Severity, d.Message)
	}
	return fmt.Sprintf("%d:%d: %s: %s", d.Pos.Line, d.Pos.StartCol, d.Severity, d.Message)
}

// Render formats d as a multi-line message with a source excerpt and caret
// span, in the style of the original error.rs ResponseNode::display.
func (d Diagnostic) Render(path string, buf *source.Buffer, color bool) string {
	sb := new(strings.Builder)
	tag := d.Severity.String()
	if color {
		sgr := "31"
		if d.Severity == Weird {
			sgr = "33"
		}
		fmt.Fprintf(sb, "\x1b[1;%sm%s\x1b[0m: %s\n", sgr, tag, d.Message)
	} else {
		fmt.Fprintf(sb, "%s: %s\n", tag, d.Message)
	}
	if !d.Pos.IsValid() {
		return sb.String()
	}
	fmt.Fprintf(sb, "  --> %s:%d:%d\n", path, d.Pos.Line, d.Pos.StartCol)
	line := d.Pos.Excerpt(buf)
	fmt.Fprintf(sb, "%5d | %s\n", d.Pos.Line, line)
	start, end := d.Pos.StartCol, d.Pos.EndCol
	if end <= start {
		end = start + 1
	}
	if end > len(line) {
		end = len(line)
	}
	if start > end {
		start = end
	}
	caretLine := strings.Repeat(" ", start) + strings.Repeat("^", max(end-start, 1))
	fmt.Fprintf(sb, "      | %s\n", caretLine)
	return sb.String()
}

// JSON is the machine-readable shape of a [Diagnostic], used by the CLI's
// --json flag.
type JSON struct {
	Severity string `json:"severity"`
	Path     string `json:"path"`
	Line     int    `json:"line"`
	StartCol int     `json:"start_col"`
	EndCol   int     `json:"end_col"`
	Message  string `json:"message"`
}

// AsJSON converts d to its JSON shape.
func (d Diagnostic) AsJSON(path string) JSON {
	return JSON{
		Severity: d.Severity.String(),
		Path:     path,
		Line:     d.Pos.Line,
		StartCol: d.Pos.StartCol,
		EndCol:   d.Pos.EndCol,
		Message:  d.Message,
	}
}

// Group is an accumulated, non-empty set of diagnostics for one compilation
// unit. It implements error so a stage can return a Group as its error
// result: the analyzer accumulates errors across sibling statements rather
// than stopping at the first one, and returns them together.
type Group []Diagnostic

// Add appends a diagnostic. Returns the updated group for chaining.
func (g Group) Add(d Diagnostic) Group {
	return append(g, d)
}

// HasFatal reports whether any diagnostic in the group is [Wrong].
func (g Group) HasFatal() bool {
	for _, d := range g {
		if d.Severity == Wrong {
			return true
		}
	}
	return false
}

// Error implements the error interface with a one-line summary; callers
// that want full detail should render each Diagnostic with [Diagnostic.Render].
func (g Group) Error() string {
	wrong, weird := 0, 0
	for _, d := range g {
		if d.Severity == Wrong {
			wrong++
		} else {
			weird++
		}
	}
	return fmt.Sprintf("%d wrong, %d weird", wrong, weird)
}

// Render formats every diagnostic in the group followed by a summary
// footer.
func (g Group) Render(path string, buf *source.Buffer, color bool) string {
	sb := new(strings.Builder)
	for _, d := range g {
		sb.WriteString(d.Render(path, buf, color))
	}
	sb.WriteString(g.Error())
	sb.WriteString("\n")
	return sb.String()
}
