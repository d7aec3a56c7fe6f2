// Package lexer tokenizes wu source text into a stream of [Token] values
// carrying precise line/column spans, via a matcher-registry, snapshot-
// rollback tokenizer — see [New] and [Lexer.Lex].
package lexer

import (
	"fmt"

	"github.com/wu-lang/wu/internal/source"
)

// Kind is the closed set of token kinds the lexer produces.
type Kind int

const (
	Int Kind = iota
	Float
	Str
	Char
	Bool
	Identifier
	Keyword
	Symbol
	Operator
	Whitespace
	EOL
	EOF
)

func (k Kind) String() string {
	switch k {
	case Int:
		return "Int"
	case Float:
		return "Float"
	case Str:
		return "Str"
	case Char:
		return "Char"
	case Bool:
		return "Bool"
	case Identifier:
		return "Identifier"
	case Keyword:
		return "Keyword"
	case Symbol:
		return "Symbol"
	case Operator:
		return "Operator"
	case Whitespace:
		return "Whitespace"
	case EOL:
		return "EOL"
	case EOF:
		return "EOF"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Token is a single lexical element.
type Token struct {
	Kind   Kind
	Lexeme string
	Pos    source.Position
}

// String formats the token roughly as it appeared in source, for error
// messages ("expected ')', found '+'").
func (t Token) String() string {
	switch t.Kind {
	case EOF:
		return "<eof>"
	case Str:
		return fmt.Sprintf("%q", t.Lexeme)
	default:
		return t.Lexeme
	}
}

// Is reports whether the token has the given kind and lexeme.
func (t Token) Is(k Kind, lexeme string) bool {
	return t.Kind == k && t.Lexeme == lexeme
}

// Keywords is the reserved-word set; an identifier matching one of these
// lexes as a [Keyword] token rather than [Identifier].
//
// "loop" is reserved but unused by any production in the current grammar —
// it is kept reserved because the original lexeme list reserves it, so a
// program cannot use it as a binding name even though no statement form
// consumes it yet.
var Keywords = map[string]bool{
	"as": true, "loop": true, "if": true, "else": true, "elif": true,
	"extern": true, "fun": true, "struct": true, "trait": true, "module": true,
	"return": true, "break": true, "skip": true, "import": true, "implement": true,
	"switch": true, "for": true, "while": true, "new": true, "in": true,
	"nil": true, "not": true,
}
