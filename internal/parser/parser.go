// Package parser implements the recursive-descent parser that turns a
// wu token stream into an AST.
package parser

import (
	"github.com/wu-lang/wu/internal/ast"
	"github.com/wu-lang/wu/internal/diag"
	"github.com/wu-lang/wu/internal/lexer"
	"github.com/wu-lang/wu/internal/source"
)

// Parser holds the in-progress state of a single Parse call. It is not
// reusable across files.
type Parser struct {
	toks []lexer.Token
	pos  int
	// depth counts open (, [, { brackets; newlines are absorbed (treated
	// like any other whitespace already stripped by the lexer) whenever
	// depth > 0, so a statement can wrap across lines inside brackets.
	depth int
	// inSequence is true while parsing a delimited, comma-separated list
	// (call arguments, array/tuple elements, struct fields); a bare
	// top-level comma only forms an implicit Splat outside such a list.
	inSequence bool

	nextID uint32
}

// Parse runs the parser to completion over toks, returning the top-level
// statement list or the first syntax error encountered. The parser is
// fail-fast: it does not attempt error recovery.
func Parse(toks []lexer.Token) (stmts []ast.Stmt, err error) {
	p := &Parser{toks: toks}
	defer func() {
		if r := recover(); r != nil {
			if d, ok := r.(diag.Diagnostic); ok {
				err = d
				return
			}
			panic(r)
		}
	}()
	p.skipTerm()
	for !p.atEOF() {
		stmts = append(stmts, p.statement())
		p.skipTerm()
	}
	return stmts, nil
}

// newID returns the next monotonically increasing node identifier.
func (p *Parser) newID() uint32 {
	id := p.nextID
	p.nextID++
	return id
}

// newBase builds an ast.Base carrying pos and a fresh node identifier.
func (p *Parser) newBase(pos source.Position) ast.Base {
	return ast.Base{Position: pos, ID: p.newID()}
}

// peekN returns the token n positions ahead of the current one without
// consuming anything, skipping whitespace-equivalent EOL tokens only when
// already inside a bracketed context (mirrors cur()'s treatment).
func (p *Parser) peekN(n int) lexer.Token {
	i := p.pos
	skipped := 0
	for {
		if i >= len(p.toks) {
			return p.toks[len(p.toks)-1]
		}
		if p.depth > 0 && p.toks[i].Kind == lexer.EOL {
			i++
			continue
		}
		if skipped == n {
			return p.toks[i]
		}
		skipped++
		i++
	}
}

func (p *Parser) cur() lexer.Token {
	for p.depth > 0 && p.toks[p.pos].Kind == lexer.EOL {
		p.pos++
	}
	return p.toks[p.pos]
}

func (p *Parser) atEOF() bool {
	return p.cur().Kind == lexer.EOF
}

func (p *Parser) advance() lexer.Token {
	t := p.cur()
	if t.Kind != lexer.EOF {
		p.pos++
	}
	return t
}

// skipTerm consumes any run of statement terminators (EOL, ";") at the
// current position — used between statements and to absorb blank lines.
func (p *Parser) skipTerm() {
	for {
		t := p.toks[p.pos]
		if t.Kind == lexer.EOL || t.Is(lexer.Symbol, ";") {
			p.pos++
			continue
		}
		break
	}
}

func (p *Parser) is(kind lexer.Kind, lexeme string) bool {
	return p.cur().Is(kind, lexeme)
}

func (p *Parser) isKeyword(word string) bool {
	return p.is(lexer.Keyword, word)
}

func (p *Parser) isSymbol(sym string) bool {
	return p.is(lexer.Symbol, sym)
}

func (p *Parser) isOperator(op string) bool {
	return p.is(lexer.Operator, op)
}

// accept consumes the current token if it matches, reporting whether it
// did.
func (p *Parser) accept(kind lexer.Kind, lexeme string) bool {
	if p.is(kind, lexeme) {
		p.advance()
		return true
	}
	return false
}

// expect consumes the current token, requiring it to match; otherwise it
// panics with a positioned diagnostic, unwound by [Parse].
func (p *Parser) expect(kind lexer.Kind, lexeme string) lexer.Token {
	t := p.cur()
	if !t.Is(kind, lexeme) {
		p.fail(t.Pos, "expected %q, found %q", lexeme, t.String())
	}
	return p.advance()
}

func (p *Parser) expectIdent() lexer.Token {
	t := p.cur()
	if t.Kind != lexer.Identifier {
		p.fail(t.Pos, "expected identifier, found %q", t.String())
	}
	return p.advance()
}

func (p *Parser) fail(pos source.Position, format string, args ...any) {
	panic(diag.New(pos, format, args...))
}

// openBracket increments the bracket-nesting depth for the duration of a
// delimited construct, so that interior newlines are absorbed.
func (p *Parser) openBracket() { p.depth++ }
func (p *Parser) closeBracket() {
	if p.depth > 0 {
		p.depth--
	}
}

// withSequence runs fn with inSequence temporarily set, restoring the
// previous value afterward; used while parsing comma-delimited lists so a
// bare comma inside them never becomes an implicit Splat.
func (p *Parser) withSequence(fn func()) {
	prev := p.inSequence
	p.inSequence = true
	fn()
	p.inSequence = prev
}
