package lexer

import (
	"strings"

	"github.com/wu-lang/wu/internal/diag"
	"github.com/wu-lang/wu/internal/source"
)

// snapshot is a saved tokenizer position, used to implement a
// take-snapshot/commit/rollback discipline: a matcher either consumes
// input and returns a token, or leaves the tokenizer exactly where it
// found it.
type snapshot struct {
	pos       int
	line      int
	lineStart int
}

// Lexer turns source text into a token stream. The zero value is not
// usable; construct one with [New].
type Lexer struct {
	src       string
	pos       int
	line      int
	lineStart int

	matchers []matcher
}

// matcher attempts to recognize a token at the Lexer's current position.
// ok is false (with the Lexer rolled back to its entry position) when the
// matcher does not apply; err is non-nil only for a matcher that
// recognized the start of a construct but then found it malformed (e.g. an
// unterminated string).
type matcher func(lx *Lexer, start snapshot) (tok Token, ok bool, err error)

// New returns a Lexer over src, ready to tokenize from the beginning of the
// file.
func New(src string) *Lexer {
	lx := &Lexer{src: src, line: 1}
	lx.matchers = []matcher{
		(*Lexer).matchComment,
		(*Lexer).matchNewline,
		(*Lexer).matchWhitespace,
		(*Lexer).matchStringOrChar,
		(*Lexer).matchWord,
		(*Lexer).matchNumber,
		(*Lexer).matchOperator,
		(*Lexer).matchSymbol,
	}
	return lx
}

func (lx *Lexer) take() snapshot {
	return snapshot{pos: lx.pos, line: lx.line, lineStart: lx.lineStart}
}

func (lx *Lexer) rollback(s snapshot) {
	lx.pos, lx.line, lx.lineStart = s.pos, s.line, s.lineStart
}

func (lx *Lexer) end() bool {
	return lx.pos >= len(lx.src)
}

func (lx *Lexer) peekByte() (byte, bool) {
	if lx.end() {
		return 0, false
	}
	return lx.src[lx.pos], true
}

func (lx *Lexer) peekByteN(n int) (byte, bool) {
	if lx.pos+n >= len(lx.src) {
		return 0, false
	}
	return lx.src[lx.pos+n], true
}

// advance consumes one byte, tracking line/column.
func (lx *Lexer) advance() byte {
	b := lx.src[lx.pos]
	lx.pos++
	if b == '\n' {
		lx.line++
		lx.lineStart = lx.pos
	}
	return b
}

func (lx *Lexer) col(pos int) int {
	return pos - lx.lineStart
}

// colOf returns the column of a saved snapshot, independent of whatever
// line the Lexer has since advanced to.
func colOf(s snapshot) int {
	return s.pos - s.lineStart
}

func (lx *Lexer) token(kind Kind, lexeme string, start snapshot) Token {
	pos := source.Position{
		Line:     start.line,
		StartCol: start.pos - start.lineStart,
		EndCol:   lx.pos - lx.lineStart,
	}
	// A token that spans multiple lines (only strings can) reports its end
	// column as the length of the lexeme measured from the start of its
	// own starting line; diagnostics only ever caret the first line.
	if lx.line != start.line {
		pos.EndCol = pos.StartCol + len(lexeme)
	}
	return Token{Kind: kind, Lexeme: lexeme, Pos: pos}
}

// Lex runs the full matcher registry to completion, returning every token
// up to and including exactly one EOF token.
func (lx *Lexer) Lex() ([]Token, error) {
	var toks []Token
	for {
		tok, err := lx.next()
		if err != nil {
			return nil, err
		}
		if tok.Kind == Whitespace {
			continue
		}
		toks = append(toks, tok)
		if tok.Kind == EOF {
			return toks, nil
		}
	}
}

func (lx *Lexer) next() (Token, error) {
	if lx.end() {
		start := lx.take()
		return lx.token(EOF, "", start), nil
	}
	for _, m := range lx.matchers {
		start := lx.take()
		tok, ok, err := m(lx, start)
		if err != nil {
			return Token{}, err
		}
		if ok {
			return tok, nil
		}
		lx.rollback(start)
	}
	start := lx.take()
	b, _ := lx.peekByte()
	return Token{}, diag.New(
		source.Position{Line: start.line, StartCol: colOf(start), EndCol: colOf(start) + 1},
		"stray character %q",
		rune(b),
	)
}

func (lx *Lexer) matchComment(start snapshot) (Token, bool, error) {
	if !strings.HasPrefix(lx.src[lx.pos:], "--") {
		return Token{}, false, nil
	}
	lx.advance()
	lx.advance()
	for !lx.end() {
		if lx.advance() == '\n' {
			break
		}
	}
	// A comment, together with the newline ending it, is converted to one
	// EOL token so that statement terminators survive its removal.
	return lx.token(EOL, "\n", start), true, nil
}

func (lx *Lexer) matchNewline(start snapshot) (Token, bool, error) {
	b, ok := lx.peekByte()
	if !ok || b != '\n' {
		return Token{}, false, nil
	}
	lx.advance()
	return lx.token(EOL, "\n", start), true, nil
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\v' || b == '\f'
}

func (lx *Lexer) matchWhitespace(start snapshot) (Token, bool, error) {
	any := false
	for {
		b, ok := lx.peekByte()
		if !ok || !isSpace(b) {
			break
		}
		lx.advance()
		any = true
	}
	if !any {
		return Token{}, false, nil
	}
	return lx.token(Whitespace, lx.src[start.pos:lx.pos], start), true, nil
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isAlpha(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b == '_'
}

func isIdentTail(b byte) bool {
	return isAlpha(b) || isDigit(b) || b == '!' || b == '?'
}

// matchWord recognizes a keyword, a boolean literal, or an identifier, all
// via one alphabetic scan classified after the fact — the three
// token kinds share the same character class, so splitting the scan into
// three registry entries would just repeat it three times.
func (lx *Lexer) matchWord(start snapshot) (Token, bool, error) {
	b, ok := lx.peekByte()
	if !ok || !isAlpha(b) {
		return Token{}, false, nil
	}
	lx.advance()
	for {
		b, ok := lx.peekByte()
		if !ok || !isIdentTail(b) {
			break
		}
		lx.advance()
	}
	word := lx.src[start.pos:lx.pos]
	switch word {
	case "true", "false":
		return lx.token(Bool, word, start), true, nil
	default:
		if Keywords[word] {
			return lx.token(Keyword, word, start), true, nil
		}
		return lx.token(Identifier, word, start), true, nil
	}
}

func (lx *Lexer) matchNumber(start snapshot) (Token, bool, error) {
	b, ok := lx.peekByte()
	if !ok || !isDigit(b) {
		return Token{}, false, nil
	}
	for {
		b, ok := lx.peekByte()
		if !ok || !isDigit(b) {
			break
		}
		lx.advance()
	}
	isFloat := false
	if b, ok := lx.peekByte(); ok && b == '.' {
		if next, ok := lx.peekByteN(1); ok && isDigit(next) {
			isFloat = true
			lx.advance() // '.'
			for {
				b, ok := lx.peekByte()
				if !ok || !isDigit(b) {
					break
				}
				lx.advance()
			}
		}
	}
	lexeme := lx.src[start.pos:lx.pos]
	if isFloat {
		return lx.token(Float, lexeme, start), true, nil
	}
	return lx.token(Int, lexeme, start), true, nil
}

// escapeChar maps a single escape letter to its literal meaning. ok is
// false for an unrecognized escape.
func escapeChar(c byte) (byte, bool) {
	switch c {
	case '\\', '\'', '"':
		return c, true
	case 'n':
		return '\n', true
	case 'r':
		return '\r', true
	case 't':
		return '\t', true
	default:
		return 0, false
	}
}

func (lx *Lexer) matchStringOrChar(start snapshot) (Token, bool, error) {
	b, ok := lx.peekByte()
	if !ok {
		return Token{}, false, nil
	}

	raw := false
	delim := byte(0)
	switch {
	case b == '"' || b == '\'':
		delim = b
		lx.advance()
	case b == 'r':
		if next, ok := lx.peekByteN(1); ok && next == '"' {
			raw = true
			delim = '"'
			lx.advance() // 'r'
			lx.advance() // '"'
		} else {
			return Token{}, false, nil
		}
	default:
		return Token{}, false, nil
	}

	var value strings.Builder
	for {
		if lx.end() {
			return Token{}, false, diag.New(
				source.Position{Line: start.line, StartCol: colOf(start), EndCol: colOf(start) + 1},
				"missing closing delimiter %q to close literal here", rune(delim),
			)
		}
		b, _ := lx.peekByte()
		if raw {
			if b == delim {
				lx.advance()
				break
			}
			value.WriteByte(lx.advance())
			continue
		}
		if b == '\\' {
			escPos := lx.take()
			lx.advance()
			if lx.end() {
				return Token{}, false, diag.New(
					source.Position{Line: escPos.line, StartCol: colOf(escPos), EndCol: colOf(escPos) + 1},
					"missing closing delimiter %q to close literal here", rune(delim),
				)
			}
			c := lx.advance()
			mapped, ok := escapeChar(c)
			if !ok {
				return Token{}, false, diag.New(
					source.Position{Line: escPos.line, StartCol: colOf(escPos), EndCol: colOf(escPos) + 2},
					"unexpected escape character: %c", c,
				)
			}
			value.WriteByte(mapped)
			continue
		}
		if b == delim {
			lx.advance()
			break
		}
		value.WriteByte(lx.advance())
	}

	if delim == '"' {
		return lx.token(Str, value.String(), start), true, nil
	}
	s := value.String()
	if len([]rune(s)) > 1 {
		return Token{}, false, diag.New(
			source.Position{Line: start.line, StartCol: colOf(start), EndCol: lx.col(lx.pos)},
			"character literal may not contain more than one codepoint: '%s'", s,
		)
	}
	return lx.token(Char, s, start), true, nil
}

// operators lists multi-character operator lexemes, longest first so that
// e.g. "++" is preferred over two "+" matches.
var operators = []string{
	"==", "!=", "<=", ">=", "++", "<|", "|>", "->", "=>",
	"+", "-", "*", "/", "%", "^", "<", ">",
}

func (lx *Lexer) matchOperator(start snapshot) (Token, bool, error) {
	for _, op := range operators {
		if strings.HasPrefix(lx.src[lx.pos:], op) {
			for range op {
				lx.advance()
			}
			return lx.token(Operator, op, start), true, nil
		}
	}
	return Token{}, false, nil
}

func (lx *Lexer) matchSymbol(start snapshot) (Token, bool, error) {
	if strings.HasPrefix(lx.src[lx.pos:], "...") {
		lx.advance()
		lx.advance()
		lx.advance()
		return lx.token(Symbol, "...", start), true, nil
	}
	b, ok := lx.peekByte()
	if !ok {
		return Token{}, false, nil
	}
	const singleChars = "()[]{},:;=.|?!"
	if strings.IndexByte(singleChars, b) < 0 {
		return Token{}, false, nil
	}
	lx.advance()
	return lx.token(Symbol, string(b), start), true, nil
}
