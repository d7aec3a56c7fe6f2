package parser

import (
	"github.com/wu-lang/wu/internal/ast"
	"github.com/wu-lang/wu/internal/lexer"
	"github.com/wu-lang/wu/internal/types"
)

// statement parses one top-level or block-level statement.
func (p *Parser) statement() ast.Stmt {
	t := p.cur()

	switch {
	case t.Is(lexer.Keyword, "return"):
		return p.returnStmt()
	case t.Is(lexer.Keyword, "break"):
		p.advance()
		return &ast.BreakStmt{Position: t.Pos}
	case t.Is(lexer.Keyword, "skip"):
		p.advance()
		return &ast.SkipStmt{Position: t.Pos}
	case t.Is(lexer.Keyword, "import"):
		return p.importStmt()
	case t.Is(lexer.Keyword, "implement"):
		return p.implementStmt()
	}

	if t.Kind == lexer.Identifier && p.startsBindingForm() {
		return p.bindingForm()
	}

	return p.assignOrExprStmt()
}

// startsBindingForm reports whether the statement beginning at the
// current identifier is a "name[, name]* :" binding form, by scanning
// ahead over a comma-separated identifier list for an immediately
// following ':'.
func (p *Parser) startsBindingForm() bool {
	i := 0
	for {
		tok := p.peekN(i)
		if tok.Kind != lexer.Identifier {
			return false
		}
		next := p.peekN(i + 1)
		if next.Is(lexer.Symbol, ":") {
			return true
		}
		if next.Is(lexer.Symbol, ",") {
			i += 2
			continue
		}
		return false
	}
}

func (p *Parser) returnStmt() ast.Stmt {
	pos := p.advance().Pos
	if p.atStmtEnd() {
		return &ast.ReturnStmt{Position: pos}
	}
	return &ast.ReturnStmt{Position: pos, X: p.expr()}
}

func (p *Parser) atStmtEnd() bool {
	t := p.toks[p.pos]
	return t.Kind == lexer.EOL || t.Kind == lexer.EOF || t.Is(lexer.Symbol, ";") || t.Is(lexer.Symbol, "}")
}

func (p *Parser) importStmt() ast.Stmt {
	pos := p.advance().Pos
	name := p.expectIdent().Lexeme
	var expose []string
	if p.accept(lexer.Symbol, "{") {
		p.openBracket()
		for !p.isSymbol("}") {
			expose = append(expose, p.expectIdent().Lexeme)
			if !p.accept(lexer.Symbol, ",") {
				break
			}
		}
		p.closeBracket()
		p.expect(lexer.Symbol, "}")
	}
	return &ast.ImportStmt{Position: pos, Name: name, Expose: expose}
}

func (p *Parser) implementStmt() ast.Stmt {
	pos := p.advance().Pos
	target := p.postfixChain(p.atom())
	var parent ast.Expr
	if p.accept(lexer.Symbol, ":") {
		parent = p.postfixChain(p.atom())
	}
	p.expect(lexer.Symbol, "{")
	p.openBracket()
	var body []ast.ImplementItem
	p.skipTerm()
	for !p.isSymbol("}") {
		name := p.expectIdent().Lexeme
		p.expect(lexer.Symbol, ":")
		body = append(body, ast.ImplementItem{Name: name, Value: p.expr()})
		p.skipTerm()
		if !p.accept(lexer.Symbol, ",") {
			p.skipTerm()
			continue
		}
		p.skipTerm()
	}
	p.closeBracket()
	p.expect(lexer.Symbol, "}")
	return &ast.ImplementStmt{Position: pos, Target: target, Parent: parent, Body: body}
}

// bindingForm parses "name[, name]* [: [type]] = expr" into a Variable
// or the Splat variant, and also the "name: RHS" forms where
// RHS is a keyword-led expression (extern/fun/struct/trait/module).
func (p *Parser) bindingForm() ast.Stmt {
	first := p.expectIdent()
	names := []string{first.Lexeme}
	for p.accept(lexer.Symbol, ",") {
		names = append(names, p.expectIdent().Lexeme)
	}
	p.expect(lexer.Symbol, ":")

	var declType types.Type
	hasType := false
	if !p.isSymbol("=") && !p.isKeywordRHS() {
		declType = p.typeExpr()
		hasType = true
	}

	if len(names) == 1 && p.isKeywordRHS() {
		return p.keywordRHSDecl(first, names[0], declType, hasType)
	}

	// "name: type" with no "=" declares an Undeclared-mode binding (no
	// initializer; illegal to read until assigned). A type is mandatory
	// in that case — there would otherwise be no information at all.
	if !hasType {
		declType = types.New(types.Unannotated)
	}
	if !hasType && !p.isSymbol("=") {
		p.fail(p.cur().Pos, "expected '=' or a type after ':'")
	}
	if !p.isSymbol("=") {
		if len(names) == 1 {
			return &ast.VarDecl{Position: first.Pos, Type: declType, Name: names[0]}
		}
		return &ast.SplatVarDecl{Position: first.Pos, Type: declType, Names: names}
	}

	p.expect(lexer.Symbol, "=")
	init := p.expr()
	if len(names) == 1 {
		return &ast.VarDecl{Position: first.Pos, Type: declType, Name: names[0], Init: init}
	}
	return &ast.SplatVarDecl{Position: first.Pos, Type: declType, Names: names, Init: init}
}

// isKeywordRHS reports whether the current token begins one of the
// keyword-led right-hand sides (extern, fun, struct, trait, module) that
// a single-name binding form may introduce without an "=".
func (p *Parser) isKeywordRHS() bool {
	return p.isKeyword("extern") || p.isKeyword("fun") || p.isKeyword("struct") ||
		p.isKeyword("trait") || p.isKeyword("module")
}

func (p *Parser) keywordRHSDecl(first lexer.Token, name string, declType types.Type, hasType bool) ast.Stmt {
	var value ast.Expr
	switch {
	case p.isKeyword("extern"):
		value = p.externExpr()
	case p.isKeyword("fun"):
		value = p.funcExpr()
	case p.isKeyword("struct"):
		value = p.structExpr(name)
	case p.isKeyword("trait"):
		value = p.traitExpr(name)
	case p.isKeyword("module"):
		value = p.moduleExpr()
	}
	if !hasType {
		declType = types.New(types.Unannotated)
	}
	return &ast.VarDecl{Position: first.Pos, Type: declType, Name: name, Init: value}
}

var compoundOps = map[string]bool{
	"+": true, "-": true, "*": true, "/": true, "%": true, "^": true, "++": true,
}

// assignOrExprStmt parses "lhs = rhs", a compound "lhs OP= rhs"
// (desugared in place to "lhs = lhs OP rhs"), a multi-target splat
// assignment, or a bare expression statement.
//
// The first term is parsed with binary() rather than expr(): expr()
// would itself absorb a top-level comma chain into a single SplatExpr,
// which is exactly right for an expression used in non-sequence position
// (e.g. "return a, b") but wrong here, where a leading comma chain is a
// list of independent assignment targets that must stay as separate
// Exprs for SplatAssign.
func (p *Parser) assignOrExprStmt() ast.Stmt {
	start := p.cur()
	first := p.binary(0)

	if p.isSymbol(",") {
		lefts := []ast.Expr{first}
		for p.accept(lexer.Symbol, ",") {
			lefts = append(lefts, p.binary(0))
		}
		if !p.accept(lexer.Symbol, "=") {
			// No assignment followed: this was actually a bare top-level
			// comma expression used as a statement, e.g. "a, b".
			return &ast.ExprStmt{Position: start.Pos, X: &ast.SplatExpr{Base: p.newBase(start.Pos), Elems: lefts}}
		}
		rhs := p.expr()
		return &ast.SplatAssign{Position: start.Pos, Lefts: lefts, Right: rhs}
	}

	if op, ok := p.peekCompoundAssign(); ok {
		p.advance() // operator token
		p.advance() // '='
		rhs := p.expr()
		desugared := &ast.BinaryExpr{Base: p.newBase(start.Pos), Op: op, Left: first, Right: rhs}
		return &ast.Assign{Position: start.Pos, Left: first, Right: desugared}
	}

	if p.accept(lexer.Symbol, "=") {
		rhs := p.expr()
		return &ast.Assign{Position: start.Pos, Left: first, Right: rhs}
	}

	return &ast.ExprStmt{Position: start.Pos, X: first}
}

// peekCompoundAssign reports whether the current token is a compoundable
// operator immediately followed by "=" (e.g. "+="), without consuming
// anything.
func (p *Parser) peekCompoundAssign() (ast.Operator, bool) {
	t := p.cur()
	if t.Kind != lexer.Operator || !compoundOps[t.Lexeme] {
		return 0, false
	}
	if !p.peekN(1).Is(lexer.Symbol, "=") {
		return 0, false
	}
	return ast.SymbolOperator[t.Lexeme], true
}
