package parser

import (
	"strconv"

	"github.com/wu-lang/wu/internal/ast"
	"github.com/wu-lang/wu/internal/lexer"
	"github.com/wu-lang/wu/internal/types"
)

// expr parses a full expression: a comma-chain of binary expressions,
// where a bare top-level comma (outside any delimited list) builds an
// implicit Splat.
func (p *Parser) expr() ast.Expr {
	first := p.binary(0)
	if p.inSequence || !p.isSymbol(",") {
		return first
	}
	pos := first.Pos()
	elems := []ast.Expr{first}
	for p.accept(lexer.Symbol, ",") {
		elems = append(elems, p.binary(0))
	}
	return &ast.SplatExpr{Base: p.newBase(pos), Elems: elems}
}

// binary implements precedence climbing over the operator table in
// ast.Precedence, starting from atoms extended with postfix chains, unary
// prefixes, and "as TYPE" casts.
func (p *Parser) binary(minPrec int) ast.Expr {
	left := p.unary()
	for {
		op, lexeme, ok := p.peekBinaryOp()
		if _, compound := p.peekCompoundAssign(); compound {
			return left
		}
		prec := ast.Precedence(op)
		if !ok || prec < minPrec {
			return left
		}
		opPos := p.cur().Pos
		p.consumeBinaryOp(lexeme)
		nextMin := prec + 1
		if ast.RightAssoc(op) {
			nextMin = prec
		}
		right := p.binary(nextMin)
		left = &ast.BinaryExpr{Base: p.newBase(opPos), Op: op, Left: left, Right: right}
	}
}

// peekBinaryOp reports whether the current token is a recognized binary
// operator (symbol-form or the "and"/"or" word-form), without consuming
// it.
func (p *Parser) peekBinaryOp() (ast.Operator, string, bool) {
	t := p.cur()
	if t.Kind == lexer.Operator {
		if op, ok := ast.SymbolOperator[t.Lexeme]; ok {
			return op, t.Lexeme, true
		}
	}
	if t.Kind == lexer.Identifier {
		if op, ok := ast.KeywordOperator[t.Lexeme]; ok {
			return op, t.Lexeme, true
		}
	}
	return 0, "", false
}

func (p *Parser) consumeBinaryOp(lexeme string) {
	t := p.cur()
	if t.Kind == lexer.Operator {
		p.expect(lexer.Operator, lexeme)
		return
	}
	p.expect(lexer.Identifier, lexeme)
}

func (p *Parser) unary() ast.Expr {
	t := p.cur()
	if t.Kind == lexer.Operator && t.Lexeme == "-" {
		p.advance()
		x := p.unary()
		return &ast.UnaryExpr{Base: p.newBase(t.Pos), Op: ast.Neg, X: x}
	}
	if t.Kind == lexer.Keyword && t.Lexeme == "not" {
		p.advance()
		x := p.unary()
		return &ast.UnaryExpr{Base: p.newBase(t.Pos), Op: ast.Not, X: x}
	}
	return p.postfixChain(p.atom())
}

// postfixChain extends x with call, index, dot-index, Unwrap, and cast
// suffixes for as long as one applies.
func (p *Parser) postfixChain(x ast.Expr) ast.Expr {
	for {
		switch {
		case p.isSymbol("("):
			x = p.callSuffix(x)
		case p.isSymbol("["):
			x = p.bracketIndexSuffix(x)
		case p.isSymbol("."):
			x = p.dotIndexSuffix(x)
		case p.isSymbol("!"):
			pos := p.advance().Pos
			x = &ast.UnwrapExpr{Base: p.newBase(pos), X: x}
		case p.isKeyword("as"):
			pos := p.advance().Pos
			ty := p.typeExpr()
			x = &ast.CastExpr{Base: p.newBase(pos), X: x, Type: ty}
		default:
			return x
		}
	}
}

func (p *Parser) callSuffix(callee ast.Expr) ast.Expr {
	pos := p.expect(lexer.Symbol, "(").Pos
	p.openBracket()
	var args []ast.Expr
	p.withSequence(func() {
		for !p.isSymbol(")") {
			args = append(args, p.callArg())
			if !p.accept(lexer.Symbol, ",") {
				break
			}
		}
	})
	p.closeBracket()
	p.expect(lexer.Symbol, ")")
	return &ast.CallExpr{Base: p.newBase(pos), Callee: callee, Args: args}
}

// callArg parses one call argument, recognizing a leading "..." splat-
// unwrap prefix that flattens a tuple/array value into positional
// arguments at the call site.
func (p *Parser) callArg() ast.Expr {
	if p.isSymbol("...") {
		pos := p.advance().Pos
		return &ast.UnwrapSplatExpr{Base: p.newBase(pos), X: p.expr()}
	}
	return p.expr()
}

func (p *Parser) bracketIndexSuffix(x ast.Expr) ast.Expr {
	pos := p.expect(lexer.Symbol, "[").Pos
	p.openBracket()
	key := p.expr()
	p.closeBracket()
	p.expect(lexer.Symbol, "]")
	return &ast.IndexExpr{Base: p.newBase(pos), X: x, Key: key, IsBracket: true}
}

func (p *Parser) dotIndexSuffix(x ast.Expr) ast.Expr {
	pos := p.expect(lexer.Symbol, ".").Pos
	name := p.expectIdent()
	key := &ast.Ident{Base: p.newBase(name.Pos), Name: name.Lexeme}
	return &ast.IndexExpr{Base: p.newBase(pos), X: x, Key: key, IsBracket: false}
}

// atom parses a single non-postfixed expression production.
func (p *Parser) atom() ast.Expr {
	t := p.cur()
	switch t.Kind {
	case lexer.Int:
		p.advance()
		v, _ := strconv.ParseInt(t.Lexeme, 10, 64)
		return &ast.IntLit{Base: p.newBase(t.Pos), Value: v}
	case lexer.Float:
		p.advance()
		v, _ := strconv.ParseFloat(t.Lexeme, 64)
		return &ast.FloatLit{Base: p.newBase(t.Pos), Value: v}
	case lexer.Bool:
		p.advance()
		return &ast.BoolLit{Base: p.newBase(t.Pos), Value: t.Lexeme == "true"}
	case lexer.Str:
		p.advance()
		return &ast.StrLit{Base: p.newBase(t.Pos), Value: t.Lexeme}
	case lexer.Char:
		p.advance()
		r := rune(0)
		if len(t.Lexeme) > 0 {
			r = []rune(t.Lexeme)[0]
		}
		return &ast.CharLit{Base: p.newBase(t.Pos), Value: r}
	case lexer.Identifier:
		p.advance()
		return &ast.Ident{Base: p.newBase(t.Pos), Name: t.Lexeme}
	}

	switch {
	case t.Is(lexer.Keyword, "nil"):
		p.advance()
		return &ast.Ident{Base: p.newBase(t.Pos), Name: "nil"}
	case t.Is(lexer.Symbol, "("):
		return p.parenOrTuple()
	case t.Is(lexer.Symbol, "["):
		return p.arrayLit()
	case t.Is(lexer.Symbol, "{"):
		return p.blockExpr()
	case t.Is(lexer.Keyword, "fun"):
		return p.funcExpr()
	case t.Is(lexer.Keyword, "switch"):
		return p.switchExpr()
	case t.Is(lexer.Keyword, "for"):
		return p.forExpr()
	case t.Is(lexer.Keyword, "if"):
		return p.ifExpr()
	case t.Is(lexer.Keyword, "while"):
		return p.whileExpr()
	case t.Is(lexer.Keyword, "new"):
		return p.initExpr()
	case t.Is(lexer.Keyword, "extern"):
		return p.externExpr()
	case t.Is(lexer.Keyword, "struct"):
		return p.structExpr("")
	case t.Is(lexer.Keyword, "trait"):
		return p.traitExpr("")
	case t.Is(lexer.Keyword, "module"):
		return p.moduleExpr()
	case t.Kind == lexer.EOF:
		return &ast.EOFExpr{Base: p.newBase(t.Pos)}
	}

	p.fail(t.Pos, "unexpected token %q", t.String())
	panic("unreachable")
}

func (p *Parser) parenOrTuple() ast.Expr {
	pos := p.expect(lexer.Symbol, "(").Pos
	p.openBracket()
	if p.isSymbol(")") {
		p.closeBracket()
		p.expect(lexer.Symbol, ")")
		return &ast.EmptyExpr{Base: p.newBase(pos)}
	}
	var elems []ast.Expr
	p.withSequence(func() {
		for {
			elems = append(elems, p.expr())
			if !p.accept(lexer.Symbol, ",") {
				break
			}
		}
	})
	p.closeBracket()
	p.expect(lexer.Symbol, ")")
	if len(elems) == 1 {
		return elems[0]
	}
	return &ast.TupleExpr{Base: p.newBase(pos), Elems: elems}
}

func (p *Parser) arrayLit() ast.Expr {
	pos := p.expect(lexer.Symbol, "[").Pos
	p.openBracket()
	var elems []ast.Expr
	p.withSequence(func() {
		for !p.isSymbol("]") {
			elems = append(elems, p.expr())
			if !p.accept(lexer.Symbol, ",") {
				break
			}
		}
	})
	p.closeBracket()
	p.expect(lexer.Symbol, "]")
	return &ast.ArrayExpr{Base: p.newBase(pos), Elems: elems}
}

func (p *Parser) blockExpr() ast.Expr {
	pos := p.expect(lexer.Symbol, "{").Pos
	p.openBracket()
	var stmts []ast.Stmt
	p.skipTerm()
	for !p.isSymbol("}") {
		stmts = append(stmts, p.statement())
		p.skipTerm()
	}
	p.closeBracket()
	p.expect(lexer.Symbol, "}")
	return &ast.BlockExpr{Base: p.newBase(pos), Stmts: stmts}
}

func (p *Parser) ifExpr() ast.Expr {
	pos := p.expect(lexer.Keyword, "if").Pos
	cond := p.expr()
	body := p.blockExpr()
	e := &ast.IfExpr{Base: p.newBase(pos), Cond: cond, Body: body}
	for {
		if p.isKeyword("elif") {
			armPos := p.advance().Pos
			armCond := p.expr()
			armBody := p.blockExpr()
			e.Arms = append(e.Arms, ast.IfArm{Cond: armCond, Body: armBody, Pos: armPos})
			continue
		}
		if p.isKeyword("else") {
			armPos := p.advance().Pos
			armBody := p.blockExpr()
			e.Arms = append(e.Arms, ast.IfArm{Cond: nil, Body: armBody, Pos: armPos})
		}
		break
	}
	return e
}

func (p *Parser) whileExpr() ast.Expr {
	pos := p.expect(lexer.Keyword, "while").Pos
	cond := p.expr()
	body := p.blockExpr()
	return &ast.WhileExpr{Base: p.newBase(pos), Cond: cond, Body: body}
}

func (p *Parser) forExpr() ast.Expr {
	pos := p.expect(lexer.Keyword, "for").Pos
	first := p.expr()
	var varName string
	var iter ast.Expr
	if p.accept(lexer.Keyword, "in") {
		id, ok := first.(*ast.Ident)
		if !ok {
			p.fail(first.Pos(), "expected identifier before 'in'")
		}
		varName = id.Name
		iter = p.expr()
	} else {
		iter = first
	}
	body := p.blockExpr()
	return &ast.ForExpr{Base: p.newBase(pos), Var: varName, Iter: iter, Body: body}
}

// switchExpr desugars "switch E { P1 => E1, P2 => E2, else => E3 }" into
// a Block containing a hidden scrutinee binding and an If/elif/else
// cascade comparing each pattern with "==" — the analyzer and generator
// never see a Switch node.
func (p *Parser) switchExpr() ast.Expr {
	pos := p.expect(lexer.Keyword, "switch").Pos
	scrutinee := p.expr()
	scrutName := "__wu_switch"
	p.expect(lexer.Symbol, "{")
	p.openBracket()
	p.skipTerm()

	type arm struct {
		pattern ast.Expr // nil for "else"
		value   ast.Expr
	}
	var arms []arm
	for !p.isSymbol("}") {
		if p.accept(lexer.Keyword, "else") {
			p.expect(lexer.Symbol, "=>")
			arms = append(arms, arm{value: p.expr()})
		} else {
			pat := p.expr()
			p.expect(lexer.Symbol, "=>")
			arms = append(arms, arm{pattern: pat, value: p.expr()})
		}
		p.skipTerm()
		if !p.accept(lexer.Symbol, ",") {
			p.skipTerm()
			continue
		}
		p.skipTerm()
	}
	p.closeBracket()
	p.expect(lexer.Symbol, "}")

	bindStmt := &ast.VarDecl{Position: pos, Type: types.New(types.Unannotated), Name: scrutName, Init: scrutinee}

	var ifExpr *ast.IfExpr
	var bareElse ast.Expr // set if a bare "else" arm appears with no preceding pattern arm
	for _, a := range arms {
		if a.pattern == nil {
			if ifExpr == nil {
				bareElse = a.value
				continue
			}
			ifExpr.Arms = append(ifExpr.Arms, ast.IfArm{Body: a.value, Pos: pos})
			continue
		}
		cond := &ast.BinaryExpr{
			Base:  p.newBase(pos),
			Op:    ast.OpEq,
			Left:  &ast.Ident{Base: p.newBase(pos), Name: scrutName},
			Right: a.pattern,
		}
		if ifExpr == nil {
			ifExpr = &ast.IfExpr{Base: p.newBase(pos), Cond: cond, Body: a.value}
			continue
		}
		ifExpr.Arms = append(ifExpr.Arms, ast.IfArm{Cond: cond, Body: a.value, Pos: pos})
	}
	var tail ast.Stmt
	switch {
	case ifExpr != nil:
		tail = &ast.ExprStmt{Position: pos, X: ifExpr}
	case bareElse != nil:
		tail = &ast.ExprStmt{Position: pos, X: bareElse}
	default:
		tail = &ast.ExprStmt{Position: pos, X: &ast.EmptyExpr{Base: p.newBase(pos)}}
	}
	return &ast.BlockExpr{Base: p.newBase(pos), Stmts: []ast.Stmt{bindStmt, tail}}
}

func (p *Parser) initExpr() ast.Expr {
	pos := p.expect(lexer.Keyword, "new").Pos
	target := p.postfixChain(p.atom())
	p.expect(lexer.Symbol, "{")
	p.openBracket()
	p.skipTerm()
	var fields []ast.InitField
	for !p.isSymbol("}") {
		name := p.expectIdent().Lexeme
		p.expect(lexer.Symbol, ":")
		var value ast.Expr
		p.withSequence(func() { value = p.expr() })
		fields = append(fields, ast.InitField{Name: name, Value: value})
		p.skipTerm()
		if !p.accept(lexer.Symbol, ",") {
			p.skipTerm()
			continue
		}
		p.skipTerm()
	}
	p.closeBracket()
	p.expect(lexer.Symbol, "}")
	return &ast.InitExpr{Base: p.newBase(pos), Type: target, Fields: fields}
}

func (p *Parser) funcExpr() ast.Expr {
	pos := p.expect(lexer.Keyword, "fun").Pos
	p.expect(lexer.Symbol, "(")
	p.openBracket()
	var params []ast.Param
	p.withSequence(func() {
		for !p.isSymbol(")") {
			name := p.expectIdent().Lexeme
			p.expect(lexer.Symbol, ":")
			ty := p.typeExpr()
			var def ast.Expr
			if p.accept(lexer.Symbol, "=") {
				def = p.expr()
			}
			params = append(params, ast.Param{Name: name, Type: ty, Default: def})
			if !p.accept(lexer.Symbol, ",") {
				break
			}
		}
	})
	p.closeBracket()
	p.expect(lexer.Symbol, ")")

	retType := types.New(types.Nil)
	if p.accept(lexer.Operator, "->") {
		retType = p.typeExpr()
	}
	isMethod := len(params) > 0 && params[0].Name == "self"
	body := p.blockExpr()
	return &ast.FuncExpr{Base: p.newBase(pos), Params: params, RetType: retType, Body: body, IsMethod: isMethod}
}

func (p *Parser) structExpr(name string) ast.Expr {
	pos := p.expect(lexer.Keyword, "struct").Pos
	p.expect(lexer.Symbol, "{")
	p.openBracket()
	p.skipTerm()
	var fields []ast.StructField
	for !p.isSymbol("}") {
		fname := p.expectIdent().Lexeme
		p.expect(lexer.Symbol, ":")
		ty := p.typeExpr()
		var def ast.Expr
		if p.accept(lexer.Symbol, "=") {
			def = p.expr()
		}
		fields = append(fields, ast.StructField{Name: fname, Type: ty, Default: def})
		p.skipTerm()
		if !p.accept(lexer.Symbol, ",") {
			p.skipTerm()
			continue
		}
		p.skipTerm()
	}
	p.closeBracket()
	p.expect(lexer.Symbol, "}")
	return &ast.StructExpr{Base: p.newBase(pos), Name: name, Fields: fields, UID: p.newID()}
}

func (p *Parser) traitExpr(name string) ast.Expr {
	pos := p.expect(lexer.Keyword, "trait").Pos
	p.expect(lexer.Symbol, "{")
	p.openBracket()
	p.skipTerm()
	var body []ast.ImplementItem
	for !p.isSymbol("}") {
		fname := p.expectIdent().Lexeme
		p.expect(lexer.Symbol, ":")
		body = append(body, ast.ImplementItem{Name: fname, Value: p.expr()})
		p.skipTerm()
		if !p.accept(lexer.Symbol, ",") {
			p.skipTerm()
			continue
		}
		p.skipTerm()
	}
	p.closeBracket()
	p.expect(lexer.Symbol, "}")
	return &ast.TraitExpr{Base: p.newBase(pos), Name: name, Body: body}
}

func (p *Parser) moduleExpr() ast.Expr {
	pos := p.expect(lexer.Keyword, "module").Pos
	p.expect(lexer.Symbol, "{")
	p.openBracket()
	var stmts []ast.Stmt
	p.skipTerm()
	for !p.isSymbol("}") {
		stmts = append(stmts, p.statement())
		p.skipTerm()
	}
	p.closeBracket()
	p.expect(lexer.Symbol, "}")
	return &ast.ModuleExpr{Base: p.newBase(pos), Body: stmts}
}

func (p *Parser) externExpr() ast.Expr {
	pos := p.expect(lexer.Keyword, "extern").Pos
	if p.accept(lexer.Keyword, "module") {
		inner := p.expr()
		return &ast.ExternExpression{Base: p.newBase(pos), Inner: inner}
	}
	ty := p.typeExpr()
	var lua *string
	if p.accept(lexer.Symbol, "=") {
		t := p.cur()
		if t.Kind != lexer.Str {
			p.fail(t.Pos, "expected string literal, found %q", t.String())
		}
		p.advance()
		s := t.Lexeme
		lua = &s
	}
	return &ast.ExternExpr{Base: p.newBase(pos), Type: ty, Lua: lua}
}
