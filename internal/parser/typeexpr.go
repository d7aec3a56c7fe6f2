package parser

import (
	"strconv"

	"github.com/wu-lang/wu/internal/ast"
	"github.com/wu-lang/wu/internal/lexer"
	"github.com/wu-lang/wu/internal/types"
)

var primitiveTypes = map[string]types.Kind{
	"int":  types.Int,
	"float": types.Float,
	"bool":  types.Bool,
	"str":   types.Str,
	"char":  types.Char,
	"nil":   types.Nil,
	// "any" is a real wildcard kind (types.Equal treats it as equal to
	// everything); "self" parses to types.This, which the analyzer rebinds
	// to the enclosing struct/trait's own type when visiting a method.
	"any":  types.Any,
	"self": types.This,
}

// typeExpr parses one type production, including a trailing "?" Optional
// marker. Because the lexer's identifier matcher greedily consumes a
// trailing "?", a primitive or named type immediately followed by "?"
// with no intervening space lexes as one token; typeExpr strips exactly
// one trailing "?" off such a token before classifying it, recovering
// the Optional marker the grammar describes as a separate symbol.
func (p *Parser) typeExpr() types.Type {
	t := p.cur()

	switch {
	case t.Is(lexer.Keyword, "fun"):
		return p.funcType()
	case t.Is(lexer.Symbol, "("):
		return p.tupleType()
	case t.Is(lexer.Symbol, "["):
		return p.arrayType()
	case t.Is(lexer.Symbol, "..."):
		p.advance()
		inner := p.typeExpr()
		return types.Type{Kind: types.Array, Elem: &inner, ArrayLen: -1, Variadic: true}
	case t.Kind == lexer.Identifier || t.Kind == lexer.Keyword:
		p.advance()
		return p.namedOrPrimitiveType(t.Lexeme)
	}

	p.fail(t.Pos, "expected type, found %q", t.String())
	panic("unreachable")
}

func (p *Parser) namedOrPrimitiveType(lexeme string) types.Type {
	name := lexeme
	optional := false
	if len(name) > 0 && name[len(name)-1] == '?' {
		name = name[:len(name)-1]
		optional = true
	}
	var base types.Type
	if kind, ok := primitiveTypes[name]; ok {
		base = types.New(kind)
	} else {
		// An unresolved alias: carries the name in Struct's Name slot so
		// the analyzer can dealias it by scope lookup; Kind Unconstructed
		// marks it as not-yet-resolved rather than an actual struct.
		base = types.Type{Kind: types.Unconstructed, Name: name}
	}
	if optional {
		return types.NewOptional(base)
	}
	return base
}

func (p *Parser) funcType() types.Type {
	p.expect(lexer.Keyword, "fun")
	p.expect(lexer.Symbol, "(")
	p.openBracket()
	var params []types.Type
	for !p.isSymbol(")") {
		params = append(params, p.typeExpr())
		if !p.accept(lexer.Symbol, ",") {
			break
		}
	}
	p.closeBracket()
	p.expect(lexer.Symbol, ")")
	ret := types.New(types.Nil)
	if p.accept(lexer.Operator, "->") {
		ret = p.typeExpr()
	}
	return types.NewFunc(params, ret)
}

func (p *Parser) tupleType() types.Type {
	p.expect(lexer.Symbol, "(")
	p.openBracket()
	var fields []types.Type
	for !p.isSymbol(")") {
		fields = append(fields, p.typeExpr())
		if !p.accept(lexer.Symbol, ",") {
			break
		}
	}
	p.closeBracket()
	p.expect(lexer.Symbol, ")")
	return types.NewTuple(fields...)
}

func (p *Parser) arrayType() types.Type {
	p.expect(lexer.Symbol, "[")
	p.openBracket()
	elem := p.typeExpr()
	n := -1
	if p.accept(lexer.Symbol, ";") {
		n = p.constIntExpr()
	}
	p.closeBracket()
	p.expect(lexer.Symbol, "]")
	if n < 0 {
		return types.NewArray(elem)
	}
	return types.NewArrayLen(elem, n)
}

// constIntExpr parses an array-length expression and constant-folds it,
// applying "+ - * /" over literal Int or Float operands recursively; any
// non-literal subtree is a parse error.
func (p *Parser) constIntExpr() int {
	v := p.foldExpr(p.constAtom())
	for {
		t := p.cur()
		if t.Kind != lexer.Operator {
			return v
		}
		var apply func(a, b int) int
		switch t.Lexeme {
		case "+":
			apply = func(a, b int) int { return a + b }
		case "-":
			apply = func(a, b int) int { return a - b }
		case "*":
			apply = func(a, b int) int { return a * b }
		case "/":
			apply = func(a, b int) int { return a / b }
		default:
			return v
		}
		p.advance()
		rhs := p.foldExpr(p.constAtom())
		v = apply(v, rhs)
	}
}

func (p *Parser) constAtom() ast.Expr {
	t := p.cur()
	if t.Kind != lexer.Int && t.Kind != lexer.Float {
		p.fail(t.Pos, "array length must be a constant int or float expression, found %q", t.String())
	}
	p.advance()
	if t.Kind == lexer.Int {
		v, _ := strconv.ParseInt(t.Lexeme, 10, 64)
		return &ast.IntLit{Base: p.newBase(t.Pos), Value: v}
	}
	v, _ := strconv.ParseFloat(t.Lexeme, 64)
	return &ast.FloatLit{Base: p.newBase(t.Pos), Value: v}
}

func (p *Parser) foldExpr(x ast.Expr) int {
	switch n := x.(type) {
	case *ast.IntLit:
		return int(n.Value)
	case *ast.FloatLit:
		return int(n.Value)
	default:
		p.fail(x.Pos(), "array length must be a constant expression")
		panic("unreachable")
	}
}
