package codegen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wu-lang/wu/internal/ast"
	"github.com/wu-lang/wu/internal/types"
)

var binOpLua = map[ast.Operator]string{
	ast.OpAdd: "+", ast.OpSub: "-", ast.OpMul: "*", ast.OpDiv: "/",
	ast.OpMod: "%", ast.OpPow: "^", ast.OpEq: "==", ast.OpNe: "~=",
	ast.OpLt: "<", ast.OpLe: "<=", ast.OpGt: ">", ast.OpGe: ">=",
	ast.OpAnd: "and", ast.OpOr: "or", ast.OpConcat: "..",
}

// exprValue renders x as a single Lua expression, usable anywhere a value
// is needed (call argument, operand, assignment right-hand side). Control
// constructs that don't already map onto a Lua expression (block/if/while
// /for) are wrapped in an immediately-invoked function literal: a Block
// or If used where a value is required becomes "(function() ... end)()".
func (g *Generator) exprValue(x ast.Expr, lc *loopCtx) string {
	switch e := x.(type) {
	case *ast.IntLit:
		return strconv.FormatInt(e.Value, 10)
	case *ast.FloatLit:
		return strconv.FormatFloat(e.Value, 'g', -1, 64)
	case *ast.BoolLit:
		if e.Value {
			return "true"
		}
		return "false"
	case *ast.StrLit:
		return quoteLua(e.Value)
	case *ast.CharLit:
		return quoteLua(string(e.Value))
	case *ast.Ident:
		return encodeIdent(e.Name)
	case *ast.BinaryExpr:
		return g.binaryValue(e, lc)
	case *ast.UnaryExpr:
		return g.unaryValue(e, lc)
	case *ast.CallExpr:
		return g.callValue(e, lc)
	case *ast.IndexExpr:
		return g.indexValue(e, lc)
	case *ast.FuncExpr:
		return g.funcLiteral(e, "")
	case *ast.ArrayExpr:
		return g.tableCtor(e.Elems, lc)
	case *ast.TupleExpr:
		return g.tableCtor(e.Elems, lc)
	case *ast.StructExpr:
		return "{}"
	case *ast.TraitExpr:
		return "{}"
	case *ast.ModuleExpr:
		return g.moduleValue(e, lc)
	case *ast.InitExpr:
		return g.initValue(e, lc)
	case *ast.CastExpr:
		return g.castValue(e, lc)
	case *ast.ExternExpr:
		if e.Lua != nil {
			return *e.Lua
		}
		return "nil --[[ extern without a Lua body ]]"
	case *ast.ExternExpression:
		return g.exprValue(e.Inner, lc)
	case *ast.UnwrapExpr:
		return g.exprValue(e.X, lc)
	case *ast.UnwrapSplatExpr:
		return fmt.Sprintf("table.unpack(%s)", g.exprValue(e.X, lc))
	case *ast.SplatExpr:
		parts := make([]string, len(e.Elems))
		for i, el := range e.Elems {
			parts[i] = g.exprValue(el, lc)
		}
		return joinComma(parts)
	case *ast.EmptyExpr:
		return "nil"
	case *ast.BlockExpr, *ast.IfExpr, *ast.WhileExpr, *ast.ForExpr:
		return g.iife(x, lc)
	default:
		return fmt.Sprintf("nil --[[ internal error: unhandled expr %T ]]", x)
	}
}

// iife wraps a control-flow expression used in value position.
func (g *Generator) iife(x ast.Expr, lc *loopCtx) string {
	var inner Generator
	inner.methodCalls = g.methodCalls
	inner.exprStmt(x, lc, ret())
	return "(function()\n" + inner.sb.String() + "end)()"
}

func (g *Generator) binaryValue(e *ast.BinaryExpr, lc *loopCtx) string {
	switch e.Op {
	case ast.OpPipeInto: // a <| b  ->  a(b)
		return fmt.Sprintf("%s(%s)", g.exprValue(e.Left, lc), g.exprValue(e.Right, lc))
	case ast.OpPipeFrom: // a |> b  ->  b(a)
		return fmt.Sprintf("%s(%s)", g.exprValue(e.Right, lc), g.exprValue(e.Left, lc))
	}
	op, ok := binOpLua[e.Op]
	if !ok {
		op = e.Op.String()
	}
	return fmt.Sprintf("(%s %s %s)", g.exprValue(e.Left, lc), op, g.exprValue(e.Right, lc))
}

func (g *Generator) unaryValue(e *ast.UnaryExpr, lc *loopCtx) string {
	if e.Op == ast.Not {
		return fmt.Sprintf("(not %s)", g.exprValue(e.X, lc))
	}
	return fmt.Sprintf("(-%s)", g.exprValue(e.X, lc))
}

// callValue renders a call, lowering to "receiver:method(args)" when the
// analyzer marked the callee's IndexExpr as a Struct/Trait method access.
func (g *Generator) callValue(e *ast.CallExpr, lc *loopCtx) string {
	args := make([]string, len(e.Args))
	for i, a := range e.Args {
		args[i] = g.exprValue(a, lc)
	}
	if idx, ok := e.Callee.(*ast.IndexExpr); ok && !idx.IsBracket && g.methodCalls[idx.NodeID()] {
		name, _ := idx.Key.(*ast.Ident)
		recv := g.exprValue(idx.X, lc)
		return fmt.Sprintf("%s:%s(%s)", recv, name.Name, joinComma(args))
	}
	return fmt.Sprintf("%s(%s)", g.exprValue(e.Callee, lc), joinComma(args))
}

// indexValue renders a bracket index as "obj[key]" and a dot index (field
// or method access) as `obj["key"]` — the identifier stringified.
func (g *Generator) indexValue(e *ast.IndexExpr, lc *loopCtx) string {
	if e.IsBracket {
		return fmt.Sprintf("%s[%s]", g.exprValue(e.X, lc), g.exprValue(e.Key, lc))
	}
	if id, ok := e.Key.(*ast.Ident); ok {
		return fmt.Sprintf("%s[%s]", g.exprValue(e.X, lc), quoteLua(encodeIdent(id.Name)))
	}
	return fmt.Sprintf("%s[%s]", g.exprValue(e.X, lc), g.exprValue(e.Key, lc))
}

func (g *Generator) tableCtor(elems []ast.Expr, lc *loopCtx) string {
	parts := make([]string, len(elems))
	for i, el := range elems {
		parts[i] = g.exprValue(el, lc)
	}
	return "{" + joinComma(parts) + "}"
}

func (g *Generator) moduleValue(e *ast.ModuleExpr, lc *loopCtx) string {
	var inner Generator
	inner.methodCalls = g.methodCalls
	inner.sb.WriteString("(function()\n")
	inner.stmts(e.Body, nil, none())
	names := exportedNames(e.Body)
	inner.sb.WriteString("return {")
	for i, n := range names {
		if i > 0 {
			inner.sb.WriteString(", ")
		}
		fmt.Fprintf(&inner.sb, "%s = %s", encodeIdent(n), encodeIdent(n))
	}
	inner.sb.WriteString("}\n")
	inner.sb.WriteString("end)()")
	return inner.sb.String()
}

// initValue renders "new T { k: v, ... }" as a table with a metatable
// pointing at the struct's method table.
func (g *Generator) initValue(e *ast.InitExpr, lc *loopCtx) string {
	fields := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		fields[i] = fmt.Sprintf("%s = %s", encodeIdent(f.Name), g.exprValue(f.Value, lc))
	}
	typeName := g.exprValue(e.Type, lc)
	return fmt.Sprintf("setmetatable({%s}, { __index = %s })", joinComma(fields), typeName)
}

func (g *Generator) castValue(e *ast.CastExpr, lc *loopCtx) string {
	v := g.exprValue(e.X, lc)
	switch e.Type.Kind {
	case types.Float:
		return fmt.Sprintf("tonumber(%s)", v)
	case types.Str:
		return fmt.Sprintf("tostring(%s)", v)
	case types.Int:
		return fmt.Sprintf("math.floor(tonumber(%s))", v)
	default:
		return v
	}
}

// funcLiteral renders a function expression as a Lua function literal. A
// variadic (Splat) trailing parameter emits Lua's "..." and an injected
// "local NAME = {...}" at body entry rather than a named Lua parameter.
// name is used only for IsMethod's "self" hinting in future diagnostics;
// generated code never needs the name itself since Lua function literals
// are anonymous values bound by the enclosing declaration.
func (g *Generator) funcLiteral(e *ast.FuncExpr, name string) string {
	var params []string
	var preamble strings.Builder
	for _, p := range e.Params {
		if p.Type.Variadic {
			params = append(params, "...")
			fmt.Fprintf(&preamble, "local %s = {...}\n", encodeIdent(p.Name))
			continue
		}
		params = append(params, encodeIdent(p.Name))
	}

	var inner Generator
	inner.methodCalls = g.methodCalls
	block, _ := e.Body.(*ast.BlockExpr)
	var stmts []ast.Stmt
	if block != nil {
		stmts = block.Stmts
	}
	inner.writeOptionalGuards(e.Params, &preamble)
	inner.stmts(stmts, nil, ret())
	return fmt.Sprintf("function(%s)\n%s%send", joinComma(params), preamble.String(), inner.sb.String())
}

// writeOptionalGuards emits, for every parameter with a default-value
// expression, a local binding of the default followed by the
// "NAME = NAME and NAME or optional_NAME" nil-coalescing guard.
func (g *Generator) writeOptionalGuards(params []ast.Param, out *strings.Builder) {
	for _, p := range params {
		if p.Default == nil {
			continue
		}
		name := encodeIdent(p.Name)
		fmt.Fprintf(out, "local optional_%s = %s\n", name, g.exprValue(p.Default, nil))
		fmt.Fprintf(out, "%s = %s and %s or optional_%s\n", name, name, name, name)
	}
}

func joinComma(parts []string) string {
	return strings.Join(parts, ", ")
}
