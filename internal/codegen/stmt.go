package codegen

import (
	"fmt"

	"github.com/wu-lang/wu/internal/ast"
)

// stmts emits a statement list: every statement but the last emitted for
// side effect only, the last emitted according to t.
func (g *Generator) stmts(list []ast.Stmt, lc *loopCtx, t tail) {
	for i, s := range list {
		if i == len(list)-1 {
			g.tailStmt(s, lc, t)
			return
		}
		g.plainStmt(s, lc)
	}
	g.finishTail(t, "nil")
}

// finishTail closes out a tail position with value: "return VALUE" for
// tailReturn, "TARGET = VALUE" for tailAssign, nothing for tailNone.
// Value-less tails pass "nil".
func (g *Generator) finishTail(t tail, value string) {
	switch t.mode {
	case tailReturn:
		fmt.Fprintf(&g.sb, "return %s\n", value)
	case tailAssign:
		fmt.Fprintf(&g.sb, "%s = %s\n", t.target, value)
	}
}

func (g *Generator) plainStmt(s ast.Stmt, lc *loopCtx) {
	switch st := s.(type) {
	case *ast.ExprStmt:
		g.exprStmt(st.X, lc, none())
	case *ast.VarDecl:
		g.varDecl(st, lc)
	case *ast.ConstDecl:
		fmt.Fprintf(&g.sb, "local %s = %s\n", encodeIdent(st.Name), g.exprValue(st.Init, lc))
	case *ast.Assign:
		g.assign(st, lc)
	case *ast.SplatVarDecl:
		g.splatVarDecl(st, lc)
	case *ast.SplatAssign:
		g.splatAssign(st, lc)
	case *ast.ReturnStmt:
		if st.X == nil {
			g.sb.WriteString("return\n")
		} else {
			fmt.Fprintf(&g.sb, "return %s\n", g.exprValue(st.X, lc))
		}
	case *ast.BreakStmt:
		g.emitBreak(lc)
	case *ast.SkipStmt:
		g.sb.WriteString("do break end\n")
	case *ast.ImportStmt:
		// Imports are resolved entirely by the analyzer's scope lookup;
		// nothing is emitted for them: the generated Lua contains no
		// require call or local binding for an imported name.
	case *ast.ImplementStmt:
		g.implement(st, lc)
	default:
		fmt.Fprintf(&g.sb, "-- internal error: unhandled statement %T\n", s)
	}
}

// tailStmt emits the final statement of a block/function body, applying
// t to whatever value that statement contributes.
func (g *Generator) tailStmt(s ast.Stmt, lc *loopCtx, t tail) {
	es, ok := s.(*ast.ExprStmt)
	if !ok {
		// Non-expression statements (declarations, assignments, control
		// keywords) don't produce a value; emit normally, then close out
		// the tail with a bare nil result.
		g.plainStmt(s, lc)
		g.finishTail(t, "nil")
		return
	}
	g.exprStmt(es.X, lc, t)
}

// exprStmt emits expression x in statement position. Control constructs
// (block/if/while/for) get their *direct* Lua statement form, threading
// t straight into their own tail positions rather than going through the
// generic IIFE-wrapping exprValue — there's no need to wrap in a function
// literal when the tail mode is already applicable directly.
func (g *Generator) exprStmt(x ast.Expr, lc *loopCtx, t tail) {
	switch e := x.(type) {
	case *ast.BlockExpr:
		g.stmts(e.Stmts, lc, t)
	case *ast.IfExpr:
		g.ifStmt(e, lc, t)
	case *ast.WhileExpr:
		g.whileStmt(e, lc)
		g.finishTail(t, "nil")
	case *ast.ForExpr:
		g.forStmt(e, lc)
		g.finishTail(t, "nil")
	case *ast.EmptyExpr:
		g.finishTail(t, "nil")
	case *ast.CallExpr:
		v := g.exprValue(e, lc)
		if t.mode == tailNone {
			fmt.Fprintf(&g.sb, "%s\n", v)
		} else {
			g.finishTail(t, v)
		}
	default:
		g.finishTail(t, g.exprValue(x, lc))
	}
}

func (g *Generator) varDecl(st *ast.VarDecl, lc *loopCtx) {
	name := encodeIdent(st.Name)
	if st.Init == nil {
		fmt.Fprintf(&g.sb, "local %s\n", name)
		return
	}
	if fe, ok := st.Init.(*ast.FuncExpr); ok {
		fmt.Fprintf(&g.sb, "local %s = %s\n", name, g.funcLiteral(fe, name))
		return
	}
	fmt.Fprintf(&g.sb, "local %s = %s\n", name, g.exprValue(st.Init, lc))
}

func (g *Generator) splatVarDecl(st *ast.SplatVarDecl, lc *loopCtx) {
	g.sb.WriteString("local ")
	for i, n := range st.Names {
		if i > 0 {
			g.sb.WriteString(", ")
		}
		g.sb.WriteString(encodeIdent(n))
	}
	if st.Init != nil {
		fmt.Fprintf(&g.sb, " = %s\n", g.multiValue(st.Init, lc))
	} else {
		g.sb.WriteString("\n")
	}
}

func (g *Generator) assign(st *ast.Assign, lc *loopCtx) {
	fmt.Fprintf(&g.sb, "%s = %s\n", g.lvalue(st.Left, lc), g.exprValue(st.Right, lc))
}

func (g *Generator) splatAssign(st *ast.SplatAssign, lc *loopCtx) {
	for i, l := range st.Lefts {
		if i > 0 {
			g.sb.WriteString(", ")
		}
		g.sb.WriteString(g.lvalue(l, lc))
	}
	fmt.Fprintf(&g.sb, " = %s\n", g.multiValue(st.Right, lc))
}

// multiValue renders a splat assignment's right-hand side as a
// comma-separated Lua value list when it is itself a Splat expression
// (comma chain), or as a single value otherwise.
func (g *Generator) multiValue(x ast.Expr, lc *loopCtx) string {
	if sp, ok := x.(*ast.SplatExpr); ok {
		parts := make([]string, len(sp.Elems))
		for i, el := range sp.Elems {
			parts[i] = g.exprValue(el, lc)
		}
		return joinComma(parts)
	}
	return g.exprValue(x, lc)
}

func (g *Generator) lvalue(x ast.Expr, lc *loopCtx) string {
	return g.exprValue(x, lc)
}

func (g *Generator) implement(st *ast.ImplementStmt, lc *loopCtx) {
	target := g.exprValue(st.Target, lc)
	for _, item := range st.Body {
		key := quoteLua(item.Name)
		if fe, ok := item.Value.(*ast.FuncExpr); ok {
			fmt.Fprintf(&g.sb, "%s[%s] = %s\n", target, key, g.funcLiteral(fe, target+"."+item.Name))
			continue
		}
		if ex, ok := item.Value.(*ast.ExternExpr); ok && ex.Lua != nil {
			fmt.Fprintf(&g.sb, "%s[%s] = %s\n", target, key, *ex.Lua)
			continue
		}
		fmt.Fprintf(&g.sb, "%s[%s] = %s\n", target, key, g.exprValue(item.Value, lc))
	}
}

// emitBreak lowers a genuine "break" inside a while or for loop to a
// sentinel-and-rebreak sequence: set this loop's sentinel local, then
// break the innermost repeat, letting the code emitted right after
// "until false" observe the sentinel and re-break the enclosing Lua
// while/for.
func (g *Generator) emitBreak(lc *loopCtx) {
	if lc == nil {
		g.sb.WriteString("break\n")
		return
	}
	fmt.Fprintf(&g.sb, "%s = true\n", breakVar(lc.depth))
	g.sb.WriteString("break\n")
}
