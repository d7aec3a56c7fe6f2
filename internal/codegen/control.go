package codegen

import (
	"strconv"

	"github.com/wu-lang/wu/internal/ast"
)

// ifStmt emits an if/elif/else cascade directly as a Lua if statement,
// threading t into every arm's tail position — this is what lets an
// if-as-expression in tail position avoid an IIFE wrap entirely.
func (g *Generator) ifStmt(e *ast.IfExpr, lc *loopCtx, t tail) {
	g.sb.WriteString("if ")
	g.sb.WriteString(g.exprValue(e.Cond, lc))
	g.sb.WriteString(" then\n")
	g.blockBody(e.Body, lc, t)

	hasElse := false
	for _, arm := range e.Arms {
		if arm.Cond == nil {
			hasElse = true
			g.sb.WriteString("else\n")
			g.blockBody(arm.Body, lc, t)
			continue
		}
		g.sb.WriteString("elseif ")
		g.sb.WriteString(g.exprValue(arm.Cond, lc))
		g.sb.WriteString(" then\n")
		g.blockBody(arm.Body, lc, t)
	}

	if !hasElse && t.mode != tailNone {
		// No "else" arm but the if is in value/return position: the
		// missing branch yields nil.
		g.sb.WriteString("else\n")
		g.finishTail(t, "nil")
	}
	g.sb.WriteString("end\n")
}

// blockBody emits a *BlockExpr's statements (or, defensively, treats a
// non-Block body as a single tail statement — the parser never actually
// produces that shape, but the AST's Body field is typed as a bare Expr).
func (g *Generator) blockBody(body ast.Expr, lc *loopCtx, t tail) {
	if blk, ok := body.(*ast.BlockExpr); ok {
		g.stmts(blk.Stmts, lc, t)
		return
	}
	g.exprStmt(body, lc, t)
}

// whileStmt lowers a while loop to Lua's "while COND do repeat BODY until
// false end" wrapper: the repeat-until-false runs the body exactly
// once per outer iteration, giving "skip" ("do break end") somewhere to
// land that falls straight back to the outer while's condition check. A
// genuine wu "break" sets a per-loop sentinel local before breaking the
// repeat; the code right after "until false" observes the sentinel and
// re-breaks the outer while.
func (g *Generator) whileStmt(e *ast.WhileExpr, lc *loopCtx) {
	depth := 1
	if lc != nil {
		depth = lc.depth + 1
	}
	inner := &loopCtx{depth: depth}

	fmtBreakVar := breakVar(depth)
	g.sb.WriteString("local " + fmtBreakVar + " = false\n")
	g.sb.WriteString("while " + g.exprValue(e.Cond, lc) + " do\n")
	g.sb.WriteString("repeat\n")
	if blk, ok := e.Body.(*ast.BlockExpr); ok {
		g.stmts(blk.Stmts, inner, none())
	}
	// The repeat's only real job is to give "skip" a place to jump to
	// ("do break end" lands here); a normal fall-through still needs to
	// stop the repeat after one pass, hence the unconditional break.
	g.sb.WriteString("break\n")
	g.sb.WriteString("until false\n")
	g.sb.WriteString("if " + fmtBreakVar + " then break end\n")
	g.sb.WriteString("end\n")
}

func breakVar(depth int) string {
	return "__wu_break_" + strconv.Itoa(depth)
}

// forStmt lowers both for-loop surface forms: the counting form "for N {
// ... }" (no bound variable) becomes a numeric Lua for loop over a
// throwaway counter, and "for x in iter { ... }" becomes a generic Lua
// for loop over ipairs(iter). The body gets the same repeat-until-false
// wrapper whileStmt uses, so "skip"'s "do break end" lands on the repeat
// and falls through to the next iteration of the Lua for, instead of
// breaking the for itself.
func (g *Generator) forStmt(e *ast.ForExpr, lc *loopCtx) {
	depth := 1
	if lc != nil {
		depth = lc.depth + 1
	}
	inner := &loopCtx{depth: depth}

	fmtBreakVar := breakVar(depth)
	g.sb.WriteString("local " + fmtBreakVar + " = false\n")
	if e.Var == "" {
		g.sb.WriteString("for __wu_i = 1, " + g.exprValue(e.Iter, lc) + " do\n")
	} else {
		g.sb.WriteString("for _, " + encodeIdent(e.Var) + " in ipairs(" + g.exprValue(e.Iter, lc) + ") do\n")
	}
	g.sb.WriteString("repeat\n")
	if blk, ok := e.Body.(*ast.BlockExpr); ok {
		g.stmts(blk.Stmts, inner, none())
	}
	g.sb.WriteString("break\n")
	g.sb.WriteString("until false\n")
	g.sb.WriteString("if " + fmtBreakVar + " then break end\n")
	g.sb.WriteString("end\n")
}
