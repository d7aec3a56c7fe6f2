package parser

import (
	"testing"

	"github.com/wu-lang/wu/internal/ast"
	"github.com/wu-lang/wu/internal/lexer"
	"github.com/wu-lang/wu/internal/types"
)

func parseSrc(t *testing.T, src string) []ast.Stmt {
	t.Helper()
	toks, err := lexer.New(src).Lex()
	if err != nil {
		t.Fatalf("lex(%q): %v", src, err)
	}
	stmts, err := Parse(toks)
	if err != nil {
		t.Fatalf("parse(%q): %v", src, err)
	}
	return stmts
}

func TestParseVarDecl(t *testing.T) {
	stmts := parseSrc(t, "x: int = 5\n")
	if len(stmts) != 1 {
		t.Fatalf("got %d statements, want 1", len(stmts))
	}
	v, ok := stmts[0].(*ast.VarDecl)
	if !ok {
		t.Fatalf("got %T, want *ast.VarDecl", stmts[0])
	}
	if v.Name != "x" {
		t.Errorf("Name = %q, want x", v.Name)
	}
	lit, ok := v.Init.(*ast.IntLit)
	if !ok || lit.Value != 5 {
		t.Errorf("Init = %#v, want IntLit{5}", v.Init)
	}
}

func TestParseSplatVarDecl(t *testing.T) {
	stmts := parseSrc(t, "a, b: = f()\n")
	v, ok := stmts[0].(*ast.SplatVarDecl)
	if !ok {
		t.Fatalf("got %T, want *ast.SplatVarDecl", stmts[0])
	}
	if len(v.Names) != 2 || v.Names[0] != "a" || v.Names[1] != "b" {
		t.Errorf("Names = %v, want [a b]", v.Names)
	}
}

func TestParseFuncDecl(t *testing.T) {
	stmts := parseSrc(t, "add: fun(a: int, b: int) -> int {\n  return a + b\n}\n")
	v, ok := stmts[0].(*ast.VarDecl)
	if !ok {
		t.Fatalf("got %T, want *ast.VarDecl", stmts[0])
	}
	fn, ok := v.Init.(*ast.FuncExpr)
	if !ok {
		t.Fatalf("Init = %T, want *ast.FuncExpr", v.Init)
	}
	if len(fn.Params) != 2 || fn.Params[0].Name != "a" || fn.Params[1].Name != "b" {
		t.Errorf("Params = %+v", fn.Params)
	}
	block, ok := fn.Body.(*ast.BlockExpr)
	if !ok || len(block.Stmts) != 1 {
		t.Fatalf("Body = %#v", fn.Body)
	}
	ret, ok := block.Stmts[0].(*ast.ReturnStmt)
	if !ok {
		t.Fatalf("got %T, want *ast.ReturnStmt", block.Stmts[0])
	}
	bin, ok := ret.X.(*ast.BinaryExpr)
	if !ok || bin.Op != ast.OpAdd {
		t.Errorf("ReturnStmt.X = %#v, want a + b", ret.X)
	}
}

func TestParseIfElif(t *testing.T) {
	stmts := parseSrc(t, "x: = if a { 1 } elif b { 2 } else { 3 }\n")
	v := stmts[0].(*ast.VarDecl)
	ifExpr, ok := v.Init.(*ast.IfExpr)
	if !ok {
		t.Fatalf("Init = %T, want *ast.IfExpr", v.Init)
	}
	if len(ifExpr.Arms) != 2 {
		t.Fatalf("got %d arms, want 2 (elif, else)", len(ifExpr.Arms))
	}
	if ifExpr.Arms[0].Cond == nil {
		t.Error("first arm (elif) should have a condition")
	}
	if ifExpr.Arms[1].Cond != nil {
		t.Error("trailing else arm should have a nil condition")
	}
}

func TestParseWhile(t *testing.T) {
	stmts := parseSrc(t, "while x {\n  break\n}\n")
	es, ok := stmts[0].(*ast.ExprStmt)
	if !ok {
		t.Fatalf("got %T, want *ast.ExprStmt", stmts[0])
	}
	w, ok := es.X.(*ast.WhileExpr)
	if !ok {
		t.Fatalf("X = %T, want *ast.WhileExpr", es.X)
	}
	block := w.Body.(*ast.BlockExpr)
	if _, ok := block.Stmts[0].(*ast.BreakStmt); !ok {
		t.Errorf("body stmt = %T, want *ast.BreakStmt", block.Stmts[0])
	}
}

func TestParseForCountingAndIter(t *testing.T) {
	stmts := parseSrc(t, "for 3 { skip }\nfor v in xs { skip }\n")
	counting := stmts[0].(*ast.ExprStmt).X.(*ast.ForExpr)
	if counting.Var != "" || counting.Iter == nil {
		t.Errorf("counting form = %+v", counting)
	}
	iterForm := stmts[1].(*ast.ExprStmt).X.(*ast.ForExpr)
	if iterForm.Var != "v" {
		t.Errorf("iter form Var = %q, want v", iterForm.Var)
	}
}

func TestParseCompoundAssign(t *testing.T) {
	stmts := parseSrc(t, "x += 1\n")
	a, ok := stmts[0].(*ast.Assign)
	if !ok {
		t.Fatalf("got %T, want *ast.Assign", stmts[0])
	}
	bin, ok := a.Right.(*ast.BinaryExpr)
	if !ok || bin.Op != ast.OpAdd {
		t.Errorf("Right = %#v, want desugared x + 1", a.Right)
	}
}

func TestParseDotIndexAndMethodCall(t *testing.T) {
	stmts := parseSrc(t, "a.b.c()\n")
	es := stmts[0].(*ast.ExprStmt)
	call, ok := es.X.(*ast.CallExpr)
	if !ok {
		t.Fatalf("got %T, want *ast.CallExpr", es.X)
	}
	idx, ok := call.Callee.(*ast.IndexExpr)
	if !ok || idx.IsBracket {
		t.Fatalf("Callee = %#v, want a non-bracket IndexExpr", call.Callee)
	}
}

func TestParseImportWithExpose(t *testing.T) {
	stmts := parseSrc(t, "import foo { bar, baz }\n")
	im, ok := stmts[0].(*ast.ImportStmt)
	if !ok {
		t.Fatalf("got %T, want *ast.ImportStmt", stmts[0])
	}
	if im.Name != "foo" || len(im.Expose) != 2 || im.Expose[0] != "bar" || im.Expose[1] != "baz" {
		t.Errorf("ImportStmt = %+v", im)
	}
}

func TestParseSyntaxError(t *testing.T) {
	toks, err := lexer.New("x: = (1 +\n").Lex()
	if err != nil {
		t.Fatalf("lex: %v", err)
	}
	if _, err := Parse(toks); err == nil {
		t.Error("Parse: want error for unterminated parenthesized expression")
	}
}

func TestParseAnyAndSelfTypesAreDistinctFromNil(t *testing.T) {
	stmts := parseSrc(t, "x: any = 1\ny: nil = nil\n")
	x, ok := stmts[0].(*ast.VarDecl)
	if !ok || x.Type.Kind != types.Any {
		t.Errorf("x.Type = %v, want Kind types.Any", x)
	}
	y, ok := stmts[1].(*ast.VarDecl)
	if !ok || y.Type.Kind != types.Nil {
		t.Errorf("y.Type = %v, want Kind types.Nil", y)
	}
}

func TestParseSelfTypeInMethodReceiver(t *testing.T) {
	stmts := parseSrc(t, "get: fun(self: self) -> int { return 1 }\n")
	v, ok := stmts[0].(*ast.VarDecl)
	if !ok {
		t.Fatalf("got %T, want *ast.VarDecl", stmts[0])
	}
	fe, ok := v.Init.(*ast.FuncExpr)
	if !ok || len(fe.Params) == 0 {
		t.Fatalf("Init = %#v, want a one-param FuncExpr", v.Init)
	}
	if fe.Params[0].Type.Kind != types.This {
		t.Errorf("Params[0].Type = %v, want Kind types.This", fe.Params[0].Type)
	}
	if !fe.IsMethod {
		t.Error("IsMethod = false, want true for a \"self\"-named first parameter")
	}
}
