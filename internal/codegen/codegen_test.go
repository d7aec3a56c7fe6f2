package codegen

import (
	"strings"
	"testing"

	"github.com/wu-lang/wu/internal/lexer"
	"github.com/wu-lang/wu/internal/parser"
	"github.com/wu-lang/wu/internal/sema"
)

func generate(t *testing.T, src string) string {
	t.Helper()
	toks, err := lexer.New(src).Lex()
	if err != nil {
		t.Fatalf("lex(%q): %v", src, err)
	}
	stmts, err := parser.Parse(toks)
	if err != nil {
		t.Fatalf("parse(%q): %v", src, err)
	}
	res := sema.Analyze(stmts)
	if res.HasFatal() {
		t.Fatalf("analyze(%q): %v", src, res.Diagnostics)
	}
	return New(res.MethodCalls).Generate(stmts)
}

// TestGenerateMethodCallLowering regression-tests the analyzer/codegen
// contract for method calls: a marked Index callee renders as
// "recv:method(args)" rather than "recv['method'](args)".
func TestGenerateMethodCallLowering(t *testing.T) {
	src := `
S: struct {
  n: int
}
implement S {
  get: fun(self: self) -> int {
    return self.n
  }
}
s: S = new S { n: 1 }
v: int = s.get()
`
	lua := generate(t, src)
	if !strings.Contains(lua, "s:get()") {
		t.Errorf("expected method-call lowering \"s:get()\", got:\n%s", lua)
	}
}

// TestGenerateModuleMemberCallNotLoweredAsMethod covers the opposite: a
// module member call keeps its bracket form since it never carries an
// implicit receiver.
func TestGenerateModuleMemberCallNotLoweredAsMethod(t *testing.T) {
	src := `
m: module {
  f: fun() -> int {
    return 1
  }
}
v: int = m.f()
`
	lua := generate(t, src)
	if strings.Contains(lua, "m:f()") {
		t.Errorf("module member call must not lower to method-call syntax, got:\n%s", lua)
	}
	if !strings.Contains(lua, `m["f"]()`) {
		t.Errorf("expected bracket-form module call, got:\n%s", lua)
	}
}

// TestGenerateNestedLoopBreakTargetsInnerLoop exercises two nested while
// loops: each gets its own depth-numbered sentinel local, and a "break"
// inside the inner loop must not touch the outer loop's sentinel.
func TestGenerateNestedLoopBreakTargetsInnerLoop(t *testing.T) {
	src := `
i: int = 0
while i < 3 {
  j: int = 0
  while j < 3 {
    break
    j = j + 1
  }
  i = i + 1
}
`
	lua := generate(t, src)
	if !strings.Contains(lua, "__wu_break_1") {
		t.Errorf("expected an outer sentinel local __wu_break_1, got:\n%s", lua)
	}
	if !strings.Contains(lua, "__wu_break_2") {
		t.Errorf("expected an inner sentinel local __wu_break_2, got:\n%s", lua)
	}
}

// TestGenerateForLoopSkipUsesRepeatWrapper is the direct codegen-level
// regression test for the for-loop "skip" fix: the body must be wrapped
// in its own repeat/until-false, exactly like whileStmt, so "do break
// end" only exits the repeat rather than the enclosing Lua for.
func TestGenerateForLoopSkipUsesRepeatWrapper(t *testing.T) {
	src := `
items: [int] = [1, 2, 3]
total: int = 0
for n in items {
  if n < 0 {
    skip
  }
  total = total + n
}
`
	lua := generate(t, src)
	if !strings.Contains(lua, "for _, n in ipairs(items) do") {
		t.Errorf("expected an ipairs-based for loop, got:\n%s", lua)
	}
	if !strings.Contains(lua, "repeat") || !strings.Contains(lua, "until false") {
		t.Errorf("expected the for body wrapped in repeat/until false, got:\n%s", lua)
	}
	if !strings.Contains(lua, "do break end") {
		t.Errorf("expected skip to lower to \"do break end\", got:\n%s", lua)
	}
}

// TestGenerateCountingForLoop covers the bound-variable-less "for N { ... }"
// surface form.
func TestGenerateCountingForLoop(t *testing.T) {
	lua := generate(t, "for 3 {\n  skip\n}\n")
	if !strings.Contains(lua, "for __wu_i = 1, 3 do") {
		t.Errorf("expected a numeric counting for loop, got:\n%s", lua)
	}
}

// TestGenerateEncodeIdentEscapesQuestionAndBang covers identifier
// encoding: "?" and "!" must not reach the emitted Lua identifier
// unescaped.
func TestGenerateEncodeIdentEscapesQuestionAndBang(t *testing.T) {
	lua := generate(t, "ready?: bool = true\ndone!: bool = false\n")
	if strings.ContainsAny(lua, "?!") {
		t.Errorf("emitted Lua must not contain ? or !, got:\n%s", lua)
	}
	if !strings.Contains(lua, "ready__question_mark__") {
		t.Errorf("expected encoded identifier for ready?, got:\n%s", lua)
	}
	if !strings.Contains(lua, "done__exclamation_mark__") {
		t.Errorf("expected encoded identifier for done!, got:\n%s", lua)
	}
}

// TestGenerateOptionalParamGuard covers a default-valued parameter's
// nil-coalescing guard.
func TestGenerateOptionalParamGuard(t *testing.T) {
	src := "f: fun(a: int = 5) -> int {\n  return a\n}\n"
	lua := generate(t, src)
	if !strings.Contains(lua, "local optional_a = 5") {
		t.Errorf("expected a captured default value local, got:\n%s", lua)
	}
	if !strings.Contains(lua, "a = a and a or optional_a") {
		t.Errorf("expected the nil-coalescing guard, got:\n%s", lua)
	}
}

// TestGenerateExportsTopLevelBindings covers Generate's module-table
// wrapping: every top-level Variable binding is both declared as a Lua
// local and re-exposed in the returned table.
func TestGenerateExportsTopLevelBindings(t *testing.T) {
	lua := generate(t, "x: int = 1\n")
	if !strings.Contains(lua, "local x = 1") {
		t.Errorf("expected local binding, got:\n%s", lua)
	}
	if !strings.Contains(lua, "return {x = x}") {
		t.Errorf("expected exported table {x = x}, got:\n%s", lua)
	}
}
