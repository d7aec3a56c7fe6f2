// Package codegen translates a validated AST into Lua 5.x source text.
package codegen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wu-lang/wu/internal/ast"
)

// tailMode controls how the tail expression of a block or if/while
// materializes, threaded as an explicit function parameter rather than
// mutable generator state.
type tailMode int

const (
	// tailNone: the value, bare, with no wrapping.
	tailNone tailMode = iota
	// tailReturn: "return <value>".
	tailReturn
	// tailAssign: "<target> = <value>".
	tailAssign
)

// tail describes the current tail-position request: its mode, and (for
// tailAssign) the Lua target expression text to assign into.
type tail struct {
	mode   tailMode
	target string
}

func none() tail          { return tail{mode: tailNone} }
func ret() tail           { return tail{mode: tailReturn} }
func assignTo(s string) tail { return tail{mode: tailAssign, target: s} }

// loopCtx tracks the nesting depth of enclosing while loops, to name a
// fresh break-sentinel local for each loop's repeat-until-false
// lowering.
type loopCtx struct {
	depth int
}

// Generator holds the state needed across one file's code generation:
// the method-call marks the analyzer produced and the output being
// built. It introduces no temporary names of its own (switch scrutinees
// are named by the parser already; IIFE wrapping needs no naming).
type Generator struct {
	methodCalls map[uint32]bool
	sb          strings.Builder
}

// New returns a Generator that consults methodCalls (from sema.Result)
// to decide method-call lowering.
func New(methodCalls map[uint32]bool) *Generator {
	return &Generator{methodCalls: methodCalls}
}

// Generate emits the full Lua source for a compilation unit: an IIFE
// wrapping the statements and returning a table of the top-level
// exported bindings.
func (g *Generator) Generate(stmts []ast.Stmt) string {
	g.sb.Reset()
	g.sb.WriteString("return (function()\n")
	g.stmts(stmts, nil, none())
	exported := exportedNames(stmts)
	g.sb.WriteString("return {")
	for i, name := range exported {
		if i > 0 {
			g.sb.WriteString(", ")
		}
		fmt.Fprintf(&g.sb, "%s = %s", encodeIdent(name), encodeIdent(name))
	}
	g.sb.WriteString("}\n")
	g.sb.WriteString("end)()\n")
	return g.sb.String()
}

// exportedNames collects the names bound by top-level Variable, Constant
// and Import statements — these are the bindings that make up a compiled
// unit's exported table.
func exportedNames(stmts []ast.Stmt) []string {
	var names []string
	for _, s := range stmts {
		switch st := s.(type) {
		case *ast.VarDecl:
			names = append(names, st.Name)
		case *ast.ConstDecl:
			names = append(names, st.Name)
		case *ast.ImportStmt:
			if st.Expose == nil {
				names = append(names, st.Name)
			} else {
				names = append(names, st.Expose...)
			}
		}
	}
	return names
}

// encodeIdent maps a wu identifier's "?" and "!" characters to the
// valid-Lua-identifier substrings __question_mark__ / __exclamation_mark__.
func encodeIdent(name string) string {
	if !strings.ContainsAny(name, "?!") {
		return name
	}
	var sb strings.Builder
	for _, r := range name {
		switch r {
		case '?':
			sb.WriteString("__question_mark__")
		case '!':
			sb.WriteString("__exclamation_mark__")
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func quoteLua(s string) string {
	return strconv.Quote(s)
}
