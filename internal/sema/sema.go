// Package sema implements the semantic analyzer ("visitor"): a single
// pass over the AST performing scope-aware type inference and checking,
// accumulating diagnostics rather than stopping at the first one.
package sema

import (
	"github.com/wu-lang/wu/internal/ast"
	"github.com/wu-lang/wu/internal/diag"
	"github.com/wu-lang/wu/internal/types"
)

// Result is the output of a successful (or partially successful) analysis
// pass: the diagnostics accumulated, and the method-call marks the code
// generator needs.
type Result struct {
	Diagnostics diag.Group
	// MethodCalls records, by the callee IndexExpr's node identifier,
	// whether a dot-accessed member resolved against a Struct/Trait
	// receiver — i.e. should lower to Lua "receiver:method(args)" rather
	// than "receiver['member'](args)". A Module member is never marked:
	// module exports are plain values with no implicit receiver.
	MethodCalls map[uint32]bool
}

// HasFatal reports whether any accumulated diagnostic is Wrong.
func (r *Result) HasFatal() bool { return r.Diagnostics.HasFatal() }

type analyzer struct {
	diags       diag.Group
	methodCalls map[uint32]bool
	// selfType is the receiver type "self" resolves to while visiting an
	// implement block's methods; nil outside of one.
	selfType *types.Type
}

// Analyze visits every top-level statement once, returning the analysis
// Result. Analyze never returns a Go error; check Result.HasFatal to
// decide whether code generation should proceed.
func Analyze(stmts []ast.Stmt) *Result {
	a := &analyzer{methodCalls: make(map[uint32]bool)}
	env := types.NewEnv(nil)
	a.visitStmts(stmts, env)
	return &Result{Diagnostics: a.diags, MethodCalls: a.methodCalls}
}

func (a *analyzer) addErr(pos ast.Expr, format string, args ...any) {
	a.diags = a.diags.Add(diag.New(pos.Pos(), format, args...))
}

// visitStmts visits a list of statements in order within env, returning
// the type of the final statement (its "tail value"), used by block-
// valued expressions (if/while/func bodies); callers that have no tail-
// value concept (the top-level file, module bodies) simply discard it.
func (a *analyzer) visitStmts(stmts []ast.Stmt, env *types.Env) types.Type {
	last := types.New(types.Nil)
	for i, s := range stmts {
		last = a.visitStmt(s, env, i == len(stmts)-1)
	}
	return last
}

// visitStmt visits one statement, returning its type (used by visitStmts
// to compute a block's tail type; non-tail statements' return value is
// discarded by the caller apart from the non-tail-expression check it
// performs itself, inline below).
func (a *analyzer) visitStmt(s ast.Stmt, env *types.Env, isTail bool) types.Type {
	switch st := s.(type) {
	case *ast.ExprStmt:
		t := a.visitExpr(st.X, env)
		if !isTail && !exprAllowedNonTail(st.X) {
			a.diags = a.diags.Add(diag.New(st.Position, "expression result unused; only calls and blocks may appear in non-tail position"))
		}
		return t
	case *ast.VarDecl:
		a.visitVarDecl(st, env)
		return types.New(types.Nil)
	case *ast.ConstDecl:
		a.visitConstDecl(st, env)
		return types.New(types.Nil)
	case *ast.Assign:
		a.visitAssign(st, env)
		return types.New(types.Nil)
	case *ast.SplatVarDecl:
		a.visitSplatVarDecl(st, env)
		return types.New(types.Nil)
	case *ast.SplatAssign:
		a.visitSplatAssign(st, env)
		return types.New(types.Nil)
	case *ast.ReturnStmt:
		if st.X != nil {
			return a.visitExpr(st.X, env)
		}
		return types.New(types.Nil)
	case *ast.BreakStmt, *ast.SkipStmt:
		return types.New(types.Nil)
	case *ast.ImportStmt:
		a.visitImport(st, env)
		return types.New(types.Nil)
	case *ast.ImplementStmt:
		a.visitImplement(st, env)
		return types.New(types.Nil)
	default:
		a.diags = a.diags.Add(diag.New(s.Pos(), "internal error: unhandled statement %T", s))
		return types.New(types.Nil)
	}
}

// exprAllowedNonTail reports whether x may legally appear as a non-tail
// statement in a block: calls and blocks are allowed (they're typically
// run for side effect), everything else must be the last statement.
func exprAllowedNonTail(x ast.Expr) bool {
	switch x.(type) {
	case *ast.CallExpr, *ast.BlockExpr, *ast.IfExpr, *ast.WhileExpr, *ast.ForExpr, *ast.EmptyExpr:
		return true
	default:
		return false
	}
}

func (a *analyzer) visitVarDecl(st *ast.VarDecl, env *types.Env) {
	if st.Init == nil {
		env.AddName(st.Name, types.Type{Kind: types.Undeclared})
		return
	}
	declared := types.Dealias(a.dealiasType(st.Type, env))
	init := a.visitExpr(st.Init, env)
	if _, ok := st.Init.(*ast.StructExpr); ok {
		// visitStruct already bound st.Name to its Unconstructed
		// placeholder; overwriting it here with the returned Struct type
		// would make every later "new S { ... }" fail ("not an
		// unconstructed struct type"), since a struct's own name must stay
		// Unconstructed in scope until an Initialization produces a value.
		return
	}
	if declared.Kind != types.Unannotated && !types.Equal(declared, init) {
		a.addErr(st.Init, "cannot assign %s to declared type %s", init, declared)
		env.AddName(st.Name, declared)
		return
	}
	if declared.Kind == types.Unannotated {
		env.AddName(st.Name, init)
		return
	}
	env.AddName(st.Name, declared)
}

func (a *analyzer) visitConstDecl(st *ast.ConstDecl, env *types.Env) {
	declared := types.Dealias(a.dealiasType(st.Type, env))
	init := a.visitExpr(st.Init, env)
	if init.Kind == types.Nil {
		a.addErr(st.Init, "constant initializer may not be nil")
	}
	if declared.Kind != types.Unannotated && !types.Equal(declared, init) {
		a.addErr(st.Init, "cannot assign %s to declared type %s", init, declared)
	}
	wrapped := init
	if declared.Kind != types.Unannotated {
		wrapped = declared
	}
	env.AddName(st.Name, types.Type{Kind: types.Constant, Elem: &wrapped})
}

func (a *analyzer) visitAssign(st *ast.Assign, env *types.Env) {
	lt := a.visitExpr(st.Left, env)
	rt := a.visitExpr(st.Right, env)
	if lt.Kind == types.Constant {
		a.addErr(st.Left, "cannot reassign constant")
	}
	if !types.Equal(lt, rt) {
		a.addErr(st.Right, "cannot assign %s to %s", rt, lt)
	}
	if id, ok := st.Left.(*ast.Ident); ok {
		env.SetType(id.Name, rt)
	}
}

func (a *analyzer) visitSplatVarDecl(st *ast.SplatVarDecl, env *types.Env) {
	init := a.visitExpr(st.Init, env)
	for _, name := range st.Names {
		env.AddName(name, init)
	}
}

func (a *analyzer) visitSplatAssign(st *ast.SplatAssign, env *types.Env) {
	a.visitExpr(st.Right, env)
	for _, l := range st.Lefts {
		a.visitExpr(l, env)
	}
}

func (a *analyzer) visitImport(st *ast.ImportStmt, env *types.Env) {
	mod := env.GetType(st.Name)
	if mod.Kind != types.Module {
		a.diags = a.diags.Add(diag.New(st.Position, "import target %q is not a module", st.Name))
		return
	}
	if st.Expose == nil {
		return
	}
	for _, name := range st.Expose {
		mt, ok := mod.Members.Get(name)
		if !ok {
			a.diags = a.diags.Add(diag.New(st.Position, "module %q has no member %q", st.Name, name))
			continue
		}
		env.AddName(name, mt)
	}
}

func (a *analyzer) visitImplement(st *ast.ImplementStmt, env *types.Env) {
	// st.Target names the struct/trait being implemented; it is bound
	// Unconstructed in the value namespace (only "new" may produce an
	// instance of it), so it must be resolved directly rather than through
	// visitExpr/visitIdent, which treats an Unconstructed name as the user
	// error "use 'new S { ... }' to construct it".
	targetType := a.resolveImplTarget(st.Target, env)
	prevSelf := a.selfType
	a.selfType = &targetType
	for _, item := range st.Body {
		vt := a.visitExpr(item.Value, env)
		if targetType.Members != nil {
			targetType.Members.Add(item.Name, vt)
		}
	}
	a.selfType = prevSelf
}

// resolveImplTarget resolves an implement statement's target to the
// concrete Struct/Trait type it names, converting an Unconstructed
// placeholder the same way dealiasType does for a type annotation.
func (a *analyzer) resolveImplTarget(x ast.Expr, env *types.Env) types.Type {
	id, ok := x.(*ast.Ident)
	if !ok {
		return a.visitExpr(x, env)
	}
	t := env.GetType(id.Name)
	if t.Kind == types.Undeclared {
		a.addErr(id, "use of undeclared name %q", id.Name)
		return t
	}
	if t.Kind == types.Unconstructed {
		return types.NewStruct(t.Name, t.Members)
	}
	return t
}

// dealiasType resolves an Unconstructed (unresolved-alias) type node — a
// bare type name referencing a declaration elsewhere in scope — to
// whatever concrete type is bound to that name in env. Every equality
// check that crosses a declaration boundary must dealias first.
func (a *analyzer) dealiasType(t types.Type, env *types.Env) types.Type {
	if t.Kind == types.This {
		if a.selfType != nil {
			return *a.selfType
		}
		return t
	}
	if t.Kind == types.Unconstructed && t.Name != "" {
		bound := env.GetType(t.Name)
		// A struct's name is bound Unconstructed in the value namespace
		// (only "new" may produce an instance), but used as a *type
		// annotation* it must compare equal to the Struct-kind instances
		// Initialization produces — so re-wrap it as that Struct type here
		// rather than returning the Unconstructed marker verbatim.
		if bound.Kind == types.Unconstructed {
			return types.NewStruct(bound.Name, bound.Members)
		}
		return bound
	}
	if t.Kind == types.Optional && t.Elem != nil {
		inner := a.dealiasType(*t.Elem, env)
		return types.NewOptional(inner)
	}
	if t.Kind == types.Array && t.Elem != nil {
		inner := a.dealiasType(*t.Elem, env)
		inner2 := inner
		return types.Type{Kind: types.Array, Elem: &inner2, ArrayLen: t.ArrayLen, Variadic: t.Variadic}
	}
	return t
}
