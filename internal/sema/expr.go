package sema

import (
	"github.com/wu-lang/wu/internal/ast"
	"github.com/wu-lang/wu/internal/diag"
	"github.com/wu-lang/wu/internal/types"
)

// visitExpr infers and returns x's type, recording any diagnostics along
// the way. It never aborts the pass — a malformed subexpression yields
// types.Undeclared so that enclosing checks fail cleanly rather than
// cascading a Go-level nil dereference.
func (a *analyzer) visitExpr(x ast.Expr, env *types.Env) types.Type {
	switch e := x.(type) {
	case *ast.IntLit:
		return types.New(types.Int)
	case *ast.FloatLit:
		return types.New(types.Float)
	case *ast.BoolLit:
		return types.New(types.Bool)
	case *ast.StrLit:
		return types.New(types.Str)
	case *ast.CharLit:
		return types.New(types.Char)
	case *ast.Ident:
		return a.visitIdent(e, env)
	case *ast.BinaryExpr:
		return a.visitBinary(e, env)
	case *ast.UnaryExpr:
		return a.visitUnary(e, env)
	case *ast.CallExpr:
		return a.visitCall(e, env)
	case *ast.IndexExpr:
		return a.visitIndex(e, env)
	case *ast.BlockExpr:
		return a.visitBlock(e, env)
	case *ast.IfExpr:
		return a.visitIf(e, env)
	case *ast.WhileExpr:
		return a.visitWhile(e, env)
	case *ast.ForExpr:
		return a.visitFor(e, env)
	case *ast.FuncExpr:
		return a.visitFunc(e, env)
	case *ast.ArrayExpr:
		return a.visitArray(e, env)
	case *ast.TupleExpr:
		return a.visitTuple(e, env)
	case *ast.StructExpr:
		return a.visitStruct(e, env)
	case *ast.TraitExpr:
		return a.visitTrait(e, env)
	case *ast.ModuleExpr:
		return a.visitModule(e, env)
	case *ast.InitExpr:
		return a.visitInit(e, env)
	case *ast.CastExpr:
		a.visitExpr(e.X, env)
		return a.dealiasType(e.Type, env)
	case *ast.ExternExpr:
		return a.dealiasType(e.Type, env)
	case *ast.ExternExpression:
		return a.visitExpr(e.Inner, env)
	case *ast.UnwrapExpr:
		return types.Dealias(a.visitExpr(e.X, env))
	case *ast.UnwrapSplatExpr:
		return a.visitExpr(e.X, env)
	case *ast.SplatExpr:
		var last types.Type
		for _, el := range e.Elems {
			last = a.visitExpr(el, env)
		}
		return last
	case *ast.EmptyExpr:
		return types.New(types.Nil)
	case *ast.EOFExpr:
		return types.New(types.Nil)
	default:
		a.diags = a.diags.Add(diag.New(x.Pos(), "internal error: unhandled expression %T", x))
		return types.Type{Kind: types.Undeclared}
	}
}

func (a *analyzer) visitIdent(e *ast.Ident, env *types.Env) types.Type {
	if e.Name == "nil" {
		return types.New(types.Nil)
	}
	t := env.GetType(e.Name)
	if t.Kind == types.Undeclared {
		a.addErr(e, "use of undeclared name %q", e.Name)
	}
	if t.Kind == types.Unconstructed {
		a.addErr(e, "%q is a struct type; use 'new %s { ... }' to construct it", e.Name, e.Name)
	}
	return t
}

func (a *analyzer) visitBinary(e *ast.BinaryExpr, env *types.Env) types.Type {
	lt := a.visitExpr(e.Left, env)
	rt := a.visitExpr(e.Right, env)
	switch e.Op {
	case ast.OpAdd, ast.OpSub, ast.OpMul, ast.OpDiv, ast.OpMod, ast.OpPow:
		if !isNumeric(lt) || !isNumeric(rt) {
			a.addErr(e.Left, "operator %s requires numeric operands, found %s and %s", e.Op, lt, rt)
			return types.Type{Kind: types.Undeclared}
		}
		if lt.Kind == types.Float || rt.Kind == types.Float {
			return types.New(types.Float)
		}
		return types.New(types.Int)
	case ast.OpConcat:
		if lt.Kind != types.Str || rt.Kind != types.Str {
			a.addErr(e.Left, "operator ++ requires str operands, found %s and %s", lt, rt)
		}
		return types.New(types.Str)
	case ast.OpEq, ast.OpNe, ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe:
		if !types.Equal(lt, rt) {
			a.addErr(e.Left, "cannot compare %s and %s", lt, rt)
		}
		return types.New(types.Bool)
	case ast.OpAnd, ast.OpOr:
		if lt.Kind != types.Bool || rt.Kind != types.Bool {
			a.addErr(e.Left, "operator %s requires bool operands, found %s and %s", e.Op, lt, rt)
		}
		return types.New(types.Bool)
	case ast.OpPipeInto:
		// "value |> f" types as calling f with value as its sole argument.
		return a.resultOfCallable(rt, e)
	case ast.OpPipeFrom:
		// "f <| value" types as calling f with value as its sole argument.
		return a.resultOfCallable(lt, e)
	default:
		return types.Type{Kind: types.Undeclared}
	}
}

func (a *analyzer) resultOfCallable(fn types.Type, e *ast.BinaryExpr) types.Type {
	if fn.Kind != types.Func {
		a.addErr(e, "pipe target is not callable")
		return types.Type{Kind: types.Undeclared}
	}
	return *fn.Ret
}

func isNumeric(t types.Type) bool {
	return t.Kind == types.Int || t.Kind == types.Float
}

func (a *analyzer) visitUnary(e *ast.UnaryExpr, env *types.Env) types.Type {
	t := a.visitExpr(e.X, env)
	switch e.Op {
	case ast.Neg:
		if !isNumeric(t) {
			a.addErr(e.X, "unary - requires a numeric operand, found %s", t)
		}
		return t
	case ast.Not:
		if t.Kind != types.Bool {
			a.addErr(e.X, "unary not requires a bool operand, found %s", t)
		}
		return types.New(types.Bool)
	default:
		return types.Type{Kind: types.Undeclared}
	}
}

func (a *analyzer) visitCall(e *ast.CallExpr, env *types.Env) types.Type {
	fn := a.visitExpr(e.Callee, env)
	var argTypes []types.Type
	for _, arg := range e.Args {
		argTypes = append(argTypes, a.visitExpr(arg, env))
	}
	if fn.Kind != types.Func {
		a.addErr(e.Callee, "cannot call non-function type %s", fn)
		return types.Type{Kind: types.Undeclared}
	}
	// A marked method call passes its receiver implicitly (the codegen
	// lowers it to Lua "recv:method(args)"), so self — fn.Params[0] — is
	// not among e.Args and must be excluded from the arity/type check here.
	params := fn.Params
	optFrom := fn.OptionalFrom
	if idx, ok := e.Callee.(*ast.IndexExpr); ok && a.methodCalls[idx.ID] {
		if len(params) > 0 {
			params = params[1:]
		}
		if optFrom > 0 {
			optFrom--
		}
	}
	minArgs := optFrom
	maxArgs := len(params)
	if fn.Variadic {
		maxArgs = 1 << 30
	}
	if len(argTypes) < minArgs || len(argTypes) > maxArgs {
		a.addErr(e, "wrong number of arguments: expected %d, found %d", len(params), len(argTypes))
	}
	for i, at := range argTypes {
		if i >= len(params) {
			break
		}
		if !types.Equal(params[i], at) {
			a.addErr(e.Args[i], "argument %d: cannot use %s as %s", i+1, at, params[i])
		}
	}
	return *fn.Ret
}

func (a *analyzer) visitIndex(e *ast.IndexExpr, env *types.Env) types.Type {
	xt := a.visitExpr(e.X, env)
	base := types.Dealias(xt)
	if e.IsBracket {
		kt := a.visitExpr(e.Key, env)
		switch base.Kind {
		case types.Array:
			if kt.Kind != types.Int {
				a.addErr(e.Key, "array index must be int, found %s", kt)
			}
			return *base.Elem
		default:
			a.addErr(e.X, "cannot bracket-index type %s", xt)
			return types.Type{Kind: types.Undeclared}
		}
	}
	id, ok := e.Key.(*ast.Ident)
	if !ok {
		a.addErr(e.Key, "dot-index key must be an identifier")
		return types.Type{Kind: types.Undeclared}
	}
	if base.Members == nil {
		a.addErr(e.X, "type %s has no members", xt)
		return types.Type{Kind: types.Undeclared}
	}
	mt, found := base.Members.Get(id.Name)
	if !found {
		a.addErr(e.Key, "%s has no member %q", xt, id.Name)
		return types.Type{Kind: types.Undeclared}
	}
	// Only a Struct/Trait receiver's dot-accessed member is a "method" that
	// should pass its receiver implicitly at the call site — a Module's
	// exported members are plain values with no self parameter.
	if !e.IsBracket && (base.Kind == types.Struct || base.Kind == types.Trait) {
		a.methodCalls[e.ID] = true
	}
	return mt
}

func (a *analyzer) visitBlock(e *ast.BlockExpr, env *types.Env) types.Type {
	child := types.NewEnv(env)
	return a.visitStmts(e.Stmts, child)
}

func (a *analyzer) visitIf(e *ast.IfExpr, env *types.Env) types.Type {
	ct := a.visitExpr(e.Cond, env)
	if ct.Kind != types.Bool {
		a.addErr(e.Cond, "if condition must be bool, found %s", ct)
	}
	result := a.visitExpr(e.Body, env)
	for _, arm := range e.Arms {
		if arm.Cond != nil {
			act := a.visitExpr(arm.Cond, env)
			if act.Kind != types.Bool {
				a.addErr(arm.Cond, "elif condition must be bool, found %s", act)
			}
		}
		at := a.visitExpr(arm.Body, env)
		if len(e.Arms) > 0 && !types.Equal(result, at) {
			a.addErr(arm.Body, "branch type %s does not match earlier branch type %s", at, result)
		}
	}
	return result
}

func (a *analyzer) visitWhile(e *ast.WhileExpr, env *types.Env) types.Type {
	ct := a.visitExpr(e.Cond, env)
	if ct.Kind != types.Bool {
		a.addErr(e.Cond, "while condition must be bool, found %s", ct)
	}
	a.visitExpr(e.Body, env)
	return types.New(types.Nil)
}

func (a *analyzer) visitFor(e *ast.ForExpr, env *types.Env) types.Type {
	child := types.NewEnv(env)
	if e.Iter != nil {
		it := a.visitExpr(e.Iter, env)
		elemType := types.New(types.Nil)
		if d := types.Dealias(it); d.Kind == types.Array {
			elemType = *d.Elem
		}
		if e.Var != "" {
			child.AddName(e.Var, elemType)
		}
	}
	a.visitExpr(e.Body, child)
	return types.New(types.Nil)
}

func (a *analyzer) visitFunc(e *ast.FuncExpr, env *types.Env) types.Type {
	child := types.NewEnv(env)
	var params []types.Type
	optFrom := len(e.Params)
	for i, p := range e.Params {
		pt := a.dealiasType(p.Type, env)
		if p.Default != nil {
			a.visitExpr(p.Default, env)
			if optFrom == len(e.Params) {
				optFrom = i
			}
		}
		params = append(params, pt)
		child.AddName(p.Name, pt)
	}
	ret := a.dealiasType(e.RetType, env)
	bodyType := a.visitExpr(e.Body, child)
	// Per the return-type rule, an omitted "-> T" defaults ret to Nil
	// (set by the parser) and that default is enforced like any explicit
	// annotation — omitting it means "this function returns nil", not
	// "infer the return type from the body".
	if !types.Equal(ret, bodyType) {
		a.addErr(e.Body, "function body type %s does not match declared return type %s", bodyType, ret)
	}
	fnType := types.NewFunc(params, ret)
	fnType.OptionalFrom = optFrom
	return fnType
}

func (a *analyzer) visitArray(e *ast.ArrayExpr, env *types.Env) types.Type {
	if len(e.Elems) == 0 {
		return types.NewArray(types.New(types.Nil))
	}
	first := a.visitExpr(e.Elems[0], env)
	for _, el := range e.Elems[1:] {
		t := a.visitExpr(el, env)
		if !types.Equal(first, t) {
			a.addErr(el, "array element type %s does not match first element type %s", t, first)
		}
	}
	return types.NewArrayLen(first, len(e.Elems))
}

func (a *analyzer) visitTuple(e *ast.TupleExpr, env *types.Env) types.Type {
	var fields []types.Type
	for _, el := range e.Elems {
		fields = append(fields, a.visitExpr(el, env))
	}
	return types.NewTuple(fields...)
}

func (a *analyzer) visitStruct(e *ast.StructExpr, env *types.Env) types.Type {
	members := types.NewMembers()
	for _, f := range e.Fields {
		members.Add(f.Name, a.dealiasType(f.Type, env))
	}
	name := e.Name
	if name == "" {
		name = "<anonymous>"
	}
	st := types.NewStruct(name, members)
	if e.Name != "" {
		env.AddName(e.Name, types.Type{Kind: types.Unconstructed, Name: e.Name, Members: members})
	}
	return st
}

func (a *analyzer) visitTrait(e *ast.TraitExpr, env *types.Env) types.Type {
	members := types.NewMembers()
	for _, item := range e.Body {
		members.Add(item.Name, a.visitExpr(item.Value, env))
	}
	name := e.Name
	if name == "" {
		name = "<anonymous>"
	}
	tr := types.NewTrait(name, members)
	if e.Name != "" {
		env.AddName(e.Name, tr)
	}
	return tr
}

func (a *analyzer) visitModule(e *ast.ModuleExpr, env *types.Env) types.Type {
	child := types.NewEnv(env)
	a.visitStmts(e.Body, child)
	members := types.NewMembers()
	// Re-derive exported members from the child scope's bindings: every
	// top-level Variable/Constant/Struct/Trait/Module/Import inside the
	// module body becomes a module member, named after its binding.
	for _, s := range e.Body {
		switch st := s.(type) {
		case *ast.VarDecl:
			members.Add(st.Name, child.GetType(st.Name))
		case *ast.ConstDecl:
			members.Add(st.Name, child.GetType(st.Name))
		case *ast.ImportStmt:
			if st.Expose == nil {
				members.Add(st.Name, child.GetType(st.Name))
			} else {
				for _, name := range st.Expose {
					members.Add(name, child.GetType(name))
				}
			}
		}
	}
	return types.NewModule("<module>", members)
}

func (a *analyzer) visitInit(e *ast.InitExpr, env *types.Env) types.Type {
	// A struct name is bound Unconstructed, which visitIdent rejects as a
	// value; "new" is the one place it may appear, so look it up directly.
	var target types.Type
	if id, ok := e.Type.(*ast.Ident); ok {
		target = env.GetType(id.Name)
		if target.Kind == types.Undeclared {
			a.addErr(id, "use of undeclared name %q", id.Name)
		}
	} else {
		target = a.visitExpr(e.Type, env)
	}
	if target.Kind != types.Unconstructed {
		a.addErr(e.Type, "cannot initialize %s: not an unconstructed struct type", target)
		return types.Type{Kind: types.Undeclared}
	}
	if target.Members != nil {
		names := target.Members.Names()
		if len(e.Fields) != len(names) {
			a.addErr(e, "struct %s has %d members, %d supplied", target.Name, len(names), len(e.Fields))
		}
		for i, f := range e.Fields {
			vt := a.visitExpr(f.Value, env)
			if i >= len(names) {
				continue
			}
			want, _ := target.Members.Get(names[i])
			if !types.Equal(want, vt) {
				a.addErr(f.Value, "member %q: cannot assign %s to %s", names[i], vt, want)
			}
		}
	}
	return types.NewStruct(target.Name, target.Members)
}
