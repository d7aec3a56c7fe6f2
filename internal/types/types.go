// Package types implements the type lattice and scope-chain environment
// used by the semantic analyzer.
package types

import "fmt"

// Kind is the closed set of type shapes.
type Kind int

const (
	// Undeclared is the type of a name that has not been bound yet; it
	// equals nothing, including itself, so any comparison involving it is
	// an error site rather than a silent pass.
	Undeclared Kind = iota
	// Unconstructed is the type a struct's name is bound to in scope: only
	// an Initialization ("new S { ... }") produces a value of the struct.
	// The parser also uses it, with Name set, for a named type annotation
	// not yet resolved.
	Unconstructed
	Nil
	Bool
	Int
	Float
	Str
	Char
	Array
	Tuple
	Func
	Struct
	Trait
	Module
	// Any is the surface "any" annotation: a wildcard that compares equal
	// to every type except Undeclared/Unconstructed, which remain error
	// sites regardless of the type on the other side of the comparison.
	// Distinct from Nil, which is the type of the literal nil value.
	Any
	// This is the surface "self" annotation used in a method's receiver
	// position; resolved to the enclosing struct/trait's own type by the
	// analyzer rather than carrying a shape of its own.
	This
	// Optional wraps another type ("T?"); it equals any type, including
	// itself and Nil, by this lattice's asymmetric equality rules.
	Optional
	// Constant and Regular distinguish "const" bindings from "var"
	// bindings, but are interchangeable for equality purposes — a value of
	// either mode may be used wherever the other is expected.
	Constant
	Regular
	// Unannotated marks a VarDecl/ConstDecl/FuncExpr return slot where the
	// source wrote no type at all, as opposed to writing "nil" — the two
	// are different types ("nil" is Nil, a real type in the lattice) and
	// must not collide, or "x: nil = nil" would wrongly read as "x has no
	// declared type" and infer from the initializer instead of rejecting a
	// later non-nil assignment. Never appears in a [Type] that reaches
	// [Equal]; callers resolve it away (falling back to the initializer's
	// or body's inferred type) before any comparison.
	Unannotated
)

// Members is an ordered name→Type map: insertion order matters for struct
// field layout and Lua table construction, so a plain map (unordered)
// cannot stand in for it.
type Members struct {
	names []string
	types map[string]Type
}

// NewMembers returns an empty ordered member set.
func NewMembers() *Members {
	return &Members{types: make(map[string]Type)}
}

// Add appends name with its type. Re-adding an existing name overwrites
// its type without changing its position.
func (m *Members) Add(name string, t Type) {
	if _, exists := m.types[name]; !exists {
		m.names = append(m.names, name)
	}
	m.types[name] = t
}

// Get looks up name, reporting whether it is present.
func (m *Members) Get(name string) (Type, bool) {
	t, ok := m.types[name]
	return t, ok
}

// Names returns the member names in insertion order.
func (m *Members) Names() []string {
	return m.names
}

// Len reports the number of members.
func (m *Members) Len() int {
	return len(m.names)
}

// Type is a wu value type.
//
// Type is a flat struct rather than a tree of interface variants: the
// lattice's equality rules (see [Equal]) special-case so many
// Kind-to-Kind interactions that a sum-type encoding would force each
// variant to know about all the others anyway. A flat struct with a
// Kind discriminant and a grab-bag of fields used only by the relevant
// Kind keeps Equal one function instead of N double-dispatching methods.
type Type struct {
	Kind Kind

	// Elem is the element type for Array and the wrapped type for
	// Optional, Constant, and Regular.
	Elem *Type

	// Fields holds Tuple element types in order.
	Fields []Type

	// ArrayLen is the constant-folded fixed length of an Array type, or
	// -1 for an unsized array ("[int]" vs. "[int; 5]").
	ArrayLen int

	// Params and Ret describe a Func type. OptionalFrom is the index of
	// the first parameter that may be omitted at a call site (len(Params)
	// if none are optional); Variadic marks a trailing "...T" parameter.
	Params       []Type
	Ret          *Type
	OptionalFrom int
	Variadic     bool

	// Name identifies a Struct, Trait, or Module type nominally: two
	// struct types are equal only if their Names match, even if their
	// member sets happen to coincide structurally.
	Name string

	// Members holds the named fields/methods of a Struct or Trait.
	Members *Members
}

func New(k Kind) Type { return Type{Kind: k} }

func NewOptional(inner Type) Type { return Type{Kind: Optional, Elem: &inner} }

func NewArray(elem Type) Type {
	return Type{Kind: Array, Elem: &elem, ArrayLen: -1}
}

func NewArrayLen(elem Type, n int) Type {
	return Type{Kind: Array, Elem: &elem, ArrayLen: n}
}

func NewTuple(fields ...Type) Type { return Type{Kind: Tuple, Fields: fields} }

func NewFunc(params []Type, ret Type) Type {
	return Type{Kind: Func, Params: params, Ret: &ret, OptionalFrom: len(params)}
}
func NewStruct(name string, members *Members) Type {
	return Type{Kind: Struct, Name: name, Members: members}
}
func NewTrait(name string, members *Members) Type {
	return Type{Kind: Trait, Name: name, Members: members}
}
func NewModule(name string, members *Members) Type {
	return Type{Kind: Module, Name: name, Members: members}
}

// Equal implements the lattice's asymmetric comparison rules:
//
//   - Undeclared and Unconstructed equal nothing, not even themselves —
//     a comparison involving either is always a type error.
//   - Any equals every type, in either argument position, including
//     itself; it's the lattice's wildcard for the surface "any" annotation.
//   - Optional equals any type whatsoever, in either argument position,
//     including Nil and another Optional. This lets "x: int? = nil"
//     and later "x = 5" both type-check against the same declared type.
//   - Constant and Regular are transparent wrappers: Equal unwraps them
//     before comparing, so a const int and a var int compare equal.
//   - Float and Int are mutually equal (wu promotes Int to Float wherever
//     a Float is expected, mirroring Lua's single numeric type).
//   - Array, Tuple, Func, Struct, Trait, and Module compare structurally
//     (nominally by Name for the latter three).
func Equal(a, b Type) bool {
	if a.Kind == Undeclared || a.Kind == Unconstructed || a.Kind == Unannotated {
		return false
	}
	if b.Kind == Undeclared || b.Kind == Unconstructed || b.Kind == Unannotated {
		return false
	}
	if a.Kind == Any || b.Kind == Any {
		return true
	}
	if a.Kind == Optional || b.Kind == Optional {
		return true
	}
	if a.Kind == Constant || a.Kind == Regular {
		return Equal(*a.Elem, b)
	}
	if b.Kind == Constant || b.Kind == Regular {
		return Equal(a, *b.Elem)
	}
	if (a.Kind == Int || a.Kind == Float) && (b.Kind == Int || b.Kind == Float) {
		return true
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case Array:
		return Equal(*a.Elem, *b.Elem)
	case Tuple:
		if len(a.Fields) != len(b.Fields) {
			return false
		}
		for i := range a.Fields {
			if !Equal(a.Fields[i], b.Fields[i]) {
				return false
			}
		}
		return true
	case Func:
		if len(a.Params) != len(b.Params) || !Equal(*a.Ret, *b.Ret) {
			return false
		}
		for i := range a.Params {
			if !Equal(a.Params[i], b.Params[i]) {
				return false
			}
		}
		return true
	case Struct, Trait, Module:
		return a.Name == b.Name
	default:
		return true
	}
}

func (t Type) String() string {
	switch t.Kind {
	case Undeclared:
		return "<undeclared>"
	case Unconstructed:
		return "<unconstructed>"
	case Nil:
		return "nil"
	case Bool:
		return "bool"
	case Int:
		return "int"
	case Float:
		return "float"
	case Str:
		return "str"
	case Char:
		return "char"
	case Array:
		return fmt.Sprintf("[%s]", t.Elem)
	case Tuple:
		return fmt.Sprintf("%v", t.Fields)
	case Func:
		return fmt.Sprintf("fun(%v) %s", t.Params, t.Ret)
	case Struct:
		return t.Name
	case Trait:
		return t.Name
	case Module:
		return t.Name
	case Any:
		return "any"
	case This:
		return "self"
	case Unannotated:
		return "<unannotated>"
	case Optional:
		return fmt.Sprintf("%s?", t.Elem)
	case Constant, Regular:
		return t.Elem.String()
	default:
		return "<?>"
	}
}

// Dealias strips Constant/Regular/Optional wrappers, returning the
// underlying concrete type. Used where the analyzer needs to know the
// shape of a value regardless of its binding mode or optionality.
func Dealias(t Type) Type {
	for t.Kind == Constant || t.Kind == Regular || t.Kind == Optional {
		t = *t.Elem
	}
	return t
}
