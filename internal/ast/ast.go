// Package ast defines the position-annotated abstract syntax tree produced
// by the parser and consumed by the semantic analyzer and code generator.
package ast

import (
	"github.com/wu-lang/wu/internal/source"
	"github.com/wu-lang/wu/internal/types"
)

// Stmt is implemented by every statement node.
type Stmt interface {
	Pos() source.Position
	stmtNode()
}

// Expr is implemented by every expression node. Every Expr also has a
// stable, parse-order node identifier (ID) — not its Position — because
// positions are not unique across nodes (two calls can start on the same
// line and column class after a chain, e.g. "a.b().c()"). The identifier
// is what the semantic analyzer's method-calls side-table is keyed by.
type Expr interface {
	Pos() source.Position
	NodeID() uint32
	exprNode()
}

// Base is embedded by every Expr implementation to provide position
// and node-identifier storage; its field name is exported so other
// packages (the parser) can construct node literals directly.
type Base struct {
	Position source.Position
	ID       uint32
}

func (b Base) Pos() source.Position { return b.Position }
func (b Base) NodeID() uint32       { return b.ID }

// ---- Statements ----

type ExprStmt struct {
	Position source.Position
	X        Expr
}

type VarDecl struct {
	Position source.Position
	Type     types.Type // types.Unannotated Kind if omitted
	Name     string
	Init     Expr // nil if no initializer
}

type ConstDecl struct {
	Position source.Position
	Type     types.Type
	Name     string
	Init     Expr
}

type Assign struct {
	Position source.Position
	Left     Expr
	Right    Expr
}

type ReturnStmt struct {
	Position source.Position
	X        Expr // nil for bare "return"
}

type BreakStmt struct{ Position source.Position }
type SkipStmt struct{ Position source.Position }

type ImportStmt struct {
	Position source.Position
	Name     string
	Expose   []string // nil means "import the module binding itself"
}

// ImplementItem is one "name: value" member inside an implement block.
type ImplementItem struct {
	Name  string
	Value Expr
}

type ImplementStmt struct {
	Position source.Position
	Target   Expr // the struct/trait identifier being implemented
	Parent   Expr // optional ": Parent" trait/struct, nil if absent
	Body     []ImplementItem
}

// SplatVarDecl is "a, b, c: [type]? = expr" binding several names from one
// splatted right-hand side.
type SplatVarDecl struct {
	Position source.Position
	Type     types.Type
	Names    []string
	Init     Expr
}

type SplatAssign struct {
	Position source.Position
	Lefts    []Expr
	Right    Expr
}

func (s *ExprStmt) Pos() source.Position      { return s.Position }
func (s *VarDecl) Pos() source.Position       { return s.Position }
func (s *ConstDecl) Pos() source.Position     { return s.Position }
func (s *Assign) Pos() source.Position        { return s.Position }
func (s *ReturnStmt) Pos() source.Position    { return s.Position }
func (s *BreakStmt) Pos() source.Position     { return s.Position }
func (s *SkipStmt) Pos() source.Position      { return s.Position }
func (s *ImportStmt) Pos() source.Position    { return s.Position }
func (s *ImplementStmt) Pos() source.Position { return s.Position }
func (s *SplatVarDecl) Pos() source.Position  { return s.Position }
func (s *SplatAssign) Pos() source.Position   { return s.Position }

func (*ExprStmt) stmtNode()      {}
func (*VarDecl) stmtNode()       {}
func (*ConstDecl) stmtNode()     {}
func (*Assign) stmtNode()        {}
func (*ReturnStmt) stmtNode()    {}
func (*BreakStmt) stmtNode()     {}
func (*SkipStmt) stmtNode()      {}
func (*ImportStmt) stmtNode()    {}
func (*ImplementStmt) stmtNode() {}
func (*SplatVarDecl) stmtNode()  {}
func (*SplatAssign) stmtNode()   {}

// ---- Expressions ----

type IntLit struct {
	Base
	Value int64
}

type FloatLit struct {
	Base
	Value float64
}

type BoolLit struct {
	Base
	Value bool
}

type StrLit struct {
	Base
	Value string
}

type CharLit struct {
	Base
	Value rune
}

type Ident struct {
	Base
	Name string
}

type BinaryExpr struct {
	Base
	Op    Operator
	Left  Expr
	Right Expr
}

// UnaryOp is Neg ("-") or Not ("not").
type UnaryOp int

const (
	Neg UnaryOp = iota
	Not
)

type UnaryExpr struct {
	Base
	Op Unary
	X  Expr
}

// Unary names the UnaryOp field type (kept distinct from the UnaryOp
// constants' own type for readability at call sites: ast.Unary vs.
// ast.UnaryOp reads oddly otherwise since Go has no nested enums).
type Unary = UnaryOp

// Param is one function parameter: a name, a declared type, and an
// optional default-value expression (non-nil only for an Optional-mode
// parameter).
type Param struct {
	Name    string
	Type    types.Type
	Default Expr
}

type FuncExpr struct {
	Base
	Params   []Param
	RetType  types.Type
	Body     Expr // always a *BlockExpr
	IsMethod bool
}

type CallExpr struct {
	Base
	Callee Expr
	Args   []Expr
}

type BlockExpr struct {
	Base
	Stmts []Stmt
}

// IfArm is one "elif"/"else" continuation. Cond is nil for a trailing
// "else".
type IfArm struct {
	Cond Expr
	Body Expr // *BlockExpr
	Pos  source.Position
}

type IfExpr struct {
	Base
	Cond Expr
	Body Expr // *BlockExpr
	Arms []IfArm
}

type WhileExpr struct {
	Base
	Cond Expr
	Body Expr // *BlockExpr
}

type ForExpr struct {
	Base
	Var  string // "" for the counting form "for N { ... }"
	Iter Expr   // the iterated value, or N for the counting form
	Body Expr // *BlockExpr
}

type IndexExpr struct {
	Base
	X         Expr
	Key       Expr
	IsBracket bool
}

type ArrayExpr struct {
	Base
	Elems []Expr
}

type TupleExpr struct {
	Base
	Elems []Expr
}

// StructField is one "name: type [= default]" member of a struct
// declaration.
type StructField struct {
	Name    string
	Type    types.Type
	Default Expr // nil if absent
}

type StructExpr struct {
	Base
	Name   string
	Fields []StructField
	UID    uint32 // distinguishes structurally-identical anonymous structs
}

type TraitExpr struct {
	Base
	Name string
	Body []ImplementItem
}

type ModuleExpr struct {
	Base
	Body []Stmt
}

// InitField is one "name: expr" assignment inside a "new T { ... }".
type InitField struct {
	Name  string
	Value Expr
}

type InitExpr struct {
	Base
	Type   Expr // identifier naming the struct type
	Fields []InitField
}

type CastExpr struct {
	Base
	X    Expr
	Type types.Type
}

type ExternExpr struct {
	Base
	Type types.Type
	Lua  *string // nil if no "= STRING" literal body was given
}

type ExternExpression struct {
	Base
	Inner Expr
}

type UnwrapSplatExpr struct {
	Base
	X Expr
}

type UnwrapExpr struct {
	Base
	X Expr
}

type SplatExpr struct {
	Base
	Elems []Expr
}

type EmptyExpr struct{ Base }
type EOFExpr struct{ Base }

func (*IntLit) exprNode()           {}
func (*FloatLit) exprNode()         {}
func (*BoolLit) exprNode()          {}
func (*StrLit) exprNode()           {}
func (*CharLit) exprNode()          {}
func (*Ident) exprNode()            {}
func (*BinaryExpr) exprNode()       {}
func (*UnaryExpr) exprNode()        {}
func (*FuncExpr) exprNode()         {}
func (*CallExpr) exprNode()         {}
func (*BlockExpr) exprNode()        {}
func (*IfExpr) exprNode()           {}
func (*WhileExpr) exprNode()        {}
func (*ForExpr) exprNode()          {}
func (*IndexExpr) exprNode()        {}
func (*ArrayExpr) exprNode()        {}
func (*TupleExpr) exprNode()        {}
func (*StructExpr) exprNode()       {}
func (*TraitExpr) exprNode()        {}
func (*ModuleExpr) exprNode()       {}
func (*InitExpr) exprNode()         {}
func (*CastExpr) exprNode()         {}
func (*ExternExpr) exprNode()       {}
func (*ExternExpression) exprNode() {}
func (*UnwrapSplatExpr) exprNode()  {}
func (*UnwrapExpr) exprNode()       {}
func (*SplatExpr) exprNode()        {}
func (*EmptyExpr) exprNode()        {}
func (*EOFExpr) exprNode()          {}
