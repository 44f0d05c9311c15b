// Package cast is the typed C AST the instrumentation visitor walks:
// resolved scalar types on every expression, an address-of primitive
// for building pointer values, and statements already reduced to the
// small set a simplified CFG needs (if/assign/call/return/sequence).
// A real toolchain integration gets this from a C frontend's parsed and
// type-checked syntax tree; this package defines the shape that
// frontend is expected to deliver, using the same closed-sum-type idiom
// (a private marker method per interface) used throughout this tree for
// AST nodes.
package cast

import "github.com/chennqqi/crestgo/pkg/types"

// Expr is the interface every typed C expression node implements.
type Expr interface {
	implExpr()
	// Type is the expression's resolved C type.
	Type() types.CType
}

// Stmt is the interface every simplified C statement node implements.
type Stmt interface {
	implStmt()
}

// IntLit is an integer constant with a resolved type.
type IntLit struct {
	Value int64
	Typ   types.CType
}

// Var is a reference to a named variable (local, global, or parameter).
// Addr is known when the variable's storage location is statically
// fixed (globals and locals with a stack-frame offset already
// assigned); it is zero when unknown.
type Var struct {
	Name     string
	Typ      types.CType
	IsGlobal bool
	Addr     types.Address
}

// Unary is a typed unary operation: arithmetic negation, logical/
// bitwise not, or a cast (Op == types.SIGNED_CAST / types.UNSIGNED_CAST
// with Typ naming the cast's target type).
type Unary struct {
	Op  types.UnaryOp
	Typ types.CType
	X   Expr
}

// Binary is a typed binary arithmetic/bitwise operation.
type Binary struct {
	Op  types.BinaryOp
	Typ types.CType
	L   Expr
	R   Expr
}

// PointerArith is pointer arithmetic: p + i, p - i, or p - q. ElemSize is
// the pointee's size in bytes, needed to scale the integer operand.
type PointerArith struct {
	Op       types.PointerOp
	Typ      types.CType
	ElemSize int
	L        Expr
	R        Expr
}

// Compare is a typed comparison, producing a 1-byte boolean result.
type Compare struct {
	Op types.CompareOp
	L  Expr
	R  Expr
}

// AddrOf takes the address of an addressable sub-expression (a Var or a
// Deref), producing a pointer-typed value.
type AddrOf struct {
	X   Expr
	Typ types.CType
}

// Deref reads through a pointer-typed expression.
type Deref struct {
	Ptr Expr
	Typ types.CType
	// ObjSize is the referenced object's size in bytes. It is carried
	// through the JSON encoding; the instrumentation visitor does not
	// read it.
	ObjSize int
}

// Sizeof is a compile-time-constant size query; always rewritten to an
// IntLit by a real frontend; kept as its own node here so the
// instrumentation visitor's "known-concrete, no Basic leaf" rule has an
// explicit case to recognize when it isn't.
type Sizeof struct {
	Of types.CType
}

// Call is a function call used as an expression (non-void callee).
type Call struct {
	Func string
	Args []Expr
	Typ  types.CType
}

// Index is array/pointer subscripting a[i]. ElemSize scales the index
// when the instrumenter builds the element address.
type Index struct {
	Base     Expr
	Idx      Expr
	ElemType types.CType
	ElemSize int
}

// Field is member access s.f on an aggregate-typed base. Offset is
// f's byte offset within Base, computed ahead of time by OffsetOf.
type Field struct {
	Base   Expr
	Name   string
	Offset int
	Typ    types.CType
}

func (IntLit) implExpr()       {}
func (Var) implExpr()          {}
func (Unary) implExpr()        {}
func (Binary) implExpr()       {}
func (PointerArith) implExpr() {}
func (Compare) implExpr()      {}
func (AddrOf) implExpr()       {}
func (Deref) implExpr()        {}
func (Sizeof) implExpr()       {}
func (Call) implExpr()         {}
func (Index) implExpr()        {}
func (Field) implExpr()        {}

func (n IntLit) Type() types.CType       { return n.Typ }
func (n Var) Type() types.CType          { return n.Typ }
func (n Unary) Type() types.CType        { return n.Typ }
func (n Binary) Type() types.CType       { return n.Typ }
func (n PointerArith) Type() types.CType { return n.Typ }
func (Compare) Type() types.CType        { return types.Bool }
func (n AddrOf) Type() types.CType       { return n.Typ }
func (n Deref) Type() types.CType        { return n.Typ }
func (Sizeof) Type() types.CType         { return types.U64 }
func (n Call) Type() types.CType         { return n.Typ }
func (n Index) Type() types.CType        { return n.ElemType }
func (n Field) Type() types.CType        { return n.Typ }

// IsAddressSymbolic reports whether lv's storage address can be taken
// directly (a fixed variable or a field projection off one) or must be
// computed step by step at instrumentation time (anything reached
// through a pointer dereference or a subscript).
func IsAddressSymbolic(lv Expr) bool {
	switch v := lv.(type) {
	case Var:
		return false
	case Field:
		return IsAddressSymbolic(v.Base)
	default:
		return true
	}
}

// StaticAddr returns lv's fixed storage address. Only meaningful when
// IsAddressSymbolic(lv) is false: a Var's own address, or a Field
// chain's base address plus its accumulated offsets.
func StaticAddr(lv Expr) types.Address {
	switch v := lv.(type) {
	case Var:
		return v.Addr
	case Field:
		return StaticAddr(v.Base) + types.Address(v.Offset)
	default:
		return types.NullAddr
	}
}

// Skip is the empty statement, used by normalization to fill an absent
// if-branch.
type Skip struct{}

// ExprStmt evaluates an expression (typically a void Call) for effect.
type ExprStmt struct {
	X Expr
}

// Assign stores RHS into the addressable location named by LHS.
type Assign struct {
	LHS Expr
	RHS Expr
}

// If is a two-armed conditional; normalization guarantees Then and Else
// are never nil by the time the instrumentation visitor sees one.
type If struct {
	Cond Expr
	Then Stmt
	Else Stmt
}

// Return returns from the enclosing function. Value is nil for a void
// return.
type Return struct {
	Value Expr
}

// Seq sequences two statements.
type Seq struct {
	First  Stmt
	Second Stmt
}

func (Skip) implStmt()     {}
func (ExprStmt) implStmt() {}
func (Assign) implStmt()   {}
func (If) implStmt()       {}
func (Return) implStmt()   {}
func (Seq) implStmt()      {}

// Sequence chains stmts left to right, dropping Skip nodes and
// collapsing an empty input to Skip{}.
func Sequence(stmts ...Stmt) Stmt {
	var out Stmt = Skip{}
	for _, s := range stmts {
		if _, isSkip := s.(Skip); isSkip {
			continue
		}
		if _, isSkip := out.(Skip); isSkip {
			out = s
			continue
		}
		out = Seq{First: out, Second: s}
	}
	return out
}

// Param is one function parameter. Addr is its fixed stack-frame
// address, known once a real frontend has assigned storage.
type Param struct {
	Name string
	Typ  types.CType
	Addr types.Address
}

// Function is a typed, parsed C function definition ready for
// instrumentation. Variadic functions take no per-parameter entry
// instrumentation (spec.md §4.6's function-entry rule): the trailing
// "..." arguments have no statically known types or addresses for
// Store to target.
type Function struct {
	Name       string
	Static     bool
	Variadic   bool
	Params     []Param
	ReturnType types.CType
	IsVoid     bool
	Body       Stmt
}

// Global is a file-scope variable declaration. Indexable marks globals
// reachable through pointer arithmetic or field access (arrays,
// aggregates, anything whose address can be offset) rather than a bare
// scalar — the pass driver registers the non-Static ones among these
// with the runtime via RegGlobal, per spec.md §4.7 step 10.
type Global struct {
	Name      string
	Typ       types.CType
	Addr      types.Address
	Size      int
	Static    bool
	Indexable bool
}

// OffsetOf returns field's byte offset within an Aggregate-typed
// object, given the aggregate's field layout (fields packed back to
// back, no padding). The instrumentation visitor does not call it; it
// reads the precomputed Field.Offset.
func OffsetOf(fields []Param, field string) (offset int, ok bool) {
	off := 0
	for _, f := range fields {
		if f.Name == field {
			return off, true
		}
		off += types.SizeOfType(f.Typ)
	}
	return 0, false
}
