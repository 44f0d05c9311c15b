// Package symexpr implements the symbolic expression algebra: an
// immutable tree of bit-vector computations carrying a concrete witness
// value alongside its symbolic shape (spec.md §3-4.1). It is consumed at
// runtime by the instrumented subject program's shims, not by the
// instrumentation pass itself; the pass only shares the operator and
// type tables in pkg/types.
package symexpr

import "github.com/chennqqi/crestgo/pkg/types"

// Expr is the closed sum type of symbolic expression nodes. Every
// variant carries (size, value); the interface + private marker method
// is the idiom this module uses throughout for fixed, small sum types
// (mirrors the AddressingMode/Condition pattern used for closed IR sum
// types in the retrieved CompCert-style front ends).
type Expr interface {
	implExpr()

	// Size is the node's width in bytes.
	Size() int
	// Value is the concrete witness, truncated to Size bytes. It must
	// equal the tree evaluated with every Basic leaf bound to its own
	// witness (spec.md §3 invariant, §8 property 2).
	Value() types.Value
	// IsConcrete reports whether this node (not its descendants) has no
	// symbolic content. Only Concrete nodes return true.
	IsConcrete() bool
	// AppendVars inserts every VariableID reachable through a Basic
	// leaf beneath this node into vars.
	AppendVars(vars map[types.VariableID]struct{})
}

// Concrete is a concrete bit-vector: a leaf with no symbolic content.
type Concrete struct {
	size  int
	value types.Value
}

// Basic is a leaf referencing a symbolic input variable.
type Basic struct {
	size     int
	value    types.Value
	Variable types.VariableID
}

// Unary applies a unary operator to a single child.
type Unary struct {
	size  int
	value types.Value
	Op    types.UnaryOp
	Child Expr
}

// Binary applies a binary operator to two children. For every op except
// CONCAT and EXTRACT, Size() equals the (shared) operand size; CONCAT's
// size is the sum of its operands' sizes, and EXTRACT's size is whatever
// explicit width was requested when the node was built.
type Binary struct {
	size  int
	value types.Value
	Op    types.BinaryOp
	Left  Expr
	Right Expr
}

// Compare applies a comparison operator to two children. Compare nodes
// always have Size() == 1.
type Compare struct {
	value types.Value
	Op    types.CompareOp
	Left  Expr
	Right Expr
}

// Deref records "read Object.Size bytes at a possibly-symbolic address,
// observed value Value, snapshot bytes Bytes" — the only node kind that
// can represent a symbolic-address memory read (spec.md §3 Deref).
type Deref struct {
	size    int
	value   types.Value
	Object  ObjectDescriptor
	Address Expr
	Bytes   []byte
}

// ObjectDescriptor is the subset of object.Descriptor the expression
// package needs in memory; pkg/object is the authority on the wire
// format, and Write/Read convert between the two when serializing a
// Deref node.
type ObjectDescriptor struct {
	StartAddress types.Address
	Size         int
	ElementType  types.CType
}

func (Concrete) implExpr() {}
func (Basic) implExpr()    {}
func (Unary) implExpr()    {}
func (Binary) implExpr()   {}
func (Compare) implExpr()  {}
func (Deref) implExpr()    {}

func (c Concrete) Size() int          { return c.size }
func (c Concrete) Value() types.Value { return c.value }
func (c Concrete) IsConcrete() bool   { return true }
func (c Concrete) AppendVars(map[types.VariableID]struct{}) {}

func (b Basic) Size() int          { return b.size }
func (b Basic) Value() types.Value { return b.value }
func (b Basic) IsConcrete() bool   { return false }
func (b Basic) AppendVars(vars map[types.VariableID]struct{}) {
	vars[b.Variable] = struct{}{}
}

func (u Unary) Size() int          { return u.size }
func (u Unary) Value() types.Value { return u.value }
func (u Unary) IsConcrete() bool   { return false }
func (u Unary) AppendVars(vars map[types.VariableID]struct{}) {
	u.Child.AppendVars(vars)
}

func (b Binary) Size() int          { return b.size }
func (b Binary) Value() types.Value { return b.value }
func (b Binary) IsConcrete() bool   { return false }
func (b Binary) AppendVars(vars map[types.VariableID]struct{}) {
	b.Left.AppendVars(vars)
	b.Right.AppendVars(vars)
}

func (c Compare) Size() int          { return 1 }
func (c Compare) Value() types.Value { return c.value }
func (c Compare) IsConcrete() bool   { return false }
func (c Compare) AppendVars(vars map[types.VariableID]struct{}) {
	c.Left.AppendVars(vars)
	c.Right.AppendVars(vars)
}

func (d Deref) Size() int          { return d.size }
func (d Deref) Value() types.Value { return d.value }
func (d Deref) IsConcrete() bool   { return false }
func (d Deref) AppendVars(vars map[types.VariableID]struct{}) {
	d.Address.AppendVars(vars)
}

// NewConcrete builds a concrete bit-vector node. Factories never
// re-evaluate: the caller (the runtime shim) has already computed value
// during the actual program run; the algebra only records the shape.
func NewConcrete(size int, value types.Value) Concrete {
	return Concrete{size: size, value: truncate(value, size)}
}

// NewBasic builds a leaf referencing a symbolic input variable.
func NewBasic(size int, value types.Value, v types.VariableID) Basic {
	return Basic{size: size, value: truncate(value, size), Variable: v}
}

// NewUnary builds a unary node. size/value are the result's; they are
// not derived from child.
func NewUnary(size int, value types.Value, op types.UnaryOp, child Expr) Unary {
	return Unary{size: size, value: truncate(value, size), Op: op, Child: child}
}

// NewBinary builds a binary node for any op except CONCAT/EXTRACT, whose
// size is implied by their operands (use Concat/Extract instead).
func NewBinary(size int, value types.Value, op types.BinaryOp, l, r Expr) Binary {
	return Binary{size: size, value: truncate(value, size), Op: op, Left: l, Right: r}
}

// NewCompare builds a comparison node; size is always 1.
func NewCompare(value types.Value, op types.CompareOp, l, r Expr) Compare {
	return Compare{value: truncate(value, 1), Op: op, Left: l, Right: r}
}

// NewDeref builds a Deref node. bytes must have exactly obj.Size
// elements; callers (the instrumentation runtime shim) own that
// invariant.
func NewDeref(size int, value types.Value, obj ObjectDescriptor, addr Expr, bytes []byte) Deref {
	return Deref{size: size, value: truncate(value, size), Object: obj, Address: addr, Bytes: bytes}
}

// truncate masks value down to the low 8*size bits, matching the
// "value is the concrete witness ... truncated to size bytes" invariant.
func truncate(v types.Value, size int) types.Value {
	if size <= 0 || size >= 8 {
		return v
	}
	mask := int64(1)<<(uint(size)*8) - 1
	return types.Value(int64(v) & mask)
}
