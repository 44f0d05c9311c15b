package symexpr

import (
	"fmt"

	"github.com/aclements/go-z3/z3"

	"github.com/chennqqi/crestgo/pkg/types"
)

// BitBlaster lowers an Expr tree to a z3 bit-vector formula. Basic
// leaves become named BV constants so the caller can hand the resulting
// formula straight to an external constraint solver, keyed by variable
// name "var<N>"; this package only builds the formula, it never calls
// Solve itself (decision procedures are out of scope here).
type BitBlaster struct {
	ctx  *z3.Context
	vars map[types.VariableID]z3.BV
}

// NewBitBlaster creates a blaster over ctx. Reuse one BitBlaster across
// an entire branch condition's ancestry so repeated references to the
// same VariableID lower to the same named constant.
func NewBitBlaster(ctx *z3.Context) *BitBlaster {
	return &BitBlaster{ctx: ctx, vars: make(map[types.VariableID]z3.BV)}
}

// BitBlast lowers e to a z3.BV of width 8*e.Size() bits.
func (bb *BitBlaster) BitBlast(e Expr) (z3.BV, error) {
	switch v := e.(type) {
	case Concrete:
		return bb.bvConst(int64(v.value), v.size), nil
	case Basic:
		return bb.varBV(v.Variable, v.size), nil
	case Unary:
		return bb.blastUnary(v)
	case Binary:
		return bb.blastBinary(v)
	case Compare:
		return bb.blastCompare(v)
	case Deref:
		// No memory model here: a Deref lowers to its concrete witness,
		// the best a solver can do without the subject's address space.
		return bb.bvConst(int64(v.value), v.size), nil
	default:
		return z3.BV{}, fmt.Errorf("symexpr: cannot bit-blast %T", e)
	}
}

func (bb *BitBlaster) bvConst(value int64, size int) z3.BV {
	sort := bb.ctx.BVSort(size * 8)
	return bb.ctx.FromInt(value, sort).(z3.BV)
}

func (bb *BitBlaster) varBV(id types.VariableID, size int) z3.BV {
	if v, ok := bb.vars[id]; ok {
		return v
	}
	v := bb.ctx.BVConst(fmt.Sprintf("var%d", id), size*8)
	bb.vars[id] = v
	return v
}

func (bb *BitBlaster) blastUnary(u Unary) (z3.BV, error) {
	child, err := bb.BitBlast(u.Child)
	if err != nil {
		return z3.BV{}, err
	}
	switch u.Op {
	case types.NEGATE:
		return child.Neg().(z3.BV), nil
	case types.BITWISE_NOT:
		return child.Not().(z3.BV), nil
	case types.LOGICAL_NOT:
		zero := bb.bvConst(0, u.Child.Size())
		isZero := child.Eq(zero).(z3.Bool)
		return bb.boolToBV(isZero, u.size), nil
	case types.UNSIGNED_CAST:
		return bb.resize(child, u.Child.Size(), u.size, false), nil
	case types.SIGNED_CAST:
		return bb.resize(child, u.Child.Size(), u.size, true), nil
	default:
		return z3.BV{}, fmt.Errorf("symexpr: unknown unary op %v", u.Op)
	}
}

// resize zero- or sign-extends / truncates a bit-vector from fromBytes
// to toBytes, mirroring the CAST emission rule's width-change semantics.
func (bb *BitBlaster) resize(v z3.BV, fromBytes, toBytes int, signed bool) z3.BV {
	fromBits, toBits := fromBytes*8, toBytes*8
	switch {
	case toBits == fromBits:
		return v
	case toBits > fromBits:
		if signed {
			return v.SignExtend(toBits - fromBits).(z3.BV)
		}
		return v.ZeroExtend(toBits - fromBits).(z3.BV)
	default:
		return v.Extract(toBits-1, 0).(z3.BV)
	}
}

func (bb *BitBlaster) boolToBV(b z3.Bool, size int) z3.BV {
	one := bb.bvConst(1, size)
	zero := bb.bvConst(0, size)
	return b.IfThenElse(one, zero).(z3.BV)
}

func (bb *BitBlaster) blastBinary(b Binary) (z3.BV, error) {
	switch b.Op {
	case types.CONCAT:
		lo, err := bb.BitBlast(b.Left)
		if err != nil {
			return z3.BV{}, err
		}
		hi, err := bb.BitBlast(b.Right)
		if err != nil {
			return z3.BV{}, err
		}
		// z3's Concat places l in the high bits of the result; this
		// package's CONCAT places lo in the low bits, so the operands
		// swap here.
		return hi.Concat(lo).(z3.BV), nil
	case types.EXTRACT:
		inner, err := bb.BitBlast(b.Left)
		if err != nil {
			return z3.BV{}, err
		}
		off, n := ExtractOffset(b), ExtractWidth(b)
		return inner.Extract(off*8+n*8-1, off*8).(z3.BV), nil
	case types.CONCRETE:
		return bb.bvConst(int64(b.value), b.size), nil
	}

	l, err := bb.BitBlast(b.Left)
	if err != nil {
		return z3.BV{}, err
	}
	r, err := bb.BitBlast(b.Right)
	if err != nil {
		return z3.BV{}, err
	}
	switch b.Op {
	case types.ADD:
		return l.Add(r).(z3.BV), nil
	case types.SUB:
		return l.Sub(r).(z3.BV), nil
	case types.MUL:
		return l.Mul(r).(z3.BV), nil
	case types.DIV:
		return l.UDiv(r).(z3.BV), nil
	case types.S_DIV:
		return l.SDiv(r).(z3.BV), nil
	case types.MOD:
		return l.URem(r).(z3.BV), nil
	case types.S_MOD:
		return l.SRem(r).(z3.BV), nil
	case types.SHL:
		return l.Lsh(r).(z3.BV), nil
	case types.SHR:
		return l.URsh(r).(z3.BV), nil
	case types.S_SHR:
		return l.SRsh(r).(z3.BV), nil
	case types.BIT_AND:
		return l.And(r).(z3.BV), nil
	case types.BIT_OR:
		return l.Or(r).(z3.BV), nil
	case types.BIT_XOR:
		return l.Xor(r).(z3.BV), nil
	default:
		return z3.BV{}, fmt.Errorf("symexpr: unknown binary op %v", b.Op)
	}
}

func (bb *BitBlaster) blastCompare(c Compare) (z3.BV, error) {
	l, err := bb.BitBlast(c.Left)
	if err != nil {
		return z3.BV{}, err
	}
	r, err := bb.BitBlast(c.Right)
	if err != nil {
		return z3.BV{}, err
	}
	var pred z3.Bool
	switch c.Op {
	case types.EQ:
		pred = l.Eq(r).(z3.Bool)
	case types.NEQ:
		pred = l.Eq(r).(z3.Bool).Not().(z3.Bool)
	case types.GT:
		pred = l.UGT(r).(z3.Bool)
	case types.LE:
		pred = l.ULE(r).(z3.Bool)
	case types.LT:
		pred = l.ULT(r).(z3.Bool)
	case types.GE:
		pred = l.UGE(r).(z3.Bool)
	case types.SGT:
		pred = l.SGT(r).(z3.Bool)
	case types.SLE:
		pred = l.SLE(r).(z3.Bool)
	case types.SLT:
		pred = l.SLT(r).(z3.Bool)
	case types.SGE:
		pred = l.SGE(r).(z3.Bool)
	default:
		return z3.BV{}, fmt.Errorf("symexpr: unknown compare op %v", c.Op)
	}
	return bb.boolToBV(pred, 1), nil
}
