// Package instrument is the stack-machine compiler: it walks a
// normalized, typed C function body and emits the exact sequence of
// runtime calls that reproduce its evaluation on the runtime's symbolic
// operand stack, in C sequence-point order.
package instrument

import (
	"fmt"

	"github.com/chennqqi/crestgo/pkg/abi"
	"github.com/chennqqi/crestgo/pkg/cast"
	"github.com/chennqqi/crestgo/pkg/cfgrec"
	"github.com/chennqqi/crestgo/pkg/counter"
	"github.com/chennqqi/crestgo/pkg/types"
)

// ptrType is the C type code pointer-valued addresses are instrumented
// as, per spec.md §4.6: "Pointer types map to unsigned long."
const ptrType = types.U64

// Visitor holds the ID cursors and CFG recorder a single pass
// invocation threads through every function it instruments. One
// Visitor is good for one translation unit.
type Visitor struct {
	IDs   *counter.Cursor
	Stmts *counter.Cursor
	Funcs *counter.Cursor
	Rec   *cfgrec.Recorder

	// Skip names the functions annotated with the "skip" attribute:
	// neither their own entry/return nor calls made to them from
	// instrumented code receive instrumentation.
	Skip map[string]bool

	// Skipped counts calls bypassed because their callee is in Skip, for
	// the instrument subcommand's -v summary.
	Skipped int
}

func (v *Visitor) next() types.InstrumentationID {
	return types.InstrumentationID(v.IDs.Next())
}

func (v *Visitor) allocStmt() types.StatementID {
	return types.StatementID(v.Stmts.Next())
}

func (v *Visitor) call(which abi.Call) Call {
	return Call{ID: v.next(), Which: which}
}

func (v *Visitor) load(addr types.Address, ctype types.CType, value int64) Call {
	c := v.call(abi.Load)
	c.Addr, c.CType, c.Value = addr, ctype, value
	if ctype == types.Aggregate {
		c.Which = abi.LoadAggr
	}
	return c
}

func (v *Visitor) deref(ctype types.CType, size int) Call {
	c := v.call(abi.DerefCall)
	c.CType, c.Size = ctype, size
	return c
}

func (v *Visitor) apply1(op byte, ctype types.CType) Call {
	c := v.call(abi.Apply1)
	c.Op, c.CType = op, ctype
	return c
}

func (v *Visitor) apply2(op byte, ctype types.CType) Call {
	c := v.call(abi.Apply2)
	c.Op, c.CType = op, ctype
	return c
}

func (v *Visitor) ptrApply2(op byte, elemSize int) Call {
	c := v.call(abi.PtrApply2)
	c.Op, c.Size = op, elemSize
	return c
}

func (v *Visitor) store(addr types.Address) Call {
	c := v.call(abi.Store)
	c.Addr = addr
	return c
}

func (v *Visitor) write() Call { return v.call(abi.Write) }
func (v *Visitor) clear() Call { return v.call(abi.ClearStack) }
func (v *Visitor) ret() Call   { return v.call(abi.Return) }

func (v *Visitor) branch(target types.StatementID, taken bool) Call {
	c := v.call(abi.Branch)
	c.BranchID, c.Taken = types.BranchID(target), taken
	return c
}

func (v *Visitor) callEntry(fid types.FunctionID) Call {
	c := v.call(abi.CallCall)
	c.FuncID = fid
	return c
}

func (v *Visitor) handleReturn(ctype types.CType) Call {
	c := v.call(abi.HandleReturn)
	c.CType, c.HasResult = ctype, true
	return c
}

// Function instruments fn's body and returns the full call stream plus
// the statement id of its first instrumented statement (recorded in
// cfg_func_map for non-static functions per spec.md §4.4).
func (v *Visitor) Function(fn cast.Function) ([]Call, types.StatementID) {
	if v.Skip[fn.Name] {
		return nil, 0
	}

	fid := types.FunctionID(v.Funcs.Next())
	body, firstSID := v.stmt(fn.Body, types.ReturnID)

	entry := []Call{v.callEntry(fid)}
	if !fn.Variadic {
		for i := len(fn.Params) - 1; i >= 0; i-- {
			p := fn.Params[i]
			if !types.IsSymbolic(p.Typ) {
				continue
			}
			entry = append(entry, v.store(p.Addr))
		}
	}
	all := append(entry, body...)

	if !fn.Static {
		v.Rec.AddFunc(fn.Name, firstSID)
	}
	return all, firstSID
}

// stmt instruments one statement, given the statement id control falls
// through to when s completes normally (types.ReturnID/types.CallID are
// valid "falls through to" values representing the enclosing function's
// implicit return or an enclosing call's continuation).
func (v *Visitor) stmt(s cast.Stmt, cont types.BranchID) ([]Call, types.StatementID) {
	switch n := s.(type) {
	case cast.Skip:
		sid := v.allocStmt()
		v.Rec.AddStatement(sid, []types.BranchID{cont})
		return nil, sid

	case cast.Assign:
		sid := v.allocStmt()
		v.Rec.AddStatement(sid, []types.BranchID{cont})
		return v.emitAssign(n), sid

	case cast.ExprStmt:
		sid := v.allocStmt()
		calls, isCall := v.emitExprStmt(n)
		succs := []types.BranchID{cont}
		if isCall {
			succs = append(succs, types.CallID)
		}
		v.Rec.AddStatement(sid, succs)
		return calls, sid

	case cast.Return:
		sid := v.allocStmt()
		v.Rec.AddStatement(sid, []types.BranchID{types.ReturnID})
		return v.emitReturn(n), sid

	case cast.If:
		return v.ifStmt(n, cont)

	case cast.Seq:
		secondCalls, secondSID := v.stmt(n.Second, cont)
		firstCalls, firstSID := v.stmt(n.First, types.BranchID(secondSID))
		return append(firstCalls, secondCalls...), firstSID

	default:
		panic(fmt.Sprintf("instrument: unknown statement node %T", s))
	}
}

func (v *Visitor) ifStmt(n cast.If, cont types.BranchID) ([]Call, types.StatementID) {
	condCalls := v.expr(n.Cond)
	sid := v.allocStmt()

	thenCalls, thenSID := v.stmt(n.Then, cont)
	elseCalls, elseSID := v.stmt(n.Else, cont)

	v.Rec.AddBranch(thenSID, elseSID)
	v.Rec.AddStatement(sid, []types.BranchID{types.BranchID(thenSID), types.BranchID(elseSID)})

	thenCalls = append([]Call{v.branch(thenSID, true)}, thenCalls...)
	elseCalls = append([]Call{v.branch(elseSID, false)}, elseCalls...)

	all := append(condCalls, thenCalls...)
	all = append(all, elseCalls...)
	return all, sid
}

func (v *Visitor) emitAssign(n cast.Assign) []Call {
	if !cast.IsAddressSymbolic(n.LHS) {
		calls := v.expr(n.RHS)
		calls = append(calls, v.store(cast.StaticAddr(n.LHS)))
		return calls
	}
	calls := v.addr(n.LHS)
	calls = append(calls, v.expr(n.RHS)...)
	calls = append(calls, v.write())
	return calls
}

func (v *Visitor) emitReturn(n cast.Return) []Call {
	var calls []Call
	if n.Value != nil {
		calls = v.expr(n.Value)
	}
	return append(calls, v.ret())
}

// emitExprStmt instruments an expression used for its side effect. It
// reports whether the expression was a (possibly result-discarding)
// call, so stmt can record the extra cfg successor spec.md §4.4 wants
// for statements containing a call.
func (v *Visitor) emitExprStmt(n cast.ExprStmt) ([]Call, bool) {
	if call, ok := n.X.(cast.Call); ok {
		return v.emitCall(call, nil), true
	}
	return v.expr(n.X), false
}

// emitCall instruments a call. result is the lvalue receiving the
// return value, or nil for a discarded/void result.
func (v *Visitor) emitCall(call cast.Call, result cast.Expr) []Call {
	if v.Skip[call.Func] {
		v.Skipped++
		return nil
	}
	var calls []Call
	for _, arg := range call.Args {
		calls = append(calls, v.expr(arg)...)
	}
	if result != nil {
		calls = append(calls, v.handleReturn(call.Typ))
		if !cast.IsAddressSymbolic(result) {
			calls = append(calls, v.store(cast.StaticAddr(result)))
		} else {
			calls = append(calls, v.addr(result)...)
			calls = append(calls, v.write())
		}
		return calls
	}
	return append(calls, v.clear())
}

// expr instruments a C expression per spec.md §4.6's emission table.
func (v *Visitor) expr(e cast.Expr) []Call {
	switch n := e.(type) {
	case cast.IntLit:
		return []Call{v.load(types.NullAddr, n.Typ, n.Value)}

	case cast.Sizeof:
		return []Call{v.load(types.NullAddr, types.U64, int64(types.SizeOfType(n.Of)))}

	case cast.Var, cast.Field, cast.Index, cast.Deref:
		return v.readLvalue(e)

	case cast.Unary:
		calls := v.expr(n.X)
		if n.Op == types.SIGNED_CAST || n.Op == types.UNSIGNED_CAST {
			return append(calls, v.apply1(types.CastOpCode, n.Typ))
		}
		return append(calls, v.apply1(byte(n.Op), n.Typ))

	case cast.Binary:
		calls := v.expr(n.L)
		calls = append(calls, v.expr(n.R)...)
		return append(calls, v.apply2(byte(n.Op), n.Typ))

	case cast.Compare:
		calls := v.expr(n.L)
		calls = append(calls, v.expr(n.R)...)
		return append(calls, v.apply2(byte(n.Op), types.Bool))

	case cast.PointerArith:
		calls := v.expr(n.L)
		calls = append(calls, v.expr(n.R)...)
		return append(calls, v.ptrApply2(byte(n.Op), n.ElemSize))

	case cast.AddrOf:
		return v.addr(n.X)

	case cast.Call:
		return v.emitCall(n, nil)

	default:
		panic(fmt.Sprintf("instrument: unknown expression node %T", e))
	}
}

// readLvalue instruments a read of an addressable expression.
func (v *Visitor) readLvalue(lv cast.Expr) []Call {
	if !cast.IsAddressSymbolic(lv) {
		return []Call{v.load(cast.StaticAddr(lv), lv.Type(), 0)}
	}
	calls := v.addr(lv)
	return append(calls, v.deref(lv.Type(), types.SizeOfType(lv.Type())))
}

// addr computes the address of lv, peeling the outermost offset per
// spec.md §4.6's compute-address rules.
func (v *Visitor) addr(lv cast.Expr) []Call {
	switch n := lv.(type) {
	case cast.Var:
		return []Call{v.load(types.NullAddr, ptrType, int64(n.Addr))}

	case cast.Deref:
		return v.expr(n.Ptr)

	case cast.Index:
		calls := v.addr(n.Base)
		calls = append(calls, v.expr(n.Idx)...)
		return append(calls, v.ptrApply2(byte(types.ADD_PI), n.ElemSize))

	case cast.Field:
		calls := v.addr(n.Base)
		calls = append(calls, v.load(types.NullAddr, types.U64, int64(n.Offset)))
		return append(calls, v.ptrApply2(byte(types.ADD_PI), 1))

	default:
		panic(fmt.Sprintf("instrument: unknown addressable node %T", lv))
	}
}
