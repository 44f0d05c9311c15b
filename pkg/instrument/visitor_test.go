package instrument

import (
	"path/filepath"
	"testing"

	"github.com/chennqqi/crestgo/pkg/abi"
	"github.com/chennqqi/crestgo/pkg/cast"
	"github.com/chennqqi/crestgo/pkg/cfgrec"
	"github.com/chennqqi/crestgo/pkg/counter"
	"github.com/chennqqi/crestgo/pkg/types"
)

func newVisitor(t *testing.T) *Visitor {
	t.Helper()
	dir := t.TempDir()
	ids, err := counter.OpenCursor(filepath.Join(dir, "idcount"))
	if err != nil {
		t.Fatalf("OpenCursor(idcount): %v", err)
	}
	stmts, err := counter.OpenCursor(filepath.Join(dir, "stmtcount"))
	if err != nil {
		t.Fatalf("OpenCursor(stmtcount): %v", err)
	}
	funcs, err := counter.OpenCursor(filepath.Join(dir, "funcount"))
	if err != nil {
		t.Fatalf("OpenCursor(funcount): %v", err)
	}
	return &Visitor{
		IDs: ids, Stmts: stmts, Funcs: funcs,
		Rec:  cfgrec.NewRecorder(0),
		Skip: make(map[string]bool),
	}
}

func which(calls []Call) []abi.Call {
	out := make([]abi.Call, len(calls))
	for i, c := range calls {
		out[i] = c.Which
	}
	return out
}

// S1 — constant arithmetic: int x = 3 + 4;
func TestScenarioS1ConstantArithmetic(t *testing.T) {
	v := newVisitor(t)
	assign := cast.Assign{
		LHS: cast.Var{Name: "x", Typ: types.I32, Addr: 0x2000},
		RHS: cast.Binary{Op: types.ADD, Typ: types.I32,
			L: cast.IntLit{Value: 3, Typ: types.I32},
			R: cast.IntLit{Value: 4, Typ: types.I32},
		},
	}
	calls := v.emitAssign(assign)
	got := which(calls)
	want := []abi.Call{abi.Load, abi.Load, abi.Apply2, abi.Store}
	if len(got) != len(want) {
		t.Fatalf("emitAssign emitted %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("call %d = %v, want %v", i, got[i], want[i])
		}
	}
	if calls[0].Value != 3 || calls[1].Value != 4 {
		t.Errorf("operand values = %d, %d; want 3, 4", calls[0].Value, calls[1].Value)
	}
	if calls[2].Op != byte(types.ADD) {
		t.Errorf("Apply2 op = %d, want ADD (%d)", calls[2].Op, types.ADD)
	}
	if calls[3].Addr != 0x2000 {
		t.Errorf("Store addr = %#x, want 0x2000 (&x)", calls[3].Addr)
	}

	// Instrumentation ids are assigned in emission order, starting at 0.
	for i, c := range calls {
		if c.ID != types.InstrumentationID(i) {
			t.Errorf("call %d has id %d, want %d", i, c.ID, i)
		}
	}
}

// S2 — symbolic branch: if (a < 10) { b = 1; } else { b = 2; }
func TestScenarioS2SymbolicBranch(t *testing.T) {
	v := newVisitor(t)
	a := cast.Var{Name: "a", Typ: types.I32, Addr: 0x1000}
	ifStmt := cast.If{
		Cond: cast.Compare{Op: types.LT, L: a, R: cast.IntLit{Value: 10, Typ: types.I32}},
		Then: cast.Assign{LHS: cast.Var{Name: "b", Typ: types.I32, Addr: 0x1004}, RHS: cast.IntLit{Value: 1, Typ: types.I32}},
		Else: cast.Assign{LHS: cast.Var{Name: "b", Typ: types.I32, Addr: 0x1004}, RHS: cast.IntLit{Value: 2, Typ: types.I32}},
	}

	calls, _ := v.stmt(ifStmt, types.ReturnID)
	got := which(calls)
	want := []abi.Call{
		abi.Load, abi.Load, abi.Apply2, // a < 10
		abi.Branch, abi.Load, abi.Store, // then arm
		abi.Branch, abi.Load, abi.Store, // else arm
	}
	if len(got) != len(want) {
		t.Fatalf("if-statement emitted %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("call %d = %v, want %v", i, got[i], want[i])
		}
	}
	if !calls[3].Taken {
		t.Error("then-arm Branch should have Taken=true")
	}
	if calls[6].Taken {
		t.Error("else-arm Branch should have Taken=false")
	}
	if calls[5].Addr != 0x1004 || calls[8].Addr != 0x1004 {
		t.Errorf("both arms' Store should target &b (0x1004), got %#x and %#x", calls[5].Addr, calls[8].Addr)
	}
}

// S5 — skip attribute: calls to a skip-annotated function emit neither
// argument instrumentation nor ClearStack.
func TestScenarioS5SkipAttribute(t *testing.T) {
	v := newVisitor(t)
	v.Skip["untraced"] = true

	call := cast.Call{Func: "untraced", Args: []cast.Expr{cast.IntLit{Value: 1, Typ: types.I32}}, Typ: types.I32}
	calls := v.emitCall(call, nil)
	if len(calls) != 0 {
		t.Fatalf("emitCall on a skip function emitted %d calls, want 0", len(calls))
	}
}

func TestCallWithResultStoresReturnValue(t *testing.T) {
	v := newVisitor(t)
	call := cast.Call{Func: "traced", Args: nil, Typ: types.I32}
	result := cast.Var{Name: "r", Typ: types.I32, Addr: 0x3000}
	calls := v.emitCall(call, result)
	got := which(calls)
	want := []abi.Call{abi.HandleReturn, abi.Store}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("call %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestVoidCallWithoutResultClearsStack(t *testing.T) {
	v := newVisitor(t)
	call := cast.Call{Func: "traced", Args: nil, Typ: types.Bool}
	calls := v.emitCall(call, nil)
	if len(calls) != 1 || calls[0].Which != abi.ClearStack {
		t.Fatalf("void call emitted %v, want [ClearStack]", which(calls))
	}
}

func TestPointerIndexComputesScaledAddress(t *testing.T) {
	v := newVisitor(t)
	p := cast.Var{Name: "p", Typ: types.U64, Addr: 0x4000}
	idx := cast.Index{Base: p, Idx: cast.Var{Name: "i", Typ: types.I32, Addr: 0x4008}, ElemType: types.I32, ElemSize: 4}

	calls := v.addr(idx)
	got := which(calls)
	want := []abi.Call{abi.Load, abi.Load, abi.PtrApply2}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("call %d = %v, want %v", i, got[i], want[i])
		}
	}
	if calls[2].Size != 4 {
		t.Errorf("PtrApply2 size = %d, want 4 (sizeof int)", calls[2].Size)
	}
}

func TestFieldAccessEmitsOffsetAndPtrApply2(t *testing.T) {
	v := newVisitor(t)
	s := cast.Var{Name: "s", Typ: types.Aggregate, Addr: 0x5000}
	field := cast.Field{Base: s, Name: "g", Offset: 4, Typ: types.I32}

	calls := v.addr(field)
	got := which(calls)
	want := []abi.Call{abi.Load, abi.Load, abi.PtrApply2}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("call %d = %v, want %v", i, got[i], want[i])
		}
	}
	if calls[1].Value != 4 {
		t.Errorf("offsetof(g) = %d, want 4", calls[1].Value)
	}
	if calls[2].Size != 1 {
		t.Errorf("field PtrApply2 size = %d, want 1", calls[2].Size)
	}
}

func TestFunctionEntryRecordsNonStaticFuncMap(t *testing.T) {
	v := newVisitor(t)
	fn := cast.Function{
		Name:   "main",
		Static: false,
		Body:   cast.Return{Value: nil},
	}
	_, firstSID := v.Function(fn)
	if firstSID == 0 && v.Stmts.Value() == 0 {
		t.Fatal("expected at least one statement id to be allocated")
	}
}

// Function entry stores each symbolic-typed parameter's value in
// reverse-declaration order, with no preceding Load (the caller already
// pushed these values; the entry just persists them to their frame
// addresses).
func TestFunctionEntryStoresParamsInReverseOrder(t *testing.T) {
	v := newVisitor(t)
	fn := cast.Function{
		Name: "add",
		Params: []cast.Param{
			{Name: "a", Typ: types.I32, Addr: 0x100},
			{Name: "b", Typ: types.I32, Addr: 0x104},
		},
		Body: cast.Return{Value: nil},
	}
	calls, _ := v.Function(fn)

	if calls[0].Which != abi.CallCall {
		t.Fatalf("first call = %v, want CallCall", calls[0].Which)
	}
	if calls[1].Which != abi.Store || calls[1].Addr != 0x104 {
		t.Errorf("second call = %+v, want Store for &b (0x104)", calls[1])
	}
	if calls[2].Which != abi.Store || calls[2].Addr != 0x100 {
		t.Errorf("third call = %+v, want Store for &a (0x100)", calls[2])
	}
}

// A variadic function's fixed parameters get no entry instrumentation:
// their frame layout alongside the "..." tail isn't assumed reliable.
func TestVariadicFunctionSkipsParamEntry(t *testing.T) {
	v := newVisitor(t)
	fn := cast.Function{
		Name:     "logf",
		Variadic: true,
		Params:   []cast.Param{{Name: "fmt", Typ: types.U64, Addr: 0x200}},
		Body:     cast.Return{Value: nil},
	}
	calls, _ := v.Function(fn)
	for _, c := range calls {
		if c.Which == abi.Store {
			t.Errorf("variadic function entry emitted a Store: %+v", c)
		}
	}
}

func TestSkipFunctionEmitsNothing(t *testing.T) {
	v := newVisitor(t)
	v.Skip["hidden"] = true
	fn := cast.Function{Name: "hidden", Body: cast.Return{Value: nil}}
	calls, sid := v.Function(fn)
	if calls != nil || sid != 0 {
		t.Fatalf("skip function produced calls=%v sid=%d, want nil/0", calls, sid)
	}
}
