package instrument

import (
	"testing"

	"github.com/chennqqi/crestgo/pkg/cast"
	"github.com/chennqqi/crestgo/pkg/types"
)

func TestTallyCountsLoadsAndStores(t *testing.T) {
	v := newVisitor(t)
	assign := cast.Assign{
		LHS: cast.Var{Name: "x", Typ: types.I32, Addr: 0x2000},
		RHS: cast.Binary{Op: types.ADD, Typ: types.I32,
			L: cast.IntLit{Value: 3, Typ: types.I32},
			R: cast.IntLit{Value: 4, Typ: types.I32},
		},
	}
	calls := v.emitAssign(assign)

	var s Stats
	s.Tally(calls)
	if s.Loads != 2 {
		t.Errorf("Loads = %d, want 2", s.Loads)
	}
	if s.Stores != 1 {
		t.Errorf("Stores = %d, want 1", s.Stores)
	}
}

func TestVisitorCountsSkippedCalls(t *testing.T) {
	v := newVisitor(t)
	v.Skip["untraced"] = true
	call := cast.Call{Func: "untraced", Args: []cast.Expr{cast.IntLit{Value: 1, Typ: types.I32}}, Typ: types.I32}
	v.emitCall(call, nil)
	if v.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", v.Skipped)
	}
}
