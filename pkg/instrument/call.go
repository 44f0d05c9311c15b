package instrument

import (
	"github.com/chennqqi/crestgo/pkg/abi"
	"github.com/chennqqi/crestgo/pkg/types"
)

// Call is one emitted runtime call, fully resolved: which shim function,
// and the subset of its argument roles that apply. Not every field is
// meaningful for every Which — e.g. Op is only set for Apply1/Apply2/
// PtrApply2 — callers read only the fields abi.Catalog[Which].Args lists.
type Call struct {
	ID        types.InstrumentationID
	Which     abi.Call
	Addr      types.Address
	CType     types.CType
	Size      int
	Value     int64
	Op        byte
	BranchID  types.BranchID
	Taken     bool
	FuncID    types.FunctionID
	HasResult bool
}

// Symbol returns the runtime ABI symbol this call lowers to.
func (c Call) Symbol() string {
	return abi.Symbol(c.Which)
}
