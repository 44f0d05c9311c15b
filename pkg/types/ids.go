// Package types holds the fixed-width identifier, value, and C-type
// tables shared by the instrumentation pass and the symbolic expression
// algebra — the common vocabulary both halves of the system speak.
package types

// InstrumentationID identifies one emitted runtime call. Monotonically
// increasing across every translation unit instrumented in a build.
type InstrumentationID uint64

// StatementID identifies one simplified-CFG statement. Monotonically
// increasing across TUs; seeded from the persisted "stmtcount" counter.
type StatementID uint64

// FunctionID identifies one instrumented function definition.
type FunctionID uint64

// VariableID identifies a symbolic input variable.
type VariableID uint32

// BranchID is the StatementID of the successor block a branch selects,
// with two sentinels reserved for non-branch control events.
type BranchID int64

const (
	// CallID marks a call-instruction control event in the cfg file.
	CallID BranchID = -1
	// ReturnID marks a return-instruction control event in the cfg file.
	ReturnID BranchID = -2
)

// Value is a machine value truncated to Size bytes, interpreted as
// signed or unsigned according to the carrying node's type.
type Value int64

// Address is an unsigned machine-word address. Zero is NULL_ADDR.
type Address uint64

// NullAddr is the sentinel address used for non-addressable constants.
const NullAddr Address = 0
