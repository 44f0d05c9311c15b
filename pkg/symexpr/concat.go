package symexpr

import "github.com/chennqqi/crestgo/pkg/types"

// Concat builds the CONCAT node for two adjacent memory values, lo
// supplying the low-order bytes of the combined value and hi the
// high-order bytes. Size and value are derived from the operands, not
// supplied by the caller: CONCAT's witness is always computable from
// its children's. Byte order is the caller's concern: the caller
// passes lo/hi in the order the target's endianness dictates, so this
// package stays endian-agnostic.
func Concat(lo, hi Expr) Binary {
	size := lo.Size() + hi.Size()
	loBits := uint(lo.Size()) * 8
	loMask := int64(1)<<loBits - 1
	value := (int64(hi.Value()) << loBits) | (int64(lo.Value()) & loMask)
	return Binary{size: size, value: truncate(types.Value(value), size), Op: types.CONCAT, Left: lo, Right: hi}
}

// Extract builds the EXTRACT node selecting n bytes starting at byte
// offset i, 0-based from the least-significant byte of e's value. The
// offset and width are packed into Extract's Right operand via Concat
// so the node stays a plain (Op, Left, Right) Binary like every other
// operator; ExtractOffset/ExtractWidth unpack them.
func Extract(e Expr, i, n int) Binary {
	shift := uint(i) * 8
	mask := int64(1)<<(uint(n)*8) - 1
	value := (int64(e.Value()) >> shift) & mask
	off := NewConcrete(1, types.Value(i))
	width := NewConcrete(1, types.Value(n))
	packed := Concat(off, width)
	return Binary{size: n, value: types.Value(value), Op: types.EXTRACT, Left: e, Right: packed}
}

// ExtractOffset recovers the byte offset encoded by Extract's packed
// Right operand.
func ExtractOffset(e Binary) int {
	return int(e.Right.Value()) & 0xFF
}

// ExtractWidth recovers the byte width encoded by Extract's packed
// Right operand.
func ExtractWidth(e Binary) int {
	return int(e.Right.Value()>>8) & 0xFF
}
