package symexpr

// Equal reports whether a and b are structurally identical: same
// variant, same operator, same operands recursively, same concrete
// witnesses. Two Deref nodes compare their byte snapshots too, since a
// Deref's shape alone does not determine what it read.
func Equal(a, b Expr) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch av := a.(type) {
	case Concrete:
		bv, ok := b.(Concrete)
		return ok && av.size == bv.size && av.value == bv.value
	case Basic:
		bv, ok := b.(Basic)
		return ok && av.size == bv.size && av.value == bv.value && av.Variable == bv.Variable
	case Unary:
		bv, ok := b.(Unary)
		return ok && av.size == bv.size && av.value == bv.value && av.Op == bv.Op && Equal(av.Child, bv.Child)
	case Binary:
		bv, ok := b.(Binary)
		return ok && av.size == bv.size && av.value == bv.value && av.Op == bv.Op &&
			Equal(av.Left, bv.Left) && Equal(av.Right, bv.Right)
	case Compare:
		bv, ok := b.(Compare)
		return ok && av.value == bv.value && av.Op == bv.Op && Equal(av.Left, bv.Left) && Equal(av.Right, bv.Right)
	case Deref:
		bv, ok := b.(Deref)
		if !ok || av.size != bv.size || av.value != bv.value || av.Object != bv.Object || !Equal(av.Address, bv.Address) {
			return false
		}
		if len(av.Bytes) != len(bv.Bytes) {
			return false
		}
		for i := range av.Bytes {
			if av.Bytes[i] != bv.Bytes[i] {
				return false
			}
		}
		return true
	default:
		return false
	}
}
