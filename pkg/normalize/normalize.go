// Package normalize prepares a parsed function body for instrumentation:
// every If gets non-empty arms, and every branch condition is rewritten
// into an explicit comparison so the instrumentation visitor never has
// to special-case a bare boolean-valued expression.
package normalize

import (
	"github.com/chennqqi/crestgo/pkg/cast"
	"github.com/chennqqi/crestgo/pkg/types"
)

// Function returns a copy of fn whose Body is rewritten (the input is
// never mutated) so that every If has non-empty Then/Else arms and
// every If's Cond is a cast.Compare.
func Function(fn cast.Function) cast.Function {
	fn.Body = stmt(fn.Body)
	return fn
}

func stmt(s cast.Stmt) cast.Stmt {
	switch v := s.(type) {
	case cast.If:
		then := ensureNonEmpty(stmt(v.Then))
		els := ensureNonEmpty(stmt(v.Else))
		return cast.If{Cond: condition(v.Cond, true), Then: then, Else: els}
	case cast.Seq:
		return cast.Seq{First: stmt(v.First), Second: stmt(v.Second)}
	default:
		return s
	}
}

// ensureNonEmpty maps a nil or zero-value Stmt to an explicit Skip, the
// "non-empty block" invariant every If's arms must satisfy once
// normalized.
func ensureNonEmpty(s cast.Stmt) cast.Stmt {
	if s == nil {
		return cast.Skip{}
	}
	return s
}

// condition rewrites cond into a cast.Compare carrying the same truth
// value as "cond is true" when polarity is true, or "cond is false"
// when polarity is false. Casts are never stripped — they can change
// the bit pattern a comparison-against-zero sees, so collapsing
// `!(int8_t)x` straight to `x == 0` would be unsound for a truncating
// cast.
func condition(cond cast.Expr, polarity bool) cast.Compare {
	switch v := cond.(type) {
	case cast.Unary:
		if v.Op == types.LOGICAL_NOT {
			return condition(v.X, !polarity)
		}
	case cast.Compare:
		if polarity {
			return v
		}
		return cast.Compare{Op: types.Negate(v.Op), L: v.L, R: v.R}
	}

	op := types.NEQ
	if !polarity {
		op = types.EQ
	}
	zero := cast.IntLit{Value: 0, Typ: cond.Type()}
	return cast.Compare{Op: op, L: cond, R: zero}
}
