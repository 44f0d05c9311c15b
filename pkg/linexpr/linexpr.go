// Package linexpr implements the affine (linear) expression
// representation used when an expression is provably linear in its
// symbolic inputs: c0 + Σ ci·vi. It trades the generality of pkg/symexpr
// for a canonical, directly-solvable shape — the instrumentation pass
// never builds one itself, but the runtime's simplifier does when it
// recognizes a sub-tree as affine.
package linexpr

import "github.com/chennqqi/crestgo/pkg/types"

// LinearExpr is c0 + Σ coefficients[v]·v. A variable absent from
// coefficients (or mapped to 0) has no influence on the value and is
// always pruned — the zero map never contains a zero-valued entry, so
// two LinearExprs with the same (const, surviving terms) compare equal.
type LinearExpr struct {
	Const        int64
	coefficients map[types.VariableID]int64
}

// New builds a LinearExpr with the given constant term and no variable
// terms.
func New(c0 int64) *LinearExpr {
	return &LinearExpr{Const: c0, coefficients: make(map[types.VariableID]int64)}
}

// AddTerm adds coeff·v to e, pruning the term away if the running
// coefficient becomes zero.
func (e *LinearExpr) AddTerm(v types.VariableID, coeff int64) {
	e.coefficients[v] += coeff
	if e.coefficients[v] == 0 {
		delete(e.coefficients, v)
	}
}

// Coefficient returns the current coefficient of v, 0 if absent.
func (e *LinearExpr) Coefficient(v types.VariableID) int64 {
	return e.coefficients[v]
}

// Vars returns the variables with a nonzero coefficient. Order is
// unspecified; callers that need determinism should sort the result.
func (e *LinearExpr) Vars() []types.VariableID {
	vars := make([]types.VariableID, 0, len(e.coefficients))
	for v := range e.coefficients {
		vars = append(vars, v)
	}
	return vars
}

// NumTerms returns the number of variables with a nonzero coefficient.
func (e *LinearExpr) NumTerms() int {
	return len(e.coefficients)
}

// Size returns the node's on-wire term count: the constant plus one
// entry per surviving variable term.
func (e *LinearExpr) Size() int {
	return 1 + len(e.coefficients)
}

// Clone returns a deep copy of e.
func (e *LinearExpr) Clone() *LinearExpr {
	out := New(e.Const)
	for v, c := range e.coefficients {
		out.coefficients[v] = c
	}
	return out
}

// Negate returns -e.
func (e *LinearExpr) Negate() *LinearExpr {
	out := New(-e.Const)
	for v, c := range e.coefficients {
		out.coefficients[v] = -c
	}
	return out
}

// ScalarMul returns k*e. k == 0 collapses e to the zero constant, with
// every term pruned, matching AddTerm's zero-coefficient rule.
func (e *LinearExpr) ScalarMul(k int64) *LinearExpr {
	out := New(e.Const * k)
	if k == 0 {
		return out
	}
	for v, c := range e.coefficients {
		out.coefficients[v] = c * k
	}
	return out
}

// Add returns e + o.
func (e *LinearExpr) Add(o *LinearExpr) *LinearExpr {
	out := e.Clone()
	out.Const += o.Const
	for v, c := range o.coefficients {
		out.AddTerm(v, c)
	}
	return out
}

// Sub returns e - o.
func (e *LinearExpr) Sub(o *LinearExpr) *LinearExpr {
	return e.Add(o.Negate())
}

// Equal reports whether e and o are the same affine combination after
// canonicalization (zero-coefficient terms never survive, so map
// equality after a length check suffices).
func (e *LinearExpr) Equal(o *LinearExpr) bool {
	if e.Const != o.Const || len(e.coefficients) != len(o.coefficients) {
		return false
	}
	for v, c := range e.coefficients {
		if oc, ok := o.coefficients[v]; !ok || oc != c {
			return false
		}
	}
	return true
}

// IsConstant reports whether e has no surviving variable terms.
func (e *LinearExpr) IsConstant() bool {
	return len(e.coefficients) == 0
}
