package linexpr

import (
	"bytes"
	"testing"

	"github.com/chennqqi/crestgo/pkg/types"
)

func TestAddTermPrunesZero(t *testing.T) {
	e := New(0)
	e.AddTerm(1, 5)
	e.AddTerm(1, -5)
	if e.NumTerms() != 0 {
		t.Fatalf("NumTerms() = %d, want 0 after cancelling term", e.NumTerms())
	}
	if e.Size() != 1 {
		t.Fatalf("Size() = %d, want 1 (constant only)", e.Size())
	}
}

func TestAddAndNegate(t *testing.T) {
	a := New(3)
	a.AddTerm(1, 2)
	b := New(-1)
	b.AddTerm(1, -2)
	b.AddTerm(2, 4)

	sum := a.Add(b)
	if sum.Const != 2 {
		t.Fatalf("Const = %d, want 2", sum.Const)
	}
	if sum.Coefficient(1) != 0 {
		t.Fatalf("coefficient of var 1 = %d, want 0 (cancelled)", sum.Coefficient(1))
	}
	if sum.Coefficient(2) != 4 {
		t.Fatalf("coefficient of var 2 = %d, want 4", sum.Coefficient(2))
	}

	neg := sum.Negate()
	if !neg.Negate().Equal(sum) {
		t.Fatal("double negation did not recover the original expression")
	}
}

func TestScalarMulZeroPrunesAllTerms(t *testing.T) {
	e := New(5)
	e.AddTerm(1, 3)
	e.AddTerm(2, 7)
	z := e.ScalarMul(0)
	if !z.IsConstant() || z.Const != 0 {
		t.Fatalf("ScalarMul(0) = %+v, want zero constant with no terms", z)
	}
}

func TestEqualIgnoresInsertionOrder(t *testing.T) {
	a := New(1)
	a.AddTerm(1, 2)
	a.AddTerm(2, 3)

	b := New(1)
	b.AddTerm(2, 3)
	b.AddTerm(1, 2)

	if !a.Equal(b) {
		t.Fatal("expressions built in different term order compared unequal")
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	e := New(42)
	e.AddTerm(5, -3)
	e.AddTerm(types.VariableID(1000), 17)

	var buf bytes.Buffer
	if err := Write(&buf, e); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !got.Equal(e) {
		t.Fatalf("round trip mismatch: %+v != %+v", got, e)
	}
}

func TestSerializeIsCanonical(t *testing.T) {
	a := New(1)
	a.AddTerm(1, 2)
	a.AddTerm(2, 3)

	b := New(1)
	b.AddTerm(2, 3)
	b.AddTerm(1, 2)

	var bufA, bufB bytes.Buffer
	if err := Write(&bufA, a); err != nil {
		t.Fatalf("Write(a): %v", err)
	}
	if err := Write(&bufB, b); err != nil {
		t.Fatalf("Write(b): %v", err)
	}
	if !bytes.Equal(bufA.Bytes(), bufB.Bytes()) {
		t.Fatal("equal expressions built in different order serialized to different bytes")
	}
}
