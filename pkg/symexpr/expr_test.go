package symexpr

import (
	"bytes"
	"testing"

	"github.com/chennqqi/crestgo/pkg/object"
	"github.com/chennqqi/crestgo/pkg/types"
)

func TestConcreteIsConcrete(t *testing.T) {
	c := NewConcrete(4, 42)
	if !c.IsConcrete() {
		t.Fatal("Concrete node reported not concrete")
	}
	b := NewBasic(4, 42, 7)
	if b.IsConcrete() {
		t.Fatal("Basic node reported concrete")
	}
	bin := NewBinary(4, 1, types.ADD, b, c)
	if bin.IsConcrete() {
		t.Fatal("Binary node over a Basic leaf reported concrete")
	}
}

func TestValueTruncation(t *testing.T) {
	c := NewConcrete(1, 0x1FF)
	if c.Value() != 0xFF {
		t.Fatalf("Value() = %#x, want 0xff", c.Value())
	}
}

func TestAppendVars(t *testing.T) {
	b1 := NewBasic(4, 1, 1)
	b2 := NewBasic(4, 2, 2)
	bin := NewBinary(4, 3, types.ADD, b1, b2)
	cmp := NewCompare(1, types.EQ, bin, b1)

	vars := make(map[types.VariableID]struct{})
	cmp.AppendVars(vars)
	if len(vars) != 2 {
		t.Fatalf("AppendVars found %d variables, want 2", len(vars))
	}
	if _, ok := vars[1]; !ok {
		t.Error("missing variable 1")
	}
	if _, ok := vars[2]; !ok {
		t.Error("missing variable 2")
	}
}

func TestCompareNegateInvolution(t *testing.T) {
	for op := types.EQ; op <= types.SGE; op++ {
		n := types.Negate(op)
		if types.Negate(n) != op {
			t.Errorf("Negate(Negate(%v)) = %v, want %v", op, types.Negate(n), op)
		}
		if n == op {
			t.Errorf("Negate(%v) == %v, want a distinct operator", op, op)
		}
	}
}

func TestConcatRecoversOperands(t *testing.T) {
	lo := NewConcrete(2, 0x1234)
	hi := NewConcrete(2, 0x5678)
	c := Concat(lo, hi)
	if c.Size() != 4 {
		t.Fatalf("Concat size = %d, want 4", c.Size())
	}
	if c.Value() != 0x56781234 {
		t.Fatalf("Concat value = %#x, want 0x56781234", c.Value())
	}
}

func TestExtractRoundTrip(t *testing.T) {
	whole := NewConcrete(4, 0x56781234)
	lo := Extract(whole, 0, 2)
	hi := Extract(whole, 2, 2)
	if lo.Value() != 0x1234 {
		t.Fatalf("low half = %#x, want 0x1234", lo.Value())
	}
	if hi.Value() != 0x5678 {
		t.Fatalf("high half = %#x, want 0x5678", hi.Value())
	}
	if ExtractOffset(hi) != 2 || ExtractWidth(hi) != 2 {
		t.Fatalf("ExtractOffset/Width = %d/%d, want 2/2", ExtractOffset(hi), ExtractWidth(hi))
	}
}

func TestEqual(t *testing.T) {
	a := NewBinary(4, 3, types.ADD, NewBasic(4, 1, 1), NewConcrete(4, 2))
	b := NewBinary(4, 3, types.ADD, NewBasic(4, 1, 1), NewConcrete(4, 2))
	c := NewBinary(4, 3, types.ADD, NewBasic(4, 1, 1), NewConcrete(4, 3))
	if !Equal(a, b) {
		t.Error("structurally identical trees compared unequal")
	}
	if Equal(a, c) {
		t.Error("structurally different trees compared equal")
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	obj := ObjectDescriptor{StartAddress: 0x1000, Size: 4, ElementType: types.I32}
	deref := NewDeref(4, 99, obj, NewConcrete(8, 0x1000), []byte{1, 2, 3, 4})
	tree := NewCompare(1, types.SLT,
		NewUnary(4, -99, types.NEGATE, deref),
		NewBinary(4, 5, types.ADD, NewBasic(4, 2, 9), NewConcrete(4, 3)))

	var buf bytes.Buffer
	if err := Write(&buf, tree); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !Equal(tree, got) {
		t.Fatalf("round trip mismatch: %#v != %#v", tree, got)
	}
}

func TestSerializeShortRead(t *testing.T) {
	e := NewConcrete(4, 7)
	var buf bytes.Buffer
	if err := Write(&buf, e); err != nil {
		t.Fatalf("Write: %v", err)
	}
	truncated := bytes.NewReader(buf.Bytes()[:len(buf.Bytes())-1])
	if _, err := Read(truncated); err == nil {
		t.Fatal("Read on truncated stream returned no error")
	}
}

func TestNilWriteIsNoOp(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, nil); err != nil {
		t.Fatalf("Write(nil) = %v, want nil error", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("Write(nil) wrote %d bytes, want 0", buf.Len())
	}
}

func TestDerefUsesObjectDescriptorWireFormat(t *testing.T) {
	var buf bytes.Buffer
	d := object.Descriptor{StartAddress: 0x2000, Size: 8, ElementType: types.U64}
	if err := d.Write(&buf); err != nil {
		t.Fatalf("object.Descriptor.Write: %v", err)
	}
	got, err := object.ReadDescriptor(&buf)
	if err != nil {
		t.Fatalf("object.ReadDescriptor: %v", err)
	}
	if !got.Equal(d) {
		t.Fatalf("descriptor round trip mismatch: %+v != %+v", got, d)
	}

	// A serialized Deref node carries the same descriptor bytes right
	// after its 17-byte <value><size><tag> header.
	obj := ObjectDescriptor{StartAddress: d.StartAddress, Size: d.Size, ElementType: d.ElementType}
	var node bytes.Buffer
	if err := Write(&node, NewDeref(8, 5, obj, NewConcrete(8, 0x2000), make([]byte, d.Size))); err != nil {
		t.Fatalf("Write(Deref): %v", err)
	}
	node.Next(17)
	embedded, err := object.ReadDescriptor(&node)
	if err != nil {
		t.Fatalf("object.ReadDescriptor on Deref payload: %v", err)
	}
	if !embedded.Equal(d) {
		t.Fatalf("Deref payload descriptor = %+v, want %+v", embedded, d)
	}
}
