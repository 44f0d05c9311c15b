package linexpr

import (
	"encoding/binary"
	"fmt"
	"io"
	"sort"

	"github.com/chennqqi/crestgo/pkg/types"
)

// Write serializes e as const:i64, term_count:u32, then term_count
// sorted (variable:u32, coefficient:i64) pairs, all little-endian. The
// sort makes the encoding canonical: two equal LinearExprs always
// produce identical bytes.
func Write(w io.Writer, e *LinearExpr) error {
	var hdr [12]byte
	binary.LittleEndian.PutUint64(hdr[0:8], uint64(e.Const))
	binary.LittleEndian.PutUint32(hdr[8:12], uint32(len(e.coefficients)))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}

	vars := e.Vars()
	sort.Slice(vars, func(i, j int) bool { return vars[i] < vars[j] })

	for _, v := range vars {
		var term [12]byte
		binary.LittleEndian.PutUint32(term[0:4], uint32(v))
		binary.LittleEndian.PutUint64(term[4:12], uint64(e.coefficients[v]))
		if _, err := w.Write(term[:]); err != nil {
			return err
		}
	}
	return nil
}

// Read parses a LinearExpr written by Write. A short read anywhere
// fails the whole parse; there is no partial-term recovery.
func Read(r io.Reader) (*LinearExpr, error) {
	var hdr [12]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("linexpr: short header read: %w", err)
	}
	c0 := int64(binary.LittleEndian.Uint64(hdr[0:8]))
	n := binary.LittleEndian.Uint32(hdr[8:12])

	e := New(c0)
	for i := uint32(0); i < n; i++ {
		var term [12]byte
		if _, err := io.ReadFull(r, term[:]); err != nil {
			return nil, fmt.Errorf("linexpr: short term read at index %d: %w", i, err)
		}
		v := types.VariableID(binary.LittleEndian.Uint32(term[0:4]))
		coeff := int64(binary.LittleEndian.Uint64(term[4:12]))
		if coeff == 0 {
			return nil, fmt.Errorf("linexpr: encoded zero coefficient for variable %d violates canonical form", v)
		}
		e.coefficients[v] = coeff
	}
	return e, nil
}
