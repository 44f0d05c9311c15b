// Package object describes the memory regions a Deref expression node
// snapshots. Its serialization is a contract of its own; the expression
// tree only nests it (spec.md §3, SymbolicObject).
package object

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/chennqqi/crestgo/pkg/types"
)

// Descriptor names a memory region: where it starts, how big it is, and
// the scalar element type used to interpret it when it's indexable.
type Descriptor struct {
	StartAddress types.Address
	Size         int
	ElementType  types.CType
}

// Equal compares two descriptors structurally.
func (d Descriptor) Equal(o Descriptor) bool {
	return d.StartAddress == o.StartAddress && d.Size == o.Size && d.ElementType == o.ElementType
}

// Write serializes the descriptor as start_address:u64, size:u64,
// element_type:u8 in little-endian, the layout the Deref payload embeds
// ahead of its concrete byte snapshot (spec.md §4.1 "Deref" payload).
func (d Descriptor) Write(w io.Writer) error {
	var hdr [17]byte
	binary.LittleEndian.PutUint64(hdr[0:8], uint64(d.StartAddress))
	binary.LittleEndian.PutUint64(hdr[8:16], uint64(d.Size))
	hdr[16] = byte(d.ElementType)
	_, err := w.Write(hdr[:])
	return err
}

// ReadDescriptor parses a Descriptor written by Write. A short read
// returns an error; the caller is expected to treat that as "no
// expression" per spec.md §4.1's strict-parse rule.
func ReadDescriptor(r io.Reader) (Descriptor, error) {
	var hdr [17]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return Descriptor{}, fmt.Errorf("object: short descriptor read: %w", err)
	}
	d := Descriptor{
		StartAddress: types.Address(binary.LittleEndian.Uint64(hdr[0:8])),
		Size:         int(binary.LittleEndian.Uint64(hdr[8:16])),
		ElementType:  types.CType(hdr[16]),
	}
	return d, nil
}
