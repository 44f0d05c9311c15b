package symexpr

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/chennqqi/crestgo/pkg/object"
	"github.com/chennqqi/crestgo/pkg/types"
)

// Node tags for the little-endian wire format every Expr is written in:
// <value:i64><size:u64><tag:u8><payload>. The header is common to every
// variant; it carries no payload length, so finding the end of an
// expression means decoding its payload.
const (
	tagBasic   = 0
	tagCompare = 1
	tagBinary  = 2
	tagUnary   = 3
	tagDeref   = 4
	tagConst   = 5
)

// Write serializes e to w. A nil e writes nothing; callers represent
// "no symbolic expression" by skipping the call entirely, matching the
// runtime's "absent expression" convention.
func Write(w io.Writer, e Expr) error {
	if e == nil {
		return nil
	}
	var hdr [17]byte
	binary.LittleEndian.PutUint64(hdr[0:8], uint64(e.Value()))
	binary.LittleEndian.PutUint64(hdr[8:16], uint64(e.Size()))

	switch v := e.(type) {
	case Concrete:
		hdr[16] = tagConst
		return write(w, hdr[:])
	case Basic:
		hdr[16] = tagBasic
		if err := write(w, hdr[:]); err != nil {
			return err
		}
		var v4 [4]byte
		binary.LittleEndian.PutUint32(v4[:], uint32(v.Variable))
		return write(w, v4[:])
	case Unary:
		hdr[16] = tagUnary
		if err := write(w, hdr[:]); err != nil {
			return err
		}
		if err := write(w, []byte{byte(v.Op)}); err != nil {
			return err
		}
		return Write(w, v.Child)
	case Binary:
		hdr[16] = tagBinary
		if err := write(w, hdr[:]); err != nil {
			return err
		}
		if err := write(w, []byte{byte(v.Op)}); err != nil {
			return err
		}
		if err := Write(w, v.Left); err != nil {
			return err
		}
		return Write(w, v.Right)
	case Compare:
		hdr[16] = tagCompare
		if err := write(w, hdr[:]); err != nil {
			return err
		}
		if err := write(w, []byte{byte(v.Op)}); err != nil {
			return err
		}
		if err := Write(w, v.Left); err != nil {
			return err
		}
		return Write(w, v.Right)
	case Deref:
		hdr[16] = tagDeref
		if err := write(w, hdr[:]); err != nil {
			return err
		}
		desc := object.Descriptor{StartAddress: v.Object.StartAddress, Size: v.Object.Size, ElementType: v.Object.ElementType}
		if err := desc.Write(w); err != nil {
			return err
		}
		if err := Write(w, v.Address); err != nil {
			return err
		}
		return write(w, v.Bytes)
	default:
		return fmt.Errorf("symexpr: unknown node type %T", e)
	}
}

func write(w io.Writer, p []byte) error {
	_, err := w.Write(p)
	return err
}

// Read parses one expression written by Write. A short read anywhere in
// the stream is an error; the reader is expected to back off to "no
// expression" for that slot rather than guess at a partial tree.
func Read(r io.Reader) (Expr, error) {
	var hdr [17]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("symexpr: short header read: %w", err)
	}
	value := types.Value(binary.LittleEndian.Uint64(hdr[0:8]))
	size := int(binary.LittleEndian.Uint64(hdr[8:16]))
	tag := hdr[16]

	switch tag {
	case tagConst:
		return NewConcrete(size, value), nil
	case tagBasic:
		var v4 [4]byte
		if _, err := io.ReadFull(r, v4[:]); err != nil {
			return nil, fmt.Errorf("symexpr: short variable read: %w", err)
		}
		return NewBasic(size, value, types.VariableID(binary.LittleEndian.Uint32(v4[:]))), nil
	case tagUnary:
		op, err := readByte(r)
		if err != nil {
			return nil, err
		}
		child, err := Read(r)
		if err != nil {
			return nil, err
		}
		return NewUnary(size, value, types.UnaryOp(op), child), nil
	case tagBinary:
		op, err := readByte(r)
		if err != nil {
			return nil, err
		}
		left, err := Read(r)
		if err != nil {
			return nil, err
		}
		right, err := Read(r)
		if err != nil {
			return nil, err
		}
		return NewBinary(size, value, types.BinaryOp(op), left, right), nil
	case tagCompare:
		op, err := readByte(r)
		if err != nil {
			return nil, err
		}
		left, err := Read(r)
		if err != nil {
			return nil, err
		}
		right, err := Read(r)
		if err != nil {
			return nil, err
		}
		return NewCompare(value, types.CompareOp(op), left, right), nil
	case tagDeref:
		desc, err := object.ReadDescriptor(r)
		if err != nil {
			return nil, err
		}
		addr, err := Read(r)
		if err != nil {
			return nil, err
		}
		bytes := make([]byte, desc.Size)
		if _, err := io.ReadFull(r, bytes); err != nil {
			return nil, fmt.Errorf("symexpr: short byte-snapshot read: %w", err)
		}
		obj := ObjectDescriptor{StartAddress: desc.StartAddress, Size: desc.Size, ElementType: desc.ElementType}
		return NewDeref(size, value, obj, addr, bytes), nil
	default:
		return nil, fmt.Errorf("symexpr: unknown wire tag %d", tag)
	}
}

func readByte(r io.Reader) (byte, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, fmt.Errorf("symexpr: short opcode read: %w", err)
	}
	return b[0], nil
}
