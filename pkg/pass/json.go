package pass

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/chennqqi/crestgo/pkg/cast"
)

// tuWire is TranslationUnit's JSON wire shape: Globals round-trip
// through encoding/json directly (cast.Global has no interface
// fields); Functions need cast.FunctionWire since a function body is
// a cast.Stmt.
type tuWire struct {
	Functions []cast.FunctionWire `json:"functions"`
	Globals   []cast.Global       `json:"globals"`
}

// DecodeTranslationUnit reads the JSON interchange format a C-frontend
// integration emits: one translation unit's function definitions and
// file-scope globals.
func DecodeTranslationUnit(r io.Reader) (TranslationUnit, error) {
	var wire tuWire
	if err := json.NewDecoder(r).Decode(&wire); err != nil {
		return TranslationUnit{}, fmt.Errorf("pass: decoding translation unit: %w", err)
	}
	tu := TranslationUnit{Globals: wire.Globals}
	for _, fw := range wire.Functions {
		fn, err := cast.UnmarshalFunction(fw)
		if err != nil {
			return TranslationUnit{}, fmt.Errorf("pass: decoding function %q: %w", fw.Name, err)
		}
		tu.Functions = append(tu.Functions, fn)
	}
	return tu, nil
}

// EncodeTranslationUnit writes tu in the same format DecodeTranslationUnit reads.
func EncodeTranslationUnit(w io.Writer, tu TranslationUnit) error {
	wire := tuWire{Globals: tu.Globals}
	for _, fn := range tu.Functions {
		wire.Functions = append(wire.Functions, cast.MarshalFunction(fn))
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(wire)
}
