// Package pass drives one instrumentation pass invocation end to end:
// the fixed eleven-step order of spec.md §4.7, from memory-reference
// simplification through counter persistence and branch/CFG flush. It
// owns the lifecycle of the three counter files and the three
// append-only CFG files for a single translation unit.
package pass

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/chennqqi/crestgo/pkg/abi"
	"github.com/chennqqi/crestgo/pkg/cast"
	"github.com/chennqqi/crestgo/pkg/cfgrec"
	"github.com/chennqqi/crestgo/pkg/counter"
	"github.com/chennqqi/crestgo/pkg/instrument"
	"github.com/chennqqi/crestgo/pkg/normalize"
	"github.com/chennqqi/crestgo/pkg/types"
)

// TranslationUnit is one compilation unit's worth of typed, parsed
// functions and file-scope globals, ready to instrument. A real
// toolchain integration builds this from a C frontend's output; this
// package only consumes it.
type TranslationUnit struct {
	Functions []cast.Function
	Globals   []cast.Global
}

// Config names the on-disk files a pass invocation reads and writes,
// all rooted at Dir, plus the set of functions the "skip" attribute
// excludes from instrumentation.
type Config struct {
	Dir  string
	Skip map[string]bool
}

func (c Config) path(name string) string { return filepath.Join(c.Dir, name) }

func (c Config) idcountPath() string    { return c.path("idcount") }
func (c Config) stmtcountPath() string  { return c.path("stmtcount") }
func (c Config) funcountPath() string   { return c.path("funcount") }
func (c Config) branchesPath() string   { return c.path("branches") }
func (c Config) funcMapPath() string    { return c.path("cfg_func_map") }
func (c Config) cfgPath() string        { return c.path("cfg") }

// Result is everything one pass invocation produced: the full emitted
// call stream in emission order (ready for a code generator to lower
// into actual call sites) and a tally of what was emitted.
type Result struct {
	Calls []instrument.Call
	Stats instrument.Stats
}

// Run executes the fixed eleven-step order against tu, reading and
// updating the counter files under cfg.Dir and appending to its
// branches/cfg_func_map/cfg files. Callers needing to serialize this
// against other translation units sharing the same Dir should wrap the
// call in buildlock.With, per spec.md §5.
func Run(cfg Config, tu TranslationUnit) (Result, error) {
	var res Result

	// Steps 1-3: per-function source-level simplification. In this
	// AST's grammar, lvalues arrive already reduced to single-step
	// Index/Field/Deref nodes (no nested complex lvalue a "split into
	// temporaries" pass would need to act on — that reduction is the C
	// frontend's job, out of scope here per spec.md §1's Non-goals), so
	// simplifyMemoryReferences and prepareCFG are structural no-ops that
	// exist to keep the step numbering and call order explicit and to
	// give a future richer frontend integration a seam to hook into.
	// singleReturnTransform does real work: it ensures every function
	// body ends with an explicit Return statement, which is all our CFG
	// model needs (unlike IRs that require a single merged exit block,
	// this one lets every Return independently target types.ReturnID,
	// so multiple returns need no further merging).
	funcs := make([]cast.Function, len(tu.Functions))
	for i, fn := range tu.Functions {
		fn = simplifyMemoryReferences(fn)
		fn = prepareCFG(fn)
		fn = singleReturnTransform(fn)
		// Step 4: normalization (non-empty if-arms, explicit compare
		// conditions).
		fn = normalize.Function(fn)
		funcs[i] = fn
	}

	// Step 5: clear any prior CFG. Each invocation starts from a fresh
	// in-memory recorder; nothing from a previous call (there is none
	// within one process, but the intent — never carry stale branch/CFG
	// state into a new traversal — holds regardless of caller).
	rec := cfgrec.NewRecorder(0)

	// Step 6: load counters from disk.
	ids, err := counter.OpenCursor(cfg.idcountPath())
	if err != nil {
		return res, fmt.Errorf("pass: loading idcount: %w", err)
	}
	stmts, err := counter.OpenCursor(cfg.stmtcountPath())
	if err != nil {
		return res, fmt.Errorf("pass: loading stmtcount: %w", err)
	}
	funcCursor, err := counter.OpenCursor(cfg.funcountPath())
	if err != nil {
		return res, fmt.Errorf("pass: loading funcount: %w", err)
	}

	v := &instrument.Visitor{IDs: ids, Stmts: stmts, Funcs: funcCursor, Rec: rec, Skip: cfg.Skip}

	// Step 10: runtime initializer. Init() first, then RegGlobal for
	// every externally-visible indexable global (spec.md §4.7 step 10).
	// These run ahead of every instrumented statement at runtime, so
	// they're allocated the lowest instrumentation ids in this
	// invocation too.
	res.Calls = append(res.Calls, instrument.Call{ID: types.InstrumentationID(ids.Next()), Which: abi.Init})
	for _, g := range tu.Globals {
		if g.Static || !g.Indexable {
			continue
		}
		res.Calls = append(res.Calls, instrument.Call{
			ID:    types.InstrumentationID(ids.Next()),
			Which: abi.RegGlobal,
			Addr:  g.Addr,
			Size:  g.Size,
		})
	}

	// Steps 7 and 9 fuse in this design: the visitor's single traversal
	// both recomputes the CFG (via Rec.AddBranch/AddFunc/AddStatement)
	// and emits the instrumentation call stream in the same walk, since
	// both are driven by the identical statement recursion. Step 8's
	// write-before-instrumentation ordering is preserved at the file
	// level below: the CFG files are flushed before this result's calls
	// are handed to any downstream code generator.
	for _, fn := range funcs {
		calls, _ := v.Function(fn)
		res.Calls = append(res.Calls, calls...)
		res.Stats.Tally(calls)
	}
	res.Stats.SkippedCalls = v.Skipped

	// Step 8 (write) for real: flush the recorder's buffered branch/CFG
	// state to the append-only files. A failure here is non-fatal: it is
	// reported on stderr and the pass goes on to persist its counters.
	// Append stops at the first file it cannot write, so the files after
	// that one are not written for this invocation.
	if err := rec.Append(cfg.branchesPath(), cfg.funcMapPath(), cfg.cfgPath()); err != nil {
		fmt.Fprintf(os.Stderr, "pass: flushing cfg: %v\n", err)
	}

	// Step 11: persist counters.
	if err := ids.Flush(); err != nil {
		return res, fmt.Errorf("pass: persisting idcount: %w", err)
	}
	if err := stmts.Flush(); err != nil {
		return res, fmt.Errorf("pass: persisting stmtcount: %w", err)
	}
	if err := funcCursor.Flush(); err != nil {
		return res, fmt.Errorf("pass: persisting funcount: %w", err)
	}

	return res, nil
}

func simplifyMemoryReferences(fn cast.Function) cast.Function { return fn }

func prepareCFG(fn cast.Function) cast.Function { return fn }

// singleReturnTransform appends an explicit Return to fn's body if it
// doesn't already end with one, so the instrumentation visitor always
// has a final fall-through statement to attach types.ReturnID to.
func singleReturnTransform(fn cast.Function) cast.Function {
	if endsInReturn(fn.Body) {
		return fn
	}
	fn.Body = cast.Sequence(fn.Body, cast.Return{Value: nil})
	return fn
}

func endsInReturn(s cast.Stmt) bool {
	switch v := s.(type) {
	case cast.Return:
		return true
	case cast.Seq:
		return endsInReturn(v.Second)
	default:
		return false
	}
}
