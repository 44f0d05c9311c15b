// Package cfgrec records the simplified control-flow graph every pass
// invocation appends to across a build: which branch statement picks
// between which two successors, which statement ID a function's entry
// starts at, and each statement's successor set. The recorder buffers
// one translation unit's records in memory (a mutex-guarded table,
// sorted before flushing) and flushes them with Append, which appends
// to the three on-disk files rather than rewriting them.
package cfgrec

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"github.com/chennqqi/crestgo/pkg/types"
)

// BranchPair is one conditional branch's two successor statement IDs,
// true-branch first.
type BranchPair struct {
	TrueSID  types.StatementID
	FalseSID types.StatementID
}

// FuncEntry records a single non-static function's entry statement.
type FuncEntry struct {
	Name string
	SID  types.StatementID
}

// StatementSuccessors records one statement's successor set. A branch
// statement lists both arms; a call lists types.CallID; a return lists
// types.ReturnID; any other statement lists its single fall-through
// successor.
type StatementSuccessors struct {
	SID    types.StatementID
	Succs  []types.BranchID
}

// Recorder buffers one translation unit's CFG records before they are
// appended to the on-disk branches/cfg_func_map/cfg files.
type Recorder struct {
	mu         sync.Mutex
	funcID     types.FunctionID
	branches   []BranchPair
	funcs      []FuncEntry
	statements []StatementSuccessors
}

// NewRecorder creates a Recorder for the function numbered fid; branch
// pairs recorded through AddBranch are attributed to fid in the
// branches file's header line.
func NewRecorder(fid types.FunctionID) *Recorder {
	return &Recorder{funcID: fid}
}

// AddBranch records one conditional branch's two successors.
func (r *Recorder) AddBranch(trueSID, falseSID types.StatementID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.branches = append(r.branches, BranchPair{TrueSID: trueSID, FalseSID: falseSID})
}

// AddFunc records a non-static function's entry statement.
func (r *Recorder) AddFunc(name string, sid types.StatementID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs = append(r.funcs, FuncEntry{Name: name, SID: sid})
}

// AddStatement records one statement's successor set.
func (r *Recorder) AddStatement(sid types.StatementID, succs []types.BranchID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make([]types.BranchID, len(succs))
	copy(cp, succs)
	r.statements = append(r.statements, StatementSuccessors{SID: sid, Succs: cp})
}

// sortedBranches returns a copy of the recorded branch pairs sorted by
// (TrueSID, FalseSID), the canonical order the branches file uses so a
// downstream reader can binary-search it.
func (r *Recorder) sortedBranches() []BranchPair {
	out := make([]BranchPair, len(r.branches))
	copy(out, r.branches)
	sort.Slice(out, func(i, j int) bool {
		if out[i].TrueSID != out[j].TrueSID {
			return out[i].TrueSID < out[j].TrueSID
		}
		return out[i].FalseSID < out[j].FalseSID
	})
	return out
}

// Append flushes the recorder's buffered state to the three CFG files,
// each opened in append mode so concurrent translation units within the
// same build only ever add records, never overwrite another TU's.
func (r *Recorder) Append(branchesPath, funcMapPath, cfgPath string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := appendBranches(branchesPath, r.funcID, r.sortedBranches()); err != nil {
		return err
	}
	if err := appendFuncMap(funcMapPath, r.funcs); err != nil {
		return err
	}
	return appendCFG(cfgPath, r.statements)
}

func appendBranches(path string, fid types.FunctionID, pairs []BranchPair) error {
	if len(pairs) == 0 {
		return nil
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("cfgrec: opening %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "%d %d\n", fid, len(pairs))
	for _, p := range pairs {
		fmt.Fprintf(w, "%d %d\n", p.TrueSID, p.FalseSID)
	}
	return w.Flush()
}

func appendFuncMap(path string, funcs []FuncEntry) error {
	if len(funcs) == 0 {
		return nil
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("cfgrec: opening %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, fn := range funcs {
		fmt.Fprintf(w, "%s %d\n", fn.Name, fn.SID)
	}
	return w.Flush()
}

func appendCFG(path string, stmts []StatementSuccessors) error {
	if len(stmts) == 0 {
		return nil
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("cfgrec: opening %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, s := range stmts {
		fmt.Fprintf(w, "%d", s.SID)
		for _, succ := range s.Succs {
			fmt.Fprintf(w, " %d", succ)
		}
		fmt.Fprint(w, "\n")
	}
	return w.Flush()
}

// DumpHuman writes a human-readable rendering of the recorder's buffered
// (not-yet-flushed) state to w, for the dump-cfg CLI subcommand.
func (r *Recorder) DumpHuman(w io.Writer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := fmt.Fprintf(w, "function %d\n", r.funcID); err != nil {
		return err
	}
	for _, fn := range r.funcs {
		if _, err := fmt.Fprintf(w, "  entry %s -> stmt %d\n", fn.Name, fn.SID); err != nil {
			return err
		}
	}
	for _, p := range r.sortedBranches() {
		if _, err := fmt.Fprintf(w, "  branch true=%d false=%d\n", p.TrueSID, p.FalseSID); err != nil {
			return err
		}
	}
	for _, s := range r.statements {
		if _, err := fmt.Fprintf(w, "  stmt %d ->", s.SID); err != nil {
			return err
		}
		for _, succ := range s.Succs {
			if _, err := fmt.Fprintf(w, " %d", succ); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}
