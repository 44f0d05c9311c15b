package pass

import (
	"encoding/gob"
	"fmt"
	"os"
)

// TUProgress records one translation unit's place in a batch run: its
// name, used for resumption. RunBatch fills in only Name; the
// NextInstrID/NextStmtID/NextFuncID fields are left at zero.
type TUProgress struct {
	Name        string
	NextInstrID uint64
	NextStmtID  uint64
	NextFuncID  uint64
}

// BatchCheckpoint is what batch (pkg/pass's RunBatch) persists between
// translation units, so a batch aborted partway through (build killed,
// machine restarted) can resume without re-instrumenting completed TUs.
// The counter and append-only files are themselves the durable state;
// this only remembers which TU names have already been applied to
// them, so RunBatch can skip re-running a completed one.
type BatchCheckpoint struct {
	Completed []TUProgress
	Total     int
}

func init() {
	gob.Register(TUProgress{})
}

// SaveBatchCheckpoint writes ckpt to path, overwriting any existing
// checkpoint there.
func SaveBatchCheckpoint(path string, ckpt *BatchCheckpoint) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("pass: creating checkpoint %s: %w", path, err)
	}
	defer f.Close()
	if err := gob.NewEncoder(f).Encode(ckpt); err != nil {
		return fmt.Errorf("pass: encoding checkpoint %s: %w", path, err)
	}
	return nil
}

// LoadBatchCheckpoint reads a checkpoint previously written by
// SaveBatchCheckpoint. A missing file is not an error: it returns an
// empty checkpoint, the natural "nothing completed yet" starting state.
func LoadBatchCheckpoint(path string) (*BatchCheckpoint, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return &BatchCheckpoint{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("pass: opening checkpoint %s: %w", path, err)
	}
	defer f.Close()
	var ckpt BatchCheckpoint
	if err := gob.NewDecoder(f).Decode(&ckpt); err != nil {
		return nil, fmt.Errorf("pass: decoding checkpoint %s: %w", path, err)
	}
	return &ckpt, nil
}

// IsComplete reports whether name already appears in ckpt's completed
// list, letting RunBatch skip a TU it already instrumented.
func (ckpt *BatchCheckpoint) IsComplete(name string) bool {
	for _, p := range ckpt.Completed {
		if p.Name == name {
			return true
		}
	}
	return false
}
