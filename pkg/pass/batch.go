package pass

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/chennqqi/crestgo/pkg/buildlock"
)

// NamedTU pairs a translation unit with the name (typically its source
// path) the batch checkpoint uses to identify it.
type NamedTU struct {
	Name string
	TU   TranslationUnit
}

// BatchOptions configures RunBatch. NumWorkers <= 0 means
// runtime.NumCPU(). LockPath is the buildlock file guarding the
// counter/append-only files every worker shares; CheckpointPath, if
// non-empty, is loaded before the run and rewritten after every
// completed TU so a killed batch can resume.
type BatchOptions struct {
	NumWorkers     int
	LockPath       string
	CheckpointPath string
}

// BatchResult is one translation unit's outcome within a batch run.
type BatchResult struct {
	Name   string
	Result Result
	Err    error
}

// RunBatch instruments every unit in units, fanning the TUs themselves
// out across a bounded worker pool (adapted from the candidate-search
// worker pool's channel-plus-waitgroup shape) while serializing each
// TU's actual pass.Run call — the part that touches the shared counter
// and append-only files — under a single buildlock, per spec.md §5 (or,
// when LockPath is empty, under an in-process mutex).
// This does not parallelize the pass itself (still single-threaded per
// invocation); it only overlaps whatever a real caller does before
// acquiring the lock (parsing, AST construction) across TUs.
func RunBatch(cfg Config, units []NamedTU, opts BatchOptions) ([]BatchResult, error) {
	numWorkers := opts.NumWorkers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	ckpt := &BatchCheckpoint{Total: len(units)}
	if opts.CheckpointPath != "" {
		loaded, err := LoadBatchCheckpoint(opts.CheckpointPath)
		if err != nil {
			return nil, err
		}
		ckpt = loaded
		ckpt.Total = len(units)
	}

	pending := make([]NamedTU, 0, len(units))
	for _, u := range units {
		if !ckpt.IsComplete(u.Name) {
			pending = append(pending, u)
		}
	}

	ch := make(chan NamedTU, len(pending))
	for _, u := range pending {
		ch <- u
	}
	close(ch)

	results := make([]BatchResult, 0, len(pending))
	var mu sync.Mutex
	var runMu sync.Mutex
	var completed atomic.Int64

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for u := range ch {
				br := BatchResult{Name: u.Name}

				runErr := func() error {
					if opts.LockPath == "" {
						runMu.Lock()
						defer runMu.Unlock()
						res, err := Run(cfg, u.TU)
						br.Result = res
						return err
					}
					return buildlock.With(opts.LockPath, func() error {
						res, err := Run(cfg, u.TU)
						br.Result = res
						return err
					})
				}()
				br.Err = runErr

				mu.Lock()
				results = append(results, br)
				if runErr == nil {
					ckpt.Completed = append(ckpt.Completed, TUProgress{Name: u.Name})
					if opts.CheckpointPath != "" {
						if err := SaveBatchCheckpoint(opts.CheckpointPath, ckpt); err != nil {
							fmt.Printf("pass: checkpoint save failed for %s: %v\n", u.Name, err)
						}
					}
				}
				completed.Add(1)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	return results, nil
}
