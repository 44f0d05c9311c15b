// Package counter implements the persistent cross-translation-unit
// identifier counters (idcount, stmtcount, funcount) every pass
// invocation reads, advances, and writes back so IDs stay unique across
// an entire multi-file build.
package counter

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Counter is one plain-decimal-text counter file. It is not
// concurrency-safe on its own; callers serialize access across
// processes with pkg/buildlock.
type Counter struct {
	path string
}

// Open returns a Counter backed by path. It does not touch the
// filesystem until Load is called.
func Open(path string) *Counter {
	return &Counter{path: path}
}

// Load reads the counter's current value. A missing file is not an
// error: a translation unit instrumented for the first time in a build
// starts every counter at 0.
func (c *Counter) Load() (uint64, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("counter: reading %s: %w", c.path, err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(text, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("counter: %s does not hold a decimal integer: %w", c.path, err)
	}
	return v, nil
}

// Store writes next back to the counter file. A write failure is fatal
// to the enclosing pass invocation: there is no rollback, and a partial
// write would desynchronize every subsequent translation unit's IDs
// from the ones already recorded in the branches/cfg files.
func (c *Counter) Store(next uint64) error {
	if err := os.WriteFile(c.path, []byte(strconv.FormatUint(next, 10)+"\n"), 0644); err != nil {
		return fmt.Errorf("counter: writing %s: %w", c.path, err)
	}
	return nil
}

// Advance loads the counter, hands the caller a contiguous block of n
// IDs starting at the pre-advance value, writes the new total back, and
// returns the block's first ID.
func (c *Counter) Advance(n uint64) (first uint64, err error) {
	cur, err := c.Load()
	if err != nil {
		return 0, err
	}
	if err := c.Store(cur + n); err != nil {
		return 0, err
	}
	return cur, nil
}
