package counter

// Cursor hands out a contiguous run of IDs from an in-memory value
// seeded from a Counter at pass start, per spec.md §9's "encapsulate
// counters in a single context object threaded through the pass; the
// on-disk format remains the same." Advances happen purely in memory;
// nothing touches disk until Flush.
type Cursor struct {
	backing *Counter
	next    uint64
}

// OpenCursor seeds a Cursor from the counter file at path.
func OpenCursor(path string) (*Cursor, error) {
	backing := Open(path)
	v, err := backing.Load()
	if err != nil {
		return nil, err
	}
	return &Cursor{backing: backing, next: v}, nil
}

// Next returns the next ID in the run and advances the cursor.
func (c *Cursor) Next() uint64 {
	id := c.next
	c.next++
	return id
}

// Value returns the cursor's current (next-to-be-issued) value without
// advancing it.
func (c *Cursor) Value() uint64 {
	return c.next
}

// Flush persists the cursor's current value back to its counter file.
// Per spec.md §4.3, a write failure here is fatal to the pass.
func (c *Cursor) Flush() error {
	return c.backing.Store(c.next)
}
