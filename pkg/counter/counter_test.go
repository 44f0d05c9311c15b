package counter

import (
	"path/filepath"
	"testing"
)

func TestLoadMissingFileIsZero(t *testing.T) {
	c := Open(filepath.Join(t.TempDir(), "idcount"))
	v, err := c.Load()
	if err != nil {
		t.Fatalf("Load on missing file: %v", err)
	}
	if v != 0 {
		t.Fatalf("Load on missing file = %d, want 0", v)
	}
}

func TestStoreThenLoad(t *testing.T) {
	c := Open(filepath.Join(t.TempDir(), "stmtcount"))
	if err := c.Store(17); err != nil {
		t.Fatalf("Store: %v", err)
	}
	v, err := c.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if v != 17 {
		t.Fatalf("Load() = %d, want 17", v)
	}
}

func TestAdvanceReturnsPreAdvanceValueAndPersists(t *testing.T) {
	c := Open(filepath.Join(t.TempDir(), "funcount"))

	first, err := c.Advance(10)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if first != 0 {
		t.Fatalf("first Advance() = %d, want 0", first)
	}

	second, err := c.Advance(5)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if second != 10 {
		t.Fatalf("second Advance() = %d, want 10", second)
	}

	v, err := c.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if v != 15 {
		t.Fatalf("Load() after two Advance calls = %d, want 15", v)
	}
}
