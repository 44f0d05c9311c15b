// Package buildlock serializes pass invocations across translation
// units that share a counter-file set, per spec.md §5's suggested
// discipline ("invoke the pass under a build lock or run it
// sequentially"). It wraps a single lock file with an exclusive
// advisory flock, held for the duration of one pass invocation.
package buildlock

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Lock holds an open file descriptor with an exclusive flock applied.
// The zero value is not usable; construct with Acquire.
type Lock struct {
	f *os.File
}

// Acquire opens (creating if necessary) the lock file at path and
// blocks until it holds an exclusive advisory lock on it. Release
// drops the lock and closes the file.
func Acquire(path string) (*Lock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("buildlock: opening %s: %w", path, err)
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX); err != nil {
		f.Close()
		return nil, fmt.Errorf("buildlock: flock %s: %w", path, err)
	}
	return &Lock{f: f}, nil
}

// TryAcquire is Acquire's non-blocking form: it returns ok=false,
// nil error if another process already holds the lock.
func TryAcquire(path string) (lock *Lock, ok bool, err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, false, fmt.Errorf("buildlock: opening %s: %w", path, err)
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		if err == unix.EWOULDBLOCK {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("buildlock: flock %s: %w", path, err)
	}
	return &Lock{f: f}, true, nil
}

// Release drops the lock and closes the underlying file.
func (l *Lock) Release() error {
	if l == nil || l.f == nil {
		return nil
	}
	err := unix.Flock(int(l.f.Fd()), unix.LOCK_UN)
	if cerr := l.f.Close(); err == nil {
		err = cerr
	}
	return err
}

// With acquires the lock at path, runs fn while holding it, and
// releases it unconditionally before returning fn's error (or the
// lock's own acquire/release errors).
func With(path string, fn func() error) (err error) {
	l, err := Acquire(path)
	if err != nil {
		return err
	}
	defer func() {
		if rerr := l.Release(); err == nil {
			err = rerr
		}
	}()
	return fn()
}
