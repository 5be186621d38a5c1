package fsutil

import (
	"fmt"
	"os"
	"syscall"
)

// Lock is a held advisory file lock. Callers must call Unlock when done.
// Adapted from the teacher's exclusive-only process lock into a helper that
// also supports shared (read) mode, per spec §5's "shared for read, exclusive
// for write" discipline.
type Lock struct {
	f *os.File
}

// LockShared acquires a shared (read) advisory lock on path, blocking until
// available. The lock file is created alongside the target if it does not exist.
func LockShared(path string) (*Lock, error) {
	return acquire(path, syscall.LOCK_SH)
}

// LockExclusive acquires an exclusive (write) advisory lock on path, blocking
// until available.
func LockExclusive(path string) (*Lock, error) {
	return acquire(path, syscall.LOCK_EX)
}

func acquire(path string, how int) (*Lock, error) {
	f, err := os.OpenFile(lockPath(path), os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("fsutil: open lock file %s: %w", path, err)
	}
	if err := syscall.Flock(int(f.Fd()), how); err != nil {
		f.Close()
		return nil, fmt.Errorf("fsutil: lock %s: %w", path, err)
	}
	return &Lock{f: f}, nil
}

// Unlock releases the lock. The underlying lock file is left on disk (it is
// reused by future lockers) — only the held fd is released and closed.
func (l *Lock) Unlock() {
	if l == nil || l.f == nil {
		return
	}
	syscall.Flock(int(l.f.Fd()), syscall.LOCK_UN)
	l.f.Close()
}

func lockPath(path string) string {
	return path + ".lock"
}
