package storage

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestRunLockIsExclusive(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "data", ".lock")
	first, err := AcquireRunLock(path)
	if err != nil {
		t.Fatalf("AcquireRunLock: %v", err)
	}

	if _, err := AcquireRunLock(path); !errors.Is(err, ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}

	if err := first.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	second, err := AcquireRunLock(path)
	if err != nil {
		t.Fatalf("reacquire after release: %v", err)
	}
	_ = second.Release()
}
