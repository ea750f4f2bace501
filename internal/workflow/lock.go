package workflow

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"inlay/internal/services"
)

// LockFileName is created in the output directory while a render runs.
const LockFileName = ".inlay.lock"

// lockOutputDir takes an exclusive, non-blocking lock on dir so two renders
// never race on the same output directory.
func lockOutputDir(dir string) (*flock.Flock, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, services.Wrap(services.KindExecutor, stageExecute, "lock", "create output directory "+dir, err)
	}
	lock := flock.New(filepath.Join(dir, LockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.KindExecutor, stageExecute, "lock", "lock output directory "+dir, err)
	}
	if !locked {
		return nil, services.Errorf(services.KindExecutor, stageExecute, "lock",
			"output directory %s is in use by another run (%s)", dir, lock.Path())
	}
	return lock, nil
}

func unlockOutputDir(lock *flock.Flock) error {
	if lock == nil {
		return nil
	}
	if err := lock.Unlock(); err != nil {
		return fmt.Errorf("unlock %s: %w", lock.Path(), err)
	}
	return nil
}
