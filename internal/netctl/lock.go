package netctl

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vladdudu12/wall-e-control-go/internal/models"
	"golang.org/x/sys/unix"
)

// ErrLocked is returned when another invocation already holds the
// controller lock.
var ErrLocked = &models.AppError{
	Code:    "LOCKED",
	Message: "another network operation is in progress",
	Status:  409,
}

// fileLock is an advisory flock guarding mutating network operations
// against concurrent invocations — two interleaved switches would corrupt
// the shared configuration files.
type fileLock struct {
	path string
}

func newFileLock(path string) *fileLock {
	return &fileLock{path: path}
}

// Acquire takes the lock without blocking. The returned release function
// drops it; the flock also dies with the process, so a crashed invocation
// never wedges the controller.
func (l *fileLock) Acquire() (func(), error) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		if err == unix.EWOULDBLOCK {
			return nil, ErrLocked
		}
		return nil, fmt.Errorf("flock: %w", err)
	}
	return func() {
		_ = unix.Flock(int(f.Fd()), unix.LOCK_UN)
		f.Close()
	}, nil
}
