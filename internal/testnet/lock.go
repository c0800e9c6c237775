package testnet

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/altuslabsxyz/localnet/internal/helpers"
)

// ErrLocked is returned when another live process holds the home lock.
var ErrLocked = errors.New("testnet home is locked")

// Lock is a file-based mutex over a testnet home.
type Lock struct {
	LockDir    string    `json:"-"`
	PID        int       `json:"pid"`
	AcquiredAt time.Time `json:"acquired_at"`
	Hostname   string    `json:"hostname"`
	Purpose    string    `json:"purpose"`
}

// AcquireLock takes <home>/.lock for purpose. The lock file is created
// exclusively, so of two racing processes only one wins. A lock left by a dead
// process is reclaimed; a live holder yields ErrLocked immediately.
func AcquireLock(home, purpose string) (*Lock, error) {
	lockDir := filepath.Join(home, ".lock")
	lockFile := filepath.Join(lockDir, "lock.json")

	if err := os.MkdirAll(lockDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	hostname, _ := os.Hostname()
	lock := &Lock{
		LockDir:    lockDir,
		PID:        os.Getpid(),
		AcquiredAt: time.Now(),
		Hostname:   hostname,
		Purpose:    purpose,
	}

	// One reclaim of a stale lock, then a second exclusive create.
	for attempt := 0; attempt < 2; attempt++ {
		err := createLockFile(lockFile, lock)
		if err == nil {
			return lock, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("failed to write lock file: %w", err)
		}

		existing, err := readLockFile(lockFile)
		if err != nil {
			// The holder may still be writing its record.
			return nil, fmt.Errorf("%w: unreadable lock file %s", ErrLocked, lockFile)
		}
		if !existing.IsStale() {
			return nil, fmt.Errorf("%w: held by PID %d for %s since %s",
				ErrLocked, existing.PID, existing.Purpose, existing.AcquiredAt.Format(time.RFC3339))
		}
		if err := os.Remove(lockFile); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to remove stale lock: %w", err)
		}
	}
	return nil, fmt.Errorf("%w: lost race for %s", ErrLocked, lockFile)
}

// Release removes the lock if this process still owns it.
func (l *Lock) Release() error {
	lockFile := filepath.Join(l.LockDir, "lock.json")

	existing, err := readLockFile(lockFile)
	if err != nil {
		return nil
	}
	if existing.PID != l.PID {
		return fmt.Errorf("lock is owned by different process (PID %d)", existing.PID)
	}
	if err := os.Remove(lockFile); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove lock file: %w", err)
	}
	return nil
}

// IsStale checks if the lock is held by a dead process.
func (l *Lock) IsStale() bool {
	process, err := os.FindProcess(l.PID)
	if err != nil {
		return true
	}
	// On Unix FindProcess always succeeds; signal 0 checks liveness.
	return process.Signal(syscall.Signal(0)) != nil
}

func readLockFile(path string) (*Lock, error) {
	return helpers.LoadJSON[Lock](path)
}

// createLockFile writes lock to path, failing with fs.ErrExist if the file
// is already there.
func createLockFile(path string, lock *Lock) error {
	data, err := json.MarshalIndent(lock, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal lock: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return err
	}
	return nil
}
