package tools

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

var (
	// Several servers can share one data directory; the lock serializes
	// index rebuilds and downloads between them.
	indexLock   *flock.Flock
	indexLockMu sync.Mutex
	lockHolds   int // Nested acquires; the flock is released when this drops to zero

	lockTimeout   = 5 * time.Second // Max time to wait for lock
	lockRetryWait = 200 * time.Millisecond
)

// acquireLock takes the inter-process index lock, retrying until lockTimeout.
// Nested calls in the same process succeed immediately and must each be
// paired with a releaseLock.
func acquireLock() error {
	indexLockMu.Lock()
	defer indexLockMu.Unlock()

	if indexLock != nil && indexLock.Locked() {
		lockHolds++
		return nil
	}

	lockPath := filepath.Join(dataDir, lockFile)
	if err := os.MkdirAll(filepath.Dir(lockPath), 0755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	lock := flock.New(lockPath)
	startTime := time.Now()
	for {
		locked, err := lock.TryLock()
		if err != nil {
			return fmt.Errorf("failed to lock %s: %w", lockPath, err)
		}
		if locked {
			indexLock = lock
			lockHolds = 1
			log.Printf("✓ Index lock acquired (PID %d)", os.Getpid())
			return nil
		}

		elapsed := time.Since(startTime)
		if elapsed >= lockTimeout {
			return fmt.Errorf("timeout waiting for index lock after %v", elapsed.Round(100*time.Millisecond))
		}

		log.Printf("Index locked by another process, waiting... (%v elapsed)", elapsed.Round(100*time.Millisecond))
		time.Sleep(lockRetryWait)
	}
}

// releaseLock drops one hold on the index lock and unlocks after the last.
// The lock file itself is left in place.
func releaseLock() error {
	indexLockMu.Lock()
	defer indexLockMu.Unlock()

	if indexLock == nil {
		return nil
	}
	if lockHolds--; lockHolds > 0 {
		return nil
	}

	if err := indexLock.Unlock(); err != nil {
		return fmt.Errorf("failed to release index lock: %w", err)
	}
	indexLock = nil
	lockHolds = 0

	log.Printf("✓ Index lock released")
	return nil
}
