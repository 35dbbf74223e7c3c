package favorites

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math/rand/v2"
	"os"
	"time"

	"pullapod/internal/logging"
)

const (
	defaultLockTimeout  = 5 * time.Second
	defaultStaleLockAge = 30 * time.Second
	lockRetryMin        = 50 * time.Millisecond
	lockRetryJitter     = 50 * time.Millisecond
)

// lockBody is the diagnostic payload written into the lock file.
type lockBody struct {
	PID  int   `json:"pid"`
	Time int64 `json:"time"`
}

// fileLock is an exclusive advisory lock held through a sibling lock file.
type fileLock struct {
	path   string
	logger *slog.Logger
}

// acquireLock creates lockPath exclusively, waiting out other holders. Lock
// files older than staleAge are treated as abandoned and removed.
func acquireLock(ctx context.Context, lockPath string, timeout, staleAge time.Duration, logger *slog.Logger) (*fileLock, error) {
	deadline := time.Now().Add(timeout)
	attempts := 0
	for {
		attempts++
		err := createLockFile(lockPath)
		if err == nil {
			if attempts > 1 {
				logger.Debug("favorites lock acquired after retry",
					logging.String(logging.FieldPath, lockPath),
					logging.Int("attempts", attempts))
			}
			return &fileLock{path: lockPath, logger: logger}, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, &StoreError{Kind: KindFileWrite, Op: "lock", Path: lockPath, Message: "unable to create lock on favorites file", Err: err}
		}

		if removed := removeStaleLock(lockPath, staleAge, logger); removed {
			continue
		}

		wait := lockRetryMin + rand.N(lockRetryJitter+time.Millisecond)
		if remaining := time.Until(deadline); remaining <= 0 {
			return nil, &StoreError{Kind: KindFileWrite, Op: "lock", Path: lockPath, Message: "unable to acquire lock on favorites file, try again"}
		} else if wait > remaining {
			wait = remaining
		}
		if err := sleepWithContext(ctx, wait); err != nil {
			return nil, &StoreError{Kind: KindFileWrite, Op: "lock", Path: lockPath, Message: "lock acquisition cancelled", Err: err}
		}
	}
}

func createLockFile(lockPath string) error {
	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	body, _ := json.Marshal(lockBody{PID: os.Getpid(), Time: time.Now().UnixMilli()})
	if _, err := f.Write(body); err != nil {
		_ = f.Close()
		_ = os.Remove(lockPath)
		return fmt.Errorf("write lock file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(lockPath)
		return fmt.Errorf("close lock file: %w", err)
	}
	return nil
}

// restatLock is swapped by tests to simulate a competing reclaim.
var restatLock = os.Stat

// removeStaleLock deletes lockPath when its mtime is older than staleAge. It
// reports true when the caller should retry immediately.
func removeStaleLock(lockPath string, staleAge time.Duration, logger *slog.Logger) bool {
	info, err := os.Stat(lockPath)
	if err != nil {
		// Released between our create and stat.
		return errors.Is(err, fs.ErrNotExist)
	}
	age := time.Since(info.ModTime())
	if age <= staleAge {
		return false
	}
	// Another process may have reclaimed the lock since the first stat;
	// only remove the file we judged stale.
	if current, err := restatLock(lockPath); err != nil || !os.SameFile(info, current) || !current.ModTime().Equal(info.ModTime()) {
		return err != nil && errors.Is(err, fs.ErrNotExist)
	}
	if err := os.Remove(lockPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false
	}
	logging.WarnWithContext(logger, "removed stale favorites lock", "favorites_stale_lock_removed",
		logging.String(logging.FieldPath, lockPath),
		logging.Duration("age", age),
		logging.String(logging.FieldErrorHint, "a previous pullapod process likely exited mid-write"),
		logging.String(logging.FieldImpact, "none; the lock was reclaimed"))
	return true
}

func (l *fileLock) release() {
	if l == nil {
		return
	}
	if err := os.Remove(l.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logging.WarnWithContext(l.logger, "failed to release favorites lock", "favorites_lock_release_failed",
			logging.String(logging.FieldPath, l.path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remove the lock file manually if writes keep timing out"),
			logging.String(logging.FieldImpact, "the next write waits until the lock turns stale"))
	}
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
