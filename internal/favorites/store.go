package favorites

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"pullapod/internal/fileutil"
	"pullapod/internal/logging"
)

const (
	dirMode        = 0o700
	fileMode       = 0o600
	lockSuffix     = ".lock"
	tmpSuffix      = ".tmp"
	backupInfix    = ".backup."
	backupTimeForm = "20060102-150405.000"
)

// Options configures a Store. Environment-derived values are passed in
// explicitly so callers (and tests) control path resolution.
type Options struct {
	// Path overrides resolution; it is checked with ValidateCustomPath.
	Path string
	// XDGConfigHome is the value of XDG_CONFIG_HOME captured at startup.
	XDGConfigHome string
	// HomeDir is the user's home directory.
	HomeDir string
	// GOOS defaults to runtime.GOOS.
	GOOS string
	// TestMode allows custom paths outside the per-user config directories.
	TestMode bool
	Logger   *slog.Logger
	// LockTimeout bounds lock acquisition; defaults to 5s.
	LockTimeout time.Duration
	// StaleLockAge is the lock file age after which it is reclaimed; defaults to 30s.
	StaleLockAge time.Duration
}

// Store reads and writes the favorites document.
type Store struct {
	path         string
	logger       *slog.Logger
	lockTimeout  time.Duration
	staleLockAge time.Duration
	now          func() time.Time
}

// NewStore resolves the favorites path and returns a Store bound to it. No
// file is touched until the first Load or Save.
func NewStore(opts Options) (*Store, error) {
	path, err := ResolvePath(opts)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Store{
		path:         path,
		logger:       logging.NewComponentLogger(logger, "favorites"),
		lockTimeout:  opts.LockTimeout,
		staleLockAge: opts.StaleLockAge,
		now:          time.Now,
	}
	if s.lockTimeout <= 0 {
		s.lockTimeout = defaultLockTimeout
	}
	if s.staleLockAge <= 0 {
		s.staleLockAge = defaultStaleLockAge
	}
	return s, nil
}

// Path returns the resolved favorites file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the current document. A missing file yields an empty document.
// Corrupt contents are backed up and reported as a KindFileRead StoreError.
func (s *Store) Load(ctx context.Context) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return NewDocument(), nil
		}
		return Document{}, &StoreError{Kind: KindFileRead, Op: "load", Path: s.path, Message: "failed to read favorites", Err: err}
	}

	doc, err := DecodeDocument(data)
	if err != nil {
		backup := s.backupCorrupt()
		s.logger.Error("favorites file is corrupt",
			logging.String(logging.FieldEventType, "favorites_corrupt"),
			logging.String(logging.FieldPath, s.path),
			logging.String("backup_path", backup),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, ResetHint))
		return Document{}, &StoreError{
			Kind:       KindFileRead,
			Op:         "load",
			Path:       s.path,
			BackupPath: backup,
			Message:    "favorites file is corrupt",
			Err:        err,
		}
	}
	return doc, nil
}

// Save writes doc under the store lock.
func (s *Store) Save(ctx context.Context, doc Document) error {
	if err := s.ensureDir(); err != nil {
		return err
	}
	lock, err := acquireLock(ctx, s.lockPath(), s.lockTimeout, s.staleLockAge, s.logger)
	if err != nil {
		return err
	}
	defer lock.release()
	return s.write(doc)
}

// Update runs fn against a freshly loaded document while holding the store
// lock, then writes the result when fn reports a change. Holding the lock
// across load and write keeps concurrent processes from losing each other's
// updates.
func (s *Store) Update(ctx context.Context, fn func(doc *Document) (changed bool, err error)) error {
	if err := s.ensureDir(); err != nil {
		return err
	}
	lock, err := acquireLock(ctx, s.lockPath(), s.lockTimeout, s.staleLockAge, s.logger)
	if err != nil {
		return err
	}
	defer lock.release()

	doc, err := s.Load(ctx)
	if err != nil {
		return err
	}
	changed, err := fn(&doc)
	if err != nil || !changed {
		return err
	}
	return s.write(doc)
}

// Reset overwrites the file with an empty document without reading it, so it
// succeeds even when the current contents are corrupt.
func (s *Store) Reset(ctx context.Context) error {
	return s.Save(ctx, NewDocument())
}

func (s *Store) write(doc Document) error {
	data, err := EncodeDocument(doc)
	if err != nil {
		return &StoreError{Kind: KindFileWrite, Op: "save", Path: s.path, Message: "failed to save favorites", Err: err}
	}
	if err := fileutil.WriteFileAtomic(s.path, s.path+tmpSuffix, data, fileMode); err != nil {
		return &StoreError{Kind: KindFileWrite, Op: "save", Path: s.path, Message: "failed to save favorites", Err: err}
	}
	s.logger.Debug("saved favorites",
		logging.String(logging.FieldPath, s.path),
		logging.Int("feeds", len(doc.Feeds)))
	return nil
}

func (s *Store) ensureDir() error {
	if err := fileutil.EnsureDir(filepath.Dir(s.path), dirMode); err != nil {
		return &StoreError{Kind: KindFileWrite, Op: "save", Path: s.path, Message: "failed to create favorites directory", Err: err}
	}
	return nil
}

func (s *Store) lockPath() string {
	return fileutil.SiblingPath(s.path, lockSuffix)
}

// backupCorrupt copies the current file aside. It returns the backup path, or
// "" when the copy failed.
func (s *Store) backupCorrupt() string {
	backup := fileutil.SiblingPath(s.path, backupInfix+s.now().Format(backupTimeForm))
	if err := fileutil.CopyFileMode(s.path, backup, fileMode); err != nil {
		logging.WarnWithContext(s.logger, "failed to back up corrupt favorites", "favorites_backup_failed",
			logging.String(logging.FieldPath, backup),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "copy the favorites file aside before resetting"),
			logging.String(logging.FieldImpact, "resetting will discard the corrupt contents"))
		_ = os.Remove(backup)
		return ""
	}
	return backup
}
