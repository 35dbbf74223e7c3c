// Package fileutil holds small filesystem helpers shared by the favorites
// store and the download pipeline.
package fileutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// CopyFileMode streams src to dst, setting the given file mode on dst.
func CopyFileMode(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

// WriteFileAtomic writes data to tmpPath, syncs it, and renames it over path.
// Readers observe either the previous contents or the new contents, never a
// partial file. The temporary file is removed on any failure.
func WriteFileAtomic(path, tmpPath string, data []byte, mode os.FileMode) (err error) {
	out, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = out.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err = out.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err = out.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err = out.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err = os.Chmod(tmpPath, mode); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err = os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// EnsureDir creates dir (and parents) with the given mode when missing.
func EnsureDir(dir string, mode os.FileMode) error {
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, mode); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}

// Exists reports whether path names an existing filesystem entry.
func Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// SiblingPath returns a path in the same directory as path with suffix appended
// to the base name.
func SiblingPath(path, suffix string) string {
	return filepath.Join(filepath.Dir(path), filepath.Base(path)+suffix)
}
