package fileutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCopyFileMode(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.json")
	dst := filepath.Join(dir, "dst.json")

	if err := os.WriteFile(src, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := CopyFileMode(src, dst, 0o600); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(dst)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm()&0o077 != 0 {
		t.Fatalf("expected owner-only permissions, got %o", info.Mode().Perm())
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "data" {
		t.Fatalf("content mismatch: got %q", got)
	}
}

func TestCopyFileModeMissingSource(t *testing.T) {
	dir := t.TempDir()
	if err := CopyFileMode(filepath.Join(dir, "missing"), filepath.Join(dir, "dst"), 0o600); err == nil {
		t.Fatal("expected error for missing source")
	}
}

func TestWriteFileAtomicReplacesContents(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "favorites.json")
	tmp := path + ".tmp"

	if err := os.WriteFile(path, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := WriteFileAtomic(path, tmp, []byte("new"), 0o600); err != nil {
		t.Fatalf("WriteFileAtomic: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "new" {
		t.Fatalf("content mismatch: got %q", got)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected 0600, got %o", info.Mode().Perm())
	}
	if Exists(tmp) {
		t.Fatal("temp file should not remain after rename")
	}
}

func TestWriteFileAtomicCleansUpOnFailure(t *testing.T) {
	dir := t.TempDir()
	// Target is a non-empty directory so the rename fails.
	target := filepath.Join(dir, "target")
	if err := os.MkdirAll(filepath.Join(target, "child"), 0o755); err != nil {
		t.Fatal(err)
	}
	tmp := filepath.Join(dir, "target.tmp")

	if err := WriteFileAtomic(target, tmp, []byte("x"), 0o600); err == nil {
		t.Fatal("expected rename failure")
	}
	if Exists(tmp) {
		t.Fatal("temp file should be removed after failure")
	}
}

func TestEnsureDirAndSiblingPath(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	if err := EnsureDir(dir, 0o700); err != nil {
		t.Fatalf("EnsureDir: %v", err)
	}
	if !Exists(dir) {
		t.Fatal("expected directory to exist")
	}
	if got := SiblingPath(filepath.Join(dir, "favorites.json"), ".lock"); got != filepath.Join(dir, "favorites.json.lock") {
		t.Fatalf("unexpected sibling path %q", got)
	}
}
