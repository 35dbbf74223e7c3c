package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// AudioPayload returns size bytes that start with an MPEG audio frame header
// followed by a repeating filler, enough to pass for an untagged MP3.
func AudioPayload(size int) []byte {
	if size < 4 {
		size = 4
	}
	data := make([]byte, size)
	copy(data, []byte{0xFF, 0xFB, 0x90, 0x64})
	for i := 4; i < size; i++ {
		data[i] = byte(i % 251)
	}
	return data
}

// WriteFile writes data to path, creating parent directories as needed.
func WriteFile(t testing.TB, path string, data []byte) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
