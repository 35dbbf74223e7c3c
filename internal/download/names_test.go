package download

import (
	"strings"
	"testing"
	"time"
)

func TestFileName(t *testing.T) {
	published := time.Date(2023, 12, 31, 23, 0, 0, 0, time.UTC)
	tests := []struct {
		name      string
		podcast   string
		published time.Time
		title     string
		url       string
		mime      string
		want      string
	}{
		{"full", "My Show", published, "Ep 1: Start", "https://x.test/a/ep1.mp3?x=1", "", "My Show - 2023-12-31 - Ep 1- Start.mp3"},
		{"no date", "My Show", time.Time{}, "Intro", "https://x.test/intro.m4a", "", "My Show - Intro.m4a"},
		{"mime fallback", "Show", published, "Talk", "https://x.test/stream", "audio/ogg", "Show - 2023-12-31 - Talk.ogg"},
		{"empty title", "Show", published, "  ", "https://x.test/a.mp3", "", "Show - 2023-12-31 - episode.mp3"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := FileName(tc.podcast, tc.published, tc.title, tc.url, tc.mime)
			if got != tc.want {
				t.Fatalf("FileName = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestFileNameTruncatesTitle(t *testing.T) {
	got := FileName("Show", time.Time{}, strings.Repeat("a", 500), "https://x.test/a.mp3", "")
	title := strings.TrimSuffix(strings.TrimPrefix(got, "Show - "), ".mp3")
	if n := len([]rune(title)); n > maxTitleRunes {
		t.Fatalf("title has %d runes, limit %d", n, maxTitleRunes)
	}
}

func TestExtension(t *testing.T) {
	tests := map[string]struct {
		url  string
		mime string
		want string
	}{
		"url ext":      {"https://x.test/a.MP3", "", ".mp3"},
		"query ignore": {"https://x.test/a.m4a?token=abc.def", "", ".m4a"},
		"mime":         {"https://x.test/play", "audio/x-m4a; charset=binary", ".m4a"},
		"unknown":      {"https://x.test/play", "application/octet-stream", ".mp3"},
		"bad ext":      {"https://x.test/file.php-x", "audio/aac", ".aac"},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			if got := Extension(tc.url, tc.mime); got != tc.want {
				t.Fatalf("Extension = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestIsMP3(t *testing.T) {
	if !isMP3("/tmp/a.mp3", "") {
		t.Fatal("expected .mp3 path to be mp3")
	}
	if !isMP3("/tmp/a.bin", "audio/mpeg") {
		t.Fatal("expected audio/mpeg to be mp3")
	}
	if isMP3("/tmp/a.m4a", "audio/mp4") {
		t.Fatal("m4a is not mp3")
	}
}
