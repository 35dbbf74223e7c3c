package download

import (
	"mime"
	"net/url"
	"path"
	"strings"
	"time"

	"pullapod/internal/textutil"
)

const maxTitleRunes = 120

var extensionByType = map[string]string{
	"audio/mpeg":  ".mp3",
	"audio/mp3":   ".mp3",
	"audio/x-m4a": ".m4a",
	"audio/mp4":   ".m4a",
	"audio/m4a":   ".m4a",
	"audio/aac":   ".aac",
	"audio/ogg":   ".ogg",
	"audio/opus":  ".opus",
	"audio/wav":   ".wav",
	"audio/x-wav": ".wav",
	"audio/flac":  ".flac",
	"video/mp4":   ".mp4",
}

// FileName builds "<podcast> - <YYYY-MM-DD> - <title>.<ext>". The date part
// is omitted when published is zero.
func FileName(podcast string, published time.Time, title, audioURL, mimeType string) string {
	parts := make([]string, 0, 3)
	if p := textutil.SanitizeFileName(podcast); p != "" {
		parts = append(parts, p)
	}
	if !published.IsZero() {
		parts = append(parts, published.UTC().Format("2006-01-02"))
	}
	t := textutil.Truncate(textutil.SanitizeFileName(title), maxTitleRunes)
	if t == "" {
		t = "episode"
	}
	parts = append(parts, t)
	return strings.Join(parts, " - ") + Extension(audioURL, mimeType)
}

// Extension picks a file extension from the URL path, falling back to the
// MIME type and finally ".mp3".
func Extension(audioURL, mimeType string) string {
	if u, err := url.Parse(audioURL); err == nil {
		ext := strings.ToLower(path.Ext(u.Path))
		if len(ext) > 1 && len(ext) <= 5 && isAlnum(ext[1:]) {
			return ext
		}
	}
	mediaType, _, err := mime.ParseMediaType(mimeType)
	if err == nil {
		if ext, ok := extensionByType[strings.ToLower(mediaType)]; ok {
			return ext
		}
	}
	return ".mp3"
}

func isAlnum(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}

func isMP3(filePath, mimeType string) bool {
	if strings.EqualFold(path.Ext(filePath), ".mp3") {
		return true
	}
	mediaType, _, _ := mime.ParseMediaType(mimeType)
	return mediaType == "audio/mpeg" || mediaType == "audio/mp3"
}
