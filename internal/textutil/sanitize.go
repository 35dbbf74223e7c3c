package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// MaxNameLength caps persisted display names, counted in runes.
const MaxNameLength = 200

// fileNameReplacer replaces filesystem-unsafe characters with safe alternatives.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeFileName replaces filesystem-unsafe characters in a filename.
// Slashes, backslashes, colons, and asterisks become dashes; other unsafe
// characters are removed. Control characters are dropped and the result is
// trimmed of surrounding whitespace and dots.
func SanitizeFileName(name string) string {
	name = SanitizeName(name)
	if name == "" {
		return ""
	}
	name = fileNameReplacer.Replace(name)
	return strings.Trim(strings.TrimSpace(name), ".")
}

// SanitizeName normalizes a user- or API-supplied display name. The result is
// NFC-normalized, has control characters removed, runs of whitespace collapsed
// to one space, and is at most MaxNameLength runes long.
func SanitizeName(value string) string {
	value = norm.NFC.String(value)
	var b strings.Builder
	b.Grow(len(value))
	pendingSpace := false
	for _, r := range value {
		switch {
		case unicode.IsSpace(r):
			pendingSpace = b.Len() > 0
		case unicode.IsControl(r), r == unicode.ReplacementChar:
			continue
		default:
			if pendingSpace {
				b.WriteByte(' ')
				pendingSpace = false
			}
			b.WriteRune(r)
		}
	}
	return Truncate(b.String(), MaxNameLength)
}

// Truncate shortens value to at most limit runes. Trailing whitespace left by
// the cut is removed.
func Truncate(value string, limit int) string {
	if limit <= 0 {
		return ""
	}
	count := 0
	for i := range value {
		if count == limit {
			return strings.TrimRightFunc(value[:i], unicode.IsSpace)
		}
		count++
	}
	return value
}
