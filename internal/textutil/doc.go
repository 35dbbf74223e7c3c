// Package textutil provides text normalization helpers shared by the favorites
// store, the download pipeline, and CLI output.
//
// SanitizeName produces display names safe to persist: NFC-normalized, free of
// control characters, single-spaced, and capped at a fixed rune length.
// SanitizeFileName strips characters that are unsafe in path segments.
package textutil
