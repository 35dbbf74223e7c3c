// Package logging assembles structured slog loggers and formatting helpers used
// across pullapod commands.
//
// It owns the console/JSON handlers, centralizes level and output plumbing,
// and exposes context-aware helpers so command code can tag log lines with the
// running command, feed identifiers, and correlation IDs. Every CLI invocation
// carries a session_id so interleaved output from concurrent runs can be told
// apart. The package also provides a no-op logger for tests and wiring code
// that cannot fail.
//
// Logs are written to stderr by default so command output on stdout stays
// machine-readable.
package logging
