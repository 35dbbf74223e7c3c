// Package services defines shared utilities consumed by the CLI commands and
// the external integrations (Podcast Index, RSS feeds, downloads).
//
// Key responsibilities:
//   - Context helpers that stamp command names, feed identifiers, and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper so callers can tell
//     validation and configuration problems apart from transient failures.
//
// Use these helpers when wiring new commands so operational behaviour (error
// reporting, observability) stays uniform across the tool.
package services
