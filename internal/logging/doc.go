// Package logging assembles structured slog loggers and formatting helpers used
// across dupfind.
//
// It owns the console/JSON handlers, centralizes level and output plumbing,
// and exposes context-aware helpers so scan stages automatically tag log lines
// with the scan ID and phase. The package also provides a no-op logger for
// tests and wiring code that cannot fail.
//
// Recoverable per-file failures (unreadable directories, files that vanish
// before hashing, deletions that fail) are reported through WarnWithContext so
// every diagnostic carries an event type, a hint, and the impact on results.
package logging
