// Package logging assembles the slog loggers shared by the daemon, the CLI,
// and the extraction workflow.
//
// It owns the console and JSON handlers, rotates the daemon log file through
// lumberjack, stamps every daemon record with the run identifier, and exposes
// context-aware helpers so workflow code can tag log lines with the archive,
// format, and watch folder being handled. A no-op logger is provided for tests
// and wiring code that cannot fail.
package logging
