// Package services defines shared utilities consumed by the extraction
// workflow, the watcher, and the archive backends.
//
// Key responsibilities:
//   - Context helpers that stamp archive paths, formats, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper that classify failures so
//     history rows and metrics carry a stable reason label.
//
// Use these helpers when wiring new backends so operational behaviour (error
// classification, observability) stays uniform across formats.
package services
