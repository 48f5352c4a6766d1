// Package api defines wire-format types and converters shared by the HTTP API,
// the IPC layer, and the CLI. It translates store rows, watcher counters, and
// workflow outcomes into transport-friendly DTOs so consumers never couple to
// internal types.
//
// # Key Types
//
// DaemonStatus: running state, watched folders, watcher counters, history
// counts per status, the most recent extraction, and helper availability.
//
// HistoryItem: one extraction record with progress, counts, and timestamps.
//
// ExtractResult: outcome of a manual extraction requested over IPC.
//
// # Design Notes
//
// DTOs use camelCase JSON tags. Statuses are exposed as lowercase strings and
// timestamps use RFC3339 with milliseconds. MergeHistoryStats zero-fills every
// known status so dashboards always see the same keys.
package api
