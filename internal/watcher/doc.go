// Package watcher polls watch folders for newly arrived archives.
//
// A Watcher owns one goroutine. Each cycle it snapshots the folder list,
// lists every folder without recursing, and hands qualifying archives to the
// callback synchronously, so extractions are serialized by construction.
// Dedup is keyed by absolute path and modification time: a file fires once
// per distinct mtime, and a strictly newer mtime fires it again. The dedup
// state lives in an injected SeenStore (in memory, or the sqlite store when
// it must survive restarts).
package watcher
