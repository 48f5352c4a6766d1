// Package store persists watcher dedup state and extraction history in SQLite.
//
// Two tables matter: seen_files records the last modification time observed
// for every archive the watcher has handed to the workflow, so a daemon
// restart does not re-extract archives it already processed; extractions
// keeps one row per workflow invocation with its outcome, progress and error
// classification for the status API, the IPC history call and the CLI.
//
// The database is treated as disposable state. Schema changes bump the
// version in schema.go; users delete the database to adopt the new schema.
package store
