// Package daemon coordinates the long-running autounzip process.
//
// It wires configuration, the state store, the folder watcher, and the archive
// workflow into a single lifecycle with flock-based locking to prevent multiple
// instances. On start it marks extractions left running by a crash as
// interrupted and prunes dedup entries for archives that no longer exist.
//
// The daemon owns the live watch-folder set: AddFolder and RemoveFolder mutate
// it (the watcher picks changes up on its next cycle) and persist the result
// to the configuration file. Manual extractions requested over IPC go through
// the same workflow as watched archives.
//
// The optional HTTP API serves status, history, folders, and Prometheus
// metrics, guarded by a bearer token when paths.api_token is set.
package daemon
