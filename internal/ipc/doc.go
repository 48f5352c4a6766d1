// Package ipc exposes the daemon over JSON-RPC Unix sockets and ships the
// matching client used by the CLI.
//
// The socket lives in the state directory and the service registers as
// AutoUnzip. Status and history payloads reuse the api DTOs so the CLI, the
// HTTP API, and RPC callers all see the same shapes. Stop asks the daemon to
// shut down and exit; Extract runs a manual extraction through the same
// workflow the watcher uses and blocks until it finishes.
package ipc
