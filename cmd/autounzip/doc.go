// Package main hosts the autounzip CLI entrypoint and command graph.
//
// The Cobra command tree covers daemon lifecycle (start, stop, status and the
// hidden foreground daemon), watch-folder management and history queries over
// the daemon's IPC socket, one-shot local extraction, and configuration
// scaffolding. Configuration resolution and socket discovery live in
// commandContext so subcommands only deal with presentation.
package main
