// Package daemonctl drives the daemon process from the CLI: launching a
// detached `autounzip daemon`, waiting for its IPC socket, stopping it over IPC
// with a SIGTERM/SIGKILL fallback read from the PID file, and building status
// snapshots that still work when the daemon is offline.
package daemonctl
