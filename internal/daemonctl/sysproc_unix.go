//go:build unix

package daemonctl

import "syscall"

// detachedAttrs starts the daemon in its own session so it survives the
// launching terminal.
func detachedAttrs() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setsid: true}
}
