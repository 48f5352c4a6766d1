//go:build !unix

package daemonctl

import "syscall"

func detachedAttrs() *syscall.SysProcAttr {
	return nil
}
