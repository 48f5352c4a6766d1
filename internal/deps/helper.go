package deps

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// ErrHelperNotFound reports that a helper binary could not be located.
var ErrHelperNotFound = errors.New("helper binary not found")

// ResolveHelper returns the absolute path of command.
//
// Bare names are looked up on PATH first and then next to the running
// autounzip executable, so a helper shipped alongside the binary is found
// even when PATH is minimal (as it is for login-started daemons).
func ResolveHelper(command string) (string, error) {
	command = strings.TrimSpace(command)
	if command == "" {
		return "", fmt.Errorf("%w: empty command", ErrHelperNotFound)
	}
	if resolved, err := exec.LookPath(command); err == nil {
		if abs, absErr := filepath.Abs(resolved); absErr == nil {
			return abs, nil
		}
		return resolved, nil
	}
	if strings.ContainsRune(command, os.PathSeparator) {
		return "", fmt.Errorf("%w: %s", ErrHelperNotFound, command)
	}
	if self, err := os.Executable(); err == nil {
		if candidate, ok := sidecarCandidate(self, command); ok {
			if info, statErr := os.Stat(candidate); statErr == nil && isExecutable(info) {
				return candidate, nil
			}
		}
	}
	return "", fmt.Errorf("%w: %s", ErrHelperNotFound, command)
}

func sidecarCandidate(executable, name string) (string, bool) {
	if executable == "" || name == "" {
		return "", false
	}
	if runtime.GOOS == "windows" && filepath.Ext(name) == "" {
		name += ".exe"
	}
	return filepath.Join(filepath.Dir(executable), name), true
}

func isExecutable(info os.FileInfo) bool {
	if info == nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
