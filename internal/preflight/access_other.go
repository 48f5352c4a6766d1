//go:build !linux && !darwin

package preflight

import (
	"errors"
	"os"
)

func checkAccess(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	return f.Close()
}

// FreeSpace is not implemented on this platform.
func FreeSpace(string) (uint64, error) {
	return 0, errors.ErrUnsupported
}
