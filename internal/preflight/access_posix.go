//go:build linux || darwin

package preflight

import "golang.org/x/sys/unix"

func checkAccess(path string) error {
	return unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK)
}

// FreeSpace returns the bytes available to unprivileged users on the
// filesystem holding path.
func FreeSpace(path string) (uint64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return 0, err
	}
	return uint64(st.Bavail) * uint64(st.Bsize), nil
}
