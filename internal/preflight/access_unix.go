//go:build linux || darwin

package preflight

import (
	"errors"

	"golang.org/x/sys/unix"
)

var errUnsupported = errors.New("unsupported platform")

func accessReadWrite(path string) error {
	return unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK)
}

func freeBytes(path string) (uint64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return 0, err
	}
	return uint64(st.Bavail) * uint64(st.Bsize), nil
}
