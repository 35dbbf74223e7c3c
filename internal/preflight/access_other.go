//go:build !(linux || darwin)

package preflight

import "errors"

var errUnsupported = errors.New("unsupported platform")

func accessReadWrite(string) error {
	return nil
}

func freeBytes(string) (uint64, error) {
	return 0, errUnsupported
}
