//go:build !unix

package deps

import "errors"

// FreeSpace is not implemented on this platform.
func FreeSpace(string) (uint64, error) {
	return 0, errors.New("free space check unsupported on this platform")
}
