//go:build !linux

package medium

import "os"

// mediumSize returns the medium's size in bytes from its stat size.
func mediumSize(f *os.File) (int64, error) {
	fi, err := f.Stat()
	if err != nil {
		return 0, err
	}
	return fi.Size(), nil
}
