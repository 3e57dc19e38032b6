package medium

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// mediumSize returns the medium's size in bytes. Regular image files
// report their stat size; block device nodes are sized via ioctl.
func mediumSize(f *os.File) (int64, error) {
	fi, err := f.Stat()
	if err != nil {
		return 0, err
	}

	if fi.Mode()&os.ModeDevice == 0 {
		return fi.Size(), nil
	}

	size, err := unix.IoctlGetInt(int(f.Fd()), unix.BLKGETSIZE64)
	if err != nil {
		return 0, fmt.Errorf("BLKGETSIZE64 failed: %w", err)
	}
	return int64(size), nil
}
