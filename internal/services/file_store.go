package services

import (
	"fmt"
	"io"
	"os"
)

// FileStore abstracts the mounted filesystem tree the restore workflow
// reads from and writes into. The filesystem implementation itself is
// an external collaborator; the workflow only needs these operations.
type FileStore interface {
	// ReadFile returns the full contents of the file at path
	ReadFile(path string) ([]byte, error)

	// Open opens the file at path for streaming reads
	Open(path string) (io.ReadCloser, error)

	// WriteFileExact truncates the file at path to exactly len(data)
	// bytes and rewrites it from the start
	WriteFileExact(path string, data []byte) error

	// ClearReadOnly strips a read-only attribute left on path
	ClearReadOnly(path string) error
}

// OSStore is the FileStore over the host filesystem, for targets
// reachable through an ordinary mount.
type OSStore struct{}

func (OSStore) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (OSStore) Open(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

func (OSStore) WriteFileExact(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open target: %w", err)
	}
	defer f.Close()

	if err := f.Truncate(int64(len(data))); err != nil {
		return fmt.Errorf("failed to truncate target: %w", err)
	}
	if _, err := f.WriteAt(data, 0); err != nil {
		return fmt.Errorf("failed to write target: %w", err)
	}
	return f.Sync()
}

func (OSStore) ClearReadOnly(path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return err
	}
	if fi.Mode().Perm()&0o200 != 0 {
		return nil
	}
	return os.Chmod(path, fi.Mode().Perm()|0o200)
}
