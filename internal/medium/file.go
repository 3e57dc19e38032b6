package medium

import (
	"fmt"
	"os"

	"github.com/twlnand/nandrestore/internal/interfaces"
	"github.com/twlnand/nandrestore/internal/types"
)

var _ interfaces.Medium = (*FileMedium)(nil)

// FileMedium adapts a NAND image file, or a raw block device node, to
// the sector-indexed medium contract. It is opened read-only; the
// driver's unlock path calls Reopen(true) to switch to writable access.
type FileMedium struct {
	path     string
	file     *os.File
	writable bool
	sectors  uint64
}

// OpenFile opens the image or device at path for read-only access.
func OpenFile(path string) (*FileMedium, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open medium: %w", err)
	}

	size, err := mediumSize(file)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to size medium: %w", err)
	}
	if size%types.SectorSize != 0 {
		file.Close()
		return nil, fmt.Errorf("medium size %d is not sector-aligned", size)
	}

	return &FileMedium{
		path:    path,
		file:    file,
		sectors: uint64(size) / types.SectorSize,
	}, nil
}

// SectorCount returns the total number of sectors on the medium.
func (m *FileMedium) SectorCount() uint64 {
	return m.sectors
}

// ReadSectors fills buf with count raw sectors starting at start.
func (m *FileMedium) ReadSectors(start uint64, count uint32, buf []byte) error {
	if m.file == nil {
		return fmt.Errorf("medium is closed")
	}
	if err := m.checkRequest(start, count, buf); err != nil {
		return err
	}
	if _, err := m.file.ReadAt(buf, int64(start)*types.SectorSize); err != nil {
		return fmt.Errorf("read of %d sectors at %d failed: %w", count, start, err)
	}
	return nil
}

// WriteSectors writes count raw sectors from buf starting at start.
func (m *FileMedium) WriteSectors(start uint64, count uint32, buf []byte) error {
	if m.file == nil {
		return fmt.Errorf("medium is closed")
	}
	if !m.writable {
		return fmt.Errorf("medium is open read-only")
	}
	if err := m.checkRequest(start, count, buf); err != nil {
		return err
	}
	if _, err := m.file.WriteAt(buf, int64(start)*types.SectorSize); err != nil {
		return fmt.Errorf("write of %d sectors at %d failed: %w", count, start, err)
	}
	return nil
}

// Reopen switches the medium between read-only and writable access.
// On failure the previous handle is kept and the old mode remains in
// effect.
func (m *FileMedium) Reopen(writable bool) error {
	if m.file == nil {
		return fmt.Errorf("medium is closed")
	}
	if writable == m.writable {
		return nil
	}

	flag := os.O_RDONLY
	if writable {
		flag = os.O_RDWR
	}
	file, err := os.OpenFile(m.path, flag, 0)
	if err != nil {
		return fmt.Errorf("failed to reopen medium: %w", err)
	}

	m.file.Close()
	m.file = file
	m.writable = writable
	return nil
}

// Close releases the underlying file. Safe to call more than once.
func (m *FileMedium) Close() error {
	if m.file == nil {
		return nil
	}
	err := m.file.Close()
	m.file = nil
	m.writable = false
	return err
}

func (m *FileMedium) checkRequest(start uint64, count uint32, buf []byte) error {
	if len(buf) != int(count)*types.SectorSize {
		return fmt.Errorf("buffer is %d bytes, want %d sectors", len(buf), count)
	}
	if start+uint64(count) > m.sectors {
		return fmt.Errorf("request [%d, %d) exceeds medium of %d sectors", start, start+uint64(count), m.sectors)
	}
	return nil
}
