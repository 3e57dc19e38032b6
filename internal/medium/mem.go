package medium

import (
	"fmt"

	"github.com/twlnand/nandrestore/internal/interfaces"
	"github.com/twlnand/nandrestore/internal/types"
)

var _ interfaces.Medium = (*MemMedium)(nil)

// MemMedium is an in-memory medium for tests and dry runs. It honors
// the read-only/writable distinction of the real adapter and can
// inject write failures through the FailWrite hook.
type MemMedium struct {
	data     []byte
	writable bool
	closed   bool

	// FailWrite, when set, is consulted before every write; a non-nil
	// return fails the write with the medium untouched.
	FailWrite func(start uint64, count uint32) error

	// Writes counts successful sector writes.
	Writes int
}

// NewMem creates an in-memory medium of the given sector count, opened
// read-only like the file adapter.
func NewMem(sectors uint64) *MemMedium {
	return &MemMedium{data: make([]byte, sectors*types.SectorSize)}
}

// SectorCount returns the total number of sectors on the medium.
func (m *MemMedium) SectorCount() uint64 {
	return uint64(len(m.data)) / types.SectorSize
}

// ReadSectors fills buf with count raw sectors starting at start.
func (m *MemMedium) ReadSectors(start uint64, count uint32, buf []byte) error {
	if m.closed {
		return fmt.Errorf("medium is closed")
	}
	if err := m.checkRequest(start, count, buf); err != nil {
		return err
	}
	copy(buf, m.data[start*types.SectorSize:])
	return nil
}

// WriteSectors writes count raw sectors from buf starting at start.
func (m *MemMedium) WriteSectors(start uint64, count uint32, buf []byte) error {
	if m.closed {
		return fmt.Errorf("medium is closed")
	}
	if !m.writable {
		return fmt.Errorf("medium is open read-only")
	}
	if err := m.checkRequest(start, count, buf); err != nil {
		return err
	}
	if m.FailWrite != nil {
		if err := m.FailWrite(start, count); err != nil {
			return err
		}
	}
	copy(m.data[start*types.SectorSize:], buf)
	m.Writes++
	return nil
}

// Reopen switches the medium between read-only and writable access.
func (m *MemMedium) Reopen(writable bool) error {
	if m.closed {
		return fmt.Errorf("medium is closed")
	}
	m.writable = writable
	return nil
}

// Close releases the medium.
func (m *MemMedium) Close() error {
	m.closed = true
	return nil
}

// Raw exposes the backing store for test assertions on ciphertext.
func (m *MemMedium) Raw() []byte {
	return m.data
}

// Sector returns a copy of one raw sector for test assertions.
func (m *MemMedium) Sector(index uint64) []byte {
	out := make([]byte, types.SectorSize)
	copy(out, m.data[index*types.SectorSize:])
	return out
}

func (m *MemMedium) checkRequest(start uint64, count uint32, buf []byte) error {
	if len(buf) != int(count)*types.SectorSize {
		return fmt.Errorf("buffer is %d bytes, want %d sectors", len(buf), count)
	}
	if start+uint64(count) > m.SectorCount() {
		return fmt.Errorf("request [%d, %d) exceeds medium of %d sectors", start, start+uint64(count), m.SectorCount())
	}
	return nil
}
