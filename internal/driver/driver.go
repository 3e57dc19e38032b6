package driver

import (
	"fmt"

	"github.com/twlnand/nandrestore/internal/interfaces"
	"github.com/twlnand/nandrestore/internal/types"
)

// Driver composes the sector cipher and the raw medium adapter into the
// block-device contract the filesystem layer mounts. Every sector
// crossing the adapter boundary is ciphered with the sector's index as
// tweak; all mutation is gated behind an explicit unlock; writes into
// the primary allocation-table region are mirrored to the backup copy
// before success is reported.
//
// A Driver is the sole owner of its medium and cipher. It performs no
// internal locking; callers serialize access.
type Driver struct {
	medium interfaces.Medium
	cipher interfaces.SectorCipher
	layout types.TableLayout

	sigFixOffset uint32
	sigFixSet    bool

	unlocked    bool
	tablesDirty bool
	closed      bool
}

var _ interfaces.BlockDevice = (*Driver)(nil)

// New creates a driver over medium and cipher with the given table
// layout. The gate starts locked; the table ranges must be disjoint
// and lie within the device geometry.
func New(medium interfaces.Medium, cipher interfaces.SectorCipher, layout types.TableLayout) (*Driver, error) {
	if !layout.Valid() {
		return nil, fmt.Errorf("table layout is inconsistent: primary %d, backup %d, %d sectors each",
			layout.PrimaryStart, layout.BackupStart, layout.Sectors)
	}
	total := medium.SectorCount()
	if layout.PrimaryStart+uint64(layout.Sectors) > total || layout.BackupStart+uint64(layout.Sectors) > total {
		return nil, fmt.Errorf("table layout exceeds device of %d sectors", total)
	}

	return &Driver{
		medium: medium,
		cipher: cipher,
		layout: layout,
	}, nil
}

// Geometry returns the sector size in bytes and the total sector count.
func (d *Driver) Geometry() (uint32, uint64) {
	return types.SectorSize, d.medium.SectorCount()
}

// Writable reports whether the write gate is currently unlocked.
func (d *Driver) Writable() bool {
	return d.unlocked
}

// UnlockWriting reopens the medium for writing and unlocks the gate.
// On failure the gate remains locked.
func (d *Driver) UnlockWriting() error {
	if d.closed {
		return ErrClosed
	}
	if d.unlocked {
		return nil
	}
	if err := d.medium.Reopen(true); err != nil {
		return fmt.Errorf("failed to reopen medium for writing: %w", err)
	}
	d.unlocked = true
	return nil
}

// LockWriting locks the gate. The medium is returned to read-only
// access on a best-effort basis; the gate alone blocks writes.
func (d *Driver) LockWriting() {
	d.unlocked = false
	if !d.closed {
		_ = d.medium.Reopen(false)
	}
}

// ReadSectors reads count contiguous sectors starting at start and
// returns the concatenated plaintext. Available in both gate states.
func (d *Driver) ReadSectors(start uint64, count uint32) ([]byte, error) {
	if d.closed {
		return nil, ErrClosed
	}
	if err := d.checkRange(start, count); err != nil {
		return nil, err
	}

	buf := make([]byte, int(count)*types.SectorSize)
	if err := d.medium.ReadSectors(start, count, buf); err != nil {
		return nil, &MediumError{Op: "read", Err: err}
	}
	if err := d.cipher.Transform(start, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// WriteSectors encrypts and writes count contiguous sectors starting
// at start. Requires the gate to be unlocked. A write that touches the
// primary table region is mirrored to the backup copy before success
// is reported; multi-sector writes are not atomic on adapter failure.
func (d *Driver) WriteSectors(start uint64, count uint32, data []byte) error {
	if d.closed {
		return ErrClosed
	}
	if !d.unlocked {
		return ErrWriteProtected
	}
	if len(data) != int(count)*types.SectorSize {
		return fmt.Errorf("data is %d bytes, want %d sectors of %d", len(data), count, types.SectorSize)
	}
	if err := d.checkRange(start, count); err != nil {
		return err
	}

	if err := d.writeCiphered(start, count, data); err != nil {
		return err
	}

	if d.layout.Overlaps(start, count) {
		d.tablesDirty = true
		if err := d.mirrorToBackup(start, count, data); err != nil {
			return &PartialMirrorError{Err: err}
		}
		d.tablesDirty = false
	}
	return nil
}

// SetSignatureFixOffset records the byte offset, within the table
// region, of the corruption marker ForceTableRepair restores. It does
// not mutate storage.
func (d *Driver) SetSignatureFixOffset(offset uint32) {
	d.sigFixOffset = offset
	d.sigFixSet = true
}

// ForceTableRepair re-derives the backup table copy from the primary
// and restores the corruption marker at the recorded offset to its
// valid value in both copies. The primary always wins; a backup that
// diverged is overwritten wholesale. Requires the gate to be unlocked.
func (d *Driver) ForceTableRepair() error {
	if d.closed {
		return ErrClosed
	}
	if !d.unlocked {
		return ErrWriteProtected
	}

	table, err := d.readTable()
	if err != nil {
		return err
	}

	if d.sigFixSet {
		if int(d.sigFixOffset)+len(types.SignatureMarker) > len(table) {
			return fmt.Errorf("signature fix offset %d outside table region of %d bytes", d.sigFixOffset, len(table))
		}
		copy(table[d.sigFixOffset:], types.SignatureMarker[:])
	}

	if err := d.writeCiphered(d.layout.PrimaryStart, d.layout.Sectors, table); err != nil {
		return err
	}
	d.tablesDirty = true
	if err := d.writeBackup(table); err != nil {
		return &PartialMirrorError{Err: err}
	}
	d.tablesDirty = false
	return nil
}

// SynchronizeTables rewrites the backup table copy from the primary
// without touching the signature marker. Requires the gate to be
// unlocked.
func (d *Driver) SynchronizeTables() error {
	if d.closed {
		return ErrClosed
	}
	if !d.unlocked {
		return ErrWriteProtected
	}

	table, err := d.readTable()
	if err != nil {
		return err
	}
	d.tablesDirty = true
	if err := d.writeBackup(table); err != nil {
		return &PartialMirrorError{Err: err}
	}
	d.tablesDirty = false
	return nil
}

// Shutdown flushes pending table-mirroring work, locks the gate and
// releases the medium. Idempotent.
func (d *Driver) Shutdown() error {
	if d.closed {
		return nil
	}

	var syncErr error
	if d.unlocked && d.tablesDirty {
		syncErr = d.SynchronizeTables()
	}

	d.unlocked = false
	d.closed = true
	if err := d.medium.Close(); err != nil && syncErr == nil {
		syncErr = &MediumError{Op: "close", Err: err}
	}
	return syncErr
}

// checkRange validates a sector request against the device geometry
// before the adapter is contacted.
func (d *Driver) checkRange(start uint64, count uint32) error {
	total := d.medium.SectorCount()
	if start >= total || start+uint64(count) > total {
		return fmt.Errorf("sectors [%d, %d) on device of %d: %w", start, start+uint64(count), total, ErrOutOfRange)
	}
	return nil
}

// writeCiphered stages data through the cipher and issues the physical
// write. The caller's plaintext is never clobbered.
func (d *Driver) writeCiphered(start uint64, count uint32, data []byte) error {
	enc := make([]byte, len(data))
	copy(enc, data)
	if err := d.cipher.Transform(start, enc); err != nil {
		return err
	}
	if err := d.medium.WriteSectors(start, count, enc); err != nil {
		return &MediumError{Op: "write", Err: err}
	}
	return nil
}

// mirrorToBackup copies the plaintext of the sectors of data that fell
// inside the primary table region to their positions in the backup
// copy. Runs after the primary write succeeded; a failure here leaves
// the primary as the single source of truth.
func (d *Driver) mirrorToBackup(start uint64, count uint32, data []byte) error {
	end := start + uint64(count)
	primEnd := d.layout.PrimaryStart + uint64(d.layout.Sectors)

	lo := start
	if lo < d.layout.PrimaryStart {
		lo = d.layout.PrimaryStart
	}
	hi := end
	if hi > primEnd {
		hi = primEnd
	}

	offset := (lo - start) * types.SectorSize
	length := (hi - lo) * types.SectorSize
	backupStart := d.layout.BackupStart + (lo - d.layout.PrimaryStart)

	return d.writeCipheredRaw(backupStart, uint32(hi-lo), data[offset:offset+length])
}

// writeBackup rewrites the whole backup copy from the given table
// plaintext.
func (d *Driver) writeBackup(table []byte) error {
	return d.writeCipheredRaw(d.layout.BackupStart, d.layout.Sectors, table)
}

// writeCipheredRaw is writeCiphered with the adapter error returned
// bare, for paths that wrap it themselves.
func (d *Driver) writeCipheredRaw(start uint64, count uint32, data []byte) error {
	enc := make([]byte, len(data))
	copy(enc, data)
	if err := d.cipher.Transform(start, enc); err != nil {
		return err
	}
	return d.medium.WriteSectors(start, count, enc)
}

// readTable reads the primary table copy back as plaintext.
func (d *Driver) readTable() ([]byte, error) {
	return d.ReadSectors(d.layout.PrimaryStart, d.layout.Sectors)
}
