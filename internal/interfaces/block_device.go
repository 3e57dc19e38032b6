package interfaces

// SectorReader provides methods for reading decrypted sectors from the device
type SectorReader interface {
	// ReadSectors reads count contiguous sectors starting at start and
	// returns the concatenated plaintext
	ReadSectors(start uint64, count uint32) ([]byte, error)
}

// SectorWriter provides methods for writing sectors to the device
type SectorWriter interface {
	// WriteSectors encrypts and writes count contiguous sectors starting
	// at start; data must be exactly count sectors of plaintext
	WriteSectors(start uint64, count uint32, data []byte) error
}

// DeviceGeometry describes the static shape of the device
type DeviceGeometry interface {
	// Geometry returns the sector size in bytes and the total sector count
	Geometry() (sectorSize uint32, sectorCount uint64)
}

// WriteGate controls the driver's write-protection state
type WriteGate interface {
	// UnlockWriting transitions the gate to unlocked; on failure the gate
	// remains locked
	UnlockWriting() error

	// LockWriting transitions the gate to locked; always succeeds
	LockWriting()

	// Writable reports the current gate state
	Writable() bool
}

// TableMaintainer exposes the dual allocation-table consistency operations
type TableMaintainer interface {
	// SetSignatureFixOffset records the byte offset, within the table
	// region, of the corruption marker repaired by ForceTableRepair
	SetSignatureFixOffset(offset uint32)

	// ForceTableRepair rewrites the backup table copy from the primary and
	// restores the corruption marker to its known-valid value
	ForceTableRepair() error

	// SynchronizeTables rewrites the backup table copy from the primary
	// without touching the signature marker
	SynchronizeTables() error
}

// BlockDevice is the complete contract the filesystem layer and the
// recovery workflow consume: sector I/O plus the administrative surface.
type BlockDevice interface {
	SectorReader
	SectorWriter
	DeviceGeometry
	WriteGate
	TableMaintainer

	// Shutdown flushes pending table work, relocks the gate and releases
	// the underlying medium; safe to call more than once
	Shutdown() error
}
