package types

// NAND geometry and layout for the console's internal flash storage.
// All driver I/O is expressed in whole sectors of SectorSize bytes.

const (
	// SectorSize is the fixed size of one NAND sector in bytes.
	SectorSize = 512

	// CryptBufLen is the size of the cipher engine's reusable scratch
	// buffer, in bytes. Keystream is produced through this arena in
	// fixed-size chunks so the hot sector path never allocates.
	CryptBufLen = 64

	// AESBlockSize is the cipher's native block size in bytes.
	AESBlockSize = 16

	// BlocksPerSector is the number of AES blocks in one sector.
	BlocksPerSector = SectorSize / AESBlockSize
)

// DeviceTag is the 4-byte ASCII identifier the filesystem-mount layer
// uses to recognize this device among others.
const DeviceTag = "NAND"

// DeviceTagValue is DeviceTag packed big-endian into a uint32, the form
// the mount layer compares against.
const DeviceTagValue = uint32('N')<<24 | uint32('A')<<16 | uint32('N')<<8 | uint32('D')

// TmdSize is the canonical size of a launcher title-metadata file in bytes.
const TmdSize = 520

// SignatureMarker is the known-valid value of the allocation table's
// corruption marker: the FAT16 media descriptor followed by the
// end-of-chain fill, as written by a fresh format.
var SignatureMarker = [4]byte{0xF8, 0xFF, 0xFF, 0xFF}

// TableLayout describes where the two copies of the filesystem's
// allocation table live on the medium. The ranges are fixed at mount
// time and must not overlap.
type TableLayout struct {
	// PrimaryStart is the first sector of the primary table copy.
	PrimaryStart uint64

	// BackupStart is the first sector of the backup table copy.
	BackupStart uint64

	// Sectors is the length of each copy, in sectors.
	Sectors uint32
}

// Contains reports whether sector falls inside either table copy.
func (l TableLayout) Contains(sector uint64) bool {
	return l.InPrimary(sector) || l.InBackup(sector)
}

// InPrimary reports whether sector falls inside the primary copy.
func (l TableLayout) InPrimary(sector uint64) bool {
	return sector >= l.PrimaryStart && sector < l.PrimaryStart+uint64(l.Sectors)
}

// InBackup reports whether sector falls inside the backup copy.
func (l TableLayout) InBackup(sector uint64) bool {
	return sector >= l.BackupStart && sector < l.BackupStart+uint64(l.Sectors)
}

// Overlaps reports whether the half-open sector range [start, start+count)
// intersects the primary table copy.
func (l TableLayout) Overlaps(start uint64, count uint32) bool {
	if count == 0 {
		return false
	}
	end := start + uint64(count)
	primEnd := l.PrimaryStart + uint64(l.Sectors)
	return start < primEnd && end > l.PrimaryStart
}

// Valid reports whether the layout is internally consistent: both copies
// are non-empty and the ranges are disjoint.
func (l TableLayout) Valid() bool {
	if l.Sectors == 0 {
		return false
	}
	primEnd := l.PrimaryStart + uint64(l.Sectors)
	backEnd := l.BackupStart + uint64(l.Sectors)
	return primEnd <= l.BackupStart || backEnd <= l.PrimaryStart
}
