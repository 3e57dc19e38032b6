package interfaces

// Medium is the raw medium adapter: sector-indexed I/O against the
// physical storage controller, with no knowledge of encryption or the
// allocation tables. Reads and writes are sector-atomic; the adapter
// never performs a partial-sector transfer.
type Medium interface {
	// ReadSectors fills buf with count raw sectors starting at start;
	// buf must be exactly count sectors long
	ReadSectors(start uint64, count uint32, buf []byte) error

	// WriteSectors writes count raw sectors from buf starting at start;
	// buf must be exactly count sectors long
	WriteSectors(start uint64, count uint32, buf []byte) error

	// SectorCount returns the total number of sectors on the medium
	SectorCount() uint64

	// Reopen switches the medium between read-only and writable access
	Reopen(writable bool) error

	// Close releases the medium; subsequent I/O fails
	Close() error
}
