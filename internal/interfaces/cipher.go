package interfaces

// SectorCipher transforms one sector of data in place, keyed by the
// device-unique secret and tweaked by the sector's index so identical
// plaintext encrypts differently by position. The transform is its own
// inverse; the same call serves encryption and decryption.
type SectorCipher interface {
	// Transform applies the keystream for sector to buf in place;
	// buf must be a whole number of sectors
	Transform(sector uint64, buf []byte) error
}
