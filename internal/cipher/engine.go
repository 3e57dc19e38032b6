package cipher

import (
	"crypto/aes"
	stdcipher "crypto/cipher"
	"fmt"

	"github.com/twlnand/nandrestore/internal/interfaces"
	"github.com/twlnand/nandrestore/internal/types"
)

var _ interfaces.SectorCipher = (*Engine)(nil)

// Engine is the per-sector cipher for the NAND medium: AES-128 in
// counter mode, with the counter derived from the absolute AES-block
// index of the sector. Encryption and decryption are the same
// operation. Keystream is generated through a fixed scratch arena, so
// Transform never allocates; the arena makes an Engine unsafe for
// concurrent use, callers serialize access.
type Engine struct {
	block   stdcipher.Block
	iv      [types.AESBlockSize]byte
	counter [types.AESBlockSize]byte
	scratch [types.CryptBufLen]byte
}

// New creates a cipher engine from the device-unique key and base
// counter value. Both must be exactly one AES block long; a driver
// holding anything else refuses to initialize.
func New(key, iv []byte) (*Engine, error) {
	if len(key) != types.AESBlockSize {
		return nil, fmt.Errorf("cipher key must be %d bytes, got %d", types.AESBlockSize, len(key))
	}
	if len(iv) != types.AESBlockSize {
		return nil, fmt.Errorf("cipher counter must be %d bytes, got %d", types.AESBlockSize, len(iv))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	e := &Engine{block: block}
	copy(e.iv[:], iv)
	return e, nil
}

// Transform XORs buf in place with the keystream for the sectors
// starting at sector. buf must be a whole number of sectors; the tweak
// advances per AES block, so each sector of a multi-sector buffer gets
// the keystream it would get if transformed alone.
func (e *Engine) Transform(sector uint64, buf []byte) error {
	if len(buf)%types.SectorSize != 0 {
		return fmt.Errorf("transform buffer must be sector-aligned: %d bytes", len(buf))
	}

	blockIndex := sector * types.BlocksPerSector
	for off := 0; off < len(buf); off += types.CryptBufLen {
		end := off + types.CryptBufLen
		if end > len(buf) {
			end = len(buf)
		}
		chunk := buf[off:end]

		for j := 0; j < len(chunk); j += types.AESBlockSize {
			e.setCounter(blockIndex)
			e.block.Encrypt(e.scratch[j:j+types.AESBlockSize], e.counter[:])
			blockIndex++
		}
		for j := range chunk {
			chunk[j] ^= e.scratch[j]
		}
	}
	return nil
}

// setCounter loads the base counter and adds index to it as a 128-bit
// big-endian integer.
func (e *Engine) setCounter(index uint64) {
	copy(e.counter[:], e.iv[:])
	carry := index
	for i := types.AESBlockSize - 1; i >= 0 && carry > 0; i-- {
		sum := uint64(e.counter[i]) + (carry & 0xFF)
		e.counter[i] = byte(sum)
		carry = (carry >> 8) + (sum >> 8)
	}
}
