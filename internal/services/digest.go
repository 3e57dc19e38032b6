package services

import (
	"crypto/sha1"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
)

// Digest is a SHA-1 digest of a title-metadata file.
type Digest [sha1.Size]byte

// ParseDigest parses the 40-hex-character form used by the sidecar
// files shipped alongside known-good TMDs.
func ParseDigest(s string) (Digest, error) {
	var d Digest

	s = strings.TrimSpace(s)
	if len(s) < hex.EncodedLen(sha1.Size) {
		return d, fmt.Errorf("digest string too short: %q", s)
	}

	raw, err := hex.DecodeString(s[:hex.EncodedLen(sha1.Size)])
	if err != nil {
		return d, fmt.Errorf("invalid digest string: %w", err)
	}
	copy(d[:], raw)
	return d, nil
}

// ReadDigestFile reads a digest from a .sha1 sidecar file.
func ReadDigestFile(path string) (Digest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Digest{}, fmt.Errorf("failed to read digest file: %w", err)
	}
	d, err := ParseDigest(string(data))
	if err != nil {
		return Digest{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return d, nil
}

// ComputeDigest hashes everything readable from r.
func ComputeDigest(r io.Reader) (Digest, error) {
	var d Digest

	h := sha1.New()
	if _, err := io.Copy(h, r); err != nil {
		return d, fmt.Errorf("failed to hash data: %w", err)
	}
	copy(d[:], h.Sum(nil))
	return d, nil
}

// ComputeDigestBytes hashes an in-memory buffer.
func ComputeDigestBytes(data []byte) Digest {
	return Digest(sha1.Sum(data))
}

// Equal compares two digests in constant time.
func (d Digest) Equal(other Digest) bool {
	return subtle.ConstantTimeCompare(d[:], other[:]) == 1
}

// String returns the lowercase hex form.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}
