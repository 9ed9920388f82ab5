// Package content computes the content hashes that serve as file identity.
package content

import (
	"bufio"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
)

const Size = sha256.Size

// CompactSize is the byte width of a CompactHash.
const CompactSize = 8

const readBufferSize = 64 * 1024

// Hash is the SHA-256 digest of a complete byte stream. Equality is bitwise.
type Hash [Size]byte

// CompactHash is the leading 64 bits of a Hash, big-endian.
type CompactHash uint64

var zeroHash Hash

// Sum reads r to exhaustion and returns the digest along with the number of bytes read.
// The engine does not retry a failed read.
func Sum(r io.Reader) (h Hash, n int64, err error) {
	digest := sha256.New()
	n, err = io.Copy(digest, bufio.NewReaderSize(r, readBufferSize))
	if err != nil {
		return Hash{}, n, err
	}
	copy(h[:], digest.Sum(nil))
	return h, n, nil
}

// SumBytes hashes an in-memory byte slice.
func SumBytes(content []byte) Hash {
	return sha256.Sum256(content)
}

func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

func (h Hash) IsZero() bool {
	return h == zeroHash
}

func (h Hash) Compact() CompactHash {
	return CompactHash(binary.BigEndian.Uint64(h[:CompactSize]))
}

func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *Hash) UnmarshalText(text []byte) error {
	parsed, err := ParseHash(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// ParseHash accepts exactly 2*Size hex characters of either case.
func ParseHash(text string) (Hash, error) {
	var h Hash
	if len(text) != 2*Size {
		return h, fmt.Errorf("content hash must have %d hex characters, got %d", 2*Size, len(text))
	}
	if _, err := hex.Decode(h[:], []byte(text)); err != nil {
		return Hash{}, fmt.Errorf("content hash %q is not hex: %w", text, err)
	}
	return h, nil
}

func (c CompactHash) String() string {
	return fmt.Sprintf("%016x", uint64(c))
}

func (c CompactHash) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *CompactHash) UnmarshalText(text []byte) error {
	parsed, err := ParseCompactHash(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func ParseCompactHash(text string) (CompactHash, error) {
	if len(text) != 2*CompactSize {
		return 0, fmt.Errorf("compact hash must have %d hex characters, got %d", 2*CompactSize, len(text))
	}
	var raw [CompactSize]byte
	if _, err := hex.Decode(raw[:], []byte(text)); err != nil {
		return 0, fmt.Errorf("compact hash %q is not hex: %w", text, err)
	}
	return CompactHash(binary.BigEndian.Uint64(raw[:])), nil
}
