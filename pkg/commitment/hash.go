package commitment

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
)

// HashFunc names a supported 32-byte hash.
type HashFunc string

const (
	SHA256    HashFunc = "sha256"
	Keccak256 HashFunc = "keccak256"
)

// ParseHashFunc converts a name such as "sha256" or "keccak256" to a HashFunc.
func ParseHashFunc(s string) (HashFunc, error) {
	switch fn := HashFunc(strings.ToLower(strings.TrimSpace(s))); fn {
	case SHA256, Keccak256:
		return fn, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedHash, s)
	}
}

// Digest is a 32-byte hash. It encodes as lowercase hex.
type Digest [32]byte

// ParseDigest decodes a hex encoded digest.
func ParseDigest(s string) (Digest, error) {
	var d Digest
	if err := d.UnmarshalText([]byte(s)); err != nil {
		return Digest{}, err
	}
	return d, nil
}

func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

func (d Digest) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Digest) UnmarshalText(text []byte) error {
	if hex.DecodedLen(len(text)) != len(d) {
		return fmt.Errorf("%w: expected %d hex characters, got %d", ErrInvalidDigest, hex.EncodedLen(len(d)), len(text))
	}
	if _, err := hex.Decode(d[:], text); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDigest, err)
	}
	return nil
}

// Hash computes the digest of data with fn.
func Hash(fn HashFunc, data []byte) (Digest, error) {
	switch fn {
	case SHA256:
		return sha256.Sum256(data), nil
	case Keccak256:
		var d Digest
		h := sha3.NewLegacyKeccak256()
		h.Write(data)
		h.Sum(d[:0])
		return d, nil
	default:
		return Digest{}, fmt.Errorf("%w: %q", ErrUnsupportedHash, fn)
	}
}
