package keys

import (
	"encoding/hex"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

const compressedLen = 33

// Public is a secp256k1 public key. The zero value is no key at all.
type Public struct {
	key secp256k1.PublicKey
}

// ParsePublicKey parses a 33-byte compressed public key.
func ParsePublicKey(b []byte) (Public, error) {
	if len(b) != compressedLen {
		return Public{}, fmt.Errorf("malformed public key: invalid length: %d", len(b))
	}
	key, err := secp256k1.ParsePubKey(b)
	if err != nil {
		return Public{}, fmt.Errorf("invalid public key: unsupported format")
	}
	return Public{key: *key}, nil
}

// ParsePublicKeyHex parses a hex-encoded compressed public key.
func ParsePublicKeyHex(s string) (Public, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Public{}, fmt.Errorf("malformed public key: %w", err)
	}
	return ParsePublicKey(b)
}

// Serialize returns the 33-byte compressed form of p.
func (p Public) Serialize() []byte {
	return p.key.SerializeCompressed()
}

// ToHex returns the hex-encoded compressed form of p.
func (p Public) ToHex() string {
	return hex.EncodeToString(p.Serialize())
}

// Equals reports whether p and other are the same key.
func (p Public) Equals(other Public) bool {
	return p.key.IsEqual(&other.key)
}

// IsZero reports whether p is the zero value.
func (p Public) IsZero() bool {
	return p.key == secp256k1.PublicKey{}
}
