// Package keys wraps secp256k1 key material behind small value types and
// derives the account addresses the freeze registry is keyed by.
package keys

import (
	"encoding/binary"
	"fmt"
	"math/rand/v2"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// Private is a secp256k1 private key.
type Private struct {
	key secp256k1.PrivateKey
}

// GeneratePrivateKey returns a new private key from crypto/rand.
func GeneratePrivateKey() (Private, error) {
	key, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return Private{}, fmt.Errorf("generate private key: %w", err)
	}
	return Private{key: *key}, nil
}

// MustGeneratePrivateKeyFromRand returns a private key drawn from src. Only
// for tests, where a seeded source makes key material reproducible.
func MustGeneratePrivateKeyFromRand(src rand.Source) Private {
	var buf [32]byte
	for {
		for i := 0; i < len(buf); i += 8 {
			binary.BigEndian.PutUint64(buf[i:], src.Uint64())
		}
		var scalar secp256k1.ModNScalar
		if overflow := scalar.SetBytes(&buf); overflow == 0 && !scalar.IsZero() {
			return Private{key: *secp256k1.NewPrivateKey(&scalar)}
		}
	}
}

// ParsePrivateKey parses a 32-byte private key.
func ParsePrivateKey(b []byte) (Private, error) {
	if len(b) != 32 {
		return Private{}, fmt.Errorf("malformed private key: invalid length: %d", len(b))
	}
	return Private{key: *secp256k1.PrivKeyFromBytes(b)}, nil
}

// Public returns the public key of p.
func (p Private) Public() Public {
	return Public{key: *p.key.PubKey()}
}

// Serialize returns the 32-byte form of p.
func (p Private) Serialize() []byte {
	return p.key.Serialize()
}

// Equals reports whether p and other are the same key.
func (p Private) Equals(other Private) bool {
	return p.key.Key.Equals(&other.key.Key)
}
