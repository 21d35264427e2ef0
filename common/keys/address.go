package keys

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/bech32"
)

// AddressHRP is the human readable prefix of the bech32m display form.
const AddressHRP = "acct"

// Address identifies an account: the SHA-256 digest of a compressed public
// key. Addresses are comparable and usable as map keys.
type Address [32]byte

// Address derives the account address of p.
func (p Public) Address() Address {
	return Address(sha256.Sum256(p.Serialize()))
}

// ParseAddress parses the 64-character hex form of an address.
func ParseAddress(s string) (Address, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Address{}, fmt.Errorf("malformed address: %w", err)
	}
	if len(b) != len(Address{}) {
		return Address{}, fmt.Errorf("malformed address: invalid length: %d", len(b))
	}
	return Address(b), nil
}

// String returns the hex form of a.
func (a Address) String() string {
	return hex.EncodeToString(a[:])
}

// Compare orders addresses bytewise.
func (a Address) Compare(b Address) int {
	return bytes.Compare(a[:], b[:])
}

// EncodeBech32m returns the bech32m display form of a under the given human
// readable prefix.
func (a Address) EncodeBech32m(hrp string) (string, error) {
	data, err := bech32.ConvertBits(a[:], 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("failed to convert bits for bech32m encoding: %w", err)
	}
	encoded, err := bech32.EncodeM(hrp, data)
	if err != nil {
		return "", fmt.Errorf("failed to encode bech32m: %w", err)
	}
	return encoded, nil
}

// MarshalText encodes a as hex, so addresses render as plain strings in JSON
// bodies and as map keys.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText decodes the hex form of an address.
func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
