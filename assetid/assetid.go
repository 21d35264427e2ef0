// Package assetid derives stable asset identifiers from the fields fixed at
// genesis. The identifier commits to the issuer key and the economic
// parameters of the asset, so two assets with the same symbol but different
// issuers, decimals, or caps never collide, and the same inputs derive the
// same identifier in every process.
package assetid

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"hash"

	"github.com/btcsuite/btcd/btcutil/bech32"

	"github.com/coinagedev/coinage/common/keys"
)

// HRP is the human readable prefix of the bech32m display form.
const HRP = "asset"

// idVersion is committed into the digest so a future field change derives
// disjoint identifiers.
const idVersion = byte(1)

// ID is a 32-byte asset identifier.
type ID [32]byte

// Derive computes the identifier of an asset from its genesis fields. A max
// supply of zero means uncapped and is committed as such.
func Derive(issuer keys.Public, symbol, name string, decimals uint8, freezable bool, maxSupply uint64) ID {
	h := sha256.New()
	h.Write([]byte{idVersion})
	writeLenPrefixed(h, issuer.Serialize())
	writeLenPrefixed(h, []byte(symbol))
	writeLenPrefixed(h, []byte(name))
	h.Write([]byte{decimals})
	if freezable {
		h.Write([]byte{1})
	} else {
		h.Write([]byte{0})
	}
	var supplyCap [8]byte
	binary.BigEndian.PutUint64(supplyCap[:], maxSupply)
	h.Write(supplyCap[:])
	return ID(h.Sum(nil))
}

func writeLenPrefixed(h hash.Hash, b []byte) {
	var n [4]byte
	binary.BigEndian.PutUint32(n[:], uint32(len(b)))
	h.Write(n[:])
	h.Write(b)
}

// Encode returns the bech32m display form of id.
func Encode(id ID) (string, error) {
	data, err := bech32.ConvertBits(id[:], 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("failed to convert bits for bech32m encoding: %w", err)
	}
	encoded, err := bech32.EncodeM(HRP, data)
	if err != nil {
		return "", fmt.Errorf("failed to encode bech32m: %w", err)
	}
	return encoded, nil
}

// Decode parses the bech32m display form of an identifier.
func Decode(s string) (ID, error) {
	hrp, data, err := bech32.DecodeNoLimit(s)
	if err != nil {
		return ID{}, fmt.Errorf("malformed asset identifier: %w", err)
	}
	if hrp != HRP {
		return ID{}, fmt.Errorf("malformed asset identifier: unexpected prefix %q", hrp)
	}
	raw, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return ID{}, fmt.Errorf("malformed asset identifier: %w", err)
	}
	if len(raw) != len(ID{}) {
		return ID{}, fmt.Errorf("malformed asset identifier: invalid length: %d", len(raw))
	}
	return ID(raw), nil
}

// String returns the bech32m display form, falling back to hex if encoding
// is impossible.
func (id ID) String() string {
	encoded, err := Encode(id)
	if err != nil {
		return hex.EncodeToString(id[:])
	}
	return encoded
}

// MarshalText encodes id in its display form for JSON bodies.
func (id ID) MarshalText() ([]byte, error) {
	encoded, err := Encode(id)
	if err != nil {
		return nil, err
	}
	return []byte(encoded), nil
}

// UnmarshalText decodes the display form of an identifier.
func (id *ID) UnmarshalText(text []byte) error {
	decoded, err := Decode(string(text))
	if err != nil {
		return err
	}
	*id = decoded
	return nil
}
