package keys

import (
	"bytes"
	"encoding/hex"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var rng = rand.NewChaCha8([32]byte{1})

func TestParsePublicKey(t *testing.T) {
	pubKeyBytes := MustGeneratePrivateKeyFromRand(rng).Public().Serialize()

	result, err := ParsePublicKey(pubKeyBytes)

	require.NoError(t, err)
	assert.Equal(t, pubKeyBytes, result.Serialize())
}

func TestParsePublicKey_InvalidInput_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   []byte
		wantErr string
	}{
		{
			name:    "nil",
			input:   nil,
			wantErr: "malformed public key: invalid length: 0",
		},
		{
			name:    "empty",
			input:   []byte{},
			wantErr: "malformed public key: invalid length: 0",
		},
		{
			name:    "too short",
			input:   bytes.Repeat([]byte{1}, 32),
			wantErr: "malformed public key: invalid length: 32",
		},
		{
			name:    "too long",
			input:   bytes.Repeat([]byte{1}, 34),
			wantErr: "malformed public key: invalid length: 34",
		},
		{
			name:    "invalid format",
			input:   bytes.Repeat([]byte{0}, 33),
			wantErr: "invalid public key: unsupported format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePublicKey(tt.input)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestParsePublicKeyHex(t *testing.T) {
	pub := MustGeneratePrivateKeyFromRand(rng).Public()

	got, err := ParsePublicKeyHex(pub.ToHex())

	require.NoError(t, err)
	assert.True(t, pub.Equals(got))
}

func TestParsePublicKeyHex_InvalidHex_Errors(t *testing.T) {
	_, err := ParsePublicKeyHex("not hex")
	assert.ErrorContains(t, err, "malformed public key")
}

func TestPublic_Equals(t *testing.T) {
	priv1 := MustGeneratePrivateKeyFromRand(rng)
	priv2 := MustGeneratePrivateKeyFromRand(rng)

	tests := []struct {
		name string
		a    Public
		b    Public
		want bool
	}{
		{
			name: "same keys",
			a:    priv1.Public(),
			b:    priv1.Public(),
			want: true,
		},
		{
			name: "different keys",
			a:    priv1.Public(),
			b:    priv2.Public(),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Equals(tt.b))
			// Ensure it's commutative
			assert.Equal(t, tt.want, tt.b.Equals(tt.a))
		})
	}
}

func TestPublic_ToHex(t *testing.T) {
	pubKey := MustGeneratePrivateKeyFromRand(rng).Public()

	hexStr := pubKey.ToHex()

	// Verify the hex string can be decoded back to the same bytes
	decoded, err := hex.DecodeString(hexStr)
	require.NoError(t, err)
	assert.Equal(t, pubKey.Serialize(), decoded)
}

func TestPublic_IsZero(t *testing.T) {
	assert.True(t, Public{}.IsZero())
	assert.False(t, MustGeneratePrivateKeyFromRand(rng).Public().IsZero())
}

func TestPrivate_RoundTrip(t *testing.T) {
	priv := MustGeneratePrivateKeyFromRand(rng)

	parsed, err := ParsePrivateKey(priv.Serialize())

	require.NoError(t, err)
	assert.True(t, priv.Equals(parsed))
	assert.True(t, priv.Public().Equals(parsed.Public()))
}

func TestParsePrivateKey_InvalidLength_Errors(t *testing.T) {
	_, err := ParsePrivateKey(bytes.Repeat([]byte{1}, 31))
	assert.ErrorContains(t, err, "malformed private key: invalid length: 31")
}
