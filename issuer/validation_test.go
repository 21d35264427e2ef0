package issuer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coinageerrors "github.com/coinagedev/coinage/issuer/errors"
	"github.com/coinagedev/coinage/ledger"
)

func requireMalformed(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	code, reason := coinageerrors.CodeAndReasonFrom(err)
	assert.Equal(t, coinageerrors.CodeInvalidArgument, code)
	assert.Equal(t, coinageerrors.ReasonInvalidArgumentMalformedField, reason)
}

func TestValidateSymbol(t *testing.T) {
	for _, symbol := range []string{"USD", "EURO", "BTC100", "A1B"} {
		assert.NoError(t, validateSymbol(symbol), "symbol %q", symbol)
	}
	for _, symbol := range []string{"", "US", "TOOLONGSYM", "usd", "US-D", "US D", "ÜSD"} {
		requireMalformed(t, validateSymbol(symbol))
	}
}

func TestValidateName(t *testing.T) {
	assert.NoError(t, validateName("US Dollar"))
	assert.NoError(t, validateName("USD"))
	requireMalformed(t, validateName("US"))
	requireMalformed(t, validateName(strings.Repeat("x", maxNameLen+1)))
}

func TestValidateDecimals(t *testing.T) {
	assert.NoError(t, validateDecimals(0))
	assert.NoError(t, validateDecimals(maxDecimals))
	requireMalformed(t, validateDecimals(maxDecimals+1))
}

func TestValidateDescription(t *testing.T) {
	assert.NoError(t, validateDescription(""))
	assert.NoError(t, validateDescription(strings.Repeat("d", maxDescriptionLen)))
	requireMalformed(t, validateDescription(strings.Repeat("d", maxDescriptionLen+1)))
}

func TestValidateIconURL(t *testing.T) {
	assert.NoError(t, validateIconURL(""))
	assert.NoError(t, validateIconURL("https://example.com/icon.png"))
	assert.NoError(t, validateIconURL("http://example.com/icon.png"))
	requireMalformed(t, validateIconURL("ftp://example.com/icon.png"))
	requireMalformed(t, validateIconURL("example.com/icon.png"))
	requireMalformed(t, validateIconURL("https://example.com/"+strings.Repeat("p", maxIconURLLen)))
}

func TestValidateAmount(t *testing.T) {
	assert.NoError(t, validateAmount(1))
	requireMalformed(t, validateAmount(0))
}

func TestParseAddress(t *testing.T) {
	addr, err := parseAddress(strings.Repeat("ab", 32))
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("ab", 32), addr.String())

	_, err = parseAddress("")
	require.Error(t, err)
	code, reason := coinageerrors.CodeAndReasonFrom(err)
	assert.Equal(t, coinageerrors.CodeInvalidArgument, code)
	assert.Equal(t, coinageerrors.ReasonInvalidArgumentMissingField, reason)

	_, err = parseAddress("zzzz")
	requireMalformed(t, err)
	_, err = parseAddress("abcd")
	requireMalformed(t, err)
}

func TestValidateMetadataValue(t *testing.T) {
	assert.NoError(t, validateMetadataValue(ledger.FieldName, "US Dollar"))
	assert.NoError(t, validateMetadataValue(ledger.FieldSymbol, "USDC"))
	assert.NoError(t, validateMetadataValue(ledger.FieldDescription, ""))
	assert.NoError(t, validateMetadataValue(ledger.FieldIconURL, "https://example.com/i.png"))

	requireMalformed(t, validateMetadataValue(ledger.FieldName, "x"))
	requireMalformed(t, validateMetadataValue(ledger.FieldSymbol, "nope"))
	requireMalformed(t, validateMetadataValue(ledger.FieldIconURL, "not-a-url"))
	requireMalformed(t, validateMetadataValue(ledger.MetadataField("color"), "red"))
}

func TestValidateCreateAsset(t *testing.T) {
	valid := CreateAssetParams{
		Symbol:   "USD",
		Name:     "US Dollar",
		Decimals: 2,
	}
	assert.NoError(t, validateCreateAsset(valid))

	bad := valid
	bad.Symbol = "usd"
	requireMalformed(t, validateCreateAsset(bad))

	bad = valid
	bad.Name = "no"
	requireMalformed(t, validateCreateAsset(bad))

	bad = valid
	bad.Decimals = 19
	requireMalformed(t, validateCreateAsset(bad))

	bad = valid
	bad.IconURL = "gopher://example.com"
	requireMalformed(t, validateCreateAsset(bad))
}
