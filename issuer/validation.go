package issuer

import (
	"fmt"
	"strings"

	"github.com/coinagedev/coinage/common/keys"
	"github.com/coinagedev/coinage/issuer/errors"
	"github.com/coinagedev/coinage/ledger"
)

// Service-side input policy. The accounting core accepts any descriptor
// strings; the boundaries here are the issuer's API contract.
const (
	minNameLen        = 3
	maxNameLen        = 20
	minSymbolLen      = 3
	maxSymbolLen      = 6
	maxDecimals       = 18
	maxDescriptionLen = 500
	maxIconURLLen     = 512
)

func validateSymbol(symbol string) error {
	if len(symbol) < minSymbolLen || len(symbol) > maxSymbolLen {
		return errors.InvalidArgumentMalformedField(
			fmt.Errorf("symbol must be %d to %d characters, got %d", minSymbolLen, maxSymbolLen, len(symbol)),
		)
	}
	for i := 0; i < len(symbol); i++ {
		c := symbol[i]
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return errors.InvalidArgumentMalformedField(
				fmt.Errorf("symbol must be uppercase alphanumeric, got %q", symbol),
			)
		}
	}
	return nil
}

func validateName(name string) error {
	if len(name) < minNameLen || len(name) > maxNameLen {
		return errors.InvalidArgumentMalformedField(
			fmt.Errorf("name must be %d to %d bytes, got %d", minNameLen, maxNameLen, len(name)),
		)
	}
	return nil
}

func validateDecimals(decimals uint8) error {
	if decimals > maxDecimals {
		return errors.InvalidArgumentMalformedField(
			fmt.Errorf("decimals must be at most %d, got %d", maxDecimals, decimals),
		)
	}
	return nil
}

func validateDescription(description string) error {
	if len(description) > maxDescriptionLen {
		return errors.InvalidArgumentMalformedField(
			fmt.Errorf("description must be at most %d bytes, got %d", maxDescriptionLen, len(description)),
		)
	}
	return nil
}

func validateIconURL(iconURL string) error {
	if iconURL == "" {
		return nil
	}
	if len(iconURL) > maxIconURLLen {
		return errors.InvalidArgumentMalformedField(
			fmt.Errorf("icon URL must be at most %d bytes, got %d", maxIconURLLen, len(iconURL)),
		)
	}
	if !strings.HasPrefix(iconURL, "http://") && !strings.HasPrefix(iconURL, "https://") {
		return errors.InvalidArgumentMalformedField(
			fmt.Errorf("icon URL must start with http:// or https://"),
		)
	}
	return nil
}

func validateAmount(amount uint64) error {
	if amount == 0 {
		return errors.InvalidArgumentMalformedField(fmt.Errorf("amount must be positive"))
	}
	return nil
}

func parseAddress(s string) (keys.Address, error) {
	if s == "" {
		return keys.Address{}, errors.InvalidArgumentMissingField(fmt.Errorf("address is required"))
	}
	addr, err := keys.ParseAddress(s)
	if err != nil {
		return keys.Address{}, errors.InvalidArgumentMalformedField(err)
	}
	return addr, nil
}

// validateMetadataValue applies the creation-time policy of one descriptor
// field to an update value.
func validateMetadataValue(field ledger.MetadataField, value string) error {
	switch field {
	case ledger.FieldName:
		return validateName(value)
	case ledger.FieldSymbol:
		return validateSymbol(value)
	case ledger.FieldDescription:
		return validateDescription(value)
	case ledger.FieldIconURL:
		return validateIconURL(value)
	default:
		return errors.InvalidArgumentMalformedField(fmt.Errorf("unknown metadata field %q", field))
	}
}

func validateCreateAsset(params CreateAssetParams) error {
	if err := validateSymbol(params.Symbol); err != nil {
		return err
	}
	if err := validateName(params.Name); err != nil {
		return err
	}
	if err := validateDecimals(params.Decimals); err != nil {
		return err
	}
	if err := validateDescription(params.Description); err != nil {
		return err
	}
	return validateIconURL(params.IconURL)
}
