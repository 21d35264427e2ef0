package ledger

import "errors"

var (
	// ErrAssetExists reports a registration whose family or symbol is
	// already taken.
	ErrAssetExists = errors.New("asset already registered")

	// ErrAssetNotFound reports a lookup of an unregistered asset.
	ErrAssetNotFound = errors.New("asset not registered")

	// ErrNotFreezable reports a freeze mutation on an asset registered
	// without a freeze authority.
	ErrNotFreezable = errors.New("asset is not freezable")

	// ErrUnitNotFound reports a burn of a unit the vault does not custody.
	ErrUnitNotFound = errors.New("unit not found in vault")

	// ErrMaxSupplyExceeded reports a mint that would push the supply past
	// the asset's cap.
	ErrMaxSupplyExceeded = errors.New("mint exceeds max supply")

	// ErrUnknownField reports a descriptor update naming no known field.
	ErrUnknownField = errors.New("unknown descriptor field")
)
