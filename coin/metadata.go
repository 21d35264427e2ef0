package coin

import "fmt"

// Metadata is the descriptor of asset type T: decimals, symbol, display
// name, description, and an icon reference. Decimals are carried as data
// for hosts to render with; value arithmetic never consults them.
//
// The descriptor is created at genesis and amended only with the mint
// authority presented. Amendment does not consume the authority, but once
// the authority is downgraded with IntoSupply the descriptor is frozen in
// content forever.
type Metadata[T any] struct {
	decimals    uint8
	symbol      string
	name        string
	description string
	iconURL     string
}

func newMetadata[T any](decimals uint8, symbol, name, description, iconURL string) *Metadata[T] {
	return &Metadata[T]{
		decimals:    decimals,
		symbol:      symbol,
		name:        name,
		description: description,
		iconURL:     iconURL,
	}
}

// Decimals reports the power of ten separating the on-ledger unit from the
// display unit.
func (m *Metadata[T]) Decimals() uint8 { return m.decimals }

// Symbol reports the asset's ticker symbol.
func (m *Metadata[T]) Symbol() string { return m.symbol }

// Name reports the asset's display name.
func (m *Metadata[T]) Name() string { return m.name }

// Description reports the asset's description text.
func (m *Metadata[T]) Description() string { return m.description }

// IconURL reports the asset's icon reference.
func (m *Metadata[T]) IconURL() string { return m.iconURL }

// UpdateName amends the display name. The authority is presented, not
// consumed; a voided authority fails with ErrAuthorityConsumed.
func (m *Metadata[T]) UpdateName(auth *MintAuthority[T], name string) error {
	if err := m.checkAuthority(auth); err != nil {
		return err
	}
	m.name = name
	return nil
}

// UpdateSymbol amends the ticker symbol.
func (m *Metadata[T]) UpdateSymbol(auth *MintAuthority[T], symbol string) error {
	if err := m.checkAuthority(auth); err != nil {
		return err
	}
	m.symbol = symbol
	return nil
}

// UpdateDescription amends the description text.
func (m *Metadata[T]) UpdateDescription(auth *MintAuthority[T], description string) error {
	if err := m.checkAuthority(auth); err != nil {
		return err
	}
	m.description = description
	return nil
}

// UpdateIconURL amends the icon reference.
func (m *Metadata[T]) UpdateIconURL(auth *MintAuthority[T], iconURL string) error {
	if err := m.checkAuthority(auth); err != nil {
		return err
	}
	m.iconURL = iconURL
	return nil
}

func (m *Metadata[T]) checkAuthority(auth *MintAuthority[T]) error {
	if auth == nil || auth.supply == nil {
		return fmt.Errorf("amend descriptor of %q: %w", m.symbol, ErrAuthorityConsumed)
	}
	return nil
}
