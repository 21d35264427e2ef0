package ledger

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/coinagedev/coinage/assetid"
	"github.com/coinagedev/coinage/common/keys"
	"github.com/coinagedev/coinage/family"
	"github.com/coinagedev/coinage/freeze"
)

// MetadataField names a mutable descriptor field.
type MetadataField string

const (
	FieldName        MetadataField = "name"
	FieldSymbol      MetadataField = "symbol"
	FieldDescription MetadataField = "description"
	FieldIconURL     MetadataField = "icon_url"
)

// ParseMetadataField maps the wire spelling of a descriptor field to its
// MetadataField value.
func ParseMetadataField(s string) (MetadataField, error) {
	switch MetadataField(s) {
	case FieldName, FieldSymbol, FieldDescription, FieldIconURL:
		return MetadataField(s), nil
	default:
		return "", fmt.Errorf("metadata field %q: %w", s, ErrUnknownField)
	}
}

// Descriptor is a point-in-time snapshot of an asset's identity and
// display metadata. Everything except the four metadata fields is fixed at
// registration.
type Descriptor struct {
	Identifier  assetid.ID
	Family      family.ID
	Symbol      string
	Name        string
	Description string
	IconURL     string
	Decimals    uint8
	Freezable   bool
	MaxSupply   uint64
}

// Info is a descriptor plus the asset's live supply figures.
type Info struct {
	Descriptor
	TotalSupply uint64
	Custodied   uint64
}

// MintReceipt reports the outcome of a mint: the custodied unit that was
// created and the supply after the operation.
type MintReceipt struct {
	UnitID      uuid.UUID
	Amount      uint64
	TotalSupply uint64
}

// BurnReceipt reports the amount destroyed and the supply after the
// operation.
type BurnReceipt struct {
	Amount      uint64
	TotalSupply uint64
}

// UnitInfo describes one custodied unit.
type UnitInfo struct {
	ID     uuid.UUID
	Amount uint64
}

// Asset is the ledger's type-erased handle for one registered asset. The
// generic capabilities captured at registration are reachable only through
// the closures below, always under the asset mutex, so the sequential
// accounting core never sees concurrent calls.
type Asset struct {
	ledger    *Ledger
	fam       family.ID
	id        assetid.ID
	freezable bool
	maxSupply uint64
	preissued uint64

	mu     sync.Mutex
	symbol string

	mint        func(amount uint64) (uuid.UUID, error)
	burnUnit    func(unitID uuid.UUID) (uint64, error)
	burnAmount  func(amount uint64) (uint64, error)
	totalSupply func() uint64
	descriptor  func() Descriptor
	updateMeta  func(field MetadataField, value string) error
	vaultUnits  func() []UnitInfo
	vaultTotal  func() uint64

	// nil unless the asset was registered with a freeze authority.
	frz    func(r *freeze.Registry, addr keys.Address) bool
	thaw   func(r *freeze.Registry, addr keys.Address) error
	frozen func(r *freeze.Registry, addr keys.Address) bool
}

// Identifier returns the asset's registration-time identifier.
func (a *Asset) Identifier() assetid.ID { return a.id }

// Family returns the asset family the handle is bound to.
func (a *Asset) Family() family.ID { return a.fam }

// Freezable reports whether the asset accepts freeze and thaw calls.
func (a *Asset) Freezable() bool { return a.freezable }

// MaxSupply returns the registration-time supply cap, zero meaning
// uncapped.
func (a *Asset) MaxSupply() uint64 { return a.maxSupply }

// PreissuedSupply returns the supply that existed before registration and
// is therefore outside the ledger's custody.
func (a *Asset) PreissuedSupply() uint64 { return a.preissued }

// Symbol returns the asset's current symbol.
func (a *Asset) Symbol() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.symbol
}

// Mint issues amount new value as one custodied unit. It fails with
// ErrMaxSupplyExceeded when the asset is capped and the mint would push
// total supply past the cap.
func (a *Asset) Mint(amount uint64) (MintReceipt, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.maxSupply > 0 && (amount > a.maxSupply || a.totalSupply() > a.maxSupply-amount) {
		return MintReceipt{}, fmt.Errorf("mint %d %s: cap %d: %w", amount, a.symbol, a.maxSupply, ErrMaxSupplyExceeded)
	}
	unitID, err := a.mint(amount)
	if err != nil {
		return MintReceipt{}, fmt.Errorf("mint %d %s: %w", amount, a.symbol, err)
	}
	return MintReceipt{UnitID: unitID, Amount: amount, TotalSupply: a.totalSupply()}, nil
}

// BurnUnit destroys one custodied unit whole.
func (a *Asset) BurnUnit(unitID uuid.UUID) (BurnReceipt, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	amount, err := a.burnUnit(unitID)
	if err != nil {
		return BurnReceipt{}, err
	}
	return BurnReceipt{Amount: amount, TotalSupply: a.totalSupply()}, nil
}

// BurnAmount destroys exactly amount from the asset's custodied units,
// consolidating and splitting them as needed. It fails with
// coin.ErrInsufficientValue when custody holds less than amount, in which
// case nothing is destroyed.
func (a *Asset) BurnAmount(amount uint64) (BurnReceipt, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	burned, err := a.burnAmount(amount)
	if err != nil {
		return BurnReceipt{}, err
	}
	return BurnReceipt{Amount: burned, TotalSupply: a.totalSupply()}, nil
}

// TotalSupply returns the asset's current total supply.
func (a *Asset) TotalSupply() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.totalSupply()
}

// Descriptor returns a snapshot of the asset's identity and metadata.
func (a *Asset) Descriptor() Descriptor {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.descriptor()
}

// Info returns the descriptor together with live supply figures.
func (a *Asset) Info() Info {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Info{
		Descriptor:  a.descriptor(),
		TotalSupply: a.totalSupply(),
		Custodied:   a.vaultTotal(),
	}
}

// Units returns the custodied units in unit-ID order.
func (a *Asset) Units() []UnitInfo {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.vaultUnits()
}

// Custodied returns the summed value of all custodied units.
func (a *Asset) Custodied() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.vaultTotal()
}

// Freeze marks addr frozen for this asset's family and reports whether the
// call changed anything. Non-freezable assets fail with ErrNotFreezable.
func (a *Asset) Freeze(addr keys.Address) (bool, error) {
	if a.frz == nil {
		return false, fmt.Errorf("freeze %s for %s: %w", addr, a.fam, ErrNotFreezable)
	}
	a.ledger.freezeMu.Lock()
	defer a.ledger.freezeMu.Unlock()
	return a.frz(a.ledger.freezes, addr), nil
}

// Thaw clears addr's freeze for this asset's family. It fails with
// freeze.ErrNotFrozen when addr is not frozen here, and with
// ErrNotFreezable on non-freezable assets.
func (a *Asset) Thaw(addr keys.Address) error {
	if a.thaw == nil {
		return fmt.Errorf("thaw %s for %s: %w", addr, a.fam, ErrNotFreezable)
	}
	a.ledger.freezeMu.Lock()
	defer a.ledger.freezeMu.Unlock()
	return a.thaw(a.ledger.freezes, addr)
}

// IsFrozen reports whether addr is frozen for this asset's family. It is
// always false for non-freezable assets.
func (a *Asset) IsFrozen(addr keys.Address) bool {
	if a.frozen == nil {
		return false
	}
	a.ledger.freezeMu.RLock()
	defer a.ledger.freezeMu.RUnlock()
	return a.frozen(a.ledger.freezes, addr)
}

// FrozenAddresses returns the addresses frozen for this asset's family in
// byte order. It is empty for non-freezable assets.
func (a *Asset) FrozenAddresses() []keys.Address {
	if !a.freezable {
		return nil
	}
	a.ledger.freezeMu.RLock()
	defer a.ledger.freezeMu.RUnlock()
	return a.ledger.freezes.FrozenInFamily(a.fam)
}
