package coin

import (
	"fmt"

	"github.com/coinagedev/coinage/freeze"
	"github.com/coinagedev/coinage/genesis"
)

// MintAuthority is the capability to issue and destroy asset T and to amend
// its descriptor. At most one is ever created per asset type; the genesis
// witness enforces that. The zero value is a dead capability and every
// operation on it fails with ErrAuthorityConsumed.
type MintAuthority[T any] struct {
	supply *Supply[T]
}

// Create performs the genesis of asset type T: it spends the witness,
// initializes a zero supply, and returns the mint authority paired with the
// asset's descriptor. It fails with ErrBadWitness when the witness is
// forged, spent, or not the first claimed for T, in which case nothing is
// created.
//
// The descriptor fields are accepted as given; hosts that need length or
// charset policy enforce it above this layer.
func Create[T any](w genesis.Witness[T], decimals uint8, symbol, name, description, iconURL string) (*MintAuthority[T], *Metadata[T], error) {
	if _, err := genesis.Redeem(w); err != nil {
		return nil, nil, fmt.Errorf("create asset %q: %w", symbol, err)
	}
	auth := &MintAuthority[T]{supply: newSupply[T]()}
	meta := newMetadata[T](decimals, symbol, name, description, iconURL)
	return auth, meta, nil
}

// CreateRegulated is Create for assets whose addresses can be frozen: it
// additionally derives the asset's family and returns the paired freeze
// authority. It fails with freeze.ErrNoFamily when T has no resolvable
// family; the witness is not spent in that case.
func CreateRegulated[T any](w genesis.Witness[T], decimals uint8, symbol, name, description, iconURL string) (*MintAuthority[T], *freeze.Authority[T], *Metadata[T], error) {
	if err := freeze.CheckFamily[T](); err != nil {
		return nil, nil, nil, fmt.Errorf("create regulated asset %q: %w", symbol, err)
	}
	proof, err := genesis.Redeem(w)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create regulated asset %q: %w", symbol, err)
	}
	freezeAuth, err := freeze.NewAuthority(proof)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create regulated asset %q: %w", symbol, err)
	}
	auth := &MintAuthority[T]{supply: newSupply[T]()}
	meta := newMetadata[T](decimals, symbol, name, description, iconURL)
	return auth, freezeAuth, meta, nil
}

// Mint issues amount new units of value as a single identified unit. It
// fails with ErrOverflow when the supply total would wrap and with
// ErrAuthorityConsumed after IntoSupply.
func (a *MintAuthority[T]) Mint(amount uint64) (Coin[T], error) {
	b, err := a.MintBalance(amount)
	if err != nil {
		return Coin[T]{}, err
	}
	return FromBalance(&b), nil
}

// MintBalance issues amount new units of value into an anonymous container.
func (a *MintAuthority[T]) MintBalance(amount uint64) (Balance[T], error) {
	if a.supply == nil {
		return Balance[T]{}, fmt.Errorf("mint %d: %w", amount, ErrAuthorityConsumed)
	}
	return a.supply.Increase(amount)
}

// Burn drains c, removes its value from circulation, and retires its
// identity. It returns the amount destroyed. Burning a zero-value unit is
// legal and only retires the identity.
func (a *MintAuthority[T]) Burn(c *Coin[T]) (uint64, error) {
	if a.supply == nil {
		return 0, fmt.Errorf("burn unit %s: %w", c.ID(), ErrAuthorityConsumed)
	}
	b := c.IntoBalance()
	return a.supply.Decrease(&b), nil
}

// BurnBalance drains b and removes its value from circulation, returning
// the amount destroyed.
func (a *MintAuthority[T]) BurnBalance(b *Balance[T]) (uint64, error) {
	if a.supply == nil {
		return 0, fmt.Errorf("burn container holding %d: %w", b.Value(), ErrAuthorityConsumed)
	}
	return a.supply.Decrease(b), nil
}

// TotalSupply reports the total value currently issued, or zero after
// IntoSupply.
func (a *MintAuthority[T]) TotalSupply() uint64 {
	if a.supply == nil {
		return 0
	}
	return a.supply.Total()
}

// Live reports whether a still holds its supply.
func (a *MintAuthority[T]) Live() bool {
	return a.supply != nil
}

// IntoSupply permanently downgrades a to its bare supply. The supply
// remains fully usable for issuance by whoever holds it, but a is voided:
// every later operation on it, including descriptor amendment, fails with
// ErrAuthorityConsumed. The downgrade is irreversible.
func (a *MintAuthority[T]) IntoSupply() (*Supply[T], error) {
	if a.supply == nil {
		return nil, fmt.Errorf("downgrade authority: %w", ErrAuthorityConsumed)
	}
	s := a.supply
	a.supply = nil
	return s, nil
}
