// Package ledger hosts registered assets behind a thread-safe, type-erased
// surface. The accounting core is generic and sequential; the ledger binds
// each asset type's capabilities into closures at registration and wraps
// every entry point in the mutual exclusion the core requires, so daemons
// and tools can drive any number of assets from any number of goroutines
// without knowing their type parameters.
//
// The ledger custodies what it mints: every unit issued through an Asset
// handle lives in that asset's vault until it is burned. Value issued
// before registration is recorded as a pre-issued baseline so the
// conservation audit stays meaningful for it.
package ledger

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/coinagedev/coinage/assetid"
	"github.com/coinagedev/coinage/coin"
	"github.com/coinagedev/coinage/common/keys"
	"github.com/coinagedev/coinage/family"
	"github.com/coinagedev/coinage/freeze"
)

// Ledger is a registry of live assets sharing one freeze index.
type Ledger struct {
	mu       sync.RWMutex
	bySymbol map[string]*Asset
	byFamily map[family.ID]*Asset
	byID     map[assetid.ID]*Asset

	freezeMu sync.RWMutex
	freezes  *freeze.Registry
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{
		bySymbol: make(map[string]*Asset),
		byFamily: make(map[family.ID]*Asset),
		byID:     make(map[assetid.ID]*Asset),
		freezes:  freeze.NewRegistry(),
	}
}

// Register binds asset type T into the ledger under its family, deriving
// the asset's identifier from the issuer key and the descriptor. The
// authority must still be live and the symbol and family must be free. A
// max supply of zero means uncapped.
func Register[T any](l *Ledger, auth *coin.MintAuthority[T], meta *coin.Metadata[T], issuer keys.Public, maxSupply uint64) (*Asset, error) {
	return register(l, auth, meta, nil, issuer, maxSupply)
}

// RegisterRegulated is Register for assets created with a freeze authority;
// the resulting handle accepts freeze and thaw calls.
func RegisterRegulated[T any](l *Ledger, auth *coin.MintAuthority[T], freezeAuth *freeze.Authority[T], meta *coin.Metadata[T], issuer keys.Public, maxSupply uint64) (*Asset, error) {
	if freezeAuth == nil {
		return nil, fmt.Errorf("register regulated %q: nil freeze authority: %w", meta.Symbol(), coin.ErrInvalidArgument)
	}
	return register(l, auth, meta, freezeAuth, issuer, maxSupply)
}

func register[T any](l *Ledger, auth *coin.MintAuthority[T], meta *coin.Metadata[T], freezeAuth *freeze.Authority[T], issuer keys.Public, maxSupply uint64) (*Asset, error) {
	fam, ok := family.Of[T]()
	if !ok {
		return nil, fmt.Errorf("register %q: %w", meta.Symbol(), freeze.ErrNoFamily)
	}
	if !auth.Live() {
		return nil, fmt.Errorf("register %q: %w", meta.Symbol(), coin.ErrAuthorityConsumed)
	}

	id := assetid.Derive(issuer, meta.Symbol(), meta.Name(), meta.Decimals(), freezeAuth != nil, maxSupply)
	vault := make(map[uuid.UUID]*coin.Coin[T])

	a := &Asset{
		ledger:    l,
		fam:       fam,
		id:        id,
		freezable: freezeAuth != nil,
		maxSupply: maxSupply,
		preissued: auth.TotalSupply(),
		symbol:    meta.Symbol(),

		mint: func(amount uint64) (uuid.UUID, error) {
			c, err := auth.Mint(amount)
			if err != nil {
				return uuid.UUID{}, err
			}
			vault[c.ID()] = &c
			return c.ID(), nil
		},
		burnUnit: func(unitID uuid.UUID) (uint64, error) {
			c, ok := vault[unitID]
			if !ok {
				return 0, fmt.Errorf("burn unit %s: %w", unitID, ErrUnitNotFound)
			}
			delete(vault, unitID)
			return auth.Burn(c)
		},
		burnAmount: func(amount uint64) (uint64, error) {
			return burnFromVault(auth, vault, amount)
		},
		totalSupply: auth.TotalSupply,
		descriptor: func() Descriptor {
			return Descriptor{
				Identifier:  id,
				Family:      fam,
				Symbol:      meta.Symbol(),
				Name:        meta.Name(),
				Description: meta.Description(),
				IconURL:     meta.IconURL(),
				Decimals:    meta.Decimals(),
				Freezable:   freezeAuth != nil,
				MaxSupply:   maxSupply,
			}
		},
		updateMeta: func(field MetadataField, value string) error {
			switch field {
			case FieldName:
				return meta.UpdateName(auth, value)
			case FieldSymbol:
				return meta.UpdateSymbol(auth, value)
			case FieldDescription:
				return meta.UpdateDescription(auth, value)
			case FieldIconURL:
				return meta.UpdateIconURL(auth, value)
			default:
				return fmt.Errorf("update %q: %w", field, ErrUnknownField)
			}
		},
		vaultUnits: func() []UnitInfo {
			units := make([]UnitInfo, 0, len(vault))
			for _, c := range vault {
				units = append(units, UnitInfo{ID: c.ID(), Amount: c.Value()})
			}
			slices.SortFunc(units, func(a, b UnitInfo) int {
				return strings.Compare(a.ID.String(), b.ID.String())
			})
			return units
		},
		vaultTotal: func() uint64 {
			var total uint64
			for _, c := range vault {
				total += c.Value()
			}
			return total
		},
	}

	if freezeAuth != nil {
		a.frz = func(r *freeze.Registry, addr keys.Address) bool {
			return freezeAuth.Freeze(r, addr)
		}
		a.thaw = func(r *freeze.Registry, addr keys.Address) error {
			return freezeAuth.Thaw(r, addr)
		}
		a.frozen = func(r *freeze.Registry, addr keys.Address) bool {
			return freeze.IsFrozen[T](r, addr)
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, taken := l.byFamily[fam]; taken {
		return nil, fmt.Errorf("register %q: family %s: %w", meta.Symbol(), fam, ErrAssetExists)
	}
	if _, taken := l.bySymbol[a.symbol]; taken {
		return nil, fmt.Errorf("register %q: %w", a.symbol, ErrAssetExists)
	}
	if _, taken := l.byID[id]; taken {
		return nil, fmt.Errorf("register %q: identifier %s: %w", a.symbol, id, ErrAssetExists)
	}
	l.bySymbol[a.symbol] = a
	l.byFamily[fam] = a
	l.byID[id] = a
	return a, nil
}

// burnFromVault destroys amount, consolidating custodied units as needed.
// Units are consumed in unit-ID order so the operation is deterministic.
func burnFromVault[T any](auth *coin.MintAuthority[T], vault map[uuid.UUID]*coin.Coin[T], amount uint64) (uint64, error) {
	if amount == 0 {
		return 0, nil
	}
	var total uint64
	for _, c := range vault {
		total += c.Value()
	}
	if total < amount {
		return 0, fmt.Errorf("burn %d with %d custodied: %w", amount, total, coin.ErrInsufficientValue)
	}

	ids := make([]uuid.UUID, 0, len(vault))
	for unitID := range vault {
		ids = append(ids, unitID)
	}
	slices.SortFunc(ids, func(a, b uuid.UUID) int {
		return strings.Compare(a.String(), b.String())
	})

	var acc *coin.Coin[T]
	for _, unitID := range ids {
		if acc == nil {
			acc = vault[unitID]
		} else {
			// Joins move value between custodied units of one supply, so
			// they can neither overflow nor change the vault total.
			if err := acc.Join(vault[unitID]); err != nil {
				return 0, err
			}
			delete(vault, unitID)
		}
		if acc.Value() >= amount {
			break
		}
	}

	if acc.Value() == amount {
		delete(vault, acc.ID())
		return auth.Burn(acc)
	}
	split, err := acc.Split(amount)
	if err != nil {
		return 0, err
	}
	return auth.Burn(&split)
}

// Lookup returns the asset registered under symbol.
func (l *Ledger) Lookup(symbol string) (*Asset, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	a, ok := l.bySymbol[symbol]
	if !ok {
		return nil, fmt.Errorf("lookup %q: %w", symbol, ErrAssetNotFound)
	}
	return a, nil
}

// LookupByIdentifier returns the asset registered under the given
// identifier.
func (l *Ledger) LookupByIdentifier(id assetid.ID) (*Asset, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	a, ok := l.byID[id]
	if !ok {
		return nil, fmt.Errorf("lookup %s: %w", id, ErrAssetNotFound)
	}
	return a, nil
}

// Assets returns a snapshot of every registered asset, sorted by symbol.
func (l *Ledger) Assets() []Info {
	l.mu.RLock()
	defer l.mu.RUnlock()

	infos := make([]Info, 0, len(l.bySymbol))
	for _, a := range l.bySymbol {
		infos = append(infos, a.Info())
	}
	slices.SortFunc(infos, func(a, b Info) int {
		return strings.Compare(a.Symbol, b.Symbol)
	})
	return infos
}

// Len reports the number of registered assets.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.bySymbol)
}

// UpdateMetadata amends one descriptor field of the asset registered under
// symbol. Symbol changes re-key the registry and fail with ErrAssetExists
// when the new symbol is taken; the asset's identifier never changes, it is
// a genesis commitment.
func (l *Ledger) UpdateMetadata(symbol string, field MetadataField, value string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	a, ok := l.bySymbol[symbol]
	if !ok {
		return fmt.Errorf("update %q: %w", symbol, ErrAssetNotFound)
	}
	if field == FieldSymbol {
		if _, taken := l.bySymbol[value]; taken && value != symbol {
			return fmt.Errorf("rename %q to %q: %w", symbol, value, ErrAssetExists)
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.updateMeta(field, value); err != nil {
		return err
	}
	if field == FieldSymbol && value != symbol {
		delete(l.bySymbol, symbol)
		l.bySymbol[value] = a
		a.symbol = value
	}
	return nil
}

// ActiveFreezes reports the total number of (family, address) freeze pairs
// across all assets.
func (l *Ledger) ActiveFreezes() int {
	l.freezeMu.RLock()
	defer l.freezeMu.RUnlock()
	return l.freezes.ActiveFreezes()
}
