// Package freeze maintains the address freeze index for regulated assets.
//
// The index has two levels: a per-family set of frozen addresses, which is
// the authoritative answer, and a global per-address count of how many
// families currently freeze it. The count makes the common negative case a
// single map probe: an address no family has frozen is rejected before its
// family is even resolved. Both levels stay sparse; entries are removed the
// moment they would read as zero or empty.
//
// Mutation requires a freeze authority, created once per asset type at the
// genesis of a regulated asset and presented, never consumed, on every
// call. The registry does no locking of its own; concurrent hosts serialize
// access the way the ledger package does.
package freeze

import (
	"errors"
	"fmt"
	"slices"

	"github.com/coinagedev/coinage/common/keys"
	"github.com/coinagedev/coinage/family"
	"github.com/coinagedev/coinage/genesis"
)

var (
	// ErrNotFrozen reports a thaw of an address the family does not freeze.
	ErrNotFrozen = errors.New("address is not frozen")

	// ErrNoFamily reports an asset type with no resolvable family; such
	// types cannot be regulated.
	ErrNoFamily = errors.New("type has no resolvable asset family")

	// ErrBadProof reports a freeze authority construction without a valid
	// genesis proof.
	ErrBadProof = errors.New("genesis proof is not valid")
)

// Authority is the capability to freeze and thaw addresses for asset T.
type Authority[T any] struct {
	fam family.ID
}

// CheckFamily reports whether T can back a regulated asset, failing with
// ErrNoFamily when it cannot. Genesis paths call this before spending a
// witness, so a doomed creation does not burn the type's one genesis.
func CheckFamily[T any]() error {
	if _, ok := family.Of[T](); !ok {
		return fmt.Errorf("%T: %w", *new(T), ErrNoFamily)
	}
	return nil
}

// NewAuthority constructs the freeze capability for T. The genesis proof
// admits exactly one caller per asset type; the forged zero proof fails
// with ErrBadProof.
func NewAuthority[T any](proof genesis.Proof[T]) (*Authority[T], error) {
	if !proof.Valid() {
		return nil, fmt.Errorf("freeze authority: %w", ErrBadProof)
	}
	fam, ok := family.Of[T]()
	if !ok {
		return nil, fmt.Errorf("freeze authority: %w", ErrNoFamily)
	}
	return &Authority[T]{fam: fam}, nil
}

// Family reports the asset family the authority governs.
func (a *Authority[T]) Family() family.ID {
	return a.fam
}

// Registry is the two-level freeze index.
type Registry struct {
	perFamily map[family.ID]map[keys.Address]struct{}
	counts    map[keys.Address]uint32
}

// NewRegistry returns an empty index.
func NewRegistry() *Registry {
	return &Registry{
		perFamily: make(map[family.ID]map[keys.Address]struct{}),
		counts:    make(map[keys.Address]uint32),
	}
}

// Freeze marks addr frozen for a's family and reports whether the state
// changed. Freezing an already-frozen address is a no-op: the global count
// reflects distinct freezing families, not freeze calls.
func (a *Authority[T]) Freeze(r *Registry, addr keys.Address) bool {
	set, ok := r.perFamily[a.fam]
	if !ok {
		set = make(map[keys.Address]struct{})
		r.perFamily[a.fam] = set
	}
	if _, frozen := set[addr]; frozen {
		return false
	}
	set[addr] = struct{}{}
	r.counts[addr]++
	return true
}

// Thaw unmarks addr for a's family. It fails with ErrNotFrozen when the
// family does not freeze addr. The global count entry is removed when the
// last freezing family thaws, restoring the single-probe negative answer.
func (a *Authority[T]) Thaw(r *Registry, addr keys.Address) error {
	set, ok := r.perFamily[a.fam]
	if !ok {
		return fmt.Errorf("thaw %s in %s: %w", addr, a.fam, ErrNotFrozen)
	}
	if _, frozen := set[addr]; !frozen {
		return fmt.Errorf("thaw %s in %s: %w", addr, a.fam, ErrNotFrozen)
	}
	delete(set, addr)
	if len(set) == 0 {
		delete(r.perFamily, a.fam)
	}
	if count := r.counts[addr]; count <= 1 {
		delete(r.counts, addr)
	} else {
		r.counts[addr] = count - 1
	}
	return nil
}

// IsFrozen reports whether addr is frozen for asset type T. An address no
// family freezes is rejected on the global count alone; a type with no
// resolvable family is never frozen.
func IsFrozen[T any](r *Registry, addr keys.Address) bool {
	if _, any := r.counts[addr]; !any {
		return false
	}
	fam, ok := family.Of[T]()
	if !ok {
		return false
	}
	return r.isFrozenIn(fam, addr)
}

// IsFrozenIn is IsFrozen for hosts that hold a resolved family instead of a
// type parameter.
func (r *Registry) IsFrozenIn(fam family.ID, addr keys.Address) bool {
	if _, any := r.counts[addr]; !any {
		return false
	}
	return r.isFrozenIn(fam, addr)
}

func (r *Registry) isFrozenIn(fam family.ID, addr keys.Address) bool {
	_, frozen := r.perFamily[fam][addr]
	return frozen
}

// FrozenInFamily returns the addresses fam currently freezes, bytewise
// sorted.
func (r *Registry) FrozenInFamily(fam family.ID) []keys.Address {
	set := r.perFamily[fam]
	out := make([]keys.Address, 0, len(set))
	for addr := range set {
		out = append(out, addr)
	}
	slices.SortFunc(out, keys.Address.Compare)
	return out
}

// GlobalCount reports how many families currently freeze addr.
func (r *Registry) GlobalCount(addr keys.Address) uint32 {
	return r.counts[addr]
}

// ActiveFreezes reports the total number of (family, address) freeze pairs.
func (r *Registry) ActiveFreezes() int {
	total := 0
	for _, set := range r.perFamily {
		total += len(set)
	}
	return total
}
