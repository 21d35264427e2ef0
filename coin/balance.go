// Package coin implements fungible-asset accounting: anonymous value
// containers, per-type supplies, identified units, and the capabilities that
// gate issuance and descriptor changes.
//
// Value conservation is the load-bearing invariant: for every asset type,
// the supply total equals the sum of all live container amounts at every
// observable point. The only way value enters circulation is
// [Supply.Increase] and the only way it leaves is [Supply.Decrease];
// everything else moves value between containers without creating or
// destroying it.
//
// Operations that consume a container or unit take it by pointer and drain
// it: the argument is left empty (and identity-less, for units), so a
// consumed value cannot be double counted. A failed operation performs no
// mutation at all.
//
// The package is sequential. Hosts that share a supply or a freeze registry
// across goroutines must serialize access; the ledger package does exactly
// that.
package coin

import (
	"fmt"
	"math"
)

// Balance is an anonymous container of value for asset type T. It has no
// identity, and outside this package it cannot be brought to a nonzero
// amount except by moving value out of another container or out of the
// supply.
type Balance[T any] struct {
	amount uint64
}

// ZeroBalance returns an empty container.
func ZeroBalance[T any]() Balance[T] {
	return Balance[T]{}
}

// Value reports the amount held.
func (b *Balance[T]) Value() uint64 {
	return b.amount
}

// Split debits amount from b and returns it as a new container. It fails
// with ErrInsufficientValue when b holds less than amount, leaving b
// unchanged. Splitting the exact amount held leaves b empty, which is legal.
func (b *Balance[T]) Split(amount uint64) (Balance[T], error) {
	if amount > b.amount {
		return Balance[T]{}, fmt.Errorf("split %d from container holding %d: %w", amount, b.amount, ErrInsufficientValue)
	}
	b.amount -= amount
	return Balance[T]{amount: amount}, nil
}

// Join drains other into b and returns b's new total. It fails with
// ErrOverflow when the sum would not fit in uint64 and with
// ErrInvalidArgument when other is b itself; neither side changes on
// failure.
func (b *Balance[T]) Join(other *Balance[T]) (uint64, error) {
	if b == other {
		return 0, fmt.Errorf("join container with itself: %w", ErrInvalidArgument)
	}
	if other.amount > math.MaxUint64-b.amount {
		return 0, fmt.Errorf("join %d and %d: %w", b.amount, other.amount, ErrOverflow)
	}
	b.amount += other.amount
	other.amount = 0
	return b.amount, nil
}

// WithdrawAll drains b and returns its full prior value as a new container.
func (b *Balance[T]) WithdrawAll() Balance[T] {
	out := Balance[T]{amount: b.amount}
	b.amount = 0
	return out
}

// DestroyZero asserts that b holds nothing. It fails with ErrNonZeroValue
// otherwise. Dropping a drained container without this call is harmless;
// the assertion exists for callers that must prove no value was lost.
func (b *Balance[T]) DestroyZero() error {
	if b.amount != 0 {
		return fmt.Errorf("destroy container holding %d: %w", b.amount, ErrNonZeroValue)
	}
	return nil
}
