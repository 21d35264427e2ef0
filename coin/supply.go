package coin

import (
	"fmt"
	"math"
)

// Supply tracks the total issued value of asset type T. It is the sole
// source and sink of value for the type, and through the genesis path at
// most one exists per type. Holding a Supply directly, after
// [MintAuthority.IntoSupply], still permits issuance; what is lost in the
// downgrade is only the descriptor-amendment capability.
type Supply[T any] struct {
	total uint64
}

func newSupply[T any]() *Supply[T] {
	return &Supply[T]{}
}

// Total reports the total value currently issued.
func (s *Supply[T]) Total() uint64 {
	return s.total
}

// Increase issues amount new units of value and returns them in a fresh
// container. It fails with ErrOverflow when the new total would not fit in
// uint64, leaving the supply unchanged.
func (s *Supply[T]) Increase(amount uint64) (Balance[T], error) {
	if amount > math.MaxUint64-s.total {
		return Balance[T]{}, fmt.Errorf("increase supply of %d by %d: %w", s.total, amount, ErrOverflow)
	}
	s.total += amount
	return Balance[T]{amount: amount}, nil
}

// Decrease drains b, removes its value from circulation, and returns the
// amount destroyed. While conservation holds the total is always at least
// the value of any live container, so Decrease cannot underflow; a host
// that mixes containers across supplies has already broken conservation,
// and Decrease panics rather than wrap the total.
func (s *Supply[T]) Decrease(b *Balance[T]) uint64 {
	amount := b.amount
	if amount > s.total {
		panic(fmt.Sprintf("coin: decrease supply of %d by %d: conservation violated by host", s.total, amount))
	}
	s.total -= amount
	b.amount = 0
	return amount
}
