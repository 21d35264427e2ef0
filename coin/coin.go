package coin

import (
	"fmt"
	"math"

	"github.com/google/uuid"
)

// Coin is an identified unit of asset type T: a unique identity wrapping an
// anonymous container. Identity never influences value arithmetic; it
// exists so hosts can address, custody, and retire particular units.
type Coin[T any] struct {
	id      uuid.UUID
	balance Balance[T]
}

// Zero returns a unit with a fresh identity and no value.
func Zero[T any]() Coin[T] {
	return Coin[T]{id: uuid.New()}
}

// FromBalance drains b into a unit with a fresh identity.
func FromBalance[T any](b *Balance[T]) Coin[T] {
	return Coin[T]{id: uuid.New(), balance: b.WithdrawAll()}
}

// Take debits amount from b directly into a new unit. It fails with
// ErrInsufficientValue when b holds less than amount.
func Take[T any](b *Balance[T], amount uint64) (Coin[T], error) {
	split, err := b.Split(amount)
	if err != nil {
		return Coin[T]{}, err
	}
	return Coin[T]{id: uuid.New(), balance: split}, nil
}

// Put drains c into b, retiring c's identity. It fails with ErrOverflow
// when the sum would not fit in uint64, leaving both sides unchanged.
func Put[T any](b *Balance[T], c *Coin[T]) error {
	if _, err := b.Join(&c.balance); err != nil {
		return err
	}
	c.id = uuid.Nil
	return nil
}

// ID reports the unit's identity. A consumed unit reports uuid.Nil.
func (c *Coin[T]) ID() uuid.UUID {
	return c.id
}

// Value reports the amount held.
func (c *Coin[T]) Value() uint64 {
	return c.balance.amount
}

// IntoBalance drains c into an anonymous container, retiring c's identity.
func (c *Coin[T]) IntoBalance() Balance[T] {
	c.id = uuid.Nil
	return c.balance.WithdrawAll()
}

// Split debits amount from c and returns it as a new unit with a fresh
// identity. It fails with ErrInsufficientValue when c holds less than
// amount, leaving c unchanged.
func (c *Coin[T]) Split(amount uint64) (Coin[T], error) {
	split, err := c.balance.Split(amount)
	if err != nil {
		return Coin[T]{}, err
	}
	return Coin[T]{id: uuid.New(), balance: split}, nil
}

// SplitInto debits every requested amount from c, returning one new unit
// per amount, in order. The whole request is validated first: if the
// amounts overflow uint64 or exceed c's value, nothing is split.
func (c *Coin[T]) SplitInto(amounts []uint64) ([]Coin[T], error) {
	var need uint64
	for _, amount := range amounts {
		if amount > math.MaxUint64-need {
			return nil, fmt.Errorf("requested amounts overflow: %w", ErrOverflow)
		}
		need += amount
	}
	if need > c.balance.amount {
		return nil, fmt.Errorf("split %d from unit holding %d: %w", need, c.balance.amount, ErrInsufficientValue)
	}

	out := make([]Coin[T], 0, len(amounts))
	for _, amount := range amounts {
		split, err := c.Split(amount)
		if err != nil {
			return nil, err // unreachable after the pre-check
		}
		out = append(out, split)
	}
	return out, nil
}

// Join drains other into c, retiring other's identity. It fails with
// ErrOverflow when the sum would not fit in uint64 and with
// ErrInvalidArgument when other is c itself; neither unit changes on
// failure.
func (c *Coin[T]) Join(other *Coin[T]) error {
	if c == other {
		return fmt.Errorf("join unit with itself: %w", ErrInvalidArgument)
	}
	if _, err := c.balance.Join(&other.balance); err != nil {
		return err
	}
	other.id = uuid.Nil
	return nil
}

// JoinAll drains every unit in others into c. The grand total is validated
// first: on overflow nothing is joined. Passing the same unit twice is
// safe; the second occurrence is already drained and contributes nothing.
func (c *Coin[T]) JoinAll(others ...*Coin[T]) error {
	total := c.balance.amount
	for _, other := range others {
		if other == c {
			return fmt.Errorf("join unit with itself: %w", ErrInvalidArgument)
		}
		if other.balance.amount > math.MaxUint64-total {
			return fmt.Errorf("join total overflows: %w", ErrOverflow)
		}
		total += other.balance.amount
	}
	for _, other := range others {
		if err := c.Join(other); err != nil {
			return err // unreachable after the pre-check
		}
	}
	return nil
}

// DivideEqually splits c into n parts: it returns n-1 new units, each
// holding the value divided by n rounded down, while c retains the
// remainder on top of its own share. The remainder is never distributed.
// n of zero fails with ErrInvalidArgument, n greater than the held value
// fails with ErrInsufficientValue, and n of one returns no new units and
// leaves c untouched.
func (c *Coin[T]) DivideEqually(n uint64) ([]Coin[T], error) {
	if n == 0 {
		return nil, fmt.Errorf("divide into zero parts: %w", ErrInvalidArgument)
	}
	if n > c.balance.amount {
		return nil, fmt.Errorf("divide %d into %d parts: %w", c.balance.amount, n, ErrInsufficientValue)
	}
	share := c.balance.amount / n
	out := make([]Coin[T], 0, n-1)
	for i := uint64(1); i < n; i++ {
		split, err := c.Split(share)
		if err != nil {
			return nil, err // unreachable: (n-1)*share never exceeds the value
		}
		out = append(out, split)
	}
	return out, nil
}

// DestroyZero retires c's identity. It fails with ErrNonZeroValue while c
// still holds value; destroying value requires the mint authority's Burn.
func (c *Coin[T]) DestroyZero() error {
	if c.balance.amount != 0 {
		return fmt.Errorf("destroy unit holding %d: %w", c.balance.amount, ErrNonZeroValue)
	}
	c.id = uuid.Nil
	return nil
}
