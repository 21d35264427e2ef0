package coin

import (
	"errors"

	"github.com/coinagedev/coinage/genesis"
)

var (
	// ErrOverflow reports an operation whose result would not fit in uint64.
	ErrOverflow = errors.New("value overflows uint64")

	// ErrInsufficientValue reports a debit larger than the value held.
	ErrInsufficientValue = errors.New("insufficient value")

	// ErrInvalidArgument reports a structurally invalid request, such as
	// dividing into zero parts or joining a container with itself.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNonZeroValue reports an attempt to destroy a container or unit that
	// still holds value.
	ErrNonZeroValue = errors.New("value is not zero")

	// ErrBadWitness reports a genesis attempt with a witness that is forged,
	// spent, or not the first claimed for its type.
	ErrBadWitness = genesis.ErrBadWitness

	// ErrAuthorityConsumed reports an operation against a mint authority
	// that was downgraded with IntoSupply, or against the forged zero value.
	ErrAuthorityConsumed = errors.New("mint authority consumed")
)
