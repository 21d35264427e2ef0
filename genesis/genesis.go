// Package genesis issues and redeems one-time witnesses. A witness is the
// ticket that admits an asset type to its genesis: for any type T, Redeem
// succeeds for exactly one witness value, exactly once, process-wide. Every
// other attempt, whether a forged zero value, a second claim, or a replay of
// the winning witness, fails with ErrBadWitness.
package genesis

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/google/uuid"
)

// ErrBadWitness reports a witness that is forged, already spent, or not the
// first claimed for its type.
var ErrBadWitness = fmt.Errorf("witness is not the live genesis witness")

// Witness is claimable evidence for the genesis of asset type T. The zero
// value is not redeemable.
type Witness[T any] struct {
	nonce uuid.UUID
}

// Proof attests that a witness for T was redeemed. It cannot be constructed
// outside this package and exactly one valid Proof per type is ever issued;
// holding one entitles the caller to genesis-time construction.
type Proof[T any] struct {
	ok bool
}

// Valid reports whether p was issued by Redeem. The forged zero value
// reports false.
func (p Proof[T]) Valid() bool { return p.ok }

type witnessState struct {
	nonce uuid.UUID
	spent bool
}

var (
	mu       sync.Mutex
	registry = make(map[reflect.Type]*witnessState)
)

// Claim returns a witness for the genesis of asset type T. Claim never
// fails, but only the first claim for T in the process carries the nonce
// Redeem accepts; later claims return values Redeem deterministically
// rejects, regardless of the order the claimants run in.
func Claim[T any]() Witness[T] {
	mu.Lock()
	defer mu.Unlock()

	t := reflect.TypeFor[T]()
	if _, ok := registry[t]; ok {
		// Losing claim: hand out a nonce the registry will never accept.
		return Witness[T]{nonce: uuid.New()}
	}
	st := &witnessState{nonce: uuid.New()}
	registry[t] = st
	return Witness[T]{nonce: st.nonce}
}

// Redeem spends w. It succeeds at most once per type: the first call
// presenting the first-claimed witness wins and every other call fails with
// ErrBadWitness. Concurrent and replayed calls observe the spent state, not
// a race; the registry is internally serialized.
func Redeem[T any](w Witness[T]) (Proof[T], error) {
	mu.Lock()
	defer mu.Unlock()

	t := reflect.TypeFor[T]()
	st, ok := registry[t]
	if !ok || st.nonce != w.nonce {
		return Proof[T]{}, fmt.Errorf("redeem witness for %v: %w", t, ErrBadWitness)
	}
	if st.spent {
		return Proof[T]{}, fmt.Errorf("redeem witness for %v: replayed: %w", t, ErrBadWitness)
	}
	st.spent = true
	return Proof[T]{ok: true}, nil
}

// Spent reports whether the genesis of T already happened. It never affects
// redeemability.
func Spent[T any]() bool {
	mu.Lock()
	defer mu.Unlock()

	st, ok := registry[reflect.TypeFor[T]()]
	return ok && st.spent
}
