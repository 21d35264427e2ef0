package issuer

import (
	"sync"

	"github.com/coinagedev/coinage/coin"
	"github.com/coinagedev/coinage/common/keys"
	"github.com/coinagedev/coinage/genesis"
	"github.com/coinagedev/coinage/ledger"
)

// MaxAssetSlots is the number of asset type slots compiled into the binary.
// The accounting core keys every supply, unit, and freeze index by a Go
// type, so runtime asset creation can only bind types that exist at compile
// time. Creating an asset consumes one slot for the life of the process.
const MaxAssetSlots = 32

// The compiled-in slot types. Package scope so the family resolver accepts
// them; otherwise never referenced by name outside the binder table.
type (
	slot00 struct{}
	slot01 struct{}
	slot02 struct{}
	slot03 struct{}
	slot04 struct{}
	slot05 struct{}
	slot06 struct{}
	slot07 struct{}
	slot08 struct{}
	slot09 struct{}
	slot10 struct{}
	slot11 struct{}
	slot12 struct{}
	slot13 struct{}
	slot14 struct{}
	slot15 struct{}
	slot16 struct{}
	slot17 struct{}
	slot18 struct{}
	slot19 struct{}
	slot20 struct{}
	slot21 struct{}
	slot22 struct{}
	slot23 struct{}
	slot24 struct{}
	slot25 struct{}
	slot26 struct{}
	slot27 struct{}
	slot28 struct{}
	slot29 struct{}
	slot30 struct{}
	slot31 struct{}
)

// slotBinder claims a slot type's genesis, creates the asset, and registers
// it with the ledger. Each binder succeeds at most once per process; the
// genesis witness for its type is spent on first use.
type slotBinder func(l *ledger.Ledger, issuer keys.Public, params CreateAssetParams) (*ledger.Asset, error)

func bindSlot[T any]() slotBinder {
	return func(l *ledger.Ledger, issuer keys.Public, params CreateAssetParams) (*ledger.Asset, error) {
		witness := genesis.Claim[T]()
		if params.Freezable {
			auth, freezeAuth, meta, err := coin.CreateRegulated[T](
				witness, params.Decimals, params.Symbol, params.Name, params.Description, params.IconURL,
			)
			if err != nil {
				return nil, err
			}
			return ledger.RegisterRegulated(l, auth, freezeAuth, meta, issuer, params.MaxSupply)
		}
		auth, meta, err := coin.Create[T](
			witness, params.Decimals, params.Symbol, params.Name, params.Description, params.IconURL,
		)
		if err != nil {
			return nil, err
		}
		return ledger.Register(l, auth, meta, issuer, params.MaxSupply)
	}
}

var assetSlots = []slotBinder{
	bindSlot[slot00](),
	bindSlot[slot01](),
	bindSlot[slot02](),
	bindSlot[slot03](),
	bindSlot[slot04](),
	bindSlot[slot05](),
	bindSlot[slot06](),
	bindSlot[slot07](),
	bindSlot[slot08](),
	bindSlot[slot09](),
	bindSlot[slot10](),
	bindSlot[slot11](),
	bindSlot[slot12](),
	bindSlot[slot13](),
	bindSlot[slot14](),
	bindSlot[slot15](),
	bindSlot[slot16](),
	bindSlot[slot17](),
	bindSlot[slot18](),
	bindSlot[slot19](),
	bindSlot[slot20](),
	bindSlot[slot21](),
	bindSlot[slot22](),
	bindSlot[slot23](),
	bindSlot[slot24](),
	bindSlot[slot25](),
	bindSlot[slot26](),
	bindSlot[slot27](),
	bindSlot[slot28](),
	bindSlot[slot29](),
	bindSlot[slot30](),
	bindSlot[slot31](),
}

// slotPool hands out binders in declaration order. The pool is process
// scoped, matching the genesis registry: a slot type consumed by one
// service instance is consumed for every instance in the process.
var slotPool struct {
	mu   sync.Mutex
	next int
}

// takeSlot reserves the next free slot binder. The second return is false
// when the pool is exhausted.
func takeSlot() (slotBinder, bool) {
	slotPool.mu.Lock()
	defer slotPool.mu.Unlock()

	if slotPool.next >= len(assetSlots) {
		return nil, false
	}
	binder := assetSlots[slotPool.next]
	slotPool.next++
	return binder, true
}
