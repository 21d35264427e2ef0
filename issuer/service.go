// Package issuer is the HTTP-facing service layer over the accounting core.
// It owns asset creation policy (validation, slot binding, supply caps),
// translates core sentinels into reason-coded service errors, and records
// operational metrics. The core packages stay transport-agnostic; everything
// a caller can reach over the wire goes through Service.
package issuer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/coinagedev/coinage/coin"
	"github.com/coinagedev/coinage/common/keys"
	"github.com/coinagedev/coinage/common/logging"
	"github.com/coinagedev/coinage/freeze"
	coinageerrors "github.com/coinagedev/coinage/issuer/errors"
	"github.com/coinagedev/coinage/issuer/knobs"
	"github.com/coinagedev/coinage/ledger"
)

// CreateAssetParams is the caller-supplied definition of a new asset.
// MaxSupply of zero means uncapped.
type CreateAssetParams struct {
	Symbol      string
	Name        string
	Description string
	IconURL     string
	Decimals    uint8
	Freezable   bool
	MaxSupply   uint64
}

// Service executes issuer operations against one ledger. All methods are
// safe for concurrent use; the service serializes slot allocation and the
// ledger serializes per-asset accounting.
type Service struct {
	config  *Config
	ledger  *ledger.Ledger
	knobs   knobs.Knobs
	metrics *Metrics
	issuer  keys.Public

	// mu guards the created count so the configured slot limit is
	// check-then-act safe under concurrent creates.
	mu      sync.Mutex
	created int
}

// NewService wires a service over the given ledger. knobsService and
// metrics may be nil; both degrade to no-ops.
func NewService(config *Config, l *ledger.Ledger, issuer keys.Public, knobsService knobs.Knobs, metrics *Metrics) *Service {
	return &Service{
		config:  config,
		ledger:  l,
		knobs:   knobsService,
		metrics: metrics,
		issuer:  issuer,
	}
}

// Issuer returns the public key assets are registered under.
func (s *Service) Issuer() keys.Public {
	return s.issuer
}

// Ledger exposes the underlying ledger for scheduled tasks and diagnostics.
func (s *Service) Ledger() *ledger.Ledger {
	return s.ledger
}

// CreateAsset validates params, binds the next free asset type slot, and
// registers the new asset. Each create permanently consumes one slot; the
// configured limit caps how many this service will spend.
func (s *Service) CreateAsset(ctx context.Context, params CreateAssetParams) (ledger.Info, error) {
	logger := logging.GetLoggerFromContext(ctx)

	if err := validateCreateAsset(params); err != nil {
		return ledger.Info{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Check before spending a slot; a duplicate symbol would only fail at
	// registration, after the slot type's genesis is already consumed.
	if _, err := s.ledger.Lookup(params.Symbol); err == nil {
		return ledger.Info{}, coinageerrors.AlreadyExistsDuplicateAsset(
			fmt.Errorf("asset %q already exists", params.Symbol),
		)
	}
	if s.created >= s.config.AssetSlots {
		return ledger.Info{}, coinageerrors.ResourceExhaustedErrorf(
			"asset slot limit reached (%d)", s.config.AssetSlots,
		)
	}
	binder, ok := takeSlot()
	if !ok {
		return ledger.Info{}, coinageerrors.ResourceExhaustedErrorf(
			"no asset type slots remain in this process",
		)
	}

	asset, err := binder(s.ledger, s.issuer, params)
	if err != nil {
		return ledger.Info{}, translateCoreError(err)
	}
	s.created++

	info := asset.Info()
	s.metrics.RecordAssetCreated(ctx, info.Symbol)
	logger.Info(
		"Created asset",
		"symbol", info.Symbol,
		"identifier", info.Identifier.String(),
		"decimals", info.Decimals,
		"freezable", info.Freezable,
		"max_supply", info.MaxSupply,
	)
	return info, nil
}

// Mint issues new value as one custodied unit. A mint cap knob, targeted at
// the symbol or global, rejects oversized calls before the ledger sees them.
func (s *Service) Mint(ctx context.Context, symbol string, amount uint64) (ledger.MintReceipt, error) {
	logger := logging.GetLoggerFromContext(ctx)

	if err := validateAmount(amount); err != nil {
		return ledger.MintReceipt{}, err
	}
	if s.knobs != nil {
		if maxAmount := knobs.GetMintMaxAmount(s.knobs, symbol); maxAmount > 0 && amount > maxAmount {
			return ledger.MintReceipt{}, coinageerrors.FailedPreconditionAssetRulesViolation(
				fmt.Errorf("mint of %d exceeds the configured per-call maximum of %d", amount, maxAmount),
			)
		}
	}

	asset, err := s.ledger.Lookup(symbol)
	if err != nil {
		return ledger.MintReceipt{}, translateCoreError(err)
	}
	receipt, err := asset.Mint(amount)
	if err != nil {
		return ledger.MintReceipt{}, translateCoreError(err)
	}

	s.metrics.RecordMint(ctx, symbol, receipt.Amount)
	logger.Info(
		"Minted asset units",
		"symbol", symbol,
		"amount", receipt.Amount,
		"unit_id", receipt.UnitID,
		"total_supply", receipt.TotalSupply,
	)
	return receipt, nil
}

// BurnUnit destroys one custodied unit in full.
func (s *Service) BurnUnit(ctx context.Context, symbol string, unitID uuid.UUID) (ledger.BurnReceipt, error) {
	asset, err := s.ledger.Lookup(symbol)
	if err != nil {
		return ledger.BurnReceipt{}, translateCoreError(err)
	}
	receipt, err := asset.BurnUnit(unitID)
	if err != nil {
		return ledger.BurnReceipt{}, translateCoreError(err)
	}

	s.metrics.RecordBurn(ctx, symbol, receipt.Amount)
	logging.GetLoggerFromContext(ctx).Info(
		"Burned asset unit",
		"symbol", symbol,
		"unit_id", unitID,
		"amount", receipt.Amount,
		"total_supply", receipt.TotalSupply,
	)
	return receipt, nil
}

// BurnAmount destroys an exact amount from custody, consolidating or
// splitting units as needed.
func (s *Service) BurnAmount(ctx context.Context, symbol string, amount uint64) (ledger.BurnReceipt, error) {
	if err := validateAmount(amount); err != nil {
		return ledger.BurnReceipt{}, err
	}

	asset, err := s.ledger.Lookup(symbol)
	if err != nil {
		return ledger.BurnReceipt{}, translateCoreError(err)
	}
	receipt, err := asset.BurnAmount(amount)
	if err != nil {
		return ledger.BurnReceipt{}, translateCoreError(err)
	}

	s.metrics.RecordBurn(ctx, symbol, receipt.Amount)
	logging.GetLoggerFromContext(ctx).Info(
		"Burned asset amount",
		"symbol", symbol,
		"amount", receipt.Amount,
		"total_supply", receipt.TotalSupply,
	)
	return receipt, nil
}

// Freeze denies an address the asset. Idempotent; the return reports
// whether this call changed anything.
func (s *Service) Freeze(ctx context.Context, symbol string, addr keys.Address) (bool, error) {
	ctx, logger := logging.WithAddress(ctx, addr)
	asset, err := s.ledger.Lookup(symbol)
	if err != nil {
		return false, translateCoreError(err)
	}
	changed, err := asset.Freeze(addr)
	if err != nil {
		return false, translateCoreError(err)
	}

	if changed {
		s.metrics.RecordFreeze(ctx, symbol)
	}
	logger.Info("Froze address", "symbol", symbol, "changed", changed)
	return changed, nil
}

// Thaw lifts a freeze. Unlike Freeze it is not idempotent; thawing an
// address that is not frozen fails.
func (s *Service) Thaw(ctx context.Context, symbol string, addr keys.Address) error {
	ctx, logger := logging.WithAddress(ctx, addr)
	asset, err := s.ledger.Lookup(symbol)
	if err != nil {
		return translateCoreError(err)
	}
	if err := asset.Thaw(addr); err != nil {
		return translateCoreError(err)
	}

	s.metrics.RecordThaw(ctx, symbol)
	logger.Info("Thawed address", "symbol", symbol)
	return nil
}

// IsFrozen reports whether the address is frozen for the asset.
func (s *Service) IsFrozen(ctx context.Context, symbol string, addr keys.Address) (bool, error) {
	asset, err := s.ledger.Lookup(symbol)
	if err != nil {
		return false, translateCoreError(err)
	}
	return asset.IsFrozen(addr), nil
}

// FrozenAddresses returns the asset's frozen addresses in sorted order.
func (s *Service) FrozenAddresses(ctx context.Context, symbol string) ([]keys.Address, error) {
	asset, err := s.ledger.Lookup(symbol)
	if err != nil {
		return nil, translateCoreError(err)
	}
	return asset.FrozenAddresses(), nil
}

// UpdateMetadata amends one descriptor field and returns the descriptor
// after the change. Values obey the same policy as asset creation.
func (s *Service) UpdateMetadata(ctx context.Context, symbol, field, value string) (ledger.Descriptor, error) {
	parsed, err := ledger.ParseMetadataField(field)
	if err != nil {
		return ledger.Descriptor{}, translateCoreError(err)
	}
	if err := validateMetadataValue(parsed, value); err != nil {
		return ledger.Descriptor{}, err
	}

	if err := s.ledger.UpdateMetadata(symbol, parsed, value); err != nil {
		return ledger.Descriptor{}, translateCoreError(err)
	}

	// Symbol updates re-key the ledger; resolve the handle under the name
	// it now carries.
	lookup := symbol
	if parsed == ledger.FieldSymbol {
		lookup = value
	}
	asset, err := s.ledger.Lookup(lookup)
	if err != nil {
		return ledger.Descriptor{}, translateCoreError(err)
	}

	logging.GetLoggerFromContext(ctx).Info(
		"Updated asset metadata",
		"symbol", lookup,
		"field", string(parsed),
	)
	return asset.Descriptor(), nil
}

// Asset returns a point-in-time view of one asset.
func (s *Service) Asset(ctx context.Context, symbol string) (ledger.Info, error) {
	asset, err := s.ledger.Lookup(symbol)
	if err != nil {
		return ledger.Info{}, translateCoreError(err)
	}
	return asset.Info(), nil
}

// Assets returns a snapshot of every registered asset, sorted by symbol.
func (s *Service) Assets(ctx context.Context) []ledger.Info {
	return s.ledger.Assets()
}

// Audit runs a conservation check across the ledger and records the
// outcome.
func (s *Service) Audit(ctx context.Context) ledger.Report {
	report := s.ledger.CheckConservation()
	s.metrics.RecordAuditReport(ctx, report)
	if !report.Conserved {
		logging.GetLoggerFromContext(ctx).Error(
			"Conservation audit failed",
			"total_drift", report.TotalDrift(),
		)
	}
	return report
}

// translateCoreError maps accounting core sentinels onto reason-coded
// service errors. Callers hand it raw ledger, coin, and freeze errors;
// anything unrecognized classifies as internal.
func translateCoreError(err error) error {
	switch {
	case errors.Is(err, ledger.ErrAssetNotFound):
		return coinageerrors.NotFoundMissingAsset(err)
	case errors.Is(err, ledger.ErrUnitNotFound):
		return coinageerrors.NotFoundMissingUnit(err)
	case errors.Is(err, ledger.ErrAssetExists):
		return coinageerrors.AlreadyExistsDuplicateAsset(err)
	case errors.Is(err, ledger.ErrMaxSupplyExceeded):
		return coinageerrors.FailedPreconditionMaxSupplyExceeded(err)
	case errors.Is(err, ledger.ErrNotFreezable):
		return coinageerrors.FailedPreconditionNotFreezable(err)
	case errors.Is(err, ledger.ErrUnknownField):
		return coinageerrors.InvalidArgumentMalformedField(err)
	case errors.Is(err, freeze.ErrNotFrozen):
		return coinageerrors.FailedPreconditionNotFrozen(err)
	case errors.Is(err, coin.ErrOverflow):
		return coinageerrors.FailedPreconditionOverflow(err)
	case errors.Is(err, coin.ErrInsufficientValue), errors.Is(err, coin.ErrNonZeroValue):
		return coinageerrors.FailedPreconditionAssetRulesViolation(err)
	case errors.Is(err, coin.ErrInvalidArgument):
		return coinageerrors.InvalidArgumentMalformedField(err)
	default:
		return coinageerrors.WrapErrorWithCode(err, coinageerrors.CodeInternal)
	}
}
