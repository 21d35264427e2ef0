package issuer

import (
	"context"
	"math"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/coinagedev/coinage/ledger"
)

// Metrics holds the issuer's service instruments. The daemon installs the
// meter provider (prometheus reader); the service only records. A nil
// *Metrics is a valid no-op receiver so tests can skip the pipeline.
type Metrics struct {
	assetsCreated   metric.Int64Counter
	mintOps         metric.Int64Counter
	mintValue       metric.Int64Counter
	burnOps         metric.Int64Counter
	burnValue       metric.Int64Counter
	freezeActive    metric.Int64UpDownCounter
	auditDrift      metric.Int64Gauge
	auditViolations metric.Int64Counter
}

func NewMetrics() (*Metrics, error) {
	meter := otel.GetMeterProvider().Meter("coinage.issuer")

	m := &Metrics{}
	var err error

	if m.assetsCreated, err = meter.Int64Counter(
		"issuer.assets.created",
		metric.WithDescription("Count of assets created"),
		metric.WithUnit("{count}"),
	); err != nil {
		return nil, err
	}
	if m.mintOps, err = meter.Int64Counter(
		"issuer.mint.operations",
		metric.WithDescription("Count of mint operations"),
		metric.WithUnit("{count}"),
	); err != nil {
		return nil, err
	}
	if m.mintValue, err = meter.Int64Counter(
		"issuer.mint.value",
		metric.WithDescription("Total value minted, in base units"),
	); err != nil {
		return nil, err
	}
	if m.burnOps, err = meter.Int64Counter(
		"issuer.burn.operations",
		metric.WithDescription("Count of burn operations"),
		metric.WithUnit("{count}"),
	); err != nil {
		return nil, err
	}
	if m.burnValue, err = meter.Int64Counter(
		"issuer.burn.value",
		metric.WithDescription("Total value burned, in base units"),
	); err != nil {
		return nil, err
	}
	if m.freezeActive, err = meter.Int64UpDownCounter(
		"issuer.freeze.active",
		metric.WithDescription("Active freezes per asset"),
		metric.WithUnit("{count}"),
	); err != nil {
		return nil, err
	}
	if m.auditDrift, err = meter.Int64Gauge(
		"issuer.audit.drift",
		metric.WithDescription("Absolute conservation drift per asset, 0 when conserved"),
	); err != nil {
		return nil, err
	}
	if m.auditViolations, err = meter.Int64Counter(
		"issuer.audit.violations",
		metric.WithDescription("Count of conservation audit failures"),
		metric.WithUnit("{count}"),
	); err != nil {
		return nil, err
	}

	return m, nil
}

func symbolAttrs(symbol string) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("asset.symbol", symbol))
}

// clampInt64 keeps uint64 ledger amounts recordable on int64 instruments.
func clampInt64(v uint64) int64 {
	if v > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(v)
}

func (m *Metrics) RecordAssetCreated(ctx context.Context, symbol string) {
	if m == nil {
		return
	}
	m.assetsCreated.Add(ctx, 1, symbolAttrs(symbol))
}

func (m *Metrics) RecordMint(ctx context.Context, symbol string, amount uint64) {
	if m == nil {
		return
	}
	m.mintOps.Add(ctx, 1, symbolAttrs(symbol))
	m.mintValue.Add(ctx, clampInt64(amount), symbolAttrs(symbol))
}

func (m *Metrics) RecordBurn(ctx context.Context, symbol string, amount uint64) {
	if m == nil {
		return
	}
	m.burnOps.Add(ctx, 1, symbolAttrs(symbol))
	m.burnValue.Add(ctx, clampInt64(amount), symbolAttrs(symbol))
}

func (m *Metrics) RecordFreeze(ctx context.Context, symbol string) {
	if m == nil {
		return
	}
	m.freezeActive.Add(ctx, 1, symbolAttrs(symbol))
}

func (m *Metrics) RecordThaw(ctx context.Context, symbol string) {
	if m == nil {
		return
	}
	m.freezeActive.Add(ctx, -1, symbolAttrs(symbol))
}

func (m *Metrics) RecordAuditReport(ctx context.Context, report ledger.Report) {
	if m == nil {
		return
	}
	for _, audit := range report.Assets {
		m.auditDrift.Record(ctx, clampInt64(audit.Drift), symbolAttrs(audit.Symbol))
	}
	if !report.Conserved {
		m.auditViolations.Add(ctx, 1)
	}
}
