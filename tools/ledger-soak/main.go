// Command ledger-soak hammers an issuer with concurrent mint, burn, freeze,
// and thaw traffic, then verifies conservation. By default it drives an
// in-process core; with -remote it drives a live daemon over HTTP.
package main

import (
	"context"
	"encoding/binary"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/coinagedev/coinage/client"
	"github.com/coinagedev/coinage/common/keys"
	"github.com/coinagedev/coinage/issuer"
	coinageerrors "github.com/coinagedev/coinage/issuer/errors"
	"github.com/coinagedev/coinage/ledger"
)

var (
	workers    = flag.Int("workers", 8, "Number of concurrent workers")
	duration   = flag.Duration("duration", 10*time.Second, "How long to run the op streams")
	assetCount = flag.Int("assets", 4, "Number of assets to soak (max 26)")
	seed       = flag.Uint64("seed", 1, "Seed for the deterministic op streams")
	mintMax    = flag.Uint64("mint-max", 10_000, "Largest single mint")
	remote     = flag.String("remote", "", "Base URL of a live issuer to drive instead of the in-process core")
	dev        = flag.Bool("dev", false, "Use the development logger (console encoding)")
)

const addressPoolSize = 8

// counters are per-op totals across all workers.
type counters struct {
	mints     atomic.Uint64
	burns     atomic.Uint64
	freezes   atomic.Uint64
	thaws     atomic.Uint64
	conflicts atomic.Uint64
	failures  atomic.Uint64
}

func (c *counters) ops() uint64 {
	return c.mints.Load() + c.burns.Load() + c.freezes.Load() + c.thaws.Load()
}

// driver is the op surface the workers hit. The in-process and remote
// drivers implement the same mix so a soak run means the same thing either
// way.
type driver interface {
	CreateAsset(ctx context.Context, symbol, name string, freezable bool) error
	Mint(ctx context.Context, symbol string, amount uint64) error
	BurnAmount(ctx context.Context, symbol string, amount uint64) error
	Freeze(ctx context.Context, symbol string, addr keys.Address) error
	Thaw(ctx context.Context, symbol string, addr keys.Address) error
	Audit(ctx context.Context) (conserved bool, totalDrift uint64, err error)
}

type serviceDriver struct {
	svc *issuer.Service
}

func (d *serviceDriver) CreateAsset(ctx context.Context, symbol, name string, freezable bool) error {
	_, err := d.svc.CreateAsset(ctx, issuer.CreateAssetParams{
		Symbol:    symbol,
		Name:      name,
		Decimals:  2,
		Freezable: freezable,
	})
	return err
}

func (d *serviceDriver) Mint(ctx context.Context, symbol string, amount uint64) error {
	_, err := d.svc.Mint(ctx, symbol, amount)
	return err
}

func (d *serviceDriver) BurnAmount(ctx context.Context, symbol string, amount uint64) error {
	_, err := d.svc.BurnAmount(ctx, symbol, amount)
	return err
}

func (d *serviceDriver) Freeze(ctx context.Context, symbol string, addr keys.Address) error {
	_, err := d.svc.Freeze(ctx, symbol, addr)
	return err
}

func (d *serviceDriver) Thaw(ctx context.Context, symbol string, addr keys.Address) error {
	return d.svc.Thaw(ctx, symbol, addr)
}

func (d *serviceDriver) Audit(ctx context.Context) (bool, uint64, error) {
	report := d.svc.Audit(ctx)
	return report.Conserved, report.TotalDrift(), nil
}

type remoteDriver struct {
	c *client.Client
}

func (d *remoteDriver) CreateAsset(ctx context.Context, symbol, name string, freezable bool) error {
	_, err := d.c.CreateAsset(ctx, issuer.CreateAssetRequest{
		Symbol:    symbol,
		Name:      name,
		Decimals:  2,
		Freezable: freezable,
	})
	return err
}

func (d *remoteDriver) Mint(ctx context.Context, symbol string, amount uint64) error {
	_, err := d.c.Mint(ctx, symbol, amount)
	return err
}

func (d *remoteDriver) BurnAmount(ctx context.Context, symbol string, amount uint64) error {
	_, err := d.c.BurnAmount(ctx, symbol, amount)
	return err
}

func (d *remoteDriver) Freeze(ctx context.Context, symbol string, addr keys.Address) error {
	_, err := d.c.Freeze(ctx, symbol, addr.String())
	return err
}

func (d *remoteDriver) Thaw(ctx context.Context, symbol string, addr keys.Address) error {
	_, err := d.c.Thaw(ctx, symbol, addr.String())
	return err
}

func (d *remoteDriver) Audit(ctx context.Context) (bool, uint64, error) {
	report, err := d.c.Audit(ctx)
	if err != nil {
		return false, 0, err
	}
	return report.Conserved, report.TotalDrift, nil
}

func streamSeed(base uint64, stream uint64) [32]byte {
	var s [32]byte
	binary.LittleEndian.PutUint64(s[:8], base)
	binary.LittleEndian.PutUint64(s[8:16], stream+1)
	return s
}

func soakSymbols(n int) []string {
	symbols := make([]string, 0, n)
	for i := 0; i < n; i++ {
		symbols = append(symbols, fmt.Sprintf("SOAK%c", 'A'+i))
	}
	return symbols
}

func addressPool(base uint64) []keys.Address {
	rng := rand.NewChaCha8(streamSeed(base, 0xFF))
	pool := make([]keys.Address, 0, addressPoolSize)
	for i := 0; i < addressPoolSize; i++ {
		pool = append(pool, keys.MustGeneratePrivateKeyFromRand(rng).Public().Address())
	}
	return pool
}

// expectedConflict reports whether err is a rejection the soak deliberately
// provokes, like overdrawing custody or thawing a never-frozen address.
func expectedConflict(err error) bool {
	code, _ := coinageerrors.CodeAndReasonFrom(err)
	switch code {
	case coinageerrors.CodeFailedPrecondition, coinageerrors.CodeNotFound, coinageerrors.CodeAlreadyExists:
		return true
	default:
		return false
	}
}

func runWorker(ctx context.Context, workerID int, d driver, symbols []string, addrs []keys.Address, totals *counters, logger *zap.Logger) error {
	rng := rand.New(rand.NewChaCha8(streamSeed(*seed, uint64(workerID))))

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		symbol := symbols[rng.IntN(len(symbols))]
		var err error
		switch pick := rng.IntN(100); {
		case pick < 50:
			err = d.Mint(ctx, symbol, 1+rng.Uint64N(*mintMax))
			totals.mints.Add(1)
		case pick < 80:
			err = d.BurnAmount(ctx, symbol, 1+rng.Uint64N(*mintMax))
			totals.burns.Add(1)
		case pick < 90:
			err = d.Freeze(ctx, symbol, addrs[rng.IntN(len(addrs))])
			totals.freezes.Add(1)
		default:
			err = d.Thaw(ctx, symbol, addrs[rng.IntN(len(addrs))])
			totals.thaws.Add(1)
		}

		if err == nil {
			continue
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil
		}
		if expectedConflict(err) {
			totals.conflicts.Add(1)
			continue
		}
		totals.failures.Add(1)
		logger.Warn("Unexpected op failure",
			zap.Int("worker", workerID),
			zap.String("symbol", symbol),
			zap.Error(err),
		)
	}
}

func buildDriver(logger *zap.Logger) (driver, error) {
	if *remote != "" {
		c, err := client.New(*remote)
		if err != nil {
			return nil, fmt.Errorf("invalid -remote: %w", err)
		}
		logger.Info("Driving remote issuer", zap.String("base_url", *remote))
		return &remoteDriver{c: c}, nil
	}

	// Per-op service logs would drown the soak output.
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))

	cfg := issuer.DefaultConfig()
	cfg.AssetSlots = *assetCount
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid soak config: %w", err)
	}
	issuerKey, err := keys.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}
	svc := issuer.NewService(cfg, ledger.New(), issuerKey.Public(), nil, nil)
	logger.Info("Driving in-process core")
	return &serviceDriver{svc: svc}, nil
}

func run(logger *zap.Logger) error {
	sigCtx, done := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer done()

	if *assetCount < 1 || *assetCount > 26 || *assetCount > issuer.MaxAssetSlots {
		return fmt.Errorf("-assets must be between 1 and %d", min(26, issuer.MaxAssetSlots))
	}
	if *workers < 1 {
		return errors.New("-workers must be positive")
	}
	if *mintMax == 0 {
		return errors.New("-mint-max must be positive")
	}

	d, err := buildDriver(logger)
	if err != nil {
		return err
	}

	symbols := soakSymbols(*assetCount)
	addrs := addressPool(*seed)

	for i, symbol := range symbols {
		freezable := i%2 == 0
		if err := d.CreateAsset(sigCtx, symbol, "Soak Asset "+symbol, freezable); err != nil {
			// A remote issuer may already hold assets from a previous run.
			if code, _ := coinageerrors.CodeAndReasonFrom(err); code != coinageerrors.CodeAlreadyExists {
				return fmt.Errorf("failed to create %s: %w", symbol, err)
			}
		}
		if err := d.Mint(sigCtx, symbol, *mintMax*10); err != nil {
			return fmt.Errorf("failed to seed supply of %s: %w", symbol, err)
		}
	}
	logger.Info("Assets ready",
		zap.Int("assets", *assetCount),
		zap.Int("workers", *workers),
		zap.Duration("duration", *duration),
		zap.Uint64("seed", *seed),
	)

	runCtx, cancel := context.WithTimeout(sigCtx, *duration)
	defer cancel()

	totals := &counters{}
	start := time.Now()

	errGrp, errCtx := errgroup.WithContext(runCtx)
	for workerID := 0; workerID < *workers; workerID++ {
		errGrp.Go(func() error {
			return runWorker(errCtx, workerID, d, symbols, addrs, totals, logger)
		})
	}
	if err := errGrp.Wait(); err != nil {
		return err
	}
	elapsed := time.Since(start)

	conserved, totalDrift, err := d.Audit(sigCtx)
	if err != nil {
		return fmt.Errorf("final audit failed: %w", err)
	}

	ops := totals.ops()
	fmt.Println("=== Soak Summary ===")
	fmt.Printf("  Elapsed:   %s\n", elapsed.Round(time.Millisecond))
	fmt.Printf("  Ops:       %d (%.0f/s)\n", ops, float64(ops)/elapsed.Seconds())
	fmt.Printf("  Mints:     %d\n", totals.mints.Load())
	fmt.Printf("  Burns:     %d\n", totals.burns.Load())
	fmt.Printf("  Freezes:   %d\n", totals.freezes.Load())
	fmt.Printf("  Thaws:     %d\n", totals.thaws.Load())
	fmt.Printf("  Conflicts: %d\n", totals.conflicts.Load())
	fmt.Printf("  Failures:  %d\n", totals.failures.Load())
	fmt.Printf("  Conserved: %t (drift %d)\n", conserved, totalDrift)

	if !conserved {
		return fmt.Errorf("conservation violated: total drift %d", totalDrift)
	}
	if failures := totals.failures.Load(); failures > 0 {
		return fmt.Errorf("%d ops failed unexpectedly", failures)
	}
	return nil
}

func main() {
	flag.Parse()

	var logger *zap.Logger
	var err error
	if *dev {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	if err := run(logger); err != nil {
		logger.Error("Soak failed", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("Soak passed")
}
