package issuer

import (
	"context"
	"fmt"

	"github.com/coinagedev/coinage/common/logging"
)

// StaticAssetBootstrap returns a startup closure that creates every
// statically configured asset and mints its initial supply. The closure is
// idempotent so the startup task can retry after a partial failure without
// duplicating assets or supply. Returns nil when no static assets are
// configured.
func StaticAssetBootstrap(config *Config, service *Service) func(context.Context) error {
	if len(config.StaticAssets) == 0 {
		return nil
	}
	return func(ctx context.Context) error {
		logger := logging.GetLoggerFromContext(ctx)
		for _, static := range config.StaticAssets {
			info, err := service.Asset(ctx, static.Symbol)
			if err != nil {
				created, createErr := service.CreateAsset(ctx, CreateAssetParams{
					Symbol:      static.Symbol,
					Name:        static.Name,
					Description: static.Description,
					IconURL:     static.IconURL,
					Decimals:    static.Decimals,
					Freezable:   static.Freezable,
					MaxSupply:   static.MaxSupply,
				})
				if createErr != nil {
					return fmt.Errorf("failed to create static asset %q: %w", static.Symbol, createErr)
				}
				info = created
			}
			// A previous attempt may have created the asset but died
			// before the initial mint. Supply only moves through this
			// service, so zero supply means the mint is still owed.
			if static.InitialMint > 0 && info.TotalSupply == 0 {
				if _, err := service.Mint(ctx, static.Symbol, static.InitialMint); err != nil {
					return fmt.Errorf("failed to mint initial supply of %q: %w", static.Symbol, err)
				}
			}
			logger.Info("Static asset ready", "symbol", static.Symbol, "initial_mint", static.InitialMint)
		}
		return nil
	}
}
