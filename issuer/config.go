package issuer

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/coinagedev/coinage/issuer/knobs"
	"github.com/coinagedev/coinage/issuer/middleware"
)

// Config is the configuration for the issuer daemon.
type Config struct {
	// Listen is the address the HTTP API binds to.
	Listen string `yaml:"listen"`
	// DetailedErrors controls whether internal error messages and panic
	// details reach clients. Leave off in production.
	DetailedErrors bool `yaml:"detailed_errors"`
	// AssetSlots caps how many assets this process will host. The compiled
	// slot pool bounds it further.
	AssetSlots int `yaml:"asset_slots"`
	// IdentityKey is the issuer's private key, hex encoded. Asset
	// identifiers derive from its public key, so a stable key keeps
	// identifiers stable across restarts. Empty generates an ephemeral key.
	IdentityKey string `yaml:"identity_key"`
	// AuditIntervalSeconds is the conservation audit cadence.
	AuditIntervalSeconds int `yaml:"audit_interval_seconds"`
	// ShutdownGraceSeconds bounds in-flight request draining on shutdown.
	ShutdownGraceSeconds int `yaml:"shutdown_grace_seconds"`
	// Log selects the daemon's log level and output format.
	Log LogConfig `yaml:"log"`
	// Knobs points at the live-tunable values file.
	Knobs knobs.Config `yaml:"knobs"`
	// RateLimit configures the per-client request limiter.
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	// StaticAssets are created by the startup task before the API reports
	// ready.
	StaticAssets []StaticAsset `yaml:"static_assets"`
}

type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
	// JSON switches the handler from text to JSON output.
	JSON bool `yaml:"json"`
}

type RateLimitConfig struct {
	Enabled       bool `yaml:"enabled"`
	WindowSeconds int  `yaml:"window_seconds"`
	MaxRequests   int  `yaml:"max_requests"`
	// Paths lists the request paths the limiter applies to.
	Paths []string `yaml:"paths"`
	// XffClientIpPosition locates the client IP inside X-Forwarded-For,
	// counted from the end.
	XffClientIpPosition int `yaml:"xff_client_ip_position"`
}

// StaticAsset describes an asset the daemon creates at boot.
type StaticAsset struct {
	Symbol      string `yaml:"symbol"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	IconURL     string `yaml:"icon_url"`
	Decimals    uint8  `yaml:"decimals"`
	Freezable   bool   `yaml:"freezable"`
	MaxSupply   uint64 `yaml:"max_supply"`
	// InitialMint seeds the vault with this amount right after creation.
	InitialMint uint64 `yaml:"initial_mint"`
}

func DefaultConfig() *Config {
	return &Config{
		Listen:               "127.0.0.1:8470",
		AssetSlots:           MaxAssetSlots,
		AuditIntervalSeconds: 60,
		ShutdownGraceSeconds: 10,
		Log:                  LogConfig{Level: "info"},
		RateLimit: RateLimitConfig{
			WindowSeconds: 60,
			MaxRequests:   600,
		},
	}
}

// LoadConfig reads the YAML config at path on top of the defaults. An empty
// path returns the validated defaults.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen address must not be empty")
	}
	if c.AssetSlots <= 0 || c.AssetSlots > MaxAssetSlots {
		return fmt.Errorf("asset_slots must be in 1..%d, got %d", MaxAssetSlots, c.AssetSlots)
	}
	if len(c.StaticAssets) > c.AssetSlots {
		return fmt.Errorf("%d static assets exceed the %d configured slots", len(c.StaticAssets), c.AssetSlots)
	}
	if c.AuditIntervalSeconds <= 0 {
		return fmt.Errorf("audit_interval_seconds must be positive, got %d", c.AuditIntervalSeconds)
	}
	if c.ShutdownGraceSeconds < 0 {
		return fmt.Errorf("shutdown_grace_seconds must not be negative, got %d", c.ShutdownGraceSeconds)
	}
	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	if c.RateLimit.Enabled {
		if c.RateLimit.WindowSeconds <= 0 {
			return fmt.Errorf("rate_limit.window_seconds must be positive, got %d", c.RateLimit.WindowSeconds)
		}
		if c.RateLimit.MaxRequests <= 0 {
			return fmt.Errorf("rate_limit.max_requests must be positive, got %d", c.RateLimit.MaxRequests)
		}
	}

	seen := make(map[string]bool, len(c.StaticAssets))
	for _, sa := range c.StaticAssets {
		if err := validateCreateAsset(CreateAssetParams{
			Symbol:      sa.Symbol,
			Name:        sa.Name,
			Description: sa.Description,
			IconURL:     sa.IconURL,
			Decimals:    sa.Decimals,
			Freezable:   sa.Freezable,
			MaxSupply:   sa.MaxSupply,
		}); err != nil {
			return fmt.Errorf("static asset %q: %w", sa.Symbol, err)
		}
		if seen[sa.Symbol] {
			return fmt.Errorf("static asset %q declared twice", sa.Symbol)
		}
		seen[sa.Symbol] = true
	}
	return nil
}

func (c *Config) AuditInterval() time.Duration {
	return time.Duration(c.AuditIntervalSeconds) * time.Second
}

func (c *Config) ShutdownGrace() time.Duration {
	return time.Duration(c.ShutdownGraceSeconds) * time.Second
}

// GetRateLimiterConfig implements middleware.RateLimiterConfigProvider.
// Returns nil when rate limiting is disabled.
func (c *Config) GetRateLimiterConfig() *middleware.RateLimiterConfig {
	if !c.RateLimit.Enabled {
		return nil
	}
	return &middleware.RateLimiterConfig{
		Window:              time.Duration(c.RateLimit.WindowSeconds) * time.Second,
		MaxRequests:         c.RateLimit.MaxRequests,
		Paths:               c.RateLimit.Paths,
		XffClientIpPosition: c.RateLimit.XffClientIpPosition,
	}
}
