package issuer

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestLoadConfig(t *testing.T) {
	path := writeConfigFile(t, `
listen: "127.0.0.1:9999"
detailed_errors: true
asset_slots: 8
audit_interval_seconds: 15
shutdown_grace_seconds: 5
log:
  level: debug
  json: true
rate_limit:
  enabled: true
  window_seconds: 30
  max_requests: 10
  paths:
    - /v1/assets
static_assets:
  - symbol: USD
    name: US Dollar
    description: boot asset
    decimals: 2
    freezable: true
    initial_mint: 100000
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9999", cfg.Listen)
	assert.True(t, cfg.DetailedErrors)
	assert.Equal(t, 8, cfg.AssetSlots)
	assert.Equal(t, 15*time.Second, cfg.AuditInterval())
	assert.Equal(t, 5*time.Second, cfg.ShutdownGrace())
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.JSON)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, []string{"/v1/assets"}, cfg.RateLimit.Paths)
	require.Len(t, cfg.StaticAssets, 1)
	assert.Equal(t, "USD", cfg.StaticAssets[0].Symbol)
	assert.Equal(t, uint64(100_000), cfg.StaticAssets[0].InitialMint)
}

func TestLoadConfig_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Listen, cfg.Listen)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.ErrorContains(t, err, "failed to read config")
}

func TestLoadConfig_MalformedYAML(t *testing.T) {
	path := writeConfigFile(t, "listen: [unclosed")
	_, err := LoadConfig(path)
	require.ErrorContains(t, err, "failed to parse config")
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"empty listen", func(c *Config) { c.Listen = "" }, "listen address"},
		{"zero slots", func(c *Config) { c.AssetSlots = 0 }, "asset_slots"},
		{"too many slots", func(c *Config) { c.AssetSlots = MaxAssetSlots + 1 }, "asset_slots"},
		{"zero audit interval", func(c *Config) { c.AuditIntervalSeconds = 0 }, "audit_interval_seconds"},
		{"negative grace", func(c *Config) { c.ShutdownGraceSeconds = -1 }, "shutdown_grace_seconds"},
		{"unknown log level", func(c *Config) { c.Log.Level = "loud" }, "unknown log level"},
		{
			"rate limit without window",
			func(c *Config) { c.RateLimit.Enabled = true; c.RateLimit.WindowSeconds = 0 },
			"rate_limit.window_seconds",
		},
		{
			"rate limit without max requests",
			func(c *Config) { c.RateLimit.Enabled = true; c.RateLimit.MaxRequests = 0 },
			"rate_limit.max_requests",
		},
		{
			"invalid static asset",
			func(c *Config) { c.StaticAssets = []StaticAsset{{Symbol: "usd", Name: "US Dollar"}} },
			`static asset "usd"`,
		},
		{
			"duplicate static assets",
			func(c *Config) {
				c.StaticAssets = []StaticAsset{
					{Symbol: "USD", Name: "US Dollar"},
					{Symbol: "USD", Name: "US Dollar"},
				}
			},
			"declared twice",
		},
		{
			"more static assets than slots",
			func(c *Config) {
				c.AssetSlots = 1
				c.StaticAssets = []StaticAsset{
					{Symbol: "USD", Name: "US Dollar"},
					{Symbol: "EUR", Name: "Euro asset"},
				}
			},
			"static assets exceed",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			require.ErrorContains(t, cfg.Validate(), tc.wantErr)
		})
	}
}

func TestGetRateLimiterConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Nil(t, cfg.GetRateLimiterConfig())

	cfg.RateLimit.Enabled = true
	cfg.RateLimit.WindowSeconds = 30
	cfg.RateLimit.MaxRequests = 10
	cfg.RateLimit.Paths = []string{"/v1/assets"}

	rlc := cfg.GetRateLimiterConfig()
	require.NotNil(t, rlc)
	assert.Equal(t, 30*time.Second, rlc.Window)
	assert.Equal(t, 10, rlc.MaxRequests)
	assert.Equal(t, []string{"/v1/assets"}, rlc.Paths)
}
