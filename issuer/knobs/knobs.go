package knobs

import (
	"context"
	"crypto/md5"
	"fmt"
	"log/slog"
	"math/big"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/goccy/go-yaml"
	"github.com/google/uuid"
)

// Knob names wired into the issuer.
const (
	// KnobMintMaxAmount soft-caps the amount of a single mint call. Zero
	// disables the cap.
	KnobMintMaxAmount = "issuer.mint.max_amount"
	// KnobAuditIntervalSeconds overrides the conservation audit cadence.
	KnobAuditIntervalSeconds = "issuer.audit.interval_seconds"
	// KnobHTTPMaxBodyBytes bounds the request bodies the API accepts.
	KnobHTTPMaxBodyBytes = "issuer.http.max_body_bytes"
	// KnobDebugSampling is the percentage of requests logged at debug.
	KnobDebugSampling = "issuer.log.debug_sample"
	// KnobRateLimitPeriod and KnobRateLimitLimit override the static rate
	// limiter window (seconds) and request budget.
	KnobRateLimitPeriod = "issuer.ratelimit.period"
	KnobRateLimitLimit  = "issuer.ratelimit.limit"
	// KnobRateLimitPaths toggles rate limiting per request path. >0 forces
	// the limit on, 0 forces it off, anything else falls through to the
	// static configuration.
	KnobRateLimitPaths = "issuer.ratelimit.paths"
	// KnobHTTPPathEnabled is the rollout percentage per request path. Paths
	// not listed default to enabled.
	KnobHTTPPathEnabled = "issuer.http.path_enabled"
)

type Config struct {
	Enabled *bool  `yaml:"enabled"`
	File    string `yaml:"file"`
}

func (c *Config) IsEnabled() bool {
	return c.Enabled != nil && *c.Enabled
}

// GetMintMaxAmount resolves the per-call mint cap for one asset. A value
// targeted at the symbol wins over the untargeted value; zero means no cap.
func GetMintMaxAmount(k Knobs, symbol string) uint64 {
	global := k.GetValue(KnobMintMaxAmount, 0)
	return uint64(k.GetValueTarget(KnobMintMaxAmount, &symbol, global))
}

func GetMaxBodyBytes(k Knobs) int64 {
	return int64(k.GetValue(KnobHTTPMaxBodyBytes, 1<<20))
}

func GetAuditInterval(k Knobs, fallback time.Duration) time.Duration {
	secs := k.GetValue(KnobAuditIntervalSeconds, fallback.Seconds())
	if secs <= 0 {
		return fallback
	}
	return time.Duration(secs * float64(time.Second))
}

// Knobs represents a collection of feature flags and their values
type Knobs interface {
	GetValue(knob string, defaultValue float64) float64
	GetValueTarget(knob string, target *string, defaultValue float64) float64
	RolloutRandomTarget(knob string, target *string, defaultValue float64) bool
	RolloutRandom(knob string, defaultValue float64) bool
	RolloutUUIDTarget(knob string, id uuid.UUID, target *string, defaultValue float64) bool
	RolloutUUID(knob string, id uuid.UUID, defaultValue float64) bool
}

type KnobsImpl struct {
	inner  *sync.RWMutex
	values map[string]float64
	logger *slog.Logger
}

// New creates a Knobs instance backed by the YAML file at path and keeps
// it fresh until ctx is cancelled: the file's directory is watched and the
// values are swapped whenever the file is written or atomically replaced.
// The initial load must succeed so all knobs are in place before the first
// request.
func New(ctx context.Context, logger *slog.Logger, path string) (*KnobsImpl, error) {
	k := &KnobsImpl{
		inner:  &sync.RWMutex{},
		values: make(map[string]float64),
		logger: logger,
	}

	if err := k.loadFile(path); err != nil {
		return nil, fmt.Errorf("failed to load knobs: %w", err)
	}
	if err := k.watchAndUpdate(ctx, path); err != nil {
		return nil, fmt.Errorf("failed to watch knobs: %w", err)
	}

	return k, nil
}

func keyString(knob string, target *string) string {
	if target != nil {
		return fmt.Sprintf("%s@%s", knob, *target)
	}
	return knob
}

// GetValueTarget retrieves a knob value for a specific target
func (k KnobsImpl) GetValueTarget(knob string, target *string, defaultValue float64) float64 {
	k.inner.RLock()
	defer k.inner.RUnlock()

	key := keyString(knob, target)

	if value, exists := k.values[key]; exists {
		return value
	}
	return defaultValue
}

// GetValue retrieves a knob value without a target
func (k KnobsImpl) GetValue(knob string, defaultValue float64) float64 {
	return k.GetValueTarget(knob, nil, defaultValue)
}

// RolloutRandomTarget decides a rollout by coin flip. The configured value
// (or defaultValue when unset) is a percentage in 0-100; results differ
// call to call, unlike RolloutUUIDTarget.
func (k KnobsImpl) RolloutRandomTarget(knob string, target *string, defaultValue float64) bool {
	value := defaultValue
	if v := k.GetValueTarget(knob, target, defaultValue); v != defaultValue {
		value = v
	}
	return rand.Float64() < value/100.0
}

// RolloutRandom decides a rollout by coin flip without a target
func (k KnobsImpl) RolloutRandom(knob string, defaultValue float64) bool {
	return k.RolloutRandomTarget(knob, nil, defaultValue)
}

// RolloutUUIDTarget decides a rollout deterministically from an id: the
// knob name is MD5-hashed into a salt, XORed with the UUID, and the result
// mod 100000 is compared against value * 1000. The same knob and id always
// decide the same way, ids spread uniformly across percentages, and
// decisions survive restarts.
func (k KnobsImpl) RolloutUUIDTarget(knob string, id uuid.UUID, target *string, defaultValue float64) bool {
	value := defaultValue
	if v := k.GetValueTarget(knob, target, defaultValue); v != defaultValue {
		value = v
	}

	// Calculate salt using MD5 (128 bits)
	hash := md5.Sum([]byte(knob))
	salt := new(big.Int).SetBytes(hash[:])

	// UUID as big.Int (128 bits)
	uuidInt := new(big.Int).SetBytes(id[:])

	// XOR the UUID with the salt
	salted := new(big.Int).Xor(uuidInt, salt)

	// salted % 100000 < value * 1000
	mod := new(big.Int).Mod(salted, big.NewInt(100000))
	threshold := int64(value * 1000)
	return mod.Int64() < threshold
}

// RolloutUUID decides a rollout deterministically from an id without a target
func (k KnobsImpl) RolloutUUID(knob string, id uuid.UUID, defaultValue float64) bool {
	return k.RolloutUUIDTarget(knob, id, nil, defaultValue)
}

// watchAndUpdate watches the file's parent directory rather than the file
// itself, so atomic replace-by-rename (editors, configmap mounts) keeps
// working. Reload failures keep the previous values.
func (k KnobsImpl) watchAndUpdate(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		_ = watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(path) {
					continue
				}
				if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
					continue
				}
				if err := k.loadFile(path); err != nil {
					k.logger.Warn("Failed to reload knobs, keeping previous values", "error", err)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				k.logger.Warn("Knobs watcher error", "error", err)
			}
		}
	}()

	return nil
}

// loadFile parses the knobs YAML. Top-level entries are either plain
// numbers ("knob: 100.0") or target maps ("knob:\n  TARGET: 50.0"), the
// latter keyed as "knob@target".
func (k KnobsImpl) loadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var parsed map[string]any
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("failed to parse knobs file %s: %w", path, err)
	}

	values := make(map[string]float64, len(parsed))
	for name, value := range parsed {
		if f, ok := asFloat(value); ok {
			values[name] = f
			continue
		}
		if targets, ok := value.(map[string]any); ok {
			for target, targetValue := range targets {
				f, ok := asFloat(targetValue)
				if !ok {
					k.logger.Warn("Unknown knob value type", "name", name, "target", target, "value", targetValue)
					continue
				}
				values[fmt.Sprintf("%s@%s", name, target)] = f
			}
			continue
		}
		k.logger.Warn("Unknown knob value type", "name", name, "value", value)
	}

	k.inner.Lock()
	defer k.inner.Unlock()
	clear(k.values)
	for key, value := range values {
		k.values[key] = value
	}
	k.logger.Info("Updated knobs", "knobs", k.values)
	return nil
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

type fixedKnobs struct {
	values map[string]float64
}

// NewFixedKnobs creates a new Knobs instance that simply maps fixed strings to
// values.  This is useful for testing and development purposes and almost
// certainly should not be used in production.
func NewFixedKnobs(values map[string]float64) Knobs {
	return &fixedKnobs{values: values}
}

func (m fixedKnobs) GetValueTarget(knob string, target *string, defaultValue float64) float64 {
	key := knob
	if target != nil {
		key = fmt.Sprintf("%s@%s", knob, *target)
	}

	if value, exists := m.values[key]; exists {
		return value
	}
	return defaultValue
}

func (m fixedKnobs) GetValue(knob string, defaultValue float64) float64 {
	return m.GetValueTarget(knob, nil, defaultValue)
}

func (m fixedKnobs) RolloutRandomTarget(knob string, target *string, defaultValue float64) bool {
	value := m.GetValueTarget(knob, target, defaultValue)
	return value > 0
}

func (m fixedKnobs) RolloutRandom(knob string, defaultValue float64) bool {
	return m.RolloutRandomTarget(knob, nil, defaultValue)
}

func (m fixedKnobs) RolloutUUIDTarget(knob string, id uuid.UUID, target *string, defaultValue float64) bool {
	value := m.GetValueTarget(knob, target, defaultValue)
	return value > 0
}

func (m fixedKnobs) RolloutUUID(knob string, id uuid.UUID, defaultValue float64) bool {
	return m.RolloutUUIDTarget(knob, id, nil, defaultValue)
}
