package middleware

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"
	"unicode"

	"github.com/sethvargo/go-limiter"
	"github.com/sethvargo/go-limiter/memorystore"

	"github.com/coinagedev/coinage/issuer/errors"
	"github.com/coinagedev/coinage/issuer/knobs"
)

// sanitizeKey removes control characters and limits key length
func sanitizeKey(key string) string {
	key = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, key)

	const maxLength = 250
	if len(key) > maxLength {
		key = key[:maxLength]
	}

	return key
}

type Clock interface {
	Now() time.Time
}

type RateLimiterConfig struct {
	Window              time.Duration
	MaxRequests         int
	Paths               []string
	XffClientIpPosition int
}

type RateLimiterConfigProvider interface {
	GetRateLimiterConfig() *RateLimiterConfig
}

type RateLimiter struct {
	config *RateLimiterConfig
	store  MemoryStore
	clock  Clock
	knobs  knobs.Knobs
}

type RateLimiterOption func(*RateLimiter)

func WithClock(clock Clock) RateLimiterOption {
	return func(r *RateLimiter) {
		r.clock = clock
	}
}

func WithStore(store MemoryStore) RateLimiterOption {
	return func(r *RateLimiter) {
		r.store = store
	}
}

func WithKnobs(knobs knobs.Knobs) RateLimiterOption {
	return func(r *RateLimiter) {
		r.knobs = knobs
	}
}

type realClock struct{}

func (c *realClock) Now() time.Time {
	return time.Now()
}

type MemoryStore interface {
	Take(ctx context.Context, key string) (tokens uint64, remaining uint64, reset uint64, ok bool, err error)
}

type realMemoryStore struct {
	store limiter.Store
}

func (s *realMemoryStore) Take(ctx context.Context, key string) (tokens uint64, remaining uint64, reset uint64, ok bool, err error) {
	return s.store.Take(ctx, key)
}

func NewRateLimiter(configOrProvider any, opts ...RateLimiterOption) (*RateLimiter, error) {
	var config *RateLimiterConfig
	switch v := configOrProvider.(type) {
	case *RateLimiterConfig:
		config = v
	case RateLimiterConfigProvider:
		config = v.GetRateLimiterConfig()
	default:
		return nil, fmt.Errorf("invalid config type: %T", configOrProvider)
	}

	rateLimiter := &RateLimiter{
		config: config,
		clock:  &realClock{},
		knobs:  nil,
	}

	for _, opt := range opts {
		opt(rateLimiter)
	}

	interval := config.Window
	maxRequests := uint64(config.MaxRequests)
	// Knob values are in seconds and requests per window; negative values
	// would wrap when cast to uint64, so never set them negative.
	if rateLimiter.knobs != nil {
		interval = time.Duration(uint64(rateLimiter.knobs.GetValue(knobs.KnobRateLimitPeriod, config.Window.Seconds()))) * time.Second
		maxRequests = uint64(rateLimiter.knobs.GetValue(knobs.KnobRateLimitLimit, float64(config.MaxRequests)))
	}

	if rateLimiter.store == nil {
		defaultStore, err := memorystore.New(&memorystore.Config{
			Tokens:   maxRequests,
			Interval: interval,
		})
		if err != nil {
			return nil, err
		}

		rateLimiter.store = &realMemoryStore{store: defaultStore}
	}

	return rateLimiter, nil
}

func (r *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			path := req.URL.Path

			// Check if the path is enabled.
			if r.knobs != nil {
				pathEnabled := r.knobs.RolloutRandomTarget(knobs.KnobHTTPPathEnabled, &path, 100)
				if !pathEnabled {
					errors.WriteHTTP(req.Context(), w, errors.UnavailableErrorf("The service is currently unavailable, please try again later."), false)
					return
				}
			}

			shouldLimit := slices.Contains(r.config.Paths, path)
			if r.knobs != nil {
				// A value of > 0 means to enforce rate limiting for the given path.
				// A value of 0 means to not enforce the limit for the given path.
				// Any other value means use the default configuration.
				pathLimitEnabled := int(r.knobs.GetValueTarget(knobs.KnobRateLimitPaths, &path, -1))
				if pathLimitEnabled > 0 {
					shouldLimit = true
				} else if pathLimitEnabled == 0 {
					shouldLimit = false
				}
			}

			if !shouldLimit {
				next.ServeHTTP(w, req)
				return
			}

			ip, err := ClientIPFromRequest(req, r.config.XffClientIpPosition)
			if err != nil {
				next.ServeHTTP(w, req)
				return
			}

			key := sanitizeKey(fmt.Sprintf("rl:%s:%s", path, ip))
			_, _, _, ok, err := r.store.Take(req.Context(), key)
			if err != nil {
				errors.WriteHTTP(req.Context(), w, fmt.Errorf("rate limit error: %w", err), false)
				return
			}
			if !ok {
				errors.WriteHTTP(req.Context(), w, errors.RateLimitExceededError(), false)
				return
			}

			next.ServeHTTP(w, req)
		})
	}
}
